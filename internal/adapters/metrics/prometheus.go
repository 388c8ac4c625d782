package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"binanceCollector/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements ports.Metrics using Prometheus.
type Recorder struct {
	registry *prometheus.Registry
	cycles   *prometheus.CounterVec
	failures *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_poll_cycles_total",
				Help: "Total number of completed polling cycles",
			},
			[]string{"task"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_poll_failures_total",
				Help: "Total number of polling cycles that ended in an error",
			},
			[]string{"task"},
		),
		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_rows_written_total",
				Help: "Total number of rows appended per table",
			},
			[]string{"table"},
		),
	}
}

// RecordCycle counts one polling cycle.
func (r *Recorder) RecordCycle(task string) {
	r.cycles.WithLabelValues(task).Inc()
}

// RecordFailure counts one failed polling cycle.
func (r *Recorder) RecordFailure(task string) {
	r.failures.WithLabelValues(task).Inc()
}

// RecordRows counts rows appended to a table.
func (r *Recorder) RecordRows(table string, n int) {
	r.rows.WithLabelValues(table).Add(float64(n))
}

// Handler exposes the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger ports.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info(ctx, "Metrics endpoint listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, err, "Metrics endpoint stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordCycle(string)     {}
func (Nop) RecordFailure(string)   {}
func (Nop) RecordRows(string, int) {}
