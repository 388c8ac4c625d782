package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binanceCollector/internal/ports"
)

// DefaultPollInterval is the pause between the end of one cycle and the start of the next.
const DefaultPollInterval = 300 * time.Second

// StepFunc performs one polling cycle.
type StepFunc func(ctx context.Context) error

// SystemClock implements ports.Clock with the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller runs a step forever: run it, log any failure, wait Interval, repeat.
// The wait always starts after the step has finished, so cycles drift by the step's duration.
type Poller struct {
	name     string
	interval time.Duration
	step     StepFunc
	clock    ports.Clock
	logger   ports.Logger
	metrics  ports.Metrics
}

// PollerConfig holds the dependencies of a Poller.
type PollerConfig struct {
	Name     string
	Interval time.Duration // defaults to DefaultPollInterval
	Step     StepFunc
	Clock    ports.Clock // defaults to SystemClock
	Logger   ports.Logger
	Metrics  ports.Metrics
}

// NewPoller creates a new polling task.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Step == nil || cfg.Logger == nil || cfg.Metrics == nil {
		return nil, fmt.Errorf("missing required dependencies for Poller")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("poller name must be set")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("poller interval cannot be negative")
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	return &Poller{
		name:     cfg.Name,
		interval: cfg.Interval,
		step:     cfg.Step,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Start runs the poller until SIGINT/SIGTERM or until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			p.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String(), "task": p.name})
			cancel()
		case <-ctx.Done():
		}
	}()

	return p.Run(ctx)
}

// Run executes cycles until ctx is cancelled. Step errors never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	fields := map[string]interface{}{"task": p.name, "interval": p.interval.String()}
	p.logger.Info(ctx, "Poller started", fields)

	for cycle := 1; ; cycle++ {
		if ctx.Err() != nil {
			break
		}

		if err := p.runStep(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.metrics.RecordFailure(p.name)
			p.logger.Error(ctx, err, "An error occurred", map[string]interface{}{"task": p.name, "cycle": cycle})
		}
		p.metrics.RecordCycle(p.name)

		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			break
		}
	}

	p.logger.Info(ctx, "Poller stopped", fields)
	return nil
}

// runStep calls the step, turning a panic into an error so the loop survives it.
func (p *Poller) runStep(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s step panicked: %v", p.name, r)
		}
	}()
	return p.step(ctx)
}
