package app

import (
	"context"
	"fmt"

	"binanceCollector/internal/domain"
	"binanceCollector/internal/ports"
)

// CandleRefresher fetches the latest candles for one pair/interval and appends them.
type CandleRefresher struct {
	exchange ports.ExchangeClient
	repo     ports.CandleRepository
	logger   ports.Logger
	metrics  ports.Metrics
	pair     string
	interval string
}

// CandleRefresherConfig holds the dependencies of a CandleRefresher.
type CandleRefresherConfig struct {
	Exchange ports.ExchangeClient
	Repo     ports.CandleRepository
	Logger   ports.Logger
	Metrics  ports.Metrics
	Pair     string
	Interval string
}

// NewCandleRefresher creates a new candle refresh step.
func NewCandleRefresher(cfg CandleRefresherConfig) (*CandleRefresher, error) {
	if cfg.Exchange == nil || cfg.Repo == nil || cfg.Logger == nil || cfg.Metrics == nil {
		return nil, fmt.Errorf("missing required dependencies for CandleRefresher")
	}
	if cfg.Pair == "" || cfg.Interval == "" {
		return nil, fmt.Errorf("pair and interval must be set for CandleRefresher")
	}
	return &CandleRefresher{
		exchange: cfg.Exchange,
		repo:     cfg.Repo,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		pair:     cfg.Pair,
		interval: cfg.Interval,
	}, nil
}

// Refresh runs one candle cycle.
func (r *CandleRefresher) Refresh(ctx context.Context) error {
	candles, err := r.exchange.FetchCandles(ctx, r.pair, r.interval)
	if err != nil {
		return fmt.Errorf("fetch candles for %s %s: %w", r.pair, r.interval, err)
	}
	if len(candles) == 0 {
		r.logger.Debug(ctx, "No candlestick data returned", map[string]interface{}{"pair": r.pair, "interval": r.interval})
		return nil
	}

	if err := r.repo.InsertCandles(ctx, candles); err != nil {
		return fmt.Errorf("store candles for %s %s: %w", r.pair, r.interval, err)
	}
	r.metrics.RecordRows(domain.CandleTable, len(candles))
	r.logger.Info(ctx, "New candlestick data inserted.", map[string]interface{}{"pair": r.pair, "interval": r.interval, "count": len(candles)})
	return nil
}

// TradeRefresher fetches recent trades for one pair, appends them and moves the watermark.
type TradeRefresher struct {
	exchange     ports.ExchangeClient
	trades       ports.TradeRepository
	checks       ports.LastCheckRepository
	logger       ports.Logger
	metrics      ports.Metrics
	exchangeName string
	pair         string
}

// TradeRefresherConfig holds the dependencies of a TradeRefresher.
type TradeRefresherConfig struct {
	Exchange     ports.ExchangeClient
	Trades       ports.TradeRepository
	Checks       ports.LastCheckRepository
	Logger       ports.Logger
	Metrics      ports.Metrics
	ExchangeName string // recorded in last_checks.exchange
	Pair         string
}

// NewTradeRefresher creates a new trade refresh step.
func NewTradeRefresher(cfg TradeRefresherConfig) (*TradeRefresher, error) {
	if cfg.Exchange == nil || cfg.Trades == nil || cfg.Checks == nil || cfg.Logger == nil || cfg.Metrics == nil {
		return nil, fmt.Errorf("missing required dependencies for TradeRefresher")
	}
	if cfg.ExchangeName == "" || cfg.Pair == "" {
		return nil, fmt.Errorf("exchange name and pair must be set for TradeRefresher")
	}
	return &TradeRefresher{
		exchange:     cfg.Exchange,
		trades:       cfg.Trades,
		checks:       cfg.Checks,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		exchangeName: cfg.ExchangeName,
		pair:         cfg.Pair,
	}, nil
}

// Refresh runs one trade cycle. The watermark takes the last trade of the page.
func (r *TradeRefresher) Refresh(ctx context.Context) error {
	// TODO: pass the stored watermark as fromId once incremental polling is wanted.
	trades, err := r.exchange.FetchTrades(ctx, r.pair)
	if err != nil {
		return fmt.Errorf("fetch trades for %s: %w", r.pair, err)
	}
	if len(trades) == 0 {
		r.logger.Debug(ctx, "No trade data returned", map[string]interface{}{"pair": r.pair})
		return nil
	}

	if err := r.trades.InsertTrades(ctx, trades); err != nil {
		return fmt.Errorf("store trades for %s: %w", r.pair, err)
	}
	r.metrics.RecordRows(domain.TradeTable, len(trades))

	last := trades[len(trades)-1]
	err = r.checks.UpsertLastCheck(ctx, domain.LastCheck{
		Exchange:    r.exchangeName,
		TradingPair: r.pair,
		Duration:    domain.NoDuration,
		TableName:   domain.TradeTable,
		LastCheck:   last.Time,
		LastID:      last.ID,
	})
	if err != nil {
		return fmt.Errorf("update last check for %s: %w", r.pair, err)
	}

	r.logger.Info(ctx, "New trade data inserted.", map[string]interface{}{"pair": r.pair, "count": len(trades), "lastID": last.ID})
	return nil
}
