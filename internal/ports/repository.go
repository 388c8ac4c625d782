package ports

import (
	"context"

	"binanceCollector/internal/domain"
)

// CandleRepository persists candlesticks.
type CandleRepository interface {
	// EnsureCandleTable creates the candle table if it does not exist.
	EnsureCandleTable(ctx context.Context) error
	// InsertCandles appends one row per candle. Overlapping windows produce duplicates.
	InsertCandles(ctx context.Context, candles []domain.Candle) error
	// ListCandles returns every stored candle in insertion order.
	ListCandles(ctx context.Context) ([]domain.Candle, error)
}

// TradeRepository persists public trades.
type TradeRepository interface {
	// EnsureTradeTable creates the trade table if it does not exist.
	EnsureTradeTable(ctx context.Context) error
	// InsertTrades appends one row per trade. Overlapping sets produce duplicates.
	InsertTrades(ctx context.Context, trades []domain.Trade) error
	// ListTrades returns every stored trade in insertion order.
	ListTrades(ctx context.Context) ([]domain.Trade, error)
}

// LastCheckRepository stores polling watermarks.
type LastCheckRepository interface {
	// EnsureLastCheckTable creates the watermark table if it does not exist.
	EnsureLastCheckTable(ctx context.Context) error
	// UpsertLastCheck replaces the row for the check's key. StartDate is set by the store.
	UpsertLastCheck(ctx context.Context, check domain.LastCheck) error
	// GetLastCheck returns the watermark for a key, or nil, nil when absent.
	GetLastCheck(ctx context.Context, exchange, pair, duration, table string) (*domain.LastCheck, error)
}
