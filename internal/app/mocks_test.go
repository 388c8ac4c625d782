package app

import (
	"context"
	"sync"
	"time"

	"binanceCollector/internal/domain"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockMetrics struct {
	cycles   map[string]int
	failures map[string]int
	rows     map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{cycles: map[string]int{}, failures: map[string]int{}, rows: map[string]int{}}
}

func (m *mockMetrics) RecordCycle(task string)        { m.cycles[task]++ }
func (m *mockMetrics) RecordFailure(task string)      { m.failures[task]++ }
func (m *mockMetrics) RecordRows(table string, n int) { m.rows[table] += n }

// fakeClock never blocks; it cancels the run after maxSleeps sleeps.
type fakeClock struct {
	now       time.Time
	sleeps    []time.Duration
	maxSleeps int
	cancel    context.CancelFunc
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	if len(f.sleeps) >= f.maxSleeps {
		f.cancel()
		return context.Canceled
	}
	return nil
}

type mockExchange struct {
	candles     [][]domain.Candle // one page per call; the last page repeats
	candlesErr  error
	trades      [][]domain.Trade
	tradesErr   error
	candleCalls int
	tradeCalls  int
}

func (m *mockExchange) ListBaseAssets(ctx context.Context) ([]string, error) { return nil, nil }

func (m *mockExchange) GetDepth(ctx context.Context, side domain.DepthSide, pair string) ([]domain.PriceLevel, error) {
	return nil, nil
}

func (m *mockExchange) GetOrderBook(ctx context.Context, pair string, limit int) (*domain.OrderBook, error) {
	return &domain.OrderBook{}, nil
}

func (m *mockExchange) FetchCandles(ctx context.Context, pair, interval string) ([]domain.Candle, error) {
	m.candleCalls++
	if m.candlesErr != nil {
		return nil, m.candlesErr
	}
	if len(m.candles) == 0 {
		return nil, nil
	}
	idx := m.candleCalls - 1
	if idx >= len(m.candles) {
		idx = len(m.candles) - 1
	}
	return m.candles[idx], nil
}

func (m *mockExchange) FetchTrades(ctx context.Context, pair string) ([]domain.Trade, error) {
	m.tradeCalls++
	if m.tradesErr != nil {
		return nil, m.tradesErr
	}
	if len(m.trades) == 0 {
		return nil, nil
	}
	idx := m.tradeCalls - 1
	if idx >= len(m.trades) {
		idx = len(m.trades) - 1
	}
	return m.trades[idx], nil
}

func (m *mockExchange) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderInfo, error) {
	return nil, nil
}

func (m *mockExchange) CancelOrder(ctx context.Context, pair string, orderID int64) (bool, error) {
	return false, nil
}

type mockCandleRepo struct {
	rows      []domain.Candle
	insertErr error
}

func (m *mockCandleRepo) EnsureCandleTable(ctx context.Context) error { return nil }

func (m *mockCandleRepo) InsertCandles(ctx context.Context, candles []domain.Candle) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, candles...)
	return nil
}

func (m *mockCandleRepo) ListCandles(ctx context.Context) ([]domain.Candle, error) { return m.rows, nil }

type mockTradeStore struct {
	rows      []domain.Trade
	checks    map[string]domain.LastCheck
	insertErr error
	upsertErr error
}

func newMockTradeStore() *mockTradeStore {
	return &mockTradeStore{checks: map[string]domain.LastCheck{}}
}

func (m *mockTradeStore) EnsureTradeTable(ctx context.Context) error { return nil }

func (m *mockTradeStore) InsertTrades(ctx context.Context, trades []domain.Trade) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, trades...)
	return nil
}

func (m *mockTradeStore) ListTrades(ctx context.Context) ([]domain.Trade, error) { return m.rows, nil }

func (m *mockTradeStore) EnsureLastCheckTable(ctx context.Context) error { return nil }

func (m *mockTradeStore) UpsertLastCheck(ctx context.Context, check domain.LastCheck) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.checks[check.Exchange+"|"+check.TradingPair+"|"+check.Duration+"|"+check.TableName] = check
	return nil
}

func (m *mockTradeStore) GetLastCheck(ctx context.Context, exchange, pair, duration, table string) (*domain.LastCheck, error) {
	c, ok := m.checks[exchange+"|"+pair+"|"+duration+"|"+table]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
