package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"binanceCollector/internal/domain"
	"binanceCollector/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestStore creates a store backed by temporary database files.
func setupTestStore(t *testing.T, now func() time.Time) *Store {
	t.Helper()

	tmpDir := t.TempDir()
	store, err := NewStore(Config{
		CandleDBPath: filepath.Join(tmpDir, "main.db"),
		TradeDBPath:  filepath.Join(tmpDir, "trade_data.db"),
		Logger:       &mockLogger{},
		Now:          now,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.EnsureCandleTable(ctx))
	require.NoError(t, store.EnsureTradeTable(ctx))
	require.NoError(t, store.EnsureLastCheckTable(ctx))
	return store
}

func openRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewStore_RequiresLogger(t *testing.T) {
	_, err := NewStore(Config{})
	assert.Error(t, err)
}

func TestStore_EnsureTablesIdempotent(t *testing.T) {
	store := setupTestStore(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.NoError(t, store.EnsureCandleTable(ctx))
		assert.NoError(t, store.EnsureTradeTable(ctx))
		assert.NoError(t, store.EnsureLastCheckTable(ctx))
	}
}

func TestStore_TablesLiveInSeparateFiles(t *testing.T) {
	store := setupTestStore(t, nil)

	var name string
	err := openRaw(t, store.candleDBPath).
		QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, TradeTable).Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = openRaw(t, store.tradeDBPath).
		QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, LastCheckTable).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, LastCheckTable, name)
}

func TestStore_InsertCandles_RoundTrip(t *testing.T) {
	store := setupTestStore(t, nil)
	ctx := context.Background()

	candle := domain.Candle{OpenTime: 1700000000000, Open: 100.0, High: 110.0, Low: 95.0, Close: 105.0, Volume: 12.5}
	require.NoError(t, store.InsertCandles(ctx, []domain.Candle{candle}))

	// Check the on-disk column mapping, not just the reader.
	var date int64
	var high, low, open, cls, volume float64
	err := openRaw(t, store.candleDBPath).
		QueryRow(`SELECT date, high, low, open, close, volume FROM candlestick_data`).
		Scan(&date, &high, &low, &open, &cls, &volume)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), date)
	assert.Equal(t, 110.0, high)
	assert.Equal(t, 95.0, low)
	assert.Equal(t, 100.0, open)
	assert.Equal(t, 105.0, cls)
	assert.Equal(t, 12.5, volume)

	candles, err := store.ListCandles(ctx)
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, candle, candles[0])
}

func TestStore_InsertCandles_Duplicates(t *testing.T) {
	store := setupTestStore(t, nil)
	ctx := context.Background()

	batch := []domain.Candle{
		{OpenTime: 1, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{OpenTime: 2, Open: 1.5, High: 2, Low: 1, Close: 1.8, Volume: 11},
	}
	require.NoError(t, store.InsertCandles(ctx, batch))
	require.NoError(t, store.InsertCandles(ctx, batch))

	candles, err := store.ListCandles(ctx)
	require.NoError(t, err)
	assert.Len(t, candles, 4)
}

func TestStore_InsertTrades_OverlapProducesDuplicates(t *testing.T) {
	store := setupTestStore(t, nil)
	ctx := context.Background()

	first := []domain.Trade{
		{ID: 10, Price: 100.5, Quantity: 0.1, Time: 1700000000000, IsBuyerMaker: true},
		{ID: 11, Price: 100.6, Quantity: 0.2, Time: 1700000000100, IsBuyerMaker: false},
	}
	second := []domain.Trade{
		{ID: 11, Price: 100.6, Quantity: 0.2, Time: 1700000000100, IsBuyerMaker: false},
		{ID: 12, Price: 100.7, Quantity: 0.3, Time: 1700000000200, IsBuyerMaker: true},
	}
	require.NoError(t, store.InsertTrades(ctx, first))
	require.NoError(t, store.InsertTrades(ctx, second))

	trades, err := store.ListTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 4)

	var count int
	err = openRaw(t, store.tradeDBPath).
		QueryRow(`SELECT COUNT(*) FROM trade_data WHERE uuid = '11'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, first[0], trades[0])
	assert.Equal(t, second[1], trades[3])
}

func TestStore_InsertTrades_CreatesTable(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(Config{
		CandleDBPath: filepath.Join(tmpDir, "main.db"),
		TradeDBPath:  filepath.Join(tmpDir, "nested", "trade_data.db"),
		Logger:       &mockLogger{},
	})
	require.NoError(t, err)

	err = store.InsertTrades(context.Background(), []domain.Trade{{ID: 1, Price: 1, Quantity: 1, Time: 1}})
	require.NoError(t, err)

	trades, err := store.ListTrades(context.Background())
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestStore_UpsertLastCheck(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	store := setupTestStore(t, func() time.Time { return clock })
	ctx := context.Background()

	check := domain.LastCheck{
		Exchange:    "Binance",
		TradingPair: "BTCUSDT",
		Duration:    "N/A",
		TableName:   TradeTable,
		LastCheck:   1700000000000,
		LastID:      100,
	}
	require.NoError(t, store.UpsertLastCheck(ctx, check))

	clock = clock.Add(300 * time.Second)
	check.LastCheck = 1700000300000
	check.LastID = 200
	require.NoError(t, store.UpsertLastCheck(ctx, check))

	var count int
	err := openRaw(t, store.tradeDBPath).
		QueryRow(`SELECT COUNT(*) FROM last_checks WHERE exchange = ? AND trading_pair = ? AND duration = ? AND table_name = ?`,
			"Binance", "BTCUSDT", "N/A", TradeTable).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.GetLastCheck(ctx, "Binance", "BTCUSDT", "N/A", TradeTable)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1700000300000), got.LastCheck)
	assert.Equal(t, int64(200), got.LastID)
	assert.Equal(t, int64(1700000300), got.StartDate)
}

func TestStore_UpsertLastCheck_DistinctKeys(t *testing.T) {
	store := setupTestStore(t, nil)
	ctx := context.Background()

	for _, pair := range []string{"BTCUSDT", "ETHUSDT"} {
		err := store.UpsertLastCheck(ctx, domain.LastCheck{
			Exchange: "Binance", TradingPair: pair, Duration: "N/A", TableName: TradeTable, LastCheck: 1, LastID: 1,
		})
		require.NoError(t, err)
	}

	count, err := store.CountLastChecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_GetLastCheck_Missing(t *testing.T) {
	store := setupTestStore(t, nil)

	got, err := store.GetLastCheck(context.Background(), "Binance", "DOGEUSDT", "N/A", TradeTable)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_MissingTableErrors(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(Config{
		CandleDBPath: filepath.Join(tmpDir, "main.db"),
		TradeDBPath:  filepath.Join(tmpDir, "trade_data.db"),
		Logger:       &mockLogger{},
	})
	require.NoError(t, err)

	err = store.InsertCandles(context.Background(), []domain.Candle{{OpenTime: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUpdateFailed)

	err = store.UpsertLastCheck(context.Background(), domain.LastCheck{Exchange: "Binance"})
	assert.ErrorIs(t, err, ports.ErrUpdateFailed)
}

func TestStore_EnsureLastCheckTable_UpgradesTableWithoutUniqueKey(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(Config{
		CandleDBPath: filepath.Join(tmpDir, "main.db"),
		TradeDBPath:  filepath.Join(tmpDir, "trade_data.db"),
		Logger:       &mockLogger{},
	})
	require.NoError(t, err)
	ctx := context.Background()

	// Layout written by earlier collectors: same columns, no unique key, duplicate rows.
	raw := openRaw(t, store.tradeDBPath)
	_, err = raw.Exec(`CREATE TABLE last_checks (
		Id INTEGER PRIMARY KEY, exchange TEXT, trading_pair TEXT, duration TEXT,
		table_name TEXT, last_check INT, startdate INT, last_id INT)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO last_checks (exchange, trading_pair, duration, table_name, last_check, startdate, last_id)
		VALUES ('Binance','BTCUSDT','N/A','trade_data',1,1,1), ('Binance','BTCUSDT','N/A','trade_data',2,2,2)`)
	require.NoError(t, err)

	require.NoError(t, store.EnsureLastCheckTable(ctx))
	require.NoError(t, store.EnsureLastCheckTable(ctx))

	count, err := store.CountLastChecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.GetLastCheck(ctx, "Binance", "BTCUSDT", "N/A", TradeTable)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.LastID)

	for _, id := range []int64{3, 4} {
		require.NoError(t, store.UpsertLastCheck(ctx, domain.LastCheck{
			Exchange: "Binance", TradingPair: "BTCUSDT", Duration: "N/A", TableName: TradeTable, LastCheck: id, LastID: id,
		}))
	}
	count, err = store.CountLastChecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err = store.GetLastCheck(ctx, "Binance", "BTCUSDT", "N/A", TradeTable)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(4), got.LastID)
}

func TestStore_ListTrades_RejectsCorruptRows(t *testing.T) {
	tests := []struct {
		name string
		uuid string
		side string
	}{
		{"non-numeric uuid", "abc", "true"},
		{"unknown side", "12", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t, nil)

			_, err := openRaw(t, store.tradeDBPath).Exec(
				`INSERT INTO trade_data (uuid, traded_crypto, price, created_at_int, side) VALUES (?, 1, 1, 1, ?)`,
				tt.uuid, tt.side)
			require.NoError(t, err)

			trades, err := store.ListTrades(context.Background())
			assert.ErrorIs(t, err, ports.ErrQueryFailed)
			assert.Nil(t, trades)
		})
	}
}
