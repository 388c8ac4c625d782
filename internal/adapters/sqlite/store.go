package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"binanceCollector/internal/domain"
	"binanceCollector/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Table names as laid out on disk.
const (
	CandleTable    = domain.CandleTable
	TradeTable     = domain.TradeTable
	LastCheckTable = domain.LastCheckTable
)

const (
	createCandleTable = `
	CREATE TABLE IF NOT EXISTS candlestick_data (
		Id INTEGER PRIMARY KEY,
		date INT,
		high REAL,
		low REAL,
		open REAL,
		close REAL,
		volume REAL
	)`

	createTradeTable = `
	CREATE TABLE IF NOT EXISTS trade_data (
		Id INTEGER PRIMARY KEY,
		uuid TEXT,
		traded_crypto REAL,
		price REAL,
		created_at_int INT,
		side TEXT
	)`

	// The UNIQUE key is what turns INSERT OR REPLACE into an upsert.
	createLastCheckTable = `
	CREATE TABLE IF NOT EXISTS last_checks (
		Id INTEGER PRIMARY KEY,
		exchange TEXT,
		trading_pair TEXT,
		duration TEXT,
		table_name TEXT,
		last_check INT,
		startdate INT,
		last_id INT,
		UNIQUE (exchange, trading_pair, duration, table_name)
	)`

	dedupLastChecks = `
	DELETE FROM last_checks
	WHERE Id NOT IN (
		SELECT MAX(Id) FROM last_checks
		GROUP BY exchange, trading_pair, duration, table_name
	)`

	createLastCheckKeyIndex = `
	CREATE UNIQUE INDEX IF NOT EXISTS last_checks_key
	ON last_checks (exchange, trading_pair, duration, table_name)`
)

// Store implements the candle, trade and last-check repositories on two SQLite files.
// Every call opens its database, runs one transaction, commits and closes again;
// nothing is pooled or kept open between calls.
type Store struct {
	candleDBPath string
	tradeDBPath  string
	logger       ports.Logger
	now          func() time.Time
}

// Config holds configuration for the SQLite store.
type Config struct {
	CandleDBPath string // holds candlestick_data
	TradeDBPath  string // holds trade_data and last_checks
	Logger       ports.Logger
	Now          func() time.Time // wall clock for last_checks.startdate; defaults to time.Now
}

// NewStore creates a new SQLite store. No connection is opened until the first call.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	if cfg.CandleDBPath == "" {
		cfg.CandleDBPath = "main.db"
	}
	if cfg.TradeDBPath == "" {
		cfg.TradeDBPath = "trade_data.db"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	for _, p := range []string{cfg.CandleDBPath, cfg.TradeDBPath} {
		dir := filepath.Dir(p)
		if err := os.MkdirAll(dir, 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", dir, err)
			cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
			return nil, err
		}
	}

	return &Store{
		candleDBPath: cfg.CandleDBPath,
		tradeDBPath:  cfg.TradeDBPath,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}, nil
}

// withTx opens the database at path, runs fn inside a transaction, commits and closes.
func (s *Store) withTx(ctx context.Context, path, op string, fn func(tx *sql.Tx) error) error {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("%s: failed to open database at '%s': %w: %w", op, path, ports.ErrDBConnection, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction on '%s': %w: %w", op, path, ports.ErrDBConnection, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn(ctx, op+": rollback failed", map[string]interface{}{"path": path, "error": rbErr.Error()})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit on '%s': %w: %w", op, path, ports.ErrUpdateFailed, err)
	}
	return nil
}

func (s *Store) ensureTable(ctx context.Context, path, op string, stmts ...string) error {
	err := s.withTx(ctx, path, op, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: failed to create table: %w: %w", op, ports.ErrUpdateFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, op+" successful", map[string]interface{}{"path": path})
	return nil
}

// EnsureCandleTable creates candlestick_data in the candle database if needed.
func (s *Store) EnsureCandleTable(ctx context.Context) error {
	return s.ensureTable(ctx, s.candleDBPath, "EnsureCandleTable", createCandleTable)
}

// EnsureTradeTable creates trade_data in the trade database if needed.
func (s *Store) EnsureTradeTable(ctx context.Context) error {
	return s.ensureTable(ctx, s.tradeDBPath, "EnsureTradeTable", createTradeTable)
}

// EnsureLastCheckTable creates last_checks in the trade database if needed.
// A table created earlier without the unique key is deduplicated (newest row per
// key wins) and given a unique index, so upserts replace instead of appending.
func (s *Store) EnsureLastCheckTable(ctx context.Context) error {
	return s.ensureTable(ctx, s.tradeDBPath, "EnsureLastCheckTable",
		createLastCheckTable, dedupLastChecks, createLastCheckKeyIndex)
}

// --- CandleRepository Implementation ---

// InsertCandles appends one row per candle. No conflict handling.
func (s *Store) InsertCandles(ctx context.Context, candles []domain.Candle) error {
	const op = "InsertCandles"
	const query = `
	INSERT INTO candlestick_data (date, high, low, open, close, volume)
	VALUES (?, ?, ?, ?, ?, ?)`

	err := s.withTx(ctx, s.candleDBPath, op, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("%s: failed to prepare insert: %w: %w", op, ports.ErrUpdateFailed, err)
		}
		defer stmt.Close()

		for _, c := range candles {
			if _, err := stmt.ExecContext(ctx, c.OpenTime, c.High, c.Low, c.Open, c.Close, c.Volume); err != nil {
				return fmt.Errorf("%s: failed to insert candle %d: %w: %w", op, c.OpenTime, ports.ErrUpdateFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "Candles inserted", map[string]interface{}{"count": len(candles)})
	return nil
}

// ListCandles returns every stored candle in insertion order.
func (s *Store) ListCandles(ctx context.Context) ([]domain.Candle, error) {
	const op = "ListCandles"
	const query = `SELECT date, open, high, low, close, volume FROM candlestick_data ORDER BY Id`

	candles := make([]domain.Candle, 0)
	err := s.withTx(ctx, s.candleDBPath, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", op, ports.ErrQueryFailed, err)
		}
		defer rows.Close()

		for rows.Next() {
			var c domain.Candle
			if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
				return fmt.Errorf("%s: failed to scan candle: %w: %w", op, ports.ErrQueryFailed, err)
			}
			candles = append(candles, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return candles, nil
}

// --- TradeRepository Implementation ---

// InsertTrades makes sure trade_data exists and appends one row per trade.
// Overlapping polls produce duplicate rows.
func (s *Store) InsertTrades(ctx context.Context, trades []domain.Trade) error {
	const op = "InsertTrades"
	const query = `
	INSERT INTO trade_data (uuid, traded_crypto, price, created_at_int, side)
	VALUES (?, ?, ?, ?, ?)`

	err := s.withTx(ctx, s.tradeDBPath, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createTradeTable); err != nil {
			return fmt.Errorf("%s: failed to create table: %w: %w", op, ports.ErrUpdateFailed, err)
		}

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("%s: failed to prepare insert: %w: %w", op, ports.ErrUpdateFailed, err)
		}
		defer stmt.Close()

		for _, t := range trades {
			_, err := stmt.ExecContext(ctx,
				strconv.FormatInt(t.ID, 10), t.Quantity, t.Price, t.Time, strconv.FormatBool(t.IsBuyerMaker))
			if err != nil {
				return fmt.Errorf("%s: failed to insert trade %d: %w: %w", op, t.ID, ports.ErrUpdateFailed, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "Trades inserted", map[string]interface{}{"count": len(trades)})
	return nil
}

// ListTrades returns every stored trade in insertion order.
func (s *Store) ListTrades(ctx context.Context) ([]domain.Trade, error) {
	const op = "ListTrades"
	const query = `SELECT uuid, traded_crypto, price, created_at_int, side FROM trade_data ORDER BY Id`

	trades := make([]domain.Trade, 0)
	err := s.withTx(ctx, s.tradeDBPath, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("%s: %w: %w", op, ports.ErrQueryFailed, err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				t    domain.Trade
				id   string
				side string
			)
			if err := rows.Scan(&id, &t.Quantity, &t.Price, &t.Time, &side); err != nil {
				return fmt.Errorf("%s: failed to scan trade: %w: %w", op, ports.ErrQueryFailed, err)
			}
			var err error
			if t.ID, err = strconv.ParseInt(id, 10, 64); err != nil {
				return fmt.Errorf("%s: invalid trade uuid %q: %w: %w", op, id, ports.ErrQueryFailed, err)
			}
			if t.IsBuyerMaker, err = strconv.ParseBool(side); err != nil {
				return fmt.Errorf("%s: invalid side %q for trade %d: %w: %w", op, side, t.ID, ports.ErrQueryFailed, err)
			}
			trades = append(trades, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// --- LastCheckRepository Implementation ---

// UpsertLastCheck replaces the watermark for the check's key.
// StartDate is overwritten with the current wall-clock time in epoch seconds.
func (s *Store) UpsertLastCheck(ctx context.Context, check domain.LastCheck) error {
	const op = "UpsertLastCheck"
	const query = `
	INSERT OR REPLACE INTO last_checks (exchange, trading_pair, duration, table_name, last_check, startdate, last_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	startDate := s.now().Unix()
	err := s.withTx(ctx, s.tradeDBPath, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			check.Exchange, check.TradingPair, check.Duration, check.TableName,
			check.LastCheck, startDate, check.LastID)
		if err != nil {
			return fmt.Errorf("%s: failed to upsert last check for %s: %w: %w", op, check.TradingPair, ports.ErrUpdateFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "Last check updated", map[string]interface{}{
		"pair":      check.TradingPair,
		"table":     check.TableName,
		"lastCheck": check.LastCheck,
		"lastID":    check.LastID,
	})
	return nil
}

// GetLastCheck returns the watermark for a key, or nil, nil if none is stored.
func (s *Store) GetLastCheck(ctx context.Context, exchange, pair, duration, table string) (*domain.LastCheck, error) {
	const op = "GetLastCheck"
	const query = `
	SELECT exchange, trading_pair, duration, table_name, last_check, startdate, last_id
	FROM last_checks
	WHERE exchange = ? AND trading_pair = ? AND duration = ? AND table_name = ?`

	var lc *domain.LastCheck
	err := s.withTx(ctx, s.tradeDBPath, op, func(tx *sql.Tx) error {
		c := &domain.LastCheck{}
		err := tx.QueryRowContext(ctx, query, exchange, pair, duration, table).Scan(
			&c.Exchange, &c.TradingPair, &c.Duration, &c.TableName, &c.LastCheck, &c.StartDate, &c.LastID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil // Not an error, just not found
			}
			return fmt.Errorf("%s: %w: %w", op, ports.ErrQueryFailed, err)
		}
		lc = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lc, nil
}

// CountLastChecks returns the number of stored watermark rows.
func (s *Store) CountLastChecks(ctx context.Context) (int, error) {
	const op = "CountLastChecks"

	var n int
	err := s.withTx(ctx, s.tradeDBPath, op, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM last_checks`).Scan(&n); err != nil {
			return fmt.Errorf("%s: %w: %w", op, ports.ErrQueryFailed, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
