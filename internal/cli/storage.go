package cli

import (
	"context"
	"fmt"
	"time"

	"binanceCollector/internal/app"
	"binanceCollector/internal/domain"
	"binanceCollector/internal/utils"
)

func runInitDB(ctx context.Context, e *env, args []string) error {
	fs := e.flags("init-db")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	store, err := e.store()
	if err != nil {
		return err
	}
	if err := store.EnsureCandleTable(ctx); err != nil {
		return err
	}
	if err := store.EnsureTradeTable(ctx); err != nil {
		return err
	}
	if err := store.EnsureLastCheckTable(ctx); err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Tables ready in %s and %s\n", e.cfg.CandleDBPath, e.cfg.TradeDBPath)
	return nil
}

func runPollCandles(ctx context.Context, e *env, args []string) error {
	fs := e.flags("poll-candles")
	pair := fs.String("pair", defaultPair, "trading pair")
	interval := fs.String("interval", "5m", "kline interval, e.g. 1m, 5m, 1h")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	store, err := e.store()
	if err != nil {
		return err
	}
	if err := store.EnsureCandleTable(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	recorder := e.metrics(ctx)

	refresher, err := app.NewCandleRefresher(app.CandleRefresherConfig{
		Exchange: client,
		Repo:     store,
		Logger:   e.logger,
		Metrics:  recorder,
		Pair:     *pair,
		Interval: *interval,
	})
	if err != nil {
		return err
	}
	poller, err := app.NewPoller(app.PollerConfig{
		Name:     "candles",
		Interval: e.cfg.PollInterval(),
		Step:     refresher.Refresh,
		Clock:    e.clock,
		Logger:   e.logger,
		Metrics:  recorder,
	})
	if err != nil {
		return err
	}
	return poller.Start(ctx)
}

func runPollTrades(ctx context.Context, e *env, args []string) error {
	fs := e.flags("poll-trades")
	pair := fs.String("pair", defaultPair, "trading pair")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	store, err := e.store()
	if err != nil {
		return err
	}
	if err := store.EnsureTradeTable(ctx); err != nil {
		return err
	}
	if err := store.EnsureLastCheckTable(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	recorder := e.metrics(ctx)

	refresher, err := app.NewTradeRefresher(app.TradeRefresherConfig{
		Exchange:     client,
		Trades:       store,
		Checks:       store,
		Logger:       e.logger,
		Metrics:      recorder,
		ExchangeName: e.cfg.ExchangeName,
		Pair:         *pair,
	})
	if err != nil {
		return err
	}
	poller, err := app.NewPoller(app.PollerConfig{
		Name:     "trades",
		Interval: e.cfg.PollInterval(),
		Step:     refresher.Refresh,
		Clock:    e.clock,
		Logger:   e.logger,
		Metrics:  recorder,
	})
	if err != nil {
		return err
	}
	return poller.Start(ctx)
}

func runShowWatermark(ctx context.Context, e *env, args []string) error {
	fs := e.flags("show-watermark")
	pair := fs.String("pair", defaultPair, "trading pair")
	exchangeName := fs.String("exchange", e.cfg.ExchangeName, "exchange name recorded by poll-trades")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	store, err := e.store()
	if err != nil {
		return err
	}
	if err := store.EnsureLastCheckTable(ctx); err != nil {
		return err
	}
	check, err := store.GetLastCheck(ctx, *exchangeName, *pair, domain.NoDuration, domain.TradeTable)
	if err != nil {
		return err
	}
	if check == nil {
		total, err := store.CountLastChecks(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "No watermark stored for %s on %s (%d stored in total)\n", *pair, *exchangeName, total)
		return nil
	}

	fmt.Fprintf(e.stdout, "Last check for %s on %s: last_check=%d (%s) last_id=%d startdate=%d\n",
		check.TradingPair, check.Exchange, check.LastCheck,
		time.UnixMilli(check.LastCheck).UTC().Format("2006-01-02T15:04:05.000Z"),
		check.LastID, check.StartDate)
	return nil
}

func runExportCandles(ctx context.Context, e *env, args []string) error {
	fs := e.flags("export-candles")
	out := fs.String("out", "candles.csv", "destination CSV file")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	store, err := e.store()
	if err != nil {
		return err
	}
	candles, err := store.ListCandles(ctx)
	if err != nil {
		return err
	}
	if err := utils.WriteCandlesToCSV(candles, *out); err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Exported %d candles to %s\n", len(candles), *out)
	return nil
}
