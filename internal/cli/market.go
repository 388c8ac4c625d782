package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"binanceCollector/internal/domain"
)

func runListAssets(ctx context.Context, e *env, args []string) error {
	fs := e.flags("list-assets")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	assets, err := client.ListBaseAssets(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(e.stdout, "Available cryptocurrencies")
	for _, a := range assets {
		fmt.Fprintln(e.stdout, a)
	}
	return nil
}

func runDepth(ctx context.Context, e *env, args []string) error {
	fs := e.flags("depth")
	side := fs.String("side", string(domain.SideAsk), "book side: ask or bid")
	pair := fs.String("pair", defaultPair, "trading pair")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	levels, err := client.GetDepth(ctx, domain.DepthSide(strings.ToLower(*side)), *pair)
	if err != nil {
		return err
	}

	if len(levels) == 0 {
		fmt.Fprintf(e.stdout, "No %s levels for %s\n", *side, *pair)
		return nil
	}
	fmt.Fprintf(e.stdout, "%s price for %s: [%s %s]\n", *side, *pair, levels[0].Price, levels[0].Quantity)
	return nil
}

func runOrderBook(ctx context.Context, e *env, args []string) error {
	fs := e.flags("order-book")
	pair := fs.String("pair", defaultPair, "trading pair")
	limit := fs.Int("limit", 10, "number of levels per side")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *limit <= 0 {
		return fmt.Errorf("%w: order-book: limit must be positive", ErrUsage)
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	book, err := client.GetOrderBook(ctx, *pair, *limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Order book for %s:\n", *pair)
	fmt.Fprintf(e.stdout, "Asks (sell orders): %s\n", formatLevels(book.Asks))
	fmt.Fprintf(e.stdout, "Bids (buy orders): %s\n", formatLevels(book.Bids))
	return nil
}

func formatLevels(levels []domain.PriceLevel) string {
	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		parts = append(parts, "["+l.Price+" "+l.Quantity+"]")
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func runCandles(ctx context.Context, e *env, args []string) error {
	fs := e.flags("candles")
	pair := fs.String("pair", defaultPair, "trading pair")
	interval := fs.String("interval", "5m", "kline interval, e.g. 1m, 5m, 1h")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	candles, err := client.FetchCandles(ctx, *pair, *interval)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "Candlestick data for %s (%s):\n", *pair, *interval)
	printCandles(e.stdout, candles)
	return nil
}

func printCandles(w io.Writer, candles []domain.Candle) {
	for _, c := range candles {
		fmt.Fprintf(w, "Open time: %d, Open: %v, High: %v, Low: %v, Close: %v, Volume: %v\n",
			c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume)
	}
}
