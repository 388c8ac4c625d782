// Package cli dispatches the collector's subcommands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"binanceCollector/config"
	"binanceCollector/internal/adapters/binanceclient"
	"binanceCollector/internal/adapters/metrics"
	"binanceCollector/internal/adapters/sqlite"
	"binanceCollector/internal/ports"
)

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("invalid usage")

const defaultPair = "BTCUSDT"

// Options carries everything a command needs besides its own flags.
type Options struct {
	Config *config.Config
	Logger ports.Logger
	Stdout io.Writer   // command output; defaults to os.Stdout
	Stderr io.Writer   // usage and flag errors; defaults to os.Stderr
	Clock  ports.Clock // polling clock; nil uses the wall clock
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"list-assets", "print every base asset listed on the exchange", runListAssets},
	{"depth", "print the best ask or bid level of a pair", runDepth},
	{"order-book", "print both sides of a pair's order book", runOrderBook},
	{"candles", "fetch and print the latest candles of a pair", runCandles},
	{"init-db", "create the candle, trade and last-check tables", runInitDB},
	{"poll-candles", "store new candles every poll interval", runPollCandles},
	{"poll-trades", "store recent trades every poll interval", runPollTrades},
	{"create-order", "submit a signed order", runCreateOrder},
	{"cancel-order", "cancel an open order", runCancelOrder},
	{"show-watermark", "print the stored trade polling watermark", runShowWatermark},
	{"export-candles", "write stored candles to a CSV file", runExportCandles},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Run parses args (without the program name) and executes the selected command.
// The command line is `[apiKey secretKey] <command> [flags]`; positional credentials
// take precedence over the configured ones.
func Run(ctx context.Context, args []string, opts Options) error {
	if opts.Config == nil || opts.Logger == nil {
		return fmt.Errorf("config and logger are required")
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	apiKey, secretKey := opts.Config.APIKey, opts.Config.SecretKey
	if len(args) >= 3 {
		if _, ok := lookup(args[0]); !ok {
			apiKey, secretKey = args[0], args[1]
			args = args[2:]
		}
	}
	if len(args) == 0 {
		printUsage(opts.Stderr)
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	cmd, ok := lookup(args[0])
	if !ok {
		printUsage(opts.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	e := &env{
		cfg:       opts.Config,
		logger:    opts.Logger,
		stdout:    opts.Stdout,
		stderr:    opts.Stderr,
		clock:     opts.Clock,
		apiKey:    apiKey,
		secretKey: secretKey,
	}
	return cmd.run(ctx, e, args[1:])
}

func printUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString("Usage: binance-collector [apiKey secretKey] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-15s %s\n", c.name, c.summary)
	}
	b.WriteString("\nRun '<command> -h' for the flags of a command.\n")
	fmt.Fprint(w, b.String())
}

// env is the per-invocation wiring shared by all commands.
type env struct {
	cfg       *config.Config
	logger    ports.Logger
	stdout    io.Writer
	stderr    io.Writer
	clock     ports.Clock
	apiKey    string
	secretKey string
}

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func (e *env) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %v", ErrUsage, fs.Name(), fs.Args())
	}
	return nil
}

func (e *env) exchange() (*binanceclient.Client, error) {
	return binanceclient.New(binanceclient.Config{
		APIKey:     e.apiKey,
		SecretKey:  e.secretKey,
		BaseURL:    e.cfg.BaseURL,
		UseTestnet: e.cfg.IsTestnet,
		Timeout:    e.cfg.RequestTimeout(),
		Logger:     e.logger,
	})
}

func (e *env) store() (*sqlite.Store, error) {
	return sqlite.NewStore(sqlite.Config{
		CandleDBPath: e.cfg.CandleDBPath,
		TradeDBPath:  e.cfg.TradeDBPath,
		Logger:       e.logger,
	})
}

// metrics returns a Prometheus recorder served on the configured address,
// or a no-op recorder when no address is set.
func (e *env) metrics(ctx context.Context) ports.Metrics {
	if e.cfg.MetricsAddr == "" {
		return metrics.Nop{}
	}
	rec := metrics.New()
	rec.Serve(ctx, e.cfg.MetricsAddr, e.logger)
	return rec
}
