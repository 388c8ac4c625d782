package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"binanceCollector/config"
	"binanceCollector/internal/adapters/logger"
	"binanceCollector/internal/cli"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger (stderr, so command output on stdout stays clean)
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLogger.Debug(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Dispatch the command
	err = cli.Run(context.Background(), os.Args[1:], cli.Options{
		Config: cfg,
		Logger: appLogger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if errors.Is(err, cli.ErrUsage) {
		appLogger.Error(context.Background(), err, "Invalid command line")
		os.Exit(2)
	}
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Command failed")
		log.Fatalf("FATAL: Command failed: %v", err)
	}
}
