package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"binanceCollector/config"
	"binanceCollector/internal/adapters/binanceclient"
	"binanceCollector/internal/adapters/logger"
	"binanceCollector/internal/utils"
)

func main() {
	symbol := flag.String("pair", "BTCUSDT", "trading pair")
	interval := flag.String("interval", "1m", "kline interval")
	out := flag.String("out", "", "destination CSV file (default data/<pair>_<interval>_<date>.csv)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		BaseURL:    cfg.BaseURL,
		UseTestnet: cfg.IsTestnet,
		Timeout:    cfg.RequestTimeout(),
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	candles, err := binanceClient.FetchCandles(context.Background(), *symbol, *interval)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching candles")
		log.Fatalf("Error fetching candles: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched candles", map[string]interface{}{"count": len(candles)})

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s.csv", *symbol, *interval, time.Now().Format("20060102"))
	}
	if err := utils.WriteCandlesToCSV(candles, filename); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": filename})
}
