package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"binanceCollector/internal/domain"
)

// CandleCSVHeader is the first row written by WriteCandles.
var CandleCSVHeader = []string{"open_time", "open_time_ms", "open", "high", "low", "close", "volume"}

// WriteCandles writes candles as CSV, one row per candle, in the given order.
func WriteCandles(w io.Writer, candles []domain.Candle) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CandleCSVHeader); err != nil {
		return err
	}
	for _, c := range candles {
		err := writer.Write([]string{
			c.OpenAt().UTC().Format(time.RFC3339),
			strconv.FormatInt(c.OpenTime, 10),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCandlesToCSV creates filename (and its directory) and writes candles into it.
func WriteCandlesToCSV(candles []domain.Candle, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCandles(file, candles); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}
