package domain

import "time"

// Candle represents a single candlestick as persisted by the collector.
type Candle struct {
	OpenTime int64   // Start of the interval, epoch milliseconds
	Open     float64 // Opening price
	High     float64 // Highest price
	Low      float64 // Lowest price
	Close    float64 // Closing price
	Volume   float64 // Traded volume
}

// OpenAt returns the open time as a time.Time.
func (c Candle) OpenAt() time.Time {
	return time.UnixMilli(c.OpenTime)
}
