package domain

// Trade represents a single public trade reported by the exchange.
type Trade struct {
	ID           int64   // Exchange trade identifier
	Price        float64 // Execution price
	Quantity     float64 // Executed base quantity
	Time         int64   // Execution time, epoch milliseconds
	IsBuyerMaker bool    // Maker/taker flag as reported by the exchange
}

// LastCheck is the polling watermark for one (exchange, pair, duration, table) key.
type LastCheck struct {
	Exchange    string
	TradingPair string
	Duration    string // "N/A" for trade polling
	TableName   string
	LastCheck   int64 // Timestamp of the most recent processed trade, epoch ms
	StartDate   int64 // Wall-clock time of the update, epoch seconds
	LastID      int64 // Identifier of the most recent processed trade
}
