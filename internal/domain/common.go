package domain

import "strings"

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderType represents the exchange order type.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// DepthSide selects one side of an order book.
type DepthSide string

const (
	SideAsk DepthSide = "ask"
	SideBid DepthSide = "bid"
)

// Valid reports whether the side is ask or bid.
func (s DepthSide) Valid() bool {
	return s == SideAsk || s == SideBid
}

// NormalizeSide upper-cases a side given in any case ("buy" -> BUY).
func NormalizeSide(s string) OrderSide {
	return OrderSide(strings.ToUpper(s))
}

// NormalizeType upper-cases an order type, defaulting to LIMIT when empty.
func NormalizeType(t string) OrderType {
	if t == "" {
		return OrderTypeLimit
	}
	return OrderType(strings.ToUpper(t))
}

// Storage table names, also recorded in last_checks.table_name.
const (
	CandleTable    = "candlestick_data"
	TradeTable     = "trade_data"
	LastCheckTable = "last_checks"
)

// NoDuration is the duration recorded for watermarks of interval-less data.
const NoDuration = "N/A"
