package domain

import "github.com/shopspring/decimal"

// PriceLevel is one order book level exactly as reported by the exchange.
type PriceLevel struct {
	Price    string
	Quantity string
}

// OrderBook holds both sides of an order book, exchange-sorted.
type OrderBook struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// OrderRequest describes a new order to submit.
type OrderRequest struct {
	Symbol   string
	Side     OrderSide
	Type     OrderType
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// OrderInfo is the exchange acknowledgement of a created order.
type OrderInfo struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	TransactTime  int64  `json:"transactTime"`
	Price         string `json:"price"`
	OrigQuantity  string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Status        string `json:"status"`
	TimeInForce   string `json:"timeInForce"`
	Type          string `json:"type"`
	Side          string `json:"side"`
}
