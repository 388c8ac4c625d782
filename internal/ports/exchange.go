package ports

import (
	"context"

	"binanceCollector/internal/domain"
)

// ExchangeClient defines the interface for interacting with the exchange REST API.
type ExchangeClient interface {
	// ListBaseAssets returns the distinct base assets of every listed trading pair.
	ListBaseAssets(ctx context.Context) ([]string, error)

	// GetDepth returns one side of the order book for a pair, as sorted by the exchange.
	// An unknown side yields an empty result.
	GetDepth(ctx context.Context, side domain.DepthSide, pair string) ([]domain.PriceLevel, error)

	// GetOrderBook returns the top limit levels of both sides.
	GetOrderBook(ctx context.Context, pair string, limit int) (*domain.OrderBook, error)

	// FetchCandles retrieves the latest candlesticks for a pair and interval.
	FetchCandles(ctx context.Context, pair, interval string) ([]domain.Candle, error)

	// FetchTrades retrieves the most recent public trades for a pair.
	FetchTrades(ctx context.Context, pair string) ([]domain.Trade, error)

	// CreateOrder submits a signed order.
	// A rejected order returns nil, nil; only transport failures return an error.
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderInfo, error)

	// CancelOrder cancels an order by ID. A rejected cancel returns false, nil.
	CancelOrder(ctx context.Context, pair string, orderID int64) (bool, error)
}
