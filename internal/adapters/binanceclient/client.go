package binanceclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"binanceCollector/internal/domain"
	"binanceCollector/internal/ports"
	"binanceCollector/internal/signer"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/go-resty/resty/v2"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	apiKeyHeader = "X-MBX-APIKEY"

	exchangeInfoEndpoint = "/api/v3/exchangeInfo"
	depthEndpoint        = "/api/v3/depth"
	klinesEndpoint       = "/api/v3/klines"
	tradesEndpoint       = "/api/v3/trades"
	orderEndpoint        = "/api/v3/order"
)

// Client implements the ports.ExchangeClient interface.
//
// The order book goes through the go-binance spot client. Klines, recent trades,
// calls carrying the API key and the signed order endpoints go through resty:
// klines and trades so the v3 paths and short kline tuples are honoured, signed
// calls so that the query string sent is byte-for-byte the one that was signed.
type Client struct {
	spotClient *binance.Client
	rest       *resty.Client
	apiKey     string
	secretKey  string
	baseURL    string
	logger     ports.Logger
	now        func() time.Time
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	BaseURL    string // Takes precedence over UseTestnet when set
	UseTestnet bool
	Timeout    time.Duration // Zero means no timeout
	Logger     ports.Logger
	Now        func() time.Time // Source of request timestamps; defaults to time.Now
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	baseURL := cfg.BaseURL
	switch {
	case baseURL != "":
		cfg.Logger.Info(context.Background(), "Binance client configured with explicit base URL", map[string]interface{}{"baseURL": baseURL})
	case cfg.UseTestnet:
		baseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": baseURL})
	default:
		baseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": baseURL})
	}
	baseURL = strings.TrimRight(baseURL, "/")

	spot := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	spot.BaseURL = baseURL
	spot.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	rest := resty.New().
		SetBaseURL(baseURL).
		SetHeader(apiKeyHeader, cfg.APIKey).
		SetTimeout(cfg.Timeout)

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		spotClient: spot,
		rest:       rest,
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		baseURL:    baseURL,
		logger:     cfg.Logger,
		now:        now,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1112, -1114, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2011: // Cancel order rejected
			mappedErr = ports.ErrOrderCancelFailed
		case -2013: // Order does not exist
			mappedErr = ports.ErrOrderNotFound
		case -2014, -2015: // API-key format invalid / invalid key, IP or permissions
			mappedErr = ports.ErrInvalidAPIKeys
		case -2018, -2019: // Balance or margin insufficient
			mappedErr = ports.ErrInsufficientFunds
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, bad payloads, etc.)
	var (
		finalErr  error
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, ports.ErrUnexpectedResponse), errors.Is(err, ports.ErrExchangeUnavailable):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnexpectedResponse, err)
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "use of closed network connection"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// statusError builds an error for a non-2xx resty response.
func statusError(resp *resty.Response, apiErr *common.APIError) error {
	if apiErr != nil && apiErr.Code != 0 {
		return apiErr
	}
	sentinel := ports.ErrUnexpectedResponse
	if resp.StatusCode() >= http.StatusInternalServerError {
		sentinel = ports.ErrExchangeUnavailable
	}
	return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
}

func (c *Client) requireCredentials(operation string) error {
	if c.apiKey == "" || c.secretKey == "" {
		return fmt.Errorf("%s: %w", operation, ports.ErrMissingCredentials)
	}
	return nil
}

// --- Keyed market data ---

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol    string `json:"symbol"`
		BaseAsset string `json:"baseAsset"`
	} `json:"symbols"`
}

type depthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// ListBaseAssets returns the distinct base assets of every listed pair, sorted.
func (c *Client) ListBaseAssets(ctx context.Context) ([]string, error) {
	op := "ListBaseAssets"

	var info exchangeInfoResponse
	apiErr := &common.APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&info).
		SetError(apiErr).
		Get(exchangeInfoEndpoint)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if resp.IsError() {
		return nil, c.handleError(ctx, statusError(resp, apiErr), op)
	}

	seen := make(map[string]struct{}, len(info.Symbols))
	for _, s := range info.Symbols {
		seen[s.BaseAsset] = struct{}{}
	}
	assets := make([]string, 0, len(seen))
	for asset := range seen {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbols": len(info.Symbols), "assets": len(assets)})
	return assets, nil
}

// GetDepth returns the ask or bid side of the order book for a pair.
// Any other side yields an empty result without contacting the exchange.
func (c *Client) GetDepth(ctx context.Context, side domain.DepthSide, pair string) ([]domain.PriceLevel, error) {
	op := "GetDepth"
	if !side.Valid() {
		c.logger.Warn(ctx, op+": unknown depth side, returning no levels", map[string]interface{}{"side": side, "pair": pair})
		return nil, nil
	}

	var book depthResponse
	apiErr := &common.APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetQueryParam("symbol", pair).
		SetResult(&book).
		SetError(apiErr).
		Get(depthEndpoint)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if resp.IsError() {
		return nil, c.handleError(ctx, statusError(resp, apiErr), op)
	}

	raw := book.Asks
	if side == domain.SideBid {
		raw = book.Bids
	}
	levels, err := toPriceLevels(raw)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	return levels, nil
}

func toPriceLevels(raw [][]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for i, lvl := range raw {
		if len(lvl) < 2 {
			return nil, fmt.Errorf("%w: depth level %d has %d fields", ports.ErrUnexpectedResponse, i, len(lvl))
		}
		levels = append(levels, domain.PriceLevel{Price: lvl[0], Quantity: lvl[1]})
	}
	return levels, nil
}

// --- Public market data ---

// GetOrderBook returns the top limit levels of both sides of the book.
func (c *Client) GetOrderBook(ctx context.Context, pair string, limit int) (*domain.OrderBook, error) {
	op := "GetOrderBook"
	res, err := c.spotClient.NewDepthService().Symbol(pair).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	book := &domain.OrderBook{
		Bids: make([]domain.PriceLevel, 0, len(res.Bids)),
		Asks: make([]domain.PriceLevel, 0, len(res.Asks)),
	}
	for _, b := range res.Bids {
		book.Bids = append(book.Bids, domain.PriceLevel{Price: b.Price, Quantity: b.Quantity})
	}
	for _, a := range res.Asks {
		book.Asks = append(book.Asks, domain.PriceLevel{Price: a.Price, Quantity: a.Quantity})
	}
	return book, nil
}

// FetchCandles retrieves the latest klines for the given pair and interval.
// Each kline tuple must carry at least [openTime, open, high, low, close, volume];
// trailing fields are ignored.
func (c *Client) FetchCandles(ctx context.Context, pair, interval string) ([]domain.Candle, error) {
	op := "FetchCandles"

	var klines [][]json.RawMessage
	apiErr := &common.APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetQueryParam("symbol", pair).
		SetQueryParam("interval", interval).
		SetResult(&klines).
		SetError(apiErr).
		Get(klinesEndpoint)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if resp.IsError() {
		return nil, c.handleError(ctx, statusError(resp, apiErr), op)
	}

	candles := make([]domain.Candle, 0, len(klines))
	for i, k := range klines {
		candle, err := translateKline(k)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("%w: kline %d: %w", ports.ErrUnexpectedResponse, i, err), op)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

type recentTrade struct {
	ID           int64  `json:"id"`
	Price        string `json:"price"`
	Quantity     string `json:"qty"`
	Time         int64  `json:"time"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
}

// FetchTrades retrieves the exchange's default page of most recent trades.
// No "since" cursor is sent even though trade polling records a watermark.
func (c *Client) FetchTrades(ctx context.Context, pair string) ([]domain.Trade, error) {
	op := "FetchTrades"

	var res []recentTrade
	apiErr := &common.APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetQueryParam("symbol", pair).
		SetResult(&res).
		SetError(apiErr).
		Get(tradesEndpoint)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if resp.IsError() {
		return nil, c.handleError(ctx, statusError(resp, apiErr), op)
	}

	trades := make([]domain.Trade, 0, len(res))
	for _, t := range res {
		trade, err := translateTrade(t)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("%w: trade %d: %w", ports.ErrUnexpectedResponse, t.ID, err), op)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// --- Signed trading endpoints ---

// CreateOrder submits a signed order. A non-200 answer is reported and yields nil, nil.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderInfo, error) {
	op := "CreateOrder"
	if err := c.requireCredentials(op); err != nil {
		return nil, err
	}

	side := domain.NormalizeSide(string(req.Side))
	orderType := domain.NormalizeType(string(req.Type))

	// Signed order: symbol, side, type, timeInForce, quantity, price, timestamp.
	params := signer.Params{}.
		Add("symbol", req.Symbol).
		Add("side", string(side)).
		Add("type", string(orderType)).
		Add("timeInForce", "GTC").
		Add("quantity", req.Quantity).
		Add("price", req.Price).
		Add("timestamp", c.now().UnixMilli())
	sig := signer.Sign(params, c.secretKey)

	var info domain.OrderInfo
	apiErr := &common.APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&info).
		SetError(apiErr).
		Post(orderEndpoint + "?" + sig.Query())
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn(ctx, "Failed to create order", map[string]interface{}{
			"statusCode":      resp.StatusCode(),
			"apiErrorCode":    apiErr.Code,
			"apiErrorMessage": apiErr.Message,
			"symbol":          req.Symbol,
			"side":            side,
		})
		return nil, nil
	}

	c.logger.Info(ctx, "Order created successfully", map[string]interface{}{
		"symbol":  info.Symbol,
		"orderID": info.OrderID,
		"status":  info.Status,
	})
	return &info, nil
}

// CancelOrder cancels an open order. A non-200 answer is reported and yields false, nil.
func (c *Client) CancelOrder(ctx context.Context, pair string, orderID int64) (bool, error) {
	op := "CancelOrder"
	if err := c.requireCredentials(op); err != nil {
		return false, err
	}
	c.logger.Debug(ctx, "Attempting to cancel order", map[string]interface{}{"symbol": pair, "orderID": orderID})

	// Signed cancel: symbol, orderId, timestamp.
	params := signer.Params{}.
		Add("symbol", pair).
		Add("orderId", orderID).
		Add("timestamp", c.now().UnixMilli())
	sig := signer.Sign(params, c.secretKey)

	apiErr := &common.APIError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetError(apiErr).
		Delete(orderEndpoint + "?" + sig.Query())
	if err != nil {
		return false, c.handleError(ctx, err, op)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn(ctx, "Failed to cancel order", map[string]interface{}{
			"statusCode":      resp.StatusCode(),
			"apiErrorCode":    apiErr.Code,
			"apiErrorMessage": apiErr.Message,
			"symbol":          pair,
			"orderID":         orderID,
		})
		return false, nil
	}

	c.logger.Info(ctx, "Order canceled successfully", map[string]interface{}{"symbol": pair, "orderID": orderID})
	return true, nil
}

// --- Translation Helpers ---

func translateKline(fields []json.RawMessage) (domain.Candle, error) {
	if len(fields) < 6 {
		return domain.Candle{}, fmt.Errorf("kline has %d fields, want at least 6", len(fields))
	}
	var openTime int64
	if err := json.Unmarshal(fields[0], &openTime); err != nil {
		return domain.Candle{}, fmt.Errorf("parsing open time %s: %w", fields[0], err)
	}

	names := [...]string{"open price", "high price", "low price", "close price", "volume"}
	var values [5]float64
	for i := range values {
		v, err := parseNumber(fields[i+1])
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parsing %s: %w", names[i], err)
		}
		values[i] = v
	}

	return domain.Candle{
		OpenTime: openTime,
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}

// parseNumber accepts a decimal sent either as a JSON string ("1.5") or a bare number.
func parseNumber(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("'%s' is not a number: %w", raw, err)
	}
	return f, nil
}

func translateTrade(t recentTrade) (domain.Trade, error) {
	price, err := strconv.ParseFloat(t.Price, 64)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parsing price '%s': %w", t.Price, err)
	}
	qty, err := strconv.ParseFloat(t.Quantity, 64)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parsing quantity '%s': %w", t.Quantity, err)
	}

	return domain.Trade{
		ID:           t.ID,
		Price:        price,
		Quantity:     qty,
		Time:         t.Time,
		IsBuyerMaker: t.IsBuyerMaker,
	}, nil
}
