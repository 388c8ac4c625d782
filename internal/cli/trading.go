package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"binanceCollector/internal/domain"
)

func runCreateOrder(ctx context.Context, e *env, args []string) error {
	fs := e.flags("create-order")
	side := fs.String("side", "", "BUY or SELL")
	price := fs.String("price", "", "limit price")
	quantity := fs.String("quantity", "", "order quantity")
	pair := fs.String("pair", defaultPair, "trading pair")
	orderType := fs.String("type", string(domain.OrderTypeLimit), "order type")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	req := domain.OrderRequest{
		Symbol: *pair,
		Side:   domain.NormalizeSide(*side),
		Type:   domain.NormalizeType(*orderType),
	}
	if req.Side != domain.Buy && req.Side != domain.Sell {
		return fmt.Errorf("%w: create-order: side must be BUY or SELL, got %q", ErrUsage, *side)
	}
	var err error
	if req.Price, err = parseDecimal("price", *price); err != nil {
		return err
	}
	if req.Quantity, err = parseDecimal("quantity", *quantity); err != nil {
		return err
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	info, err := client.CreateOrder(ctx, req)
	if err != nil {
		return err
	}
	if info == nil {
		fmt.Fprintln(e.stdout, "Failed to create order.")
		return nil
	}

	out, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode order info: %w", err)
	}
	fmt.Fprintln(e.stdout, "Order created successfully")
	fmt.Fprintf(e.stdout, "Order Info: %s\n", out)
	return nil
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: create-order: -%s is required", ErrUsage, name)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: create-order: invalid %s %q: %w", ErrUsage, name, value, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: create-order: %s must be positive", ErrUsage, name)
	}
	return d, nil
}

func runCancelOrder(ctx context.Context, e *env, args []string) error {
	fs := e.flags("cancel-order")
	pair := fs.String("pair", defaultPair, "trading pair")
	orderID := fs.Int64("order-id", 0, "exchange order id")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *orderID <= 0 {
		return fmt.Errorf("%w: cancel-order: -order-id is required", ErrUsage)
	}

	client, err := e.exchange()
	if err != nil {
		return err
	}
	ok, err := client.CancelOrder(ctx, *pair, *orderID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(e.stdout, "Failed to cancel order.")
		return nil
	}
	fmt.Fprintln(e.stdout, "Order canceled successfully")
	return nil
}
