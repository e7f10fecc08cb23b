package oanda

import (
	"context"
	"encoding/json"

	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// OrderRequest is an opaque order payload forwarded to the provider
// unmodified. Validation of its contents is the provider's concern.
type OrderRequest map[string]any

// PlaceOrder submits an order against the configured account and returns the
// provider's raw response.
func (c *Client) PlaceOrder(ctx context.Context, order OrderRequest) (json.RawMessage, error) {
	if len(order) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "order payload is empty")
	}

	raw, err := c.do(ctx, "POST", c.accountPath("/orders"), nil, map[string]any{"order": order})
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeProviderFetchFailed) {
			return nil, errors.Wrap(errors.ErrCodeOrderFailed, "place order", err)
		}

		return nil, err
	}

	return raw, nil
}

// GetOpenOrders returns the account's pending orders as the provider
// reported them.
func (c *Client) GetOpenOrders(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, "GET", c.accountPath("/openOrders"), nil, nil)
}

// GetOpenPositions returns the account's open positions as the provider
// reported them.
func (c *Client) GetOpenPositions(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, "GET", c.accountPath("/openPositions"), nil, nil)
}
