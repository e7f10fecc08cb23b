// Package oanda implements the market data & execution provider client for
// an OANDA-style forex REST API. Only fully closed candles are returned;
// order and position operations are opaque pass-throughs.
package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tradecraft-labs/fxstate/internal/logger"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// Config holds the connection settings for the provider.
type Config struct {
	BaseURL   string
	Token     string
	AccountID string
	// Timeout bounds every request; the client never blocks indefinitely on
	// an unresponsive upstream.
	Timeout time.Duration
	// RateRPS limits outgoing requests per second. Zero disables limiting.
	RateRPS float64
}

// Client is the provider HTTP client.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewClient constructs a provider client.
func NewClient(config Config, logger *logger.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "provider base URL is required")
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	limit := rate.Inf
	if config.RateRPS > 0 {
		limit = rate.Limit(config.RateRPS)
	}

	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderUnavailable, "rate limiter wait", err)
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "encode request body", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderUnavailable, "build request", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeProviderUnavailable, err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderUnavailable, "read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("provider request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))

		return nil, errors.Newf(errors.ErrCodeProviderFetchFailed, "%s %s: status %d: %s", method, path, resp.StatusCode, truncate(raw, 256))
	}

	return raw, nil
}

func (c *Client) accountPath(suffix string) string {
	return fmt.Sprintf("/accounts/%s%s", c.config.AccountID, suffix)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}

	return string(b[:n]) + "..."
}
