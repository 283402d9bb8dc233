// Package surflux is the HTTP client for the Surflux DeepBook market data API.
//
// Three read-only endpoints are used: the pool list, per-pool order-book
// depth, and per-pool recent trades. All failures surface as typed errors so
// callers can decide whether a missing snapshot is fatal or just a risk
// signal.
package surflux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ekinalp/suirisk/internal/circuitbreaker"
	"github.com/ekinalp/suirisk/internal/metrics"
)

// ErrAPIKeyMissing is returned when no API key is configured.
var ErrAPIKeyMissing = errors.New("surflux API key is not configured")

// ErrCircuitOpen is returned when the per-endpoint circuit breaker is
// rejecting calls after repeated upstream failures.
var ErrCircuitOpen = errors.New("surflux circuit open, upstream recently failing")

// APIError is a failed call to the Surflux API (non-200 response or
// transport failure).
type APIError struct {
	Endpoint   string
	StatusCode int    // 0 on transport errors
	Body       string // response body, truncated
	Err        error  // underlying transport error, if any
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("surflux %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("surflux %s: status %d - %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// Default request parameters, matching the upstream API documentation.
const (
	DefaultDepthLimit  = 20
	DefaultTradesLimit = 100

	maxBodySnippet = 200
)

// Config configures the Surflux client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // per-call; defaults to 15s
}

// Client calls the Surflux DeepBook API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a Surflux client. A per-endpoint circuit breaker trips
// after repeated failures so a dead upstream fails fast instead of burning
// the full timeout on every request.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    circuitbreaker.New(5, 30*time.Second),
	}
}

// GetPools fetches the DeepBook pool list.
//
// GET /deepbook/get_pools?api-key=KEY
func (c *Client) GetPools(ctx context.Context) ([]PoolInfo, error) {
	var pools []PoolInfo
	if err := c.get(ctx, "get_pools", "/deepbook/get_pools", nil, &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

// GetOrderBookDepth fetches aggregated order-book depth for a pool.
//
// GET /deepbook/{poolName}/order-book-depth?limit=N&api-key=KEY
func (c *Client) GetOrderBookDepth(ctx context.Context, poolName string, limit int) (*OrderBook, error) {
	if limit <= 0 {
		limit = DefaultDepthLimit
	}
	book := &OrderBook{}
	path := "/deepbook/" + url.PathEscape(poolName) + "/order-book-depth"
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "order_book_depth", path, params, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetRecentTrades fetches the most recent trades for a pool.
//
// GET /deepbook/{poolName}/trades?limit=N&api-key=KEY
func (c *Client) GetRecentTrades(ctx context.Context, poolName string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = DefaultTradesLimit
	}
	var trades []Trade
	path := "/deepbook/" + url.PathEscape(poolName) + "/trades"
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "trades", path, params, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// get performs one authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if c.cfg.APIKey == "" {
		return ErrAPIKeyMissing
	}
	if !c.breaker.Allow(endpoint) {
		metrics.SurfluxRequestsTotal.WithLabelValues(endpoint, "circuit_open").Inc()
		return ErrCircuitOpen
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api-key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("surflux: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure(endpoint)
		metrics.SurfluxRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &APIError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure(endpoint)
		metrics.SurfluxRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.breaker.RecordFailure(endpoint)
		metrics.SurfluxRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.breaker.RecordSuccess(endpoint)
	metrics.SurfluxRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// IsGatewayError reports whether err is any failure of the upstream market
// data API (as opposed to a local programming error).
func IsGatewayError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, ErrAPIKeyMissing) ||
		errors.Is(err, ErrCircuitOpen)
}
