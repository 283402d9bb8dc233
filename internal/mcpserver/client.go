package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the risk index API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// RiskClient is a pure HTTP client for the risk index API.
type RiskClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewRiskClient creates a new client for the risk index API.
func NewRiskClient(cfg Config) *RiskClient {
	return &RiskClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *RiskClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// ListPools returns the tracked DeepBook pools.
func (c *RiskClient) ListPools(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/pools", nil, nil)
}

// GetLatestMetric returns the most recent risk snapshot for a pool.
func (c *RiskClient) GetLatestMetric(ctx context.Context, poolID int64) (json.RawMessage, error) {
	path := "/pools/" + strconv.FormatInt(poolID, 10) + "/metrics/latest"
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// SyncPoolMetrics computes and stores a fresh risk snapshot for a pool.
func (c *RiskClient) SyncPoolMetrics(ctx context.Context, poolID int64) (json.RawMessage, error) {
	path := "/sync/deepbook/metrics/" + strconv.FormatInt(poolID, 10)
	return c.doRequest(ctx, http.MethodPost, path, nil, nil)
}

// GetWalletScore returns the risk profile for a wallet address.
func (c *RiskClient) GetWalletScore(ctx context.Context, address string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/risk/identity/wallet-score/"+address, nil, nil)
}

// GetMintPayload returns the Move call payload for minting a wallet's risk identity.
func (c *RiskClient) GetMintPayload(ctx context.Context, address string) (json.RawMessage, error) {
	body := map[string]string{"address": address}
	return c.doRequest(ctx, http.MethodPost, "/risk/identity/mint-payload", nil, body)
}

// GetIdentityHistory returns recorded mints for a wallet, newest first.
func (c *RiskClient) GetIdentityHistory(ctx context.Context, address string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/risk/identity/history/"+address, nil, nil)
}
