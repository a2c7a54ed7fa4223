package wb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wbsync/internal"
	"wbsync/internal/config"
)

// APIError is any non-2xx marketplace response. The body is kept verbatim
// because error classification inspects it.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wb api error: status=%d body=%s", e.Status, e.Body)
}

// Client talks to the marketplace HTTP API. One call per method, no retry
// here; the dispatcher owns the retry budget.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.RateLimitRPS),
	}
}

// Warehouses lists the seller's warehouses.
func (c *Client) Warehouses(ctx context.Context) ([]internal.Warehouse, error) {
	body, err := c.do(ctx, http.MethodGet, c.stocksURL("warehouses"), nil)
	if err != nil {
		return nil, err
	}
	var out []internal.Warehouse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode warehouses response: %w", err)
	}
	return out, nil
}

// UpdateStocks upserts stock amounts on one warehouse.
func (c *Client) UpdateStocks(ctx context.Context, warehouseID int64, stocks []internal.StockUpdate) error {
	payload := map[string]any{"stocks": stocks}
	_, err := c.do(ctx, http.MethodPut, c.stocksURL(fmt.Sprintf("stocks/%d", warehouseID)), payload)
	return err
}

// DeleteStocks removes stock entries from one warehouse.
func (c *Client) DeleteStocks(ctx context.Context, warehouseID int64, skus []string) error {
	payload := map[string]any{"skus": skus}
	_, err := c.do(ctx, http.MethodDelete, c.stocksURL(fmt.Sprintf("stocks/%d", warehouseID)), payload)
	return err
}

// UploadPrices submits one batch of price updates.
func (c *Client) UploadPrices(ctx context.Context, prices []internal.PriceUpdate) error {
	payload := map[string]any{"data": prices}
	_, err := c.do(ctx, http.MethodPost, c.pricesURL("upload/task"), payload)
	return err
}

func (c *Client) stocksURL(endpoint string) string {
	return strings.TrimRight(c.cfg.StocksAPIURL, "/") + "/" + endpoint
}

func (c *Client) pricesURL(endpoint string) string {
	return strings.TrimRight(c.cfg.PricesAPIURL, "/") + "/" + endpoint
}

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	if err := c.cfg.RequireToken(); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(blob)
	}

	c.limiter.WaitTurn()

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
