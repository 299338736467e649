package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jhalmu/dividendsomatic/internal/infrastructure/marketdata"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "http://localhost:8000"
	quotePath      = "/api/v1/quote"
)

// Client implements marketdata.QuoteProvider against the yfinance-based
// quote microservice, a small Python sidecar exposing market data over
// REST.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client with default settings.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

// NewClientWithHTTPClient creates a client with a custom HTTP client,
// for tests.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

// SetBaseURL overrides the base URL, for tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

type quoteResponse struct {
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Time     string `json:"time"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// GetQuote fetches the latest market price for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	reqURL := fmt.Sprintf("%s%s/%s", c.baseURL, quotePath, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "url", reqURL)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no quote found for symbol: %s", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("API error: %s", errResp.Detail)
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var qr quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	price, err := decimal.NewFromString(qr.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for %s: %w", qr.Price, symbol, err)
	}

	return &marketdata.Quote{
		Symbol:   qr.Symbol,
		Price:    price,
		Currency: qr.Currency,
		Time:     qr.Time,
	}, nil
}
