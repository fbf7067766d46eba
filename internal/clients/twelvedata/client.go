// Package twelvedata provides a client for the Twelve Data price endpoint.
package twelvedata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

const (
	DefaultBaseURL = "https://api.twelvedata.com"
	DefaultTimeout = 15 * time.Second

	// ProviderName identifies this source in errors, logs and metrics.
	ProviderName = "twelvedata"
)

// Client fetches latest prices. It requires an API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Twelve Data client. An empty apiKey is allowed;
// every call then fails fast with domain.ErrConfiguration.
func NewClient(apiKey string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        log.With().Str("client", ProviderName).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SplitSymbol strips an Indian exchange suffix and returns the bare symbol
// with its exchange code. Unsuffixed symbols default to NSE.
func SplitSymbol(symbol string) (string, string) {
	symbol = strings.TrimSpace(symbol)
	switch {
	case strings.HasSuffix(symbol, ".BO"):
		return strings.TrimSuffix(symbol, ".BO"), "BSE"
	case strings.HasSuffix(symbol, ".NS"):
		return strings.TrimSuffix(symbol, ".NS"), "NSE"
	default:
		return symbol, "NSE"
	}
}

// Price fetches the latest price for symbol in a single request.
func (c *Client) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if !c.Configured() {
		return decimal.Zero, domain.NewProviderError(ProviderName, 0,
			fmt.Errorf("%w: TWELVEDATA_API_KEY is not set", domain.ErrConfiguration))
	}

	bare, exchange := SplitSymbol(symbol)
	q := url.Values{}
	q.Set("symbol", bare)
	q.Set("exchange", exchange)
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("symbol", bare).Str("exchange", exchange).Msg("Fetching price")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		return decimal.Zero, domain.NewProviderError(ProviderName, 0,
			fmt.Errorf("%w: %v", domain.ErrTransientProvider, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, domain.NewProviderError(ProviderName, resp.StatusCode,
			fmt.Errorf("%w: reading body: %v", domain.ErrTransientProvider, err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return decimal.Zero, domain.NewProviderError(ProviderName, resp.StatusCode, domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, domain.NewProviderError(ProviderName, resp.StatusCode, domain.ErrDataUnavailable)
	}

	price, err := parsePrice(body)
	if err != nil {
		return decimal.Zero, domain.NewProviderError(ProviderName, resp.StatusCode, err)
	}
	return price, nil
}

// parsePrice reads the price field, treating an error payload as a failure even on HTTP 200.
func parsePrice(body []byte) (decimal.Decimal, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding price: %v", domain.ErrMalformedData, err)
	}

	if _, hasCode := doc["code"]; hasCode {
		return decimal.Zero, fmt.Errorf("%w: error payload: %v", domain.ErrDataUnavailable, doc["message"])
	}
	if status, _ := doc["status"].(string); status == "error" {
		return decimal.Zero, fmt.Errorf("%w: error payload: %v", domain.ErrDataUnavailable, doc["message"])
	}

	var raw string
	switch v := doc["price"].(type) {
	case string:
		raw = v
	case json.Number:
		raw = v.String()
	case nil:
		return decimal.Zero, fmt.Errorf("%w: no price field", domain.ErrMalformedData)
	default:
		return decimal.Zero, fmt.Errorf("%w: price has type %T", domain.ErrMalformedData, v)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q: %v", domain.ErrMalformedData, raw, err)
	}
	return price, nil
}
