// Package yahoo provides a client for the Yahoo Finance chart endpoint.
package yahoo

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

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

	// ProviderName identifies this source in errors, logs and metrics.
	ProviderName = "yahoo"

	closePath = "$.chart.result[0].indicators.quote[0].close"
)

// Client fetches daily chart data. It performs exactly one request per call;
// retry and pacing are the caller's concern.
type Client struct {
	baseURL    string
	userAgent  string
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

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new Yahoo Finance chart client
func NewClient(log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        log.With().Str("client", ProviderName).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeSymbol appends the NSE suffix unless the symbol already carries
// an Indian exchange suffix (.NS or .BO).
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if strings.HasSuffix(symbol, ".NS") || strings.HasSuffix(symbol, ".BO") {
		return symbol
	}
	return symbol + ".NS"
}

// LastClose returns the last entry of the daily close series for symbol.
//
// Errors unwrap to domain.ErrRateLimited on HTTP 429, domain.ErrTransientProvider
// on transport or decoding failures, domain.ErrMalformedData when the document
// has no usable close price, and domain.ErrDataUnavailable for any other status.
func (c *Client) LastClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ySymbol := NormalizeSymbol(symbol)
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d", c.baseURL, url.PathEscape(ySymbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("symbol", ySymbol).Msg("Fetching chart")

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

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return decimal.Zero, domain.NewProviderError(ProviderName, resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		c.log.Error().
			Str("symbol", ySymbol).
			Int("status", resp.StatusCode).
			Str("body", truncate(body, 256)).
			Msg("Chart endpoint returned error")
		return decimal.Zero, domain.NewProviderError(ProviderName, resp.StatusCode, domain.ErrDataUnavailable)
	}

	price, err := parseLastClose(body)
	if err != nil {
		return decimal.Zero, domain.NewProviderError(ProviderName, resp.StatusCode, err)
	}
	return price, nil
}

// parseLastClose extracts the final element of the close series.
func parseLastClose(body []byte) (decimal.Decimal, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding chart: %v", domain.ErrTransientProvider, err)
	}

	val, err := jsonpath.Get(closePath, doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: no close series: %v", domain.ErrMalformedData, err)
	}

	series, ok := val.([]interface{})
	if !ok || len(series) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty close series", domain.ErrMalformedData)
	}

	last, ok := series[len(series)-1].(json.Number)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: last close is not numeric", domain.ErrMalformedData)
	}

	price, err := decimal.NewFromString(last.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrMalformedData, err)
	}
	return price, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
