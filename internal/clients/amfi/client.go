// Package amfi fetches and parses the AMFI bulk NAV table.
package amfi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/domain"
)

const (
	DefaultURL     = "https://www.amfiindia.com/spages/NAVAll.txt"
	DefaultTimeout = 30 * time.Second

	// ProviderName identifies this source in errors, logs and metrics.
	ProviderName = "amfi"
)

// Client downloads the NAVAll table.
type Client struct {
	url        string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithURL sets the table URL
func WithURL(u string) ClientOption {
	return func(c *Client) {
		c.url = u
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new AMFI client
func NewClient(log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		url:        DefaultURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        log.With().Str("client", ProviderName).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll downloads and parses the whole table in one request.
// A table that yields no schemes is reported as domain.ErrDataUnavailable.
func (c *Client) FetchAll(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.log.Info().Msg("Fetching NAV table")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewProviderError(ProviderName, 0,
			fmt.Errorf("%w: %v", domain.ErrTransientProvider, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewProviderError(ProviderName, resp.StatusCode, domain.ErrDataUnavailable)
	}

	navs, skipped, err := ParseNAVTable(resp.Body)
	if err != nil {
		return nil, domain.NewProviderError(ProviderName, resp.StatusCode,
			fmt.Errorf("%w: reading table: %v", domain.ErrTransientProvider, err))
	}
	if len(navs) == 0 {
		return nil, domain.NewProviderError(ProviderName, resp.StatusCode,
			fmt.Errorf("%w: table contained no schemes", domain.ErrDataUnavailable))
	}

	c.log.Info().
		Int("schemes", len(navs)).
		Int("skipped_lines", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched NAV table")

	return navs, nil
}

// ParseNAVTable reads a semicolon-delimited table of the shape
// schemeCode;isinGrowth;isinReinvest;name;nav;date.
// Only field 0 and field 4 are used. Section headings and lines with too
// few fields or a non-numeric NAV are skipped and counted; they never abort the parse.
func ParseNAVTable(r io.Reader) (map[string]decimal.Decimal, int, error) {
	navs := make(map[string]decimal.Decimal)
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, ";") {
			continue
		}

		parts := strings.Split(line, ";")
		if len(parts) < 5 {
			skipped++
			continue
		}

		code := strings.TrimSpace(parts[0])
		raw := strings.TrimSpace(parts[4])
		if code == "" || raw == "" {
			skipped++
			continue
		}

		nav, err := decimal.NewFromString(raw)
		if err != nil {
			skipped++
			continue
		}
		navs[code] = nav
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}

	return navs, skipped, nil
}
