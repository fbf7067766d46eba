// Package pricing resolves an instrument's current market price through an
// ordered chain of external providers, each paced by its own throttle.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
)

// PriceSource is one external price provider.
type PriceSource interface {
	Name() string
	Price(ctx context.Context, symbol string, kind domain.InstrumentKind) (decimal.Decimal, error)
}

// ChartClient fetches the last daily close for a symbol in a single request.
type ChartClient interface {
	LastClose(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// QuoteClient fetches the latest price for a symbol in a single request.
type QuoteClient interface {
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// RetryPolicy bounds attempts for a retrying source.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// DefaultRetryPolicy is three attempts with a 3s backoff that doubles each retry.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, InitialBackoff: 3 * time.Second}

// RetryingSource wraps a ChartClient with attempt and backoff discipline.
// Rate-limit and transient errors are retried. Anything else ends the attempt loop.
type RetryingSource struct {
	name   string
	client ChartClient
	policy RetryPolicy
	clock  clock.Clock
	log    zerolog.Logger
}

// NewRetryingSource creates a retrying source named name.
func NewRetryingSource(name string, client ChartClient, policy RetryPolicy, clk clock.Clock, log zerolog.Logger) *RetryingSource {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingSource{
		name:   name,
		client: client,
		policy: policy,
		clock:  clk,
		log:    log.With().Str("source", name).Logger(),
	}
}

// Name returns the provider name.
func (s *RetryingSource) Name() string { return s.name }

// Price tries up to MaxAttempts times, sleeping the backoff between retryable failures.
func (s *RetryingSource) Price(ctx context.Context, symbol string, _ domain.InstrumentKind) (decimal.Decimal, error) {
	backoff := s.policy.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		price, err := s.client.LastClose(ctx, symbol)
		if err == nil {
			return price, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, ctxErr
		}
		lastErr = err

		if !domain.IsRetryable(err) {
			return decimal.Zero, err
		}
		if attempt == s.policy.MaxAttempts {
			break
		}

		s.log.Warn().
			Err(err).
			Str("symbol", symbol).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying after provider failure")

		if err := s.clock.Sleep(ctx, backoff); err != nil {
			return decimal.Zero, err
		}
		backoff *= 2
	}

	return decimal.Zero, fmt.Errorf("%w: %d attempts exhausted: %w", domain.ErrDataUnavailable, s.policy.MaxAttempts, lastErr)
}

// SingleShotSource calls a QuoteClient exactly once per lookup.
type SingleShotSource struct {
	name   string
	client QuoteClient
}

// NewSingleShotSource creates a non-retrying source named name.
func NewSingleShotSource(name string, client QuoteClient) *SingleShotSource {
	return &SingleShotSource{name: name, client: client}
}

// Name returns the provider name.
func (s *SingleShotSource) Name() string { return s.name }

// Configured reports whether the underlying client has what it needs to
// make a call. Clients without a Configured method are always ready.
func (s *SingleShotSource) Configured() bool {
	if c, ok := s.client.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Price performs one request.
func (s *SingleShotSource) Price(ctx context.Context, symbol string, _ domain.InstrumentKind) (decimal.Decimal, error) {
	return s.client.Price(ctx, symbol)
}
