package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/domain"
)

var silent = zerolog.New(nil).Level(zerolog.Disabled)

type scriptedReply struct {
	price string
	err   error
}

// scriptedChart replays a fixed list of replies, one per call.
type scriptedChart struct {
	replies []scriptedReply
	calls   int
}

func (s *scriptedChart) LastClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.calls >= len(s.replies) {
		s.calls++
		return decimal.Zero, errors.New("unexpected call")
	}
	r := s.replies[s.calls]
	s.calls++
	if r.err != nil {
		return decimal.Zero, r.err
	}
	return decimal.RequireFromString(r.price), nil
}

func rateLimited() error {
	return domain.NewProviderError("yahoo", 429, domain.ErrRateLimited)
}

func TestRetryingSource_RetriesRateLimitWithDoublingBackoff(t *testing.T) {
	clk := clock.NewFake(t0)
	chart := &scriptedChart{replies: []scriptedReply{
		{err: rateLimited()},
		{err: domain.NewProviderError("yahoo", 0, domain.ErrTransientProvider)},
		{price: "412.5"},
	}}
	src := NewRetryingSource("yahoo", chart, DefaultRetryPolicy, clk, silent)

	price, err := src.Price(context.Background(), "ITC", domain.KindStock)
	require.NoError(t, err)

	assert.Equal(t, "412.5", price.String())
	assert.Equal(t, 3, chart.calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, clk.Sleeps())
}

func TestRetryingSource_ExhaustsAttempts(t *testing.T) {
	clk := clock.NewFake(t0)
	chart := &scriptedChart{replies: []scriptedReply{
		{err: rateLimited()}, {err: rateLimited()}, {err: rateLimited()},
	}}
	src := NewRetryingSource("yahoo", chart, DefaultRetryPolicy, clk, silent)

	_, err := src.Price(context.Background(), "ITC", domain.KindStock)

	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, chart.calls)
	assert.Len(t, clk.Sleeps(), 2, "no sleep after the final attempt")
}

func TestRetryingSource_HardFailureIsNotRetried(t *testing.T) {
	clk := clock.NewFake(t0)
	chart := &scriptedChart{replies: []scriptedReply{
		{err: domain.NewProviderError("yahoo", 404, domain.ErrDataUnavailable)},
	}}
	src := NewRetryingSource("yahoo", chart, DefaultRetryPolicy, clk, silent)

	_, err := src.Price(context.Background(), "ITC", domain.KindStock)

	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Equal(t, 1, chart.calls)
	assert.Empty(t, clk.Sleeps())
}

func TestRetryingSource_MalformedIsNotRetried(t *testing.T) {
	chart := &scriptedChart{replies: []scriptedReply{{err: domain.ErrMalformedData}}}
	src := NewRetryingSource("yahoo", chart, DefaultRetryPolicy, clock.NewFake(t0), silent)

	_, err := src.Price(context.Background(), "ITC", domain.KindStock)
	assert.ErrorIs(t, err, domain.ErrMalformedData)
	assert.Equal(t, 1, chart.calls)
}

func TestRetryingSource_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chart := &cancellingChart{cancel: cancel}
	src := NewRetryingSource("yahoo", chart, DefaultRetryPolicy, clock.NewFake(t0), silent)

	_, err := src.Price(ctx, "ITC", domain.KindStock)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, chart.calls)
}

// cancellingChart cancels the run while reporting a retryable failure.
type cancellingChart struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingChart) LastClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	c.calls++
	c.cancel()
	return decimal.Zero, rateLimited()
}

type stubQuote struct {
	configured bool
	price      string
	calls      int
}

func (s *stubQuote) Configured() bool { return s.configured }

func (s *stubQuote) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	s.calls++
	return decimal.RequireFromString(s.price), nil
}

func TestSingleShotSource(t *testing.T) {
	q := &stubQuote{configured: true, price: "99.95"}
	src := NewSingleShotSource("twelvedata", q)

	assert.Equal(t, "twelvedata", src.Name())
	assert.True(t, src.Configured())

	price, err := src.Price(context.Background(), "TCS", domain.KindStock)
	require.NoError(t, err)
	assert.Equal(t, "99.95", price.String())
	assert.Equal(t, 1, q.calls)

	q.configured = false
	assert.False(t, src.Configured())
}
