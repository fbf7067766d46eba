package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/clock"
)

var silent = zerolog.New(nil).Level(zerolog.Disabled)

type memoryRecorder struct {
	mu      sync.Mutex
	reports []RunReport
}

func (m *memoryRecorder) Save(ctx context.Context, r RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

type countingObserver struct{ runs atomic.Int32 }

func (o *countingObserver) ObserveRun(RunReport) { o.runs.Add(1) }

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" NAVs ")
	require.NoError(t, err)
	assert.Equal(t, KindNAVs, k)

	_, err = ParseKind("dividends")
	assert.Error(t, err)
}

func TestTally_Add(t *testing.T) {
	a := Tally{Updated: 1, Failed: 2}
	a.Add(Tally{Updated: 3, Skipped: 4, ConfigErrors: 1})
	assert.Equal(t, Tally{Updated: 4, Failed: 2, Skipped: 4, ConfigErrors: 1}, a)
	assert.Equal(t, 10, a.Total())
}

func TestRun_RecordsReport(t *testing.T) {
	start := time.Date(2026, time.October, 18, 18, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	rec := &memoryRecorder{}
	obs := &countingObserver{}

	c := NewCoordinator(clk, silent)
	c.SetRecorder(rec)
	c.SetObserver(obs)
	c.Register(KindAmortization, func(ctx context.Context) (Tally, error) {
		clk.Advance(2 * time.Second)
		return Tally{Updated: 2, Skipped: 1}, nil
	})

	report, err := c.Run(context.Background(), KindAmortization)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, KindAmortization, report.Kind)
	assert.Equal(t, Tally{Updated: 2, Skipped: 1}, report.Tally)
	assert.Equal(t, 2*time.Second, report.Duration())
	assert.False(t, report.Failed())
	assert.False(t, report.Shared)

	require.Len(t, rec.reports, 1)
	assert.Equal(t, report.ID, rec.reports[0].ID)
	assert.Equal(t, int32(1), obs.runs.Load())
}

func TestRun_AbortedRunCarriesError(t *testing.T) {
	c := NewCoordinator(clock.Real{}, silent)
	c.Register(KindNAVs, func(ctx context.Context) (Tally, error) {
		return Tally{}, errors.New("NAV table unavailable")
	})

	report, err := c.Run(context.Background(), KindNAVs)
	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Contains(t, report.Error, "NAV table unavailable")
}

func TestRun_PanicBecomesError(t *testing.T) {
	c := NewCoordinator(clock.Real{}, silent)
	c.Register(KindPrices, func(ctx context.Context) (Tally, error) {
		panic("boom")
	})

	report, err := c.Run(context.Background(), KindPrices)
	require.NoError(t, err)
	assert.Contains(t, report.Error, "boom")
}

func TestRun_UnknownKind(t *testing.T) {
	c := NewCoordinator(clock.Real{}, silent)
	_, err := c.Run(context.Background(), KindPrices)
	assert.Error(t, err)
	assert.False(t, c.Registered(KindPrices))
	assert.Empty(t, c.Kinds())
}

func TestRun_ConcurrentCallsShareOneRun(t *testing.T) {
	c := NewCoordinator(clock.Real{}, silent)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c.Register(KindPrices, func(ctx context.Context) (Tally, error) {
		calls.Add(1)
		close(started)
		<-release
		return Tally{Updated: 5}, nil
	})

	first := make(chan RunReport, 1)
	go func() {
		r, _ := c.Run(context.Background(), KindPrices)
		first <- r
	}()
	<-started

	second := make(chan RunReport, 1)
	go func() {
		r, _ := c.Run(context.Background(), KindPrices)
		second <- r
	}()

	// Give the second caller time to join the in-flight run.
	time.Sleep(50 * time.Millisecond)
	close(release)

	a, b := <-first, <-second
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, a.ID, b.ID)
	assert.False(t, a.Shared)
	assert.True(t, b.Shared)
	assert.Equal(t, 5, b.Tally.Updated)
}

func TestRun_KindsDoNotBlockEachOther(t *testing.T) {
	c := NewCoordinator(clock.Real{}, silent)

	release := make(chan struct{})
	c.Register(KindPrices, func(ctx context.Context) (Tally, error) {
		<-release
		return Tally{}, nil
	})
	c.Register(KindAmortization, func(ctx context.Context) (Tally, error) {
		return Tally{Updated: 1}, nil
	})

	done := make(chan struct{})
	go func() {
		_, _ = c.Run(context.Background(), KindPrices)
		close(done)
	}()

	report, err := c.Run(context.Background(), KindAmortization)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tally.Updated)

	close(release)
	<-done
}
