package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/clock"
)

var t0 = time.Date(2026, time.October, 18, 18, 0, 0, 0, time.UTC)

func TestThrottle_SpacesConsecutiveCalls(t *testing.T) {
	clk := clock.NewFake(t0)
	th := NewThrottle("yahoo", 10*time.Second, clk)

	var stamps []time.Time
	call := func(ctx context.Context) error {
		stamps = append(stamps, clk.Now())
		return nil
	}

	require.NoError(t, th.Do(context.Background(), call))
	require.NoError(t, th.Do(context.Background(), call))
	clk.Advance(25 * time.Second)
	require.NoError(t, th.Do(context.Background(), call))

	require.Len(t, stamps, 3)
	assert.Equal(t, t0, stamps[0], "first call is not delayed")
	assert.Equal(t, 10*time.Second, stamps[1].Sub(stamps[0]))
	assert.Equal(t, t0.Add(35*time.Second), stamps[2], "no wait once the interval has passed")
	assert.Equal(t, []time.Duration{10 * time.Second}, clk.Sleeps())
	assert.Equal(t, stamps[2], th.LastCall())
}

func TestThrottle_SpacingHoldsAcrossFailures(t *testing.T) {
	clk := clock.NewFake(t0)
	th := NewThrottle("twelvedata", 8*time.Second, clk)

	var stamps []time.Time
	failing := func(ctx context.Context) error {
		stamps = append(stamps, clk.Now())
		clk.Advance(time.Second) // the call itself takes a second
		return errors.New("provider down")
	}

	for i := 0; i < 3; i++ {
		assert.Error(t, th.Do(context.Background(), failing))
	}

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 8*time.Second)
	}
}

func TestThrottle_CancelledWaitLeavesNoStamp(t *testing.T) {
	clk := clock.NewFake(t0)
	th := NewThrottle("yahoo", 10*time.Second, clk)

	require.NoError(t, th.Do(context.Background(), func(context.Context) error { return nil }))
	first := th.LastCall()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := th.Do(ctx, func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, first, th.LastCall())
}

func TestThrottle_SerializesConcurrentCalls(t *testing.T) {
	th := NewThrottle("yahoo", 0, clock.Real{})

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = th.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}
