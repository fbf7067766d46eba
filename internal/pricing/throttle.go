package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aristath/fintrack/internal/clock"
)

// Throttle enforces a minimum spacing between calls to one provider and
// serializes those calls across goroutines.
//
// The last-call time is stamped after the wait and before the call runs, so
// spacing holds across consecutive failures. A wait aborted by ctx releases
// its reservation and leaves the stamp untouched.
type Throttle struct {
	name     string
	interval time.Duration
	clock    clock.Clock
	limiter  *rate.Limiter
	slot     chan struct{}

	mu       sync.Mutex
	lastCall time.Time
}

// NewThrottle creates a throttle allowing one call per interval.
// A non-positive interval disables spacing but still serializes calls.
func NewThrottle(name string, interval time.Duration, clk clock.Clock) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{
		name:     name,
		interval: interval,
		clock:    clk,
		limiter:  rate.NewLimiter(limit, 1),
		slot:     make(chan struct{}, 1),
	}
}

// Name returns the provider this throttle guards.
func (t *Throttle) Name() string { return t.name }

// Interval returns the minimum spacing between calls.
func (t *Throttle) Interval() time.Duration { return t.interval }

// LastCall returns when the most recent call was let through, or the zero time.
func (t *Throttle) LastCall() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastCall
}

// Do waits for the provider's turn and then runs fn.
func (t *Throttle) Do(ctx context.Context, fn func(context.Context) error) error {
	select {
	case t.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-t.slot }()

	if err := ctx.Err(); err != nil {
		return err
	}

	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("throttle %s: reservation refused", t.name)
	}
	if delay := r.DelayFrom(now); delay > 0 {
		if err := t.clock.Sleep(ctx, delay); err != nil {
			r.CancelAt(t.clock.Now())
			return err
		}
	}

	t.mu.Lock()
	t.lastCall = t.clock.Now()
	t.mu.Unlock()

	return fn(ctx)
}
