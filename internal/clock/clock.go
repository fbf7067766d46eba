// Package clock abstracts wall-clock time so throttles, backoffs and
// date-scoped caches can be driven deterministically in tests.
package clock

import (
	"context"
	"time"
)

// Clock supplies the current time and a context-aware sleep.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is the production clock backed by the time package.
type Real struct{}

// Now returns the current local time.
func (Real) Now() time.Time { return time.Now() }

// Sleep waits for d, returning ctx.Err() if the context ends first.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
