package ports

import (
	"context"
	"time"
)

// Clock provides the time operations behind every engine wait: retry
// intervals, settle delays, and appear delays. Tests substitute a fake
// so timer-driven behavior runs deterministically.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case. Implementations must honor cancellation promptly; the
	// engine relies on it to tear down pending timers.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock implements Clock with the standard time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
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
