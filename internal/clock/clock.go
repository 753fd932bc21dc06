// Package clock provides a manual test clock for timer-driven engine
// behavior (retry intervals, settle delays, appear delays).
package clock

import (
	"context"
	"sync"
	"time"
)

// Fake implements ports.Clock with manually controlled time. Sleep
// advances the clock instantly and records the requested duration, so
// retry loops and settle delays run deterministically in tests without
// real waiting. Safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	slept   []time.Duration
}

// NewFake creates a fake clock starting at the given instant.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fake) Since(t time.Time) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current.Sub(t)
}

// Sleep advances the clock by d without blocking. It still honors
// cancellation so stale-token tests can cancel mid-retry.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
	f.slept = append(f.slept, d)
	return nil
}

// Advance moves the clock forward manually.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// Set moves the clock to an absolute instant.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Slept returns the durations of every Sleep call so far.
func (f *Fake) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.slept))
	copy(out, f.slept)
	return out
}
