package clock

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the current time and a cancellable sleep.
// Production code uses Real; tests use a Fake to step time manually.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time

	// Sleep blocks for d or until the context is cancelled,
	// returning the context's error in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real is a Clock backed by the system clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// Sleep waits for d or context cancellation, whichever comes first.
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

// Fake is a manually-stepped Clock for tests.
// Sleep returns immediately and advances the fake time by the slept
// duration, recording each sleep so tests can assert backoff behavior.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFake creates a Fake clock starting at the given instant.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Sleep records the requested duration and advances the fake time
// without blocking. Context cancellation is still honored so cancelled
// retries behave the same as with a real clock.
func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

// Sleeps returns a copy of all durations passed to Sleep, in order.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)
	return out
}

// Expired reports whether something fetched at fetchedAt with the given
// TTL is past its lifetime at instant now. A non-positive TTL means the
// entry never expires.
func Expired(fetchedAt time.Time, ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return !now.Before(fetchedAt.Add(ttl))
}
