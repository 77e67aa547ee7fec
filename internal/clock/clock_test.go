package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestRealSleep verifies cancellation and the zero-duration fast path.
// The actual waiting behavior is left to the runtime; sleeping in tests
// only buys flakiness.
func TestRealSleep(t *testing.T) {
	t.Parallel()

	t.Run("zero duration returns immediately", func(t *testing.T) {
		t.Parallel()
		if err := (Real{}).Sleep(context.Background(), 0); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("cancelled context returns context error", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := (Real{}).Sleep(ctx, time.Hour)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestFake verifies the manually-stepped clock used throughout the
// pipeline tests.
func TestFake(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("starts at the given instant", func(t *testing.T) {
		t.Parallel()
		f := NewFake(start)
		if !f.Now().Equal(start) {
			t.Errorf("expected %v, got %v", start, f.Now())
		}
	})

	t.Run("advance moves time forward", func(t *testing.T) {
		t.Parallel()
		f := NewFake(start)
		f.Advance(90 * time.Minute)
		want := start.Add(90 * time.Minute)
		if !f.Now().Equal(want) {
			t.Errorf("expected %v, got %v", want, f.Now())
		}
	})

	t.Run("sleep records durations and advances time", func(t *testing.T) {
		t.Parallel()
		f := NewFake(start)
		ctx := context.Background()

		if err := f.Sleep(ctx, time.Second); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := f.Sleep(ctx, 2*time.Second); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		sleeps := f.Sleeps()
		if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
			t.Errorf("expected [1s 2s], got %v", sleeps)
		}
		want := start.Add(3 * time.Second)
		if !f.Now().Equal(want) {
			t.Errorf("expected %v, got %v", want, f.Now())
		}
	})

	t.Run("sleep honors cancelled context", func(t *testing.T) {
		t.Parallel()
		f := NewFake(start)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := f.Sleep(ctx, time.Second)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(f.Sleeps()) != 0 {
			t.Errorf("expected no recorded sleeps, got %v", f.Sleeps())
		}
	})
}

// TestExpired verifies TTL evaluation including the never-expires rule.
func TestExpired(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ttl  time.Duration
		now  time.Time
		want bool
	}{
		{"zero TTL never expires", 0, fetchedAt.Add(1000 * time.Hour), false},
		{"negative TTL never expires", -time.Hour, fetchedAt.Add(time.Hour), false},
		{"fresh before deadline", time.Hour, fetchedAt.Add(59 * time.Minute), false},
		{"expired at deadline", time.Hour, fetchedAt.Add(time.Hour), true},
		{"expired after deadline", time.Hour, fetchedAt.Add(2 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Expired(fetchedAt, tt.ttl, tt.now); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
