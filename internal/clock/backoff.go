package clock

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes exponential retry delays with jitter.
// It holds no mutable state: Duration is a pure function of the attempt
// number and the injected randomness source, so retry schedules can be
// asserted in tests without sleeping.
type Backoff struct {
	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max caps the exponential growth.
	Max time.Duration

	// Multiplier is the exponential growth factor. Values <= 1 are
	// treated as the default of 2.
	Multiplier float64

	// Jitter is the fraction of the computed delay that is randomized,
	// in [0, 1]. A value of 0.5 means the final delay lies in
	// [0.5*d, 1.0*d]. Jitter spreads retries from concurrent workers
	// so a recovering remote isn't hit by a synchronized burst.
	Jitter float64

	// Rand supplies randomness in [0, 1). Nil means math/rand/v2.
	// Tests inject a deterministic source.
	Rand func() float64
}

// DefaultBackoff returns the backoff policy used when the configuration
// doesn't override it: 500ms initial, doubling, capped at 30s, half jittered.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    500 * time.Millisecond,
		Max:        30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.5,
	}
}

// Duration returns the delay to wait before retry number attempt.
// Attempt 1 is the first retry (after the initial try failed).
// Non-positive attempts return zero.
func (b Backoff) Duration(attempt int) time.Duration {
	if attempt <= 0 || b.Initial <= 0 {
		return 0
	}

	mult := b.Multiplier
	if mult <= 1 {
		mult = 2.0
	}

	d := float64(b.Initial) * math.Pow(mult, float64(attempt-1))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}

	if b.Jitter > 0 {
		j := min(b.Jitter, 1.0)
		r := b.Rand
		if r == nil {
			r = rand.Float64
		}
		// Scale into [1-j, 1] of the computed delay.
		d *= 1 - j*r()
	}

	return time.Duration(d)
}
