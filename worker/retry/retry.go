package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy is a capped exponential backoff.
// Attempt n waits Initial * Multiplier^(n-1), never more than Max.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// MaxAttempts stops retrying once reached, zero means unlimited
	MaxAttempts int
	// Jitter shortens each delay by a random fraction up to Jitter, in [0, 1]
	Jitter float64

	random func() float64
}

// Next returns the delay before retrying after attempts failures.
// ok is false when no further attempt is allowed.
func (p Policy) Next(attempts int) (delay time.Duration, ok bool) {
	attempts = max(attempts, 1)
	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return 0, false
	}

	d := float64(p.Initial) * math.Pow(p.Multiplier, float64(attempts-1))
	if math.IsInf(d, 0) || d > float64(p.Max) {
		d = float64(p.Max)
	}
	if p.Jitter > 0 {
		random := p.random
		if random == nil {
			random = rand.Float64
		}
		d -= d * min(p.Jitter, 1) * random()
	}
	return time.Duration(d), true
}
