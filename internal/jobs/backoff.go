package jobs

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes retry spacing. The shape is a tuning knob: correctness
// never depends on when a retry lands, only on the handler re-validating.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{
		Base:   base,
		Max:    max,
		Factor: 2.0,
		Jitter: 0.1,
	}
}

// NextDelay returns the wait before attempt n+1, given n attempts so far.
func (b *Backoff) NextDelay(attempt int32) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(b.Base) * math.Pow(b.Factor, float64(attempt-1))
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}

	if b.Jitter > 0 {
		jitterRange := delay * b.Jitter
		delay += (rand.Float64() * 2 * jitterRange) - jitterRange
	}

	if delay < float64(b.Base) {
		delay = float64(b.Base)
	}

	return time.Duration(delay)
}
