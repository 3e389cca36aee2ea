//go:build unit

package jobs_test

import (
	"testing"
	"time"

	"opshub/internal/jobs"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowth(t *testing.T) {
	b := &jobs.Backoff{
		Base:   30 * time.Second,
		Max:    30 * time.Minute,
		Factor: 2.0,
		Jitter: 0,
	}

	assert.Equal(t, 30*time.Second, b.NextDelay(1))
	assert.Equal(t, 60*time.Second, b.NextDelay(2))
	assert.Equal(t, 120*time.Second, b.NextDelay(3))
}

func TestBackoffCap(t *testing.T) {
	b := &jobs.Backoff{
		Base:   30 * time.Second,
		Max:    5 * time.Minute,
		Factor: 2.0,
		Jitter: 0,
	}

	assert.Equal(t, 5*time.Minute, b.NextDelay(10))
	assert.Equal(t, 5*time.Minute, b.NextDelay(100))
}

func TestBackoffFloorsAtBase(t *testing.T) {
	b := &jobs.Backoff{
		Base:   30 * time.Second,
		Max:    30 * time.Minute,
		Factor: 2.0,
		Jitter: 0,
	}

	// Attempt counts below one still wait at least the base delay.
	assert.Equal(t, 30*time.Second, b.NextDelay(0))
	assert.Equal(t, 30*time.Second, b.NextDelay(-1))
}

func TestBackoffJitterBounds(t *testing.T) {
	b := jobs.NewBackoff(30*time.Second, 30*time.Minute)

	for attempt := int32(1); attempt <= 6; attempt++ {
		base := float64(30*time.Second) * pow2(attempt-1)
		lo := time.Duration(base * (1 - b.Jitter))
		hi := time.Duration(base * (1 + b.Jitter))
		if lo < b.Base {
			lo = b.Base
		}

		for i := 0; i < 50; i++ {
			d := b.NextDelay(attempt)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", attempt)
			assert.LessOrEqual(t, d, hi, "attempt %d", attempt)
		}
	}
}

func pow2(n int32) float64 {
	out := 1.0
	for i := int32(0); i < n; i++ {
		out *= 2
	}
	return out
}
