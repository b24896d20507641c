package reminder

import (
	"math/rand"
	"time"
)

// Retry delays after each failed delivery attempt.
var retryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
	12 * time.Hour,
}

const (
	// MaxAttempts is the number of delivery attempts before giving up.
	MaxAttempts = 5

	// JitterFactor is the ±fraction of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay returns the backoff after failed attempt number attempt
// (1-based), with ±20% jitter.
func NextRetryDelay(attempt int) time.Duration {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(retryDelays) {
		idx = len(retryDelays) - 1
	}

	base := retryDelays[idx]
	jitter := (rand.Float64()*2 - 1) * float64(base) * JitterFactor

	return time.Duration(float64(base) + jitter)
}

// IsExhausted reports whether attempts has used up the retry budget.
func IsExhausted(attempts int) bool {
	return attempts >= MaxAttempts
}

// RetryDelays returns a copy of the backoff schedule.
func RetryDelays() []time.Duration {
	return append([]time.Duration{}, retryDelays...)
}
