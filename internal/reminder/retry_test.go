package reminder

import (
	"testing"
	"time"
)

func TestNextRetryDelay(t *testing.T) {
	tests := []struct {
		attempt  int
		minDelay time.Duration
		maxDelay time.Duration
	}{
		{1, 48 * time.Second, 72 * time.Second},
		{2, 4 * time.Minute, 6 * time.Minute},
		{3, 24 * time.Minute, 36 * time.Minute},
		{4, 96 * time.Minute, 144 * time.Minute},
		{5, 576 * time.Minute, 864 * time.Minute},
		{9, 576 * time.Minute, 864 * time.Minute},
		{0, 48 * time.Second, 72 * time.Second},
	}

	for _, tt := range tests {
		for i := 0; i < 10; i++ {
			delay := NextRetryDelay(tt.attempt)
			if delay < tt.minDelay || delay > tt.maxDelay {
				t.Errorf("NextRetryDelay(%d) = %v, want between %v and %v",
					tt.attempt, delay, tt.minDelay, tt.maxDelay)
			}
		}
	}
}

func TestIsExhausted(t *testing.T) {
	tests := []struct {
		attempts int
		want     bool
	}{
		{1, false},
		{4, false},
		{5, true},
		{6, true},
	}

	for _, tt := range tests {
		if got := IsExhausted(tt.attempts); got != tt.want {
			t.Errorf("IsExhausted(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestRetryDelays_ReturnsCopy(t *testing.T) {
	delays := RetryDelays()
	delays[0] = time.Hour
	if RetryDelays()[0] != time.Minute {
		t.Error("RetryDelays exposed internal slice")
	}
}
