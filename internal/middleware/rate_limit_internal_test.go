package middleware

import (
	"strconv"
	"testing"
	"time"

	"github.com/ferdiebergado/ragchat/internal/config"
)

func TestRateLimiter_EvictsIdleVisitorsPerInterval(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	limiter := NewRateLimiter(&config.RateLimit{RPS: 1, Burst: 1}, false)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = start

	for i := range 100 {
		limiter.Allow("10.0.0." + strconv.Itoa(i))
	}

	now = start.Add(limiterIdleTTL + time.Second)
	limiter.Allow("10.0.1.1")
	if got := len(limiter.visitors); got != 1 {
		t.Fatalf("len(visitors) after sweep = %d, want: %d", got, 1)
	}

	now = now.Add(limiterIdleTTL + time.Second)
	limiter.Allow("10.0.1.2")
	now = now.Add(sweepInterval / 2)
	limiter.Allow("10.0.1.3")
	if got := len(limiter.visitors); got != 2 {
		t.Errorf("len(visitors) between sweeps = %d, want: %d", got, 2)
	}
}
