package sched

import (
	"testing"
	"time"
)

func TestSubmitLimiterNonBlockingRejectsWhenEmpty(t *testing.T) {
	l := newSubmitLimiter(RateLimitConfig{Tokens: 1, Refill: time.Hour, Block: false})
	defer l.close()

	if err := l.acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.acquire(); err != ErrRateLimited {
		t.Fatalf("second acquire = %v, want ErrRateLimited", err)
	}
}

func TestSubmitLimiterRefills(t *testing.T) {
	l := newSubmitLimiter(RateLimitConfig{Tokens: 1, Refill: 10 * time.Millisecond, Block: false})
	defer l.close()

	if err := l.acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	waitFor(t, time.Second, func() bool { return l.acquire() == nil })
}

func TestSubmitLimiterBlockingModeWaitsForToken(t *testing.T) {
	l := newSubmitLimiter(RateLimitConfig{Tokens: 1, Refill: 20 * time.Millisecond, Block: true})
	defer l.close()

	if err := l.acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	start := time.Now()
	if err := l.acquire(); err != nil {
		t.Fatalf("blocking acquire: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("blocking acquire returned too quickly: %s", time.Since(start))
	}
}
