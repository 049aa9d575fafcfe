package middleware

import (
	"strings"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute, func() time.Time { return now })

	if !rl.Allow(1) || !rl.Allow(1) {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow(1) {
		t.Fatal("third request in window must be limited")
	}
	if !rl.Allow(2) {
		t.Fatal("limit is per user")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow(1) {
		t.Fatal("window must slide")
	}

	now = now.Add(2 * time.Minute)
	rl.prune()
	if len(rl.requests) != 0 {
		t.Fatalf("prune left %d users", len(rl.requests))
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, time.Minute, time.Now)
	for i := 0; i < 100; i++ {
		if !rl.Allow(1) {
			t.Fatal("limit 0 must disable limiting")
		}
	}
}

func TestTruncate(t *testing.T) {
	short := "привет"
	if truncate(short) != short {
		t.Fatal("short text changed")
	}
	long := strings.Repeat("ж", 60)
	got := truncate(long)
	if got != strings.Repeat("ж", 50)+"..." {
		t.Fatalf("truncate = %q", got)
	}
}
