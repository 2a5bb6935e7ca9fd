package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(2, time.Second)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("first two requests must pass")
	}
	if l.Allow("a") {
		t.Fatalf("third request must be rejected")
	}
	if !l.Allow("b") {
		t.Fatalf("keys are independent")
	}

	now = now.Add(500 * time.Millisecond)
	if !l.Allow("a") {
		t.Fatalf("one token should have been refilled")
	}
	if l.Allow("a") {
		t.Fatalf("bucket should be empty again")
	}
}

func TestLimiterPrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(1, time.Second)
	l.now = func() time.Time { return now }
	l.Allow("a")
	now = now.Add(time.Hour)
	if n := l.Prune(time.Minute); n != 1 {
		t.Fatalf("pruned %d", n)
	}
}
