package ratelimit

import "testing"

func TestLimiterRejects31stRequestInBurst(t *testing.T) {
	l := New(30, 30)
	client := "203.0.113.7"

	allowed := 0
	for i := 0; i < 31; i++ {
		if l.Allow(client) {
			allowed++
		}
	}
	if allowed != 30 {
		t.Fatalf("expected exactly 30 of 31 rapid requests to be allowed, got %d", allowed)
	}
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := New(1, 1)
	if !l.Allow("a") {
		t.Fatalf("expected first request from client a to be allowed")
	}
	if !l.Allow("b") {
		t.Fatalf("expected first request from an unrelated client b to be allowed regardless of a's state")
	}
}
