package ratelimit

import (
	"testing"
	"time"
)

func TestAllowBurstThenDeny(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("client", 3, 0.001) {
			t.Fatalf("request %d within burst should pass", i+1)
		}
	}
	if l.Allow("client", 3, 0.001) {
		t.Fatalf("request past burst should be denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0.001) {
		t.Fatalf("first request for a should pass")
	}
	if l.Allow("a", 1, 0.001) {
		t.Fatalf("a is exhausted")
	}
	if !l.Allow("b", 1, 0.001) {
		t.Fatalf("b has its own bucket")
	}
}

func TestRefillRestoresTokens(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 500) {
		t.Fatalf("first request should pass")
	}
	if l.Allow("k", 1, 500) {
		t.Fatalf("bucket should be empty immediately after")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("k", 1, 500) {
		t.Fatalf("bucket should have refilled")
	}
}
