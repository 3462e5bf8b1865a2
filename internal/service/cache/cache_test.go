package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	if err := m.SetBytes("quote:ACME", []byte(`{"px":42}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := m.GetBytes("quote:ACME")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(b, []byte(`{"px":42}`)) {
		t.Fatalf("got %q", b)
	}
	if _, ok, _ := m.GetBytes("quote:OTHER"); ok {
		t.Fatalf("unexpected hit for missing key")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	if err := m.SetBytes("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, ok, _ := m.GetBytes("k"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	m := NewMemory()
	if err := m.SetBytes("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	if _, ok, _ := m.GetBytes("k"); !ok {
		t.Fatalf("zero-ttl entry should persist")
	}
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory()
	_ = m.SetBytes("k", []byte("old"), time.Minute)
	_ = m.SetBytes("k", []byte("new"), time.Minute)
	b, ok, _ := m.GetBytes("k")
	if !ok || string(b) != "new" {
		t.Fatalf("got ok=%v b=%q", ok, b)
	}
}
