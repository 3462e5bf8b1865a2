package logger

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]LogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	batch, ok := payload.([]LogEntry)
	if !ok {
		return errors.New("unexpected payload type")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, batch)
	return nil
}

func (p *capturePublisher) snapshot() [][]LogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]LogEntry, len(p.batches))
	copy(out, p.batches)
	return out
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(CollectorConfig{
		Interval:  time.Hour,
		Threshold: 2,
		Topic:     "app.errors",
		Publisher: pub,
	})
	defer c.Close()

	c.Add("error", "bravo failed", nil, "a.go:1")
	if got := pub.snapshot(); len(got) != 0 {
		t.Fatalf("flushed below threshold: %v", got)
	}
	c.Add("error", "alpha failed", nil, "b.go:2")

	got := pub.snapshot()
	if len(got) != 1 {
		t.Fatalf("batches = %d, want 1", len(got))
	}
	if len(got[0]) != 2 {
		t.Fatalf("entries = %d, want 2", len(got[0]))
	}
	if got[0][0].Message != "alpha failed" || got[0][1].Message != "bravo failed" {
		t.Fatalf("batch not ordered: %q, %q", got[0][0].Message, got[0][1].Message)
	}
	if pub.topics[0] != "app.errors" {
		t.Fatalf("topic = %q", pub.topics[0])
	}
}

func TestCollectorDeduplicatesRepeats(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(CollectorConfig{
		Interval:  time.Hour,
		Threshold: 100,
		Topic:     "app.errors",
		Publisher: pub,
	})

	for i := 0; i < 3; i++ {
		c.Add("error", "store write failed", map[string]interface{}{"ticker": "ACME"}, "repo.go:42")
	}
	c.Close()

	got := pub.snapshot()
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("want one batch with one entry, got %v", got)
	}
	e := got[0][0]
	if e.Count != 3 {
		t.Fatalf("count = %d, want 3", e.Count)
	}
	if e.LastSeen.Before(e.FirstSeen) {
		t.Fatalf("last_seen %v before first_seen %v", e.LastSeen, e.FirstSeen)
	}
	if e.Fields["ticker"] != "ACME" {
		t.Fatalf("fields = %v", e.Fields)
	}
}

func TestLoggerFeedsCollectorOnError(t *testing.T) {
	l, err := New(&Config{
		Level:  "error",
		Format: "json",
		Output: filepath.Join(t.TempDir(), "app.log"),
	})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	pub := &capturePublisher{}
	l.AddCollector(CollectorConfig{
		Interval:  time.Hour,
		Threshold: 100,
		Topic:     "app.errors",
		Publisher: pub,
	})

	l.Error("backend publish failed", Error(errors.New("broker down")), String("topic", "results"))
	l.Warn("slow request") // warnings are not collected
	l.RemoveCollector()

	got := pub.snapshot()
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("want one batch with one entry, got %v", got)
	}
	e := got[0][0]
	if e.Level != "error" || e.Message != "backend publish failed" {
		t.Fatalf("entry = %+v", e)
	}
	if e.Fields["error"] != "broker down" {
		t.Fatalf("error field = %v", e.Fields["error"])
	}
	if !strings.Contains(e.Caller, ".go:") {
		t.Fatalf("caller = %q", e.Caller)
	}
}
