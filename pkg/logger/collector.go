package logger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Publisher ships aggregated log batches to a topic, typically Kafka.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectorConfig configures the aggregating error-log collector.
type CollectorConfig struct {
	Interval  time.Duration // flush cadence
	Threshold int           // flush early once this many unique entries exist
	Topic     string
	Publisher Publisher
}

// LogEntry is one deduplicated log line with its occurrence window. Fields
// are taken from the first occurrence.
type LogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates error logs by (level, message, caller) and ships
// them in batches, so a failure spamming one line produces one entry with a
// count instead of a flood on the logs topic.
type LogCollector struct {
	cfg CollectorConfig

	mu      sync.Mutex
	entries map[string]*LogEntry

	done chan struct{}
	wg   sync.WaitGroup
}

// NewLogCollector builds a collector and starts its flush loop.
func NewLogCollector(cfg CollectorConfig) *LogCollector {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 100
	}

	c := &LogCollector{
		cfg:     cfg,
		entries: make(map[string]*LogEntry),
		done:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.flushLoop()
	return c
}

// Add records one occurrence.
func (c *LogCollector) Add(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := level + "\x00" + message + "\x00" + caller

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &LogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch []LogEntry
	if len(c.entries) >= c.cfg.Threshold {
		batch = c.drainLocked()
	}
	c.mu.Unlock()

	c.publish(batch)
}

// Close flushes whatever is pending and stops the loop.
func (c *LogCollector) Close() {
	close(c.done)
	c.wg.Wait()

	c.mu.Lock()
	batch := c.drainLocked()
	c.mu.Unlock()
	c.publish(batch)
}

// drainLocked snapshots and resets the entry map. Callers hold c.mu. The
// batch is ordered for deterministic output.
func (c *LogCollector) drainLocked() []LogEntry {
	if len(c.entries) == 0 {
		return nil
	}
	batch := make([]LogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	c.entries = make(map[string]*LogEntry)
	sort.Slice(batch, func(i, j int) bool {
		if batch[i].Message != batch[j].Message {
			return batch[i].Message < batch[j].Message
		}
		return batch[i].Caller < batch[j].Caller
	})
	return batch
}

func (c *LogCollector) publish(batch []LogEntry) {
	if len(batch) == 0 || c.cfg.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Publish failures are dropped: the entries were already written to the
	// primary log output.
	_ = c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch)
}

func (c *LogCollector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			batch := c.drainLocked()
			c.mu.Unlock()
			c.publish(batch)
		case <-c.done:
			return
		}
	}
}
