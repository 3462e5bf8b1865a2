// Package ratelimit implements a keyed token-bucket limiter for the
// HTTP API.
package ratelimit

import (
	"sync"
	"time"
)

const (
	idleEvict     = 10 * time.Minute
	sweepInterval = time.Minute
)

// Limiter tracks one token bucket per key. Buckets idle for longer
// than idleEvict are dropped during Allow to bound memory.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	sweep   time.Time
}

type bucket struct {
	level float64
	seen  time.Time
}

func New() *Limiter {
	return &Limiter{buckets: make(map[string]*bucket), sweep: time.Now()}
}

// Allow consumes one token from key's bucket. capacity bounds the
// burst and perSecond is the refill rate; a new key starts full.
func (l *Limiter) Allow(key string, capacity, perSecond float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweep) >= sweepInterval {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > idleEvict {
				delete(l.buckets, k)
			}
		}
		l.sweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{level: capacity, seen: now}
		l.buckets[key] = b
	}

	b.level += now.Sub(b.seen).Seconds() * perSecond
	if b.level > capacity {
		b.level = capacity
	}
	b.seen = now

	if b.level < 1 {
		return false
	}
	b.level--
	return true
}
