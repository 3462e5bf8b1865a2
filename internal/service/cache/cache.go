// Package cache provides the byte-oriented response caches used by the
// API layer and the fundamentals client.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgcache "ZPulse/pkg/cache"
)

// BytesCache stores opaque byte payloads under string keys with a TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// Redis backs BytesCache with a shared redis client so API responses
// survive restarts and are visible to every instance.
type Redis struct {
	c *pkgcache.Client
}

func NewRedis(c *pkgcache.Client) *Redis { return &Redis{c: c} }

func (r *Redis) GetBytes(key string) ([]byte, bool, error) {
	var b []byte
	if err := r.c.Get(context.Background(), key, &b); err != nil {
		if errors.Is(err, pkgcache.ErrMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) SetBytes(key string, value []byte, ttl time.Duration) error {
	return r.c.Set(context.Background(), key, value, ttl)
}

// Memory is a process-local BytesCache for deployments without redis.
// Expired entries are dropped lazily on read and swept once the map
// grows past sweepAbove.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	b   []byte
	exp time.Time
}

const sweepAbove = 4096

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry)}
}

func (m *Memory) GetBytes(key string) ([]byte, bool, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && now.After(e.exp) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.b, true, nil
}

// SetBytes stores value under key. A ttl of zero means the entry never
// expires.
func (m *Memory) SetBytes(key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= sweepAbove {
		for k, e := range m.entries {
			if !e.exp.IsZero() && now.After(e.exp) {
				delete(m.entries, k)
			}
		}
	}
	m.entries[key] = memEntry{b: value, exp: exp}
	return nil
}
