// Package ttlcache is a small in-memory key/value store whose entries expire
// after a fixed time-to-live. It has no size bound: expiry is a freshness
// rule, not a memory policy.
package ttlcache

import (
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

type Cache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry[V]
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]entry[V]),
	}
}

func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key while now-storedAt < TTL.
// Expired entries are dropped and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return zero, false
	}

	return e.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Invalidate removes every entry whose key equals or starts with one of the
// patterns. Without patterns the whole cache is cleared.
func (c *Cache[V]) Invalidate(patterns ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(patterns) == 0 {
		clear(c.entries)
		return
	}

	for key := range c.entries {
		for _, p := range patterns {
			if strings.HasPrefix(key, p) {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Delete removes the entries stored under exactly these keys.
func (c *Cache[V]) Delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
	}
}

// Len counts stored entries, expired ones included until they are read.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
