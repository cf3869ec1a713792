// Package dedup suppresses repeated submissions of the same mutation.
//
// A key is held while its request is in flight and for a short window after
// it completes, so a double click that lands just after the first request
// returned is dropped too.
package dedup

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultSize = 256

type Registry struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
	recent   *expirable.LRU[string, struct{}]
}

// New creates a registry. The expirable LRU behind it sweeps expired keys
// from a goroutine that lives as long as the process, so a registry is meant
// to be created once per presenter rather than per request.
func New(window time.Duration) *Registry {
	return &Registry{
		inFlight: map[string]struct{}{},
		recent:   expirable.NewLRU[string, struct{}](defaultSize, nil, window),
	}
}

// Key identifies a mutation by action, target and the hash of its trimmed
// payload.
func Key(action, resourceID, payload string) string {
	sum := xxhash.Sum64String(strings.TrimSpace(payload))
	return action + ":" + resourceID + ":" + strconv.FormatUint(sum, 16)
}

// Acquire claims the key. It returns false when the same key is in flight
// or completed within the window.
func (r *Registry) Acquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inFlight[key]; ok {
		return false
	}
	if _, ok := r.recent.Peek(key); ok {
		return false
	}

	r.inFlight[key] = struct{}{}
	return true
}

// Release marks the key completed. It stays blocked until the window passes.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inFlight[key]; !ok {
		return
	}

	delete(r.inFlight, key)
	r.recent.Add(key, struct{}{})
}

// Pending reports whether the key is blocked.
func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inFlight[key]; ok {
		return true
	}
	_, ok := r.recent.Peek(key)
	return ok
}
