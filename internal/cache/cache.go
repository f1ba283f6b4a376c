// Package cache provides an expiring get-or-compute cache used to memoize
// pulse snapshots per city for a short TTL window.
package cache

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time. Injectable so tests can control expiry.
type Clock func() time.Time

// Cache is the get-or-compute contract shared by the memory and Redis
// backends. Compute runs at most when no unexpired value exists for key.
type Cache[V any] interface {
	GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, error)
}

type memoryEntry[V any] struct {
	value   V
	err     error
	expires time.Time
	ready   chan struct{} // closed once value/err are set
}

// Memory is a concurrency-safe in-process TTL cache. Concurrent callers for
// the same key share a single in-flight computation.
type Memory[V any] struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry[V]
	ttl     time.Duration
	now     Clock
}

// NewMemory creates a Memory cache. A nil clock defaults to time.Now.
func NewMemory[V any](ttl time.Duration, now Clock) *Memory[V] {
	if now == nil {
		now = time.Now
	}
	return &Memory[V]{
		entries: make(map[string]*memoryEntry[V]),
		ttl:     ttl,
		now:     now,
	}
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result for the configured TTL. A failed computation is not cached.
func (c *Memory[V]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		select {
		case <-e.ready:
			if e.err == nil && c.now().Before(e.expires) {
				c.mu.Unlock()
				return e.value, nil
			}
			// expired or failed; fall through and recompute
		default:
			// computation in flight; wait for it
			c.mu.Unlock()
			select {
			case <-e.ready:
				return e.value, e.err
			case <-ctx.Done():
				var zero V
				return zero, ctx.Err()
			}
		}
	}

	e := &memoryEntry[V]{ready: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	value, err := compute(ctx)

	c.mu.Lock()
	e.value = value
	e.err = err
	e.expires = c.now().Add(c.ttl)
	if err != nil {
		// Drop failed entries so the next caller retries.
		if c.entries[key] == e {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
	close(e.ready)

	return value, err
}

// Purge removes expired entries. Called opportunistically by callers that
// hold many keys; not required for correctness.
func (c *Memory[V]) Purge() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		select {
		case <-e.ready:
			if !now.Before(e.expires) {
				delete(c.entries, key)
			}
		default:
		}
	}
}
