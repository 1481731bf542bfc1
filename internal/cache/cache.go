// Package cache is a bounded, concurrency-safe memo with per-entry expiry.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Observer receives cache events. metrics.Collector satisfies it.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEvict()
}

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is an LRU cache whose entries also expire individually. When full it
// drops the least recently used entry.
type TTL[K comparable, V any] struct {
	lru *lru.Cache[K, entry[V]]
	obs Observer
	now func() time.Time

	// mu serialises PruneExpired scans
	mu sync.Mutex
}

// New creates a cache holding at most size entries. obs may be nil.
func New[K comparable, V any](size int, obs Observer) (*TTL[K, V], error) {
	c := &TTL[K, V]{obs: obs, now: time.Now}
	l, err := lru.NewWithEvict[K, entry[V]](size, func(K, entry[V]) {
		if c.obs != nil {
			c.obs.CacheEvict()
		}
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the live value for key. Expired entries are removed on read.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	var zero V
	e, ok := c.lru.Get(key)
	if ok && !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		ok = false
	}
	if c.obs != nil {
		if ok {
			c.obs.CacheHit()
		} else {
			c.obs.CacheMiss()
		}
	}
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Peek returns the live value for key without reporting to the observer or
// refreshing its recency.
func (c *TTL[K, V]) Peek(key K) (V, bool) {
	var zero V
	e, ok := c.lru.Peek(key)
	if !ok || (!e.expires.IsZero() && !c.now().Before(e.expires)) {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A ttl of zero or less never expires.
func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	e := entry[V]{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
}

// Len counts stored entries, including ones that expired but were not read
// since.
func (c *TTL[K, V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *TTL[K, V]) Purge() {
	c.lru.Purge()
}

// PruneExpired removes every expired entry and returns how many went.
func (c *TTL[K, V]) PruneExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for _, k := range c.lru.Keys() {
		e, ok := c.lru.Peek(k)
		if ok && !e.expires.IsZero() && !now.Before(e.expires) {
			if c.lru.Remove(k) {
				removed++
			}
		}
	}
	return removed
}
