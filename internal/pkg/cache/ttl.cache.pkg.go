package cache

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so expiry can be tested without sleeping.
type Clock func() time.Time

// TTLCache is a bounded in-process cache with per-entry expiry. It is owned by the
// component that needs it and holds no global state. When the cache is full the
// entry closest to expiry is evicted.
type TTLCache[V any] struct {
	mu       sync.Mutex
	entries  map[string]ttlEntry[V]
	ttl      time.Duration
	capacity int
	now      Clock
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func NewTTLCache[V any](ttl time.Duration, capacity int, now Clock) *TTLCache[V] {
	if now == nil {
		now = time.Now
	}
	if capacity <= 0 {
		capacity = 128
	}
	return &TTLCache[V]{
		entries:  make(map[string]ttlEntry[V]),
		ttl:      ttl,
		capacity: capacity,
		now:      now,
	}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return entry.value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	c.entries[key] = ttlEntry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache[V]) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.expiresAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
