package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value  any
	expiry time.Time
}

type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache is a key→value store with per-entry TTL and single-flight misses.
// It is the only shared mutable state in the process; any number of
// request flows may read and write it concurrently.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
	hits    uint64
	misses  uint64
	timeNow func() time.Time // For testing
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		timeNow: time.Now,
	}
}

// GetOrCompute returns the cached value for key if present and unexpired.
// On a miss it runs produce, stores the result with expiry now+ttl and
// returns it. Concurrent misses for the same key share one produce call.
// A failing produce caches nothing; the error reaches every waiter.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, produce func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v, nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A sibling flight may have stored the value while we queued.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{value: v, expiry: c.timeNow().Add(ttl)}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !c.timeNow().Before(e.expiry) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// Stats reports unexpired entry count and lifetime hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.timeNow()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiry) {
			n++
		}
	}
	return Stats{Entries: n, Hits: c.hits, Misses: c.misses}
}

// Typed wraps GetOrCompute for callers that know the value type stored
// under a key family.
func Typed[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, produce func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.GetOrCompute(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return produce(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: unexpected value type under key %q", key)
	}
	return t, nil
}
