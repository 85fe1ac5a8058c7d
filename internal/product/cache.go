package product

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a normalised product stays cached.
const DefaultCacheTTL = 600 * time.Second

// Cache stores normalised products keyed by barcode. Entries expire a fixed
// duration after Set regardless of reads.
type Cache interface {
	Get(ctx context.Context, key string) (Product, bool, error)
	Set(ctx context.Context, key string, value Product, ttl time.Duration) error
}

type cacheItem struct {
	value   Product
	expires time.Time
}

// MemoryCache is a process-local Cache with lazy expiry and no size bound.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

// NewMemoryCache constructs an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

// WithClock overrides the wall clock, used by tests to step past the TTL.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (Product, bool, error) {
	if c == nil {
		return Product{}, false, nil
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return Product{}, false, nil
	}
	if !c.now().Before(item.expires) {
		c.mu.Lock()
		if current, ok := c.items[key]; ok && current.expires.Equal(item.expires) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return Product{}, false, nil
	}
	return item.value.Clone(), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value Product, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c.mu.Lock()
	c.items[key] = cacheItem{value: value.Clone(), expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included until read.
func (c *MemoryCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
