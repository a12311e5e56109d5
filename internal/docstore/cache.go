package docstore

import (
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL bounds how stale a cached read may be.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	value   any
	written time.Time
}

// Cache is a TTL read cache keyed by "collection" or "collection:id".
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, written: c.now()}
}

// Get returns the cached value, or nil and false once the TTL elapsed.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.written) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Invalidate drops every entry whose key starts with prefix. Writes
// invalidate per collection, not per document.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
