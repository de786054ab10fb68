package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is a process-local expiring cache
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache; cleanupInterval <= 0 disables the janitor
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns a live response body
func (c *MemoryCache) Get(key Key) ([]byte, bool) {
	if val, found := c.cache.Get(key.String()); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a body; ttl 0 uses the default TTL
func (c *MemoryCache) Set(key Key, body []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key.String(), body, ttl)
	return nil
}

// Purge drops the live entries of resource, or all entries
func (c *MemoryCache) Purge(resource string) (int, error) {
	if resource == "" {
		n := c.cache.ItemCount()
		c.cache.Flush()
		return n, nil
	}

	prefix := Key{Resource: resource}.String()
	n := 0
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
			n++
		}
	}
	return n, nil
}

// Stats counts live entries per resource
func (c *MemoryCache) Stats() (Stats, error) {
	stats := Stats{}
	for k := range c.cache.Items() {
		if key, ok := parseKey(k); ok {
			stats[key.Resource]++
		}
	}
	return stats, nil
}
