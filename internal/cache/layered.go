package cache

import "time"

// LayeredCache checks memory first and falls back to disk
type LayeredCache struct {
	memory    *MemoryCache
	memoryTTL time.Duration
	disk      *DiskCache
}

// NewLayeredCache creates a memory-over-disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory:    NewMemoryCache(memoryTTL, 2*memoryTTL),
		memoryTTL: memoryTTL,
		disk:      NewDiskCache(diskDir, diskTTL),
	}
}

// Get returns a body, promoting disk hits into memory for no longer than
// they stay live on disk
func (c *LayeredCache) Get(key Key) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	val, found := c.disk.Get(key)
	if !found {
		return nil, false
	}
	ttl := c.disk.remaining(key)
	if c.memoryTTL > 0 && c.memoryTTL < ttl {
		ttl = c.memoryTTL
	}
	if ttl > 0 {
		_ = c.memory.Set(key, val, ttl)
	}
	return val, true
}

// Set stores a body in both layers
func (c *LayeredCache) Set(key Key, body []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, body, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, body, ttl)
}

// Purge empties resource in both layers. Every memory entry also lives on
// disk, so the disk count is reported.
func (c *LayeredCache) Purge(resource string) (int, error) {
	n, _ := c.memory.Purge(resource)
	d, err := c.disk.Purge(resource)
	return max(n, d), err
}

// Stats reports the disk layer
func (c *LayeredCache) Stats() (Stats, error) {
	return c.disk.Stats()
}
