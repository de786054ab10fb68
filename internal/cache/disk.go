package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const diskExt = ".json"

// DiskCache persists entries as JSON files, one directory per resource,
// so reference data survives restarts
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache rooted at dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

type diskEntry struct {
	Body      []byte    `json:"body"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get returns a live body, removing the file when it expired or is unreadable
func (c *DiskCache) Get(key Key) ([]byte, bool) {
	path := c.path(key)
	entry, ok := c.read(path)
	if !ok {
		return nil, false
	}
	return entry.Body, true
}

// remaining is how long the entry at key stays live
func (c *DiskCache) remaining(key Key) time.Duration {
	entry, ok := c.read(c.path(key))
	if !ok {
		return 0
	}
	return entry.ExpiresAt.Sub(c.now())
}

func (c *DiskCache) read(path string) (*diskEntry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}
	return &entry, true
}

// Set stores a body; ttl 0 uses the cache TTL. The file is written beside
// its final name and renamed into place.
func (c *DiskCache) Set(key Key, body []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	now := c.now()

	data, err := json.Marshal(diskEntry{
		Body:      body,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Purge removes the files of resource, or every file
func (c *DiskCache) Purge(resource string) (int, error) {
	root := c.dir
	if resource != "" {
		root = filepath.Join(c.dir, safeName(resource))
	}

	n := 0
	err := c.walk(root, func(path, _ string) {
		if os.Remove(path) == nil {
			n++
		}
	})
	return n, err
}

// Stats counts live entries per resource, removing expired files on the way
func (c *DiskCache) Stats() (Stats, error) {
	stats := Stats{}
	err := c.walk(c.dir, func(path, resource string) {
		if _, ok := c.read(path); ok {
			stats[resource]++
		}
	})
	return stats, err
}

// walk calls fn for every entry file below root; a missing root is empty
func (c *DiskCache) walk(root string, fn func(path, resource string)) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, diskExt) {
			return nil
		}
		fn(path, filepath.Base(filepath.Dir(path)))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *DiskCache) path(key Key) string {
	return filepath.Join(c.dir, safeName(key.Resource), safeName(key.Digest)+diskExt)
}

func safeName(s string) string {
	s = filepath.Base(s)
	if s == "." || s == string(filepath.Separator) || s == "" {
		return "_"
	}
	return s
}
