// Package cache keeps API responses of slow-changing reference resources
// (acts, law mappings) in memory and, optionally, on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/nyaya/internal/model"
)

const keyVersion = "v1"

// Reference resources the API client caches
const (
	ResourceLawMappings = "law_mappings"
	ResourceCentralActs = "central_acts"
	ResourceStateActs   = "state_acts"
)

// Resources lists every cached resource in display order
var Resources = []string{ResourceLawMappings, ResourceCentralActs, ResourceStateActs}

// Key identifies one cached response. Keys of one resource can be purged
// without touching the others.
type Key struct {
	Resource string
	Digest   string
}

// NewKey derives the key of a request from its method and full URL (query included)
func NewKey(resource, method, rawURL string) Key {
	sum := sha256.Sum256([]byte(method + " " + rawURL))
	return Key{Resource: resource, Digest: hex.EncodeToString(sum[:16])}
}

func (k Key) String() string {
	return keyVersion + ":" + k.Resource + ":" + k.Digest
}

// parseKey is the inverse of Key.String; keys of other versions do not parse
func parseKey(s string) (Key, bool) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] != keyVersion {
		return Key{}, false
	}
	return Key{Resource: parts[1], Digest: parts[2]}, true
}

// Stats counts live entries per resource
type Stats map[string]int

// Total is the number of live entries over all resources
func (s Stats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

// Names returns the resources with at least one entry, sorted
func (s Stats) Names() []string {
	names := make([]string, 0, len(s))
	for name, n := range s {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Cache stores raw API response bodies
type Cache interface {
	Get(key Key) ([]byte, bool)
	Set(key Key, body []byte, ttl time.Duration) error
	// Purge drops every entry of resource, or everything when resource is
	// empty, and reports how many entries went
	Purge(resource string) (int, error)
	Stats() (Stats, error)
}

// New builds the cache described by cfg: memory over disk, or memory only
// when cfg has no directory or no disk TTL
func New(cfg model.CacheConfig) Cache {
	if cfg.Dir == "" || cfg.DiskTTL <= 0 {
		return NewMemoryCache(cfg.MemoryTTL, 2*cfg.MemoryTTL)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
