package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/nyaya/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_DependsOnMethodAndURL(t *testing.T) {
	a := NewKey(ResourceCentralActs, "GET", "http://api/acts?offset=0")
	assert.Equal(t, a, NewKey(ResourceCentralActs, "GET", "http://api/acts?offset=0"))
	assert.NotEqual(t, a, NewKey(ResourceCentralActs, "GET", "http://api/acts?offset=20"))
	assert.NotEqual(t, a, NewKey(ResourceCentralActs, "HEAD", "http://api/acts?offset=0"))
	assert.Equal(t, "v1:central_acts:"+a.Digest, a.String())

	parsed, ok := parseKey(a.String())
	require.True(t, ok)
	assert.Equal(t, a, parsed)

	_, ok = parseKey("v0:central_acts:abc")
	assert.False(t, ok)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	k := NewKey(ResourceLawMappings, "GET", "http://api/law_mapping")

	_, ok := c.Get(k)
	assert.False(t, ok)

	require.NoError(t, c.Set(k, []byte("v"), 0))
	got, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	k := NewKey(ResourceLawMappings, "GET", "u")
	require.NoError(t, c.Set(k, []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(k)
	assert.False(t, ok)
}

func TestMemoryCache_PurgeByResource(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	for _, u := range []string{"a", "b"} {
		require.NoError(t, c.Set(NewKey(ResourceCentralActs, "GET", u), []byte(u), 0))
	}
	require.NoError(t, c.Set(NewKey(ResourceStateActs, "GET", "a"), []byte("s"), 0))

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{ResourceCentralActs: 2, ResourceStateActs: 1}, stats)

	n, err := c.Purge(ResourceCentralActs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok := c.Get(NewKey(ResourceCentralActs, "GET", "a"))
	assert.False(t, ok)
	_, ok = c.Get(NewKey(ResourceStateActs, "GET", "a"))
	assert.True(t, ok)

	n, err = c.Purge("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDiskCache_ExpiredEntryRemoved(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	fresh := NewKey(ResourceCentralActs, "GET", "fresh")
	stale := NewKey(ResourceCentralActs, "GET", "stale")

	require.NoError(t, c.Set(fresh, []byte("1"), 0))
	require.NoError(t, c.Set(stale, []byte("2"), -time.Second))

	got, ok := c.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)

	_, ok = c.Get(stale)
	assert.False(t, ok)
	_, err := os.Stat(c.path(stale))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskCache_LayoutAndPurge(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	acts := NewKey(ResourceCentralActs, "GET", "a")
	mappings := NewKey(ResourceLawMappings, "GET", "m")

	require.NoError(t, c.Set(acts, []byte("a"), 0))
	require.NoError(t, c.Set(mappings, []byte("m"), 0))
	assert.FileExists(t, filepath.Join(dir, ResourceCentralActs, acts.Digest+".json"))

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total())
	assert.Equal(t, []string{ResourceCentralActs, ResourceLawMappings}, stats.Names())

	n, err := c.Purge(ResourceCentralActs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok := c.Get(mappings)
	assert.True(t, ok)

	// Purging a resource that was never stored is not an error
	n, err = c.Purge(ResourceStateActs)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDiskCache_CorruptFileDropped(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	k := NewKey(ResourceStateActs, "GET", "x")

	require.NoError(t, os.MkdirAll(filepath.Dir(c.path(k)), 0o700))
	require.NoError(t, os.WriteFile(c.path(k), []byte("{not json"), 0o600))

	_, ok := c.Get(k)
	assert.False(t, ok)
	assert.NoFileExists(t, c.path(k))
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	k := NewKey(ResourceLawMappings, "GET", "u")

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, first.Set(k, []byte("v"), 0))

	// A new process only has the disk layer populated
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := second.Get(k)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	memVal, ok := second.memory.Get(k)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), memVal)

	n, err := second.Purge("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok = second.Get(k)
	assert.False(t, ok)
}

func TestNew_SelectsLayers(t *testing.T) {
	assert.IsType(t, &MemoryCache{}, New(model.CacheConfig{MemoryTTL: time.Minute}))
	assert.IsType(t, &LayeredCache{}, New(model.CacheConfig{MemoryTTL: time.Minute, Dir: t.TempDir(), DiskTTL: time.Hour}))
}
