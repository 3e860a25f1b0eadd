package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-insight/pkg/types"
)

func result(key string) *types.AnalysisResult {
	return &types.AnalysisResult{
		Caption:     "A test image",
		CacheKey:    key,
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func put(t *testing.T, c *Cache, key string) {
	t.Helper()
	require.NoError(t, c.Put(key, result(key)))
}

func has(c *Cache, key string) bool {
	r, err := c.Get(key)
	return err == nil && r != nil
}

func TestEvictsLeastRecentlyAccessed(t *testing.T) {
	c := New(3)
	put(t, c, "id:a@v1")
	put(t, c, "id:b@v1")
	put(t, c, "id:c@v1")

	// reading the oldest entry makes b the least recently used
	require.True(t, has(c, "id:a@v1"))
	put(t, c, "id:d@v1")

	assert.Equal(t, 3, c.Len())
	assert.False(t, has(c, "id:b@v1"))
	assert.True(t, has(c, "id:a@v1"))
	assert.True(t, has(c, "id:c@v1"))
	assert.True(t, has(c, "id:d@v1"))
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestEvictsOldestWithoutReads(t *testing.T) {
	c := New(2)
	var evicted []string
	c.OnEvict(func(key string) { evicted = append(evicted, key) })

	put(t, c, "id:a@v1")
	put(t, c, "id:b@v1")
	put(t, c, "id:c@v1")
	assert.Equal(t, []string{"id:a@v1"}, evicted)
}

func TestDefaultCapacity(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultCapacity+5; i++ {
		put(t, c, fmt.Sprintf("id:img%d@v1", i))
	}
	assert.Equal(t, DefaultCapacity, c.Len())
	assert.Equal(t, DefaultCapacity, c.Stats().Capacity)
}

func TestMiss(t *testing.T) {
	c := New(2)
	r, err := c.Get("id:missing@v1")
	assert.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestPutRejectsInvalid(t *testing.T) {
	c := New(2)
	assert.Error(t, c.Put("no-version", result("no-version")))
	assert.ErrorIs(t, c.Put("id:a@v1", result("id:b@v1")), ErrCorrupt)
	assert.ErrorIs(t, c.Put("id:a@v1", nil), ErrCorrupt)
	assert.Equal(t, 0, c.Len())
}

func TestCorruptEntryIsDropped(t *testing.T) {
	c := New(2)
	c.entries.Add("id:a@v1", result("id:other@v1"))

	r, err := c.Get("id:a@v1")
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().Evictions, "dropping a corrupt entry is not an eviction")

	r, err = c.Get("id:a@v1")
	assert.Nil(t, r)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), c.Stats().Corrupt)
}

func TestRemoveIdentity(t *testing.T) {
	c := New(4)
	put(t, c, "id:x@v1")
	put(t, c, "id:a@v1")
	put(t, c, "id:a@v2")
	put(t, c, "id:y@v1")

	assert.Equal(t, 2, c.RemoveIdentity("id:a"))
	assert.Equal(t, 2, c.Len())

	// recency is preserved: x is still the oldest
	put(t, c, "id:z@v1")
	put(t, c, "id:w@v1")
	put(t, c, "id:v@v1")
	assert.False(t, has(c, "id:x@v1"))
	assert.True(t, has(c, "id:y@v1"))
}

func TestClear(t *testing.T) {
	c := New(3)
	put(t, c, "id:a@v1")
	put(t, c, "id:b@v1")
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.False(t, has(c, "id:a@v1"))
	put(t, c, "id:c@v1")
	assert.Equal(t, 1, c.Len())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(8)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("id:k%d@v1", (g*7+i)%16)
				if i%3 == 0 {
					_ = c.Put(key, result(key))
				} else {
					_, _ = c.Get(key)
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 8)
}
