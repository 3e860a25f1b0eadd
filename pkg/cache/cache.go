// Package cache holds analysis results in a bounded least-recently-used store.
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/menta2k/image-insight/pkg/identity"
	"github.com/menta2k/image-insight/pkg/types"
)

// DefaultCapacity is the number of results kept when no capacity is given
const DefaultCapacity = 20

// ErrCorrupt reports an entry that failed validation and was dropped
var ErrCorrupt = errors.New("corrupt cache entry")

// Stats are cumulative cache counters
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Corrupt   int64 `json:"corrupt"`
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
}

// Cache is a bounded map from cache key to result. Every lookup refreshes
// recency, so reads and writes share one mutex.
type Cache struct {
	mu       sync.Mutex
	entries  *lru.Cache
	capacity int
	stats    Stats
	onEvict  func(key string)
}

// New creates a cache holding at most capacity results
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{entries: lru.New(capacity), capacity: capacity}
	c.entries.OnEvicted = c.evicted
	return c
}

// OnEvict registers a callback for capacity evictions. It runs with the cache locked.
func (c *Cache) OnEvict(fn func(key string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// evicted is only reached through Add and RemoveOldest; explicit removals
// go through remove, which detaches the hook first.
func (c *Cache) evicted(key lru.Key, _ interface{}) {
	c.stats.Evictions++
	if c.onEvict != nil {
		if k, ok := key.(string); ok {
			c.onEvict(k)
		}
	}
}

// Get returns the result for key and marks it most recently used.
// An entry that fails validation is removed and reported as ErrCorrupt.
func (c *Cache) Get(key string) (*types.AnalysisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(key)
	if !ok {
		c.stats.Misses++
		return nil, nil
	}
	result, ok := v.(*types.AnalysisResult)
	if !ok || validate(key, result) != nil {
		c.remove(key)
		c.stats.Corrupt++
		c.stats.Misses++
		return nil, fmt.Errorf("key %s: %w", key, ErrCorrupt)
	}
	c.stats.Hits++
	return result, nil
}

// Put stores result under key, evicting the least recently used entry when full
func (c *Cache) Put(key string, result *types.AnalysisResult) error {
	if err := validate(key, result); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, result)
	return nil
}

// Remove drops one key
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// RemoveIdentity drops every version cached for an image identity
func (c *Cache) RemoveIdentity(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// lru.Cache cannot be iterated, so drain it oldest first and re-add the
	// survivors in the same order to keep their recency.
	var keep []lru.Key
	var values []interface{}
	removed := 0
	hook := c.entries.OnEvicted
	c.entries.OnEvicted = nil
	for c.entries.Len() > 0 {
		k, v, ok := oldest(c.entries)
		if !ok {
			break
		}
		if s, _ := k.(string); keyIdentity(s) == id {
			removed++
			continue
		}
		keep = append(keep, k)
		values = append(values, v)
	}
	for i := range keep {
		c.entries.Add(keep[i], values[i])
	}
	c.entries.OnEvicted = hook
	return removed
}

// oldest pops the least recently used entry
func oldest(l *lru.Cache) (lru.Key, interface{}, bool) {
	var key lru.Key
	var value interface{}
	found := false
	hook := l.OnEvicted
	l.OnEvicted = func(k lru.Key, v interface{}) {
		key, value, found = k, v, true
	}
	l.RemoveOldest()
	l.OnEvicted = hook
	return key, value, found
}

func keyIdentity(key string) string {
	id, _, err := identity.Parse(key)
	if err != nil {
		return ""
	}
	return id
}

// Clear drops everything
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = lru.New(c.capacity)
	c.entries.OnEvicted = c.evicted
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.entries.Len()
	s.Capacity = c.capacity
	return s
}

func (c *Cache) remove(key string) {
	hook := c.entries.OnEvicted
	c.entries.OnEvicted = nil
	c.entries.Remove(key)
	c.entries.OnEvicted = hook
}

// validate checks that a result is structurally sound and belongs to key
func validate(key string, result *types.AnalysisResult) error {
	if _, _, err := identity.Parse(key); err != nil {
		return err
	}
	switch {
	case result == nil:
		return fmt.Errorf("nil result: %w", ErrCorrupt)
	case result.CacheKey != key:
		return fmt.Errorf("result key %q does not match %q: %w", result.CacheKey, key, ErrCorrupt)
	case result.Caption == "":
		return fmt.Errorf("empty caption: %w", ErrCorrupt)
	case len(result.Subjects) > 3:
		return fmt.Errorf("%d subjects: %w", len(result.Subjects), ErrCorrupt)
	case result.GeneratedAt.IsZero():
		return fmt.Errorf("missing timestamp: %w", ErrCorrupt)
	}
	return nil
}
