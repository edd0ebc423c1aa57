// Package cache provides a size bounded, least recently used cache.
package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// Stats are cumulative counters of a cache.
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
	Size      int
}

// LRU is a thread safe wrapper around groupcache's lru with typed keys and
// values. The eviction callback runs for every entry leaving the cache,
// whether it was pushed out, removed or cleared.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  *lru.Cache
	adding   bool
	hits     int
	misses   int
	evicted  int
	onRemove func(K, V)
}

// New creates a cache holding at most size entries. A size below 1 is
// treated as 1.
func New[K comparable, V any](size int, onRemove func(key K, val V)) *LRU[K, V] {
	if size < 1 {
		size = 1
	}

	c := &LRU[K, V]{
		entries:  lru.New(size),
		onRemove: onRemove,
	}
	c.entries.OnEvicted = func(key lru.Key, val any) {
		if c.adding {
			c.evicted++
		}
		if c.onRemove != nil {
			c.onRemove(key.(K), val.(V))
		}
	}
	return c
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	val, ok := c.entries.Get(key)
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return val.(V), true
}

// Add inserts or replaces the value of key, evicting the least recently used
// entry when the cache is full.
func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.adding = true
	c.entries.Add(key, val)
	c.adding = false
}

func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(key)
}

// Clear removes every entry.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Clear()
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len()
}

func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evicted,
		Size:      c.entries.Len(),
	}
}
