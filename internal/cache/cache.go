// Package cache provides a bounded in-memory key/value store.
//
// The cache is limited both by entry count and by the total declared cost of
// its entries (for images, an estimate of the decoded size in bytes). When an
// insert would exceed either limit, least recently used entries are evicted
// until the new entry fits.
//
// Thread Safety:
// All operations are serialized by a single mutex.
package cache

import (
	"container/list"
	"image"
	"sync"
)

// Default limits for image caches.
const (
	DefaultCountLimit = 200
	DefaultCostLimit  = 8 * 1024 * 1024
)

// Config holds the limits of a cache. A zero limit means unbounded.
type Config struct {
	// Name identifies the cache in logs.
	Name string

	// CountLimit is the maximum number of entries.
	CountLimit int

	// CostLimit is the maximum sum of entry costs.
	CostLimit int64
}

// DefaultConfig returns the limits used for thumbnail and icon caches.
func DefaultConfig(name string) Config {
	return Config{
		Name:       name,
		CountLimit: DefaultCountLimit,
		CostLimit:  DefaultCostLimit,
	}
}

// Cache is a count- and cost-bounded LRU cache.
type Cache[K comparable, V any] struct {
	name       string
	countLimit int
	costLimit  int64

	entries   map[K]*list.Element
	lru       *list.List // front = most recently used
	totalCost int64
	evictions uint64

	mu sync.Mutex
}

type entry[K comparable, V any] struct {
	key   K
	value V
	cost  int64
}

// New creates a cache with the given limits.
func New[K comparable, V any](cfg Config) *Cache[K, V] {
	return &Cache[K, V]{
		name:       cfg.Name,
		countLimit: cfg.CountLimit,
		costLimit:  cfg.CostLimit,
		entries:    make(map[K]*list.Element),
		lru:        list.New(),
	}
}

// Name returns the cache name.
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Get returns the cached value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*entry[K, V]).value, true
}

// Set stores value under key with the given cost, evicting as needed.
// A value whose cost alone exceeds the cost limit is not stored, and any
// previous value for key is dropped.
func (c *Cache[K, V]) Set(key K, value V, cost int64) {
	if cost < 0 {
		cost = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}
	if c.costLimit > 0 && cost > c.costLimit {
		return
	}

	for c.lru.Len() > 0 && !c.fits(cost) {
		c.removeElement(c.lru.Back())
		c.evictions++
	}

	elem := c.lru.PushFront(&entry[K, V]{key: key, value: value, cost: cost})
	c.entries[key] = elem
	c.totalCost += cost
}

// GetOrCreate returns the cached value for key, or creates, stores and
// returns a new one.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, int64)) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v, cost := create()
	c.Set(key, v, cost)
	return v
}

// Remove drops key from the cache.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// TotalCost returns the sum of entry costs.
func (c *Cache[K, V]) TotalCost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCost
}

// Evictions returns the number of entries evicted to make room.
func (c *Cache[K, V]) Evictions() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// fits reports whether an entry of the given cost can be added (must hold lock).
func (c *Cache[K, V]) fits(cost int64) bool {
	if c.countLimit > 0 && c.lru.Len()+1 > c.countLimit {
		return false
	}
	if c.costLimit > 0 && c.totalCost+cost > c.costLimit {
		return false
	}
	return true
}

// removeElement unlinks an entry (must hold lock).
func (c *Cache[K, V]) removeElement(elem *list.Element) {
	e := c.lru.Remove(elem).(*entry[K, V])
	delete(c.entries, e.key)
	c.totalCost -= e.cost
}

// ImageCost estimates the in-memory size of a decoded image in bytes.
func ImageCost(img image.Image) int64 {
	if img == nil {
		return 0
	}
	b := img.Bounds()
	return int64(b.Dx()) * int64(b.Dy()) * 4
}
