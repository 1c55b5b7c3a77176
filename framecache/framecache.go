// Package framecache is a bounded LRU cache for rendered frames.
//
// The preview path renders the same timeline frames over and over while a
// user scrubs; caching the composited RGBA output by key ("clipID:frame")
// turns those repeats into a map lookup. The cache is size-bounded by
// entry count and evicts the least recently used frame on overflow.
//
// Keys are opaque strings; values are shared by reference, so cached
// frame bytes follow the usual immutability contract (no writes after Put).
package framecache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultMaxEntries bounds the cache when no explicit size is given.
// 240 entries is ~8 seconds of 30fps preview, the editor's scrub window.
const DefaultMaxEntries = 240

type entry struct {
	key  string
	data []byte
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// Cache is a thread-safe LRU of frame byte slices.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   *list.List // front = most recently used
	entries map[string]*list.Element

	hits      uint64 // atomic
	misses    uint64 // atomic
	evictions uint64 // atomic
}

// New creates a cache bounded to maxEntries frames.
// Non-positive maxEntries falls back to DefaultMaxEntries.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get returns the cached frame for key, marking it most recently used.
// ok is false on a miss.
func (c *Cache) Get(key string) (data []byte, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.entries[key]
	if !found {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.order.MoveToFront(el)
	atomic.AddUint64(&c.hits, 1)
	return el.Value.(*entry).data, true
}

// Put stores a frame under key. An existing key is refreshed in place;
// when the cache is full the least recently used frame is evicted first.
func (c *Cache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, found := c.entries[key]; found {
		el.Value.(*entry).data = data
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.max {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
			atomic.AddUint64(&c.evictions, 1)
		}
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, data: data})
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Stats returns a snapshot of hit/miss/eviction counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := c.order.Len()
	c.mu.Unlock()

	return Stats{
		Hits:      atomic.LoadUint64(&c.hits),
		Misses:    atomic.LoadUint64(&c.misses),
		Evictions: atomic.LoadUint64(&c.evictions),
		Entries:   entries,
	}
}
