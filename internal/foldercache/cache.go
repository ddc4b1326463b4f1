// Package foldercache memoizes folder resolution results so that repeated
// uploads into the same context do not hit the remote folder API again.
//
// Eviction is insertion-order based: once the cache is over capacity the
// oldest surviving entries are dropped first. This is deliberately not LRU —
// a hit does not refresh an entry's position.
package foldercache

import "sync"

// DefaultCapacity bounds the cache when no explicit capacity is configured.
const DefaultCapacity = 100

// Cache is a bounded map from a context cache key to a destination folder
// id. Safe for concurrent use. Entries are never invalidated individually;
// only size-bounded eviction removes them.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]string
	order    []string // insertion order, oldest first
}

// New returns an empty cache holding at most capacity entries. A
// non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]string, capacity),
	}
}

// Get returns the folder id cached under key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.entries[key]
	return id, ok
}

// Put stores the mapping and evicts the oldest entries while the cache is
// over capacity. Re-putting an existing key updates the value but keeps the
// key's original insertion position.
func (c *Cache) Put(key, folderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = folderID

	for len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Useful in tests and to force re-resolution.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string, c.capacity)
	c.order = nil
}
