// Package cache implements the small bounded FIFO cache of recently-read
// encoded object bytes described in spec §4.3, used so repeated small reads
// (e.g. walking a tree during checkout) can avoid touching the object
// database's mmap.
package cache

import "github.com/javanhut/mog/internal/hash"

// DefaultCapacity is the maximum total encoded bytes the cache holds.
const DefaultCapacity = 1 << 20 // 1 MiB

// Cache is a FIFO over (hash, encoded bytes) pairs bounded by total byte size.
type Cache struct {
	capacity int
	order    []hash.Hash
	entries  map[hash.Hash][]byte
	size     int
}

// New returns an empty cache with the given byte capacity.
func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[hash.Hash][]byte),
	}
}

// Get returns the cached bytes for h, if present.
func (c *Cache) Get(h hash.Hash) ([]byte, bool) {
	b, ok := c.entries[h]
	return b, ok
}

// Insert adds (h, encoded) to the cache, evicting from the front until the
// total is within capacity. Duplicate inserts of an already-present hash are
// idempotent and do not move it in the FIFO order or re-count its size.
func (c *Cache) Insert(h hash.Hash, encoded []byte) {
	if _, exists := c.entries[h]; exists {
		return
	}
	c.entries[h] = encoded
	c.order = append(c.order, h)
	c.size += len(encoded)

	for c.size > c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if b, ok := c.entries[oldest]; ok {
			c.size -= len(b)
			delete(c.entries, oldest)
		}
	}
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int { return len(c.entries) }

// Size returns the total number of encoded bytes currently cached.
func (c *Cache) Size() int { return c.size }
