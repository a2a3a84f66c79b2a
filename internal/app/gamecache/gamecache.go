/*
Package gamecache implements the per-connection game-data de-duplication cache.

Each side of a connection maintains an identical bounded, insertion-ordered list of
recently seen payloads. A payload's position in the list is its wire key: the sender
transmits the key instead of the payload when it gets a cache hit, and the receiver
resolves the key against its own copy. Both caches stay in lockstep because both
sides add and evict in the same order.
*/
package gamecache

import "bytes"

// DefaultSize bounds the cache at the widest key the wire format can carry.
const DefaultSize = 256

// Cache is a bounded insertion-ordered payload list. It is not safe for
// concurrent use; each connection's session worker owns its caches.
type Cache struct {
	capacity int
	entries  [][]byte
}

// New returns a cache bounded at capacity entries. Capacities outside 1..256
// fall back to DefaultSize, keeping keys within a single byte.
func New(capacity int) *Cache {
	if capacity < 1 || capacity > DefaultSize {
		capacity = DefaultSize
	}
	return &Cache{capacity: capacity}
}

// Add appends data and returns its key. When the cache is full the oldest entry
// is evicted first, shifting every surviving key down by one.
func (c *Cache) Add(data []byte) int {
	if len(c.entries) == c.capacity {
		c.entries = c.entries[1:]
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	c.entries = append(c.entries, stored)
	return len(c.entries) - 1
}

// IndexOf returns the key of a previously added payload, or -1 on a miss.
func (c *Cache) IndexOf(data []byte) int {
	for i, e := range c.entries {
		if bytes.Equal(e, data) {
			return i
		}
	}
	return -1
}

// Get resolves a key to its payload. A miss is recoverable: the caller skips the
// transition and warns the user rather than dropping the session.
func (c *Cache) Get(key int) ([]byte, bool) {
	if key < 0 || key >= len(c.entries) {
		return nil, false
	}
	return c.entries[key], true
}

// Len returns the number of cached payloads.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Clear drops every entry, for reuse across games.
func (c *Cache) Clear() {
	c.entries = nil
}
