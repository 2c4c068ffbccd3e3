// Package hashcache remembers the content hash of each record as last
// persisted, so unchanged records are not rewritten.
//
// A zero hash means "unknown" and always forces a write. Entries are seeded
// when a record is loaded and committed only after a write succeeds.
package hashcache

import "github.com/spaolacci/murmur3"

// Sum returns the content hash of b. It never returns zero, so a computed
// hash is always distinguishable from an unset entry.
func Sum(b []byte) uint32 {
	h := murmur3.Sum32(b)
	if h == 0 {
		return 1
	}
	return h
}

// Cache maps record names to their last persisted hash.
//
// Cache is not safe for concurrent use.
type Cache struct {
	entries map[string]uint32
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]uint32)}
}

// Seed records the hash of content just loaded from storage.
func (c *Cache) Seed(name string, hash uint32) {
	c.entries[name] = hash
}

// Get returns the cached hash, or zero.
func (c *Cache) Get(name string) uint32 {
	return c.entries[name]
}

// Changed computes the hash of content and reports whether it differs from
// the cached entry. An unset entry always reports a change.
func (c *Cache) Changed(name string, content []byte) (uint32, bool) {
	h := Sum(content)
	old := c.entries[name]
	return h, old == 0 || old != h
}

// Commit stores hash after a successful write.
func (c *Cache) Commit(name string, hash uint32) {
	c.entries[name] = hash
}

// Invalidate forgets the entry so the next save writes unconditionally.
func (c *Cache) Invalidate(name string) {
	delete(c.entries, name)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.entries)
}
