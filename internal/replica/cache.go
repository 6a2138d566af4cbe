// Package replica implements the per-client replica cache and its diff
// generator (C6): an ordered vector of CacheEntry tracking what a given
// connection last saw, diffed each net tick against the world registry's
// presence bitmap and live object list.
package replica

import (
	"github.com/otley/rbnet/internal/registry"
	"github.com/otley/rbnet/mathx"
)

// Entry is a CacheEntry: a non-owning reference to a WorldObject plus the
// last-sent sleep flag and last-sent (quantised or, while sleeping, exact)
// position used as the delta-feedback baseline.
type Entry struct {
	Obj      *registry.WorldObject
	Sleeping bool
	Pos      mathx.Vec3
}

// Cache is one connection's replica: the ordered CacheEntry vector plus a
// companion presence bitmap answering "is id i cached" in O(1). Only the
// physics thread touches a Cache, while iterating connections during
// broadcast (spec §5) - no internal locking.
type Cache struct {
	entries []Entry
	present registry.PresenceBitmap
}

// New returns an empty replica cache, as held for a freshly connected client.
func New() *Cache {
	return &Cache{}
}

// Size is the cache's current entry count. Read it before DiffExisting to
// get the cache_size the encoder declares at the head of the snapshot, and
// again after DiffAdds for the trailing final_cache_size integrity echo.
func (c *Cache) Size() int { return len(c.entries) }
