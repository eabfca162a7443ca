package region

import (
	"sync"

	"github.com/rasterlite/rl2go/internal/raster"
)

// cacheKey identifies one decoded tile at a specific scale within a
// coverage — the granularity the Region Reader decodes at.
type cacheKey struct {
	coverage string
	tileID   int64
	scale    int
}

// TileCache is a decode cache for the Region Reader: decoding is the
// expensive step of the §4.H pipeline, and repeated window reads against
// the same catalog often re-request the same tiles.
//
// Adapted from the teacher's internal/cog/tilecache.go (same map+order
// FIFO-eviction shape), generalized from caching image.Image keyed by
// path/level/col/row to caching *raster.Tile keyed by coverage/tileID/scale.
type TileCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*raster.Tile
	order   []cacheKey
	maxSize int
}

// NewTileCache creates a cache holding at most maxEntries decoded tiles.
func NewTileCache(maxEntries int) *TileCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &TileCache{
		entries: make(map[cacheKey]*raster.Tile, maxEntries),
		order:   make([]cacheKey, 0, maxEntries),
		maxSize: maxEntries,
	}
}

func (c *TileCache) get(coverage string, tileID int64, scale int) (*raster.Tile, bool) {
	key := cacheKey{coverage, tileID, scale}
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[key]
	return t, ok
}

// put stores t, evicting the oldest entry if the cache is full. A key
// already present is left untouched (decoding is deterministic, so a
// concurrent duplicate decode is not worth replacing).
func (c *TileCache) put(coverage string, tileID int64, scale int, t *raster.Tile) {
	key := cacheKey{coverage, tileID, scale}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return
	}
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = t
	c.order = append(c.order, key)
}
