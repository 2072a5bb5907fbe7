// Package chunkcache implements the 2-bit chunk cache (spec §4.2): a
// column map keyed by chunk coordinate, each column a sparse map of 16-cube
// sections, classifying every voxel into {Air, Water, Avoid, Solid} so the
// A* cost function can query passability in O(1) without re-parsing block
// state. Optional region-file persistence follows the exact wire format of
// spec §6.
package chunkcache

import (
	"log"

	"github.com/brentp/intintmap"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/util"
)

// DefaultSoftCap is the default maximum number of cached columns before
// oldest-first eviction kicks in (spec §3).
const DefaultSoftCap = 1024

// Cache is the authoritative fast path for voxel classification. Unloaded
// chunks return "unknown" via Lookup's second return value — callers must
// treat unknown as passable for *passable* queries but never as walk-on
// (spec §4.2).
type Cache struct {
	blocks  adapter.BlockSource
	table   *blockprops.Table
	softCap int
	logger  *log.Logger

	// index maps a packed int64 chunk key to the slot in columns holding
	// that chunk's data, giving the O(1) hot-path lookup intintmap is
	// built for; columns is the backing slice of actual column storage,
	// and free lists reclaimed slots after eviction.
	index   *intintmap.IntIntMap
	columns []*column
	keys    []util.ChunkXZ
	free    []int64
}

// New constructs a chunk cache backed by the given block source and
// property table, with the default soft cap.
func New(blocks adapter.BlockSource, table *blockprops.Table) *Cache {
	return NewWithCap(blocks, table, DefaultSoftCap)
}

// NewWithCap constructs a chunk cache with an explicit soft cap on cached
// columns.
func NewWithCap(blocks adapter.BlockSource, table *blockprops.Table, softCap int) *Cache {
	if softCap <= 0 {
		softCap = DefaultSoftCap
	}
	return &Cache{
		blocks:  blocks,
		table:   table,
		softCap: softCap,
		logger:  log.Default(),
		index:   intintmap.New(64, 0.75),
	}
}

// SetLogger overrides the logger used for non-fatal cache diagnostics.
func (c *Cache) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

func chunkKey(ch util.ChunkXZ) int64 {
	return int64(ch.X)<<32 ^ int64(uint32(ch.Z))
}

func (c *Cache) columnFor(ch util.ChunkXZ, create bool) (*column, bool) {
	// The index is append-only: slots get reused after eviction without
	// removing the old mapping, so every hit is verified against keys[slot]
	// before being trusted. This sidesteps needing delete support from the
	// underlying int64 map, which isn't guaranteed by every implementation.
	if slot, ok := c.index.Get(chunkKey(ch)); ok {
		idx := int(slot)
		if idx >= 0 && idx < len(c.columns) && c.columns[idx] != nil && c.keys[idx] == ch {
			return c.columns[idx], true
		}
	}
	if !create {
		return nil, false
	}
	var slot int64
	if n := len(c.free); n > 0 {
		slot = c.free[n-1]
		c.free = c.free[:n-1]
		col := newColumn()
		c.columns[slot] = col
		c.keys[slot] = ch
	} else {
		slot = int64(len(c.columns))
		c.columns = append(c.columns, newColumn())
		c.keys = append(c.keys, ch)
	}
	c.index.Put(chunkKey(ch), slot)
	c.evictIfNeeded()
	return c.columns[slot], true
}

func (c *Cache) liveColumnCount() int {
	return len(c.columns) - len(c.free)
}

// evictIfNeeded removes the least-recently-touched column once the live
// column count exceeds the soft cap.
func (c *Cache) evictIfNeeded() {
	for c.liveColumnCount() > c.softCap {
		var oldestSlot int64 = -1
		for slot, col := range c.columns {
			if col == nil {
				continue
			}
			if oldestSlot == -1 || col.lastTouchedAt().Before(c.columns[oldestSlot].lastTouchedAt()) {
				oldestSlot = int64(slot)
			}
		}
		if oldestSlot == -1 {
			return
		}
		c.columns[oldestSlot] = nil
		c.free = append(c.free, oldestSlot)
	}
}

// Lookup returns the cached classification at pos. ok is false when the
// voxel's chunk is not currently loaded into the cache.
func (c *Cache) Lookup(pos util.Pos) (T, bool) {
	ch := util.ChunkOf(pos, SectionSize)
	col, ok := c.columnFor(ch, false)
	if !ok {
		return Air, false
	}
	lx, lz := util.FloorMod(pos.X, SectionSize), util.FloorMod(pos.Z, SectionSize)
	return col.get(lx, pos.Y, lz)
}

// classify derives a 2-bit voxel type from the block property table for a
// live block.
func (c *Cache) classify(b adapter.Block) T {
	f := c.table.Flags(b.Kind)
	switch {
	case f.Lava:
		return Avoid
	case f.Water:
		return Water
	case f.AvoidBreak:
		return Avoid
	case f.FullyPassable, f.WalkThrough:
		return Air
	default:
		return Solid
	}
}

// LoadChunk classifies every voxel in a freshly loaded chunk column,
// installing it into the cache. Callers invoke it directly with the Y range
// to classify; no chunkColumnLoad event handler calls it.
func (c *Cache) LoadChunk(ch util.ChunkXZ, minY, maxY int) {
	col, _ := c.columnFor(ch, true)
	for y := minY; y <= maxY; y++ {
		for lx := 0; lx < SectionSize; lx++ {
			for lz := 0; lz < SectionSize; lz++ {
				pos := util.Pos{X: ch.X*SectionSize + lx, Y: y, Z: ch.Z*SectionSize + lz}
				blk, ok := c.blocks.BlockAt(pos)
				if !ok {
					continue
				}
				col.set(lx, y, lz, c.classify(blk))
			}
		}
	}
}

// UnloadChunk releases a chunk's cached storage. Called from the
// chunkColumnUnload event.
func (c *Cache) UnloadChunk(ch util.ChunkXZ) {
	if col, ok := c.columnFor(ch, false); ok {
		for slot, existing := range c.columns {
			if existing == col {
				c.columns[slot] = nil
				c.free = append(c.free, int64(slot))
				break
			}
		}
	}
}

// OnBlockUpdate reclassifies the single voxel that changed, keeping the
// cache eventually consistent within one tick (spec §3 invariant).
func (c *Cache) OnBlockUpdate(pos util.Pos) {
	ch := util.ChunkOf(pos, SectionSize)
	col, ok := c.columnFor(ch, false)
	if !ok {
		// Chunk not cached; nothing to reclassify yet. It is classified
		// in full when LoadChunk is next called for it.
		return
	}
	blk, ok := c.blocks.BlockAt(pos)
	if !ok {
		c.logger.Printf("chunkcache: block update for unloaded position %v", pos)
		return
	}
	lx, lz := util.FloorMod(pos.X, SectionSize), util.FloorMod(pos.Z, SectionSize)
	col.set(lx, pos.Y, lz, c.classify(blk))
}

// ColumnCount returns the number of columns currently resident, for tests
// and diagnostics.
func (c *Cache) ColumnCount() int {
	return c.liveColumnCount()
}
