package chunkcache

import (
	"voxelnav/internal/blockprops"
	"voxelnav/internal/util"
)

// DamageSummary reports the column-local effect of breaking a block: the
// broken position and which other cached voxels changed classification as
// a consequence. The movement primitives do not call ApplyBlockDamage.
type DamageSummary struct {
	Origin    util.Pos
	Collapsed []util.Pos
}

// ApplyBlockDamage reclassifies pos as broken (Air) and cascades a
// fallingBlock collapse upward: any column of fallingBlock-flagged voxels
// stacked directly above an emptied support now has nothing under it and
// comes down, same as the teacher's evaluateColumnStability chain-depth
// pass but simplified to the cache's 2-bit classification instead of a
// full per-block weight/force simulation, since the planner only needs to
// know which voxels stop being Solid.
func (c *Cache) ApplyBlockDamage(pos util.Pos) DamageSummary {
	summary := DamageSummary{Origin: pos}
	ch := util.ChunkOf(pos, SectionSize)
	col, ok := c.columnFor(ch, false)
	if !ok {
		return summary
	}
	lx, lz := util.FloorMod(pos.X, SectionSize), util.FloorMod(pos.Z, SectionSize)
	col.set(lx, pos.Y, lz, Air)

	for y := pos.Y + 1; ; y++ {
		v, known := col.get(lx, y, lz)
		if !known || v != Solid {
			break
		}
		above := util.Pos{X: pos.X, Y: y, Z: pos.Z}
		blk, ok := c.blocks.BlockAt(above)
		if !ok || !c.table.Flags(blk.Kind).FallingBlock {
			break
		}
		col.set(lx, y, lz, Air)
		summary.Collapsed = append(summary.Collapsed, above)
	}
	return summary
}

// ApplyBlockPlacement reclassifies pos as occupied by kind, so the cache
// matches what the world will report once the placement event
// round-trips. The movement primitives (PlaceAndWalk, Pillar) do not call it.
func (c *Cache) ApplyBlockPlacement(pos util.Pos, kind blockprops.Kind) {
	ch := util.ChunkOf(pos, SectionSize)
	col, _ := c.columnFor(ch, true)
	lx, lz := util.FloorMod(pos.X, SectionSize), util.FloorMod(pos.Z, SectionSize)
	f := c.table.Flags(kind)
	v := Solid
	switch {
	case f.Lava, f.AvoidBreak:
		v = Avoid
	case f.Water:
		v = Water
	case f.FullyPassable, f.WalkThrough:
		v = Air
	}
	col.set(lx, pos.Y, lz, v)
}
