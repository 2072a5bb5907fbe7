package world

import (
	"context"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/util"
)

// The structural block model of chunk.go (BlockType: air/solid/unstable/
// mineral/explosive) predates the spec-native blockprops.Table (spec §4.1)
// and is not itself keyed by a blockprops.Kind. These five kinds are the
// fixed mapping CoreBlockSource/CoreTable use to bridge the two, so a
// *Manager can stand in for the spec's external game registry instead of
// the core needing a second, parallel block classification of its own.
const (
	KindAir blockprops.Kind = iota
	KindSolid
	KindUnstable
	KindMineral
	KindExplosive
)

func blockKind(t BlockType) blockprops.Kind {
	switch t {
	case BlockAir:
		return KindAir
	case BlockUnstable:
		return KindUnstable
	case BlockMineral:
		return KindMineral
	case BlockExplosive:
		return KindExplosive
	case BlockSolid:
		return KindSolid
	default:
		return KindSolid
	}
}

// CoreTable builds the blockprops.Table (spec §4.1) for this package's
// structural block model: solid/unstable/mineral/explosive all support an
// agent's weight (WalkOn), unstable ground is also flagged FallingBlock
// (grounded on stability.go's collapse cascades), and explosive blocks are
// AvoidBreak (breaking one can trigger ApplyExplosion).
func CoreTable() *blockprops.Table {
	t := blockprops.NewTable()
	t.Set(KindAir, blockprops.Flags{FullyPassable: true})
	t.Set(KindSolid, blockprops.Flags{WalkOn: true})
	t.Set(KindUnstable, blockprops.Flags{WalkOn: true, FallingBlock: true})
	t.Set(KindMineral, blockprops.Flags{WalkOn: true})
	t.Set(KindExplosive, blockprops.Flags{WalkOn: true, AvoidBreak: true})
	return t
}

// CoreBlockSource adapts a *Manager into the spec's adapter.BlockSource
// contract (spec §6), so internal/chunkcache and internal/astar can run
// directly over a live chunk-server world instead of only over
// internal/simworld's synthetic harness.
//
// The core's voxel convention is Pos{X, Y-up, Z}; this package's is
// BlockCoord{X, Y, Z-up} (chunk.go's Width/Depth/Height). ToPos/ToBlockCoord
// perform the axis swap both directions need.
type CoreBlockSource struct {
	Manager *Manager
	// Ctx scopes chunk generation calls the BlockAt contract has no
	// context parameter for; defaults to context.Background() when nil,
	// matching a synchronous planning request's lifetime.
	Ctx context.Context
}

// ToPos converts a world.BlockCoord into the core's util.Pos convention.
func ToPos(b BlockCoord) util.Pos { return util.Pos{X: b.X, Y: b.Z, Z: b.Y} }

// ToBlockCoord converts a core util.Pos into this package's BlockCoord
// convention.
func ToBlockCoord(p util.Pos) BlockCoord { return BlockCoord{X: p.X, Y: p.Z, Z: p.Y} }

func (s *CoreBlockSource) ctx() context.Context {
	if s.Ctx != nil {
		return s.Ctx
	}
	return context.Background()
}

// BlockAt implements adapter.BlockSource.
func (s *CoreBlockSource) BlockAt(pos util.Pos) (adapter.Block, bool) {
	bc := ToBlockCoord(pos)
	chunk, err := s.Manager.ChunkForBlock(s.ctx(), bc)
	if err != nil {
		return adapter.Block{}, false
	}
	lx, ly, lz, ok := chunk.GlobalToLocal(bc)
	if !ok {
		return adapter.Block{}, false
	}
	blk, ok := chunk.LocalBlock(lx, ly, lz)
	if !ok {
		return adapter.Block{}, false
	}
	return adapter.Block{Kind: blockKind(blk.Type)}, true
}
