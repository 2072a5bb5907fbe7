package scheduler

import (
	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/goal"
	"voxelnav/internal/util"
)

// MineStage is the Mine process's internal state.
type MineStage string

const (
	MineSearching MineStage = "searching"
	MineTargeting MineStage = "targeting"
	MineMining    MineStage = "mining"
)

// OreFinder locates the nearest block of interest to mine, if any.
type OreFinder interface {
	NearestOre(origin util.Pos, kinds []blockprops.Kind, radius int) (util.Pos, bool)
}

// Mine searches for, paths to, and digs a target block kind.
type Mine struct {
	blocks   adapter.BlockSource
	finder   OreFinder
	kinds    []blockprops.Kind
	radius   int
	origin   util.Pos
	stage    MineStage
	target   util.Pos
	hasTarget bool
}

func NewMine(blocks adapter.BlockSource, finder OreFinder, kinds []blockprops.Kind, radius int, origin util.Pos) *Mine {
	return &Mine{blocks: blocks, finder: finder, kinds: kinds, radius: radius, origin: origin, stage: MineSearching}
}

func (m *Mine) Name() string { return NameMine }

func (m *Mine) OnActivate() { m.stage = MineSearching }

func (m *Mine) OnDeactivate() {}

func (m *Mine) Tick() TickResult {
	switch m.stage {
	case MineSearching:
		pos, ok := m.finder.NearestOre(m.origin, m.kinds, m.radius)
		if !ok {
			return Fail("no ore in range")
		}
		m.target = pos
		m.hasTarget = true
		m.stage = MineTargeting
		return Wait("target acquired")
	case MineTargeting:
		m.stage = MineMining
		return NewGoalResult(goal.GetToBlock{Target: m.target})
	case MineMining:
		if !m.hasTarget {
			return Fail("lost target")
		}
		blk, ok := m.blocks.BlockAt(m.target)
		if !ok || !isOreStillPresent(blk.Kind, m.kinds) {
			m.hasTarget = false
			m.stage = MineSearching
			return Complete("block mined")
		}
		return ContinuePathing()
	default:
		return Fail("unknown stage")
	}
}

func isOreStillPresent(kind blockprops.Kind, kinds []blockprops.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
