package scheduler

import (
	"voxelnav/internal/blockprops"
	"voxelnav/internal/goal"
	"voxelnav/internal/util"
)

// FarmStage is the Farm process's internal state.
type FarmStage string

const (
	FarmSearching  FarmStage = "searching"
	FarmMoving     FarmStage = "moving"
	FarmHarvesting FarmStage = "harvesting"
	FarmPlanting   FarmStage = "planting"
)

// CropScanner locates mature crops and open farmland to replant.
type CropScanner interface {
	NearestMatureCrop(origin util.Pos, radius int) (util.Pos, bool)
	NearestOpenFarmland(origin util.Pos, radius int) (util.Pos, bool)
	CropAt(pos util.Pos) (blockprops.Kind, bool)
}

// Farm cycles between harvesting mature crops and replanting open
// farmland within radius of origin.
type Farm struct {
	scanner CropScanner
	radius  int
	origin  util.Pos
	stage   FarmStage
	target  util.Pos
}

func NewFarm(scanner CropScanner, radius int, origin util.Pos) *Farm {
	return &Farm{scanner: scanner, radius: radius, origin: origin, stage: FarmSearching}
}

func (f *Farm) Name() string { return NameFarm }

func (f *Farm) OnActivate() { f.stage = FarmSearching }

func (f *Farm) OnDeactivate() {}

func (f *Farm) Tick() TickResult {
	switch f.stage {
	case FarmSearching:
		if pos, ok := f.scanner.NearestMatureCrop(f.origin, f.radius); ok {
			f.target = pos
			f.stage = FarmMoving
			return NewGoalResult(goal.GetToBlock{Target: pos})
		}
		if pos, ok := f.scanner.NearestOpenFarmland(f.origin, f.radius); ok {
			f.target = pos
			f.stage = FarmPlanting
			return NewGoalResult(goal.GetToBlock{Target: pos})
		}
		return Fail("no farm work in range")
	case FarmMoving:
		f.stage = FarmHarvesting
		return ContinuePathing()
	case FarmHarvesting:
		if _, ok := f.scanner.CropAt(f.target); !ok {
			f.stage = FarmSearching
			return Complete("crop harvested")
		}
		return ContinuePathing()
	case FarmPlanting:
		f.stage = FarmSearching
		return Complete("seed planted")
	default:
		return Fail("unknown stage")
	}
}
