package scheduler

import (
	"voxelnav/internal/blockprops"
	"voxelnav/internal/goal"
	"voxelnav/internal/util"
)

// BuildStage is the Build process's internal state.
type BuildStage string

const (
	BuildPlanning BuildStage = "planning"
	BuildMoving   BuildStage = "moving"
	BuildBreaking BuildStage = "breaking"
	BuildPlacing  BuildStage = "placing"
)

// Blueprint is one block of a construction plan: either a removal or a
// placement at a world position.
type Blueprint struct {
	Pos    util.Pos
	Place  bool
	Kind   blockprops.Kind
}

// Build executes a sequence of breaks/placements describing a structure.
type Build struct {
	steps []Blueprint
	idx   int
	stage BuildStage
}

func NewBuild(steps []Blueprint) *Build {
	return &Build{steps: steps, stage: BuildPlanning}
}

func (b *Build) Name() string { return NameBuild }

func (b *Build) OnActivate() {
	b.idx = 0
	b.stage = BuildPlanning
}

func (b *Build) OnDeactivate() {}

func (b *Build) Tick() TickResult {
	if b.idx >= len(b.steps) {
		return Complete("structure complete")
	}
	step := b.steps[b.idx]
	switch b.stage {
	case BuildPlanning:
		b.stage = BuildMoving
		return NewGoalResult(goal.Near{Target: step.Pos, Radius: 3})
	case BuildMoving:
		if step.Place {
			b.stage = BuildPlacing
		} else {
			b.stage = BuildBreaking
		}
		return ContinuePathing()
	case BuildBreaking, BuildPlacing:
		b.idx++
		b.stage = BuildPlanning
		if b.idx >= len(b.steps) {
			return Complete("structure complete")
		}
		return Wait("step complete")
	default:
		return Fail("unknown stage")
	}
}
