// Package movement implements the closed set of movement primitives of
// spec §4.5: Walk, Diagonal, AscendBlock, DescendBlock, Fall, ParkourJump,
// SwimAscend/Descend, ClimbUp/Down, BreakAndWalk, PlaceAndWalk, Pillar.
// Each primitive is an intrinsic-cost function over (src, dest) plus a
// runtime execution state machine, mirroring the teacher's BlockNavigator
// neighbor-generation step but split into one type per movement the way
// Baritone-style planners structure theirs.
package movement

import (
	"math"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/calc"
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/util"
)

// Status is the execution state of an in-progress primitive (spec §4.5).
type Status int

const (
	Prepping Status = iota
	Waiting
	Running
	Success
	Unreachable
	Failed
)

func (s Status) String() string {
	switch s {
	case Prepping:
		return "prepping"
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Success:
		return "success"
	case Unreachable:
		return "unreachable"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what intrinsicCost returns for a feasible move. Cost == +Inf
// signals infeasible; callers should not read the other fields in that
// case.
type Result struct {
	Dest    util.Pos
	Cost    float64
	ToBreak []util.Pos
	ToPlace []util.Pos
}

// Env bundles everything a primitive needs to evaluate cost and execute:
// the voxel classification fast-path, the calculation context, and the
// actuator used during execute(). Primitives never hold these across
// calls; Env is passed fresh each invocation since the A* run owns it.
type Env struct {
	Cache     *chunkcache.Cache
	Calc      *calc.Context
	Actuator  adapter.Actuator
	Blocks    adapter.BlockSource
	Table     *blockprops.Table
	BreakCost float64
	PlaceCost float64
}

// cost folds intrinsic physics cost, break/place amortized cost, and the
// destination's favoring multiplier together (spec §4.5's cost
// composition). Behavior-frame penalties are applied by the caller
// (astar), which owns the active behavior.Stack.
func (e *Env) cost(intrinsic float64, toBreak, toPlace []util.Pos, dest util.Pos) float64 {
	if math.IsInf(intrinsic, 1) {
		return math.Inf(1)
	}
	total := intrinsic + float64(len(toBreak))*e.BreakCost + float64(len(toPlace))*e.PlaceCost
	return total * e.Calc.FavoringMultiplier(dest.X, dest.Y, dest.Z)
}

// Primitive is the contract every movement type implements (spec §4.5).
type Primitive interface {
	// Name identifies the primitive for telemetry and behavior-frame
	// penalty lookups.
	Name() string
	// IntrinsicCost evaluates the move from src, returning ok=false when
	// infeasible (equivalent to +Inf cost).
	IntrinsicCost(env *Env, src util.Pos) (Result, bool)
	// Execute advances this primitive's runtime state machine by one
	// tick.
	Execute(env *Env, tick int64) Status
	// Reset restores per-instance state for re-execution after a replan.
	Reset()
	// ValidPositions enumerates the voxels the agent body occupies while
	// this primitive is executing, for interruption detection.
	ValidPositions() []util.Pos
}

func (e *Env) lookup(pos util.Pos) (chunkcache.T, bool) {
	return e.Cache.Lookup(pos)
}

func (e *Env) walkable(pos util.Pos) bool {
	v, ok := e.lookup(pos)
	if !ok {
		// Unknown chunks are never usable for walk-on queries (spec §4.2).
		return false
	}
	return v == chunkcache.Solid
}

func (e *Env) passable(pos util.Pos) bool {
	v, ok := e.lookup(pos)
	if !ok {
		// Unknown chunks are treated as passable for *passable* queries.
		return true
	}
	return v.Passable()
}

func (e *Env) avoid(pos util.Pos) bool {
	v, ok := e.lookup(pos)
	return ok && v == chunkcache.Avoid
}

// clearance reports whether height voxels starting at feet are all
// passable, the standard two-high body-clearance check.
func (e *Env) clearance(feet util.Pos, height int) bool {
	for dy := 0; dy < height; dy++ {
		p := util.Pos{X: feet.X, Y: feet.Y + dy, Z: feet.Z}
		if !e.passable(p) || e.avoid(p) {
			return false
		}
	}
	return true
}

func (e *Env) kindAt(pos util.Pos) (blockprops.Kind, bool) {
	b, ok := e.Blocks.BlockAt(pos)
	if !ok {
		return 0, false
	}
	return b.Kind, true
}

func diggableBreakSet(e *Env, positions []util.Pos) ([]util.Pos, bool) {
	var toBreak []util.Pos
	for _, p := range positions {
		if e.walkable(p) {
			kind, ok := e.kindAt(p)
			if !ok {
				return nil, false
			}
			bt := e.Calc.BreakTime(kind)
			if math.IsInf(bt, 1) {
				return nil, false
			}
			toBreak = append(toBreak, p)
		}
	}
	return toBreak, true
}
