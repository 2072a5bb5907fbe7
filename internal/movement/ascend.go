package movement

import "voxelnav/internal/util"

const ascendTicks = walkTicks * 1.2

// AscendBlock steps up onto a block one Y level higher in one of the four
// cardinal directions (a single-block climb-up, not full climbing).
type AscendBlock struct {
	dx, dz int
	ticks  int64
	dest   util.Pos
}

func NewAscendBlock(dx, dz int) *AscendBlock {
	return &AscendBlock{dx: dx, dz: dz}
}

func (a *AscendBlock) Name() string { return "ascendBlock" }

func (a *AscendBlock) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	dest := util.Pos{X: src.X + a.dx, Y: src.Y + 1, Z: src.Z + a.dz}
	if !env.walkable(util.Pos{X: dest.X, Y: dest.Y - 1, Z: dest.Z}) {
		return Result{}, false
	}
	// Clearance above both the step-up column and the source column up to
	// head height at the new level, so the agent doesn't bonk its head.
	if !env.clearance(dest, bodyHeight) {
		return Result{}, false
	}
	if !env.clearance(util.Pos{X: src.X, Y: src.Y + bodyHeight, Z: src.Z}, 1) {
		return Result{}, false
	}
	a.dest = dest
	return Result{Dest: dest, Cost: env.cost(ascendTicks, nil, nil, dest)}, true
}

func (a *AscendBlock) Execute(env *Env, tick int64) Status {
	a.ticks++
	if a.ticks >= int64(ascendTicks) {
		return Success
	}
	return Running
}

func (a *AscendBlock) Reset() { a.ticks = 0 }

func (a *AscendBlock) ValidPositions() []util.Pos {
	return []util.Pos{a.dest, {X: a.dest.X, Y: a.dest.Y + 1, Z: a.dest.Z}}
}
