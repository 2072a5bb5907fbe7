package movement

import "voxelnav/internal/util"

const descendTicks = walkTicks * 1.1

// DescendBlock steps down onto a block one Y level lower, the mirror of
// AscendBlock. Unlike Fall, which drops straight down, it moves one block
// horizontally and covers only a single-block drop.
type DescendBlock struct {
	dx, dz int
	ticks  int64
	dest   util.Pos
}

func NewDescendBlock(dx, dz int) *DescendBlock {
	return &DescendBlock{dx: dx, dz: dz}
}

func (d *DescendBlock) Name() string { return "descendBlock" }

func (d *DescendBlock) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	dest := util.Pos{X: src.X + d.dx, Y: src.Y - 1, Z: src.Z + d.dz}
	if !env.walkable(util.Pos{X: dest.X, Y: dest.Y - 1, Z: dest.Z}) {
		return Result{}, false
	}
	if !env.clearance(dest, bodyHeight) {
		return Result{}, false
	}
	d.dest = dest
	return Result{Dest: dest, Cost: env.cost(descendTicks, nil, nil, dest)}, true
}

func (d *DescendBlock) Execute(env *Env, tick int64) Status {
	d.ticks++
	if d.ticks >= int64(descendTicks) {
		return Success
	}
	return Running
}

func (d *DescendBlock) Reset() { d.ticks = 0 }

func (d *DescendBlock) ValidPositions() []util.Pos {
	return []util.Pos{d.dest, {X: d.dest.X, Y: d.dest.Y + 1, Z: d.dest.Z}}
}
