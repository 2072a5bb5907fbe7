package movement

import "voxelnav/internal/util"

// diagonalTicks is about √2 cardinal steps' worth of time, cheaper than
// travelling the two cardinal legs separately, matching the usual
// diagonal-move incentive in block navigators.
const diagonalTicks = walkTicks * 1.42

// Diagonal moves to a diagonally adjacent voxel at the same Y level.
// Both corner voxels the body would clip through on a straight diagonal
// must be passable — no cutting corners through solid blocks.
type Diagonal struct {
	dx, dz int
	ticks  int64
	dest   util.Pos
	done   bool
}

// NewDiagonal returns a Diagonal primitive stepping by (dx, dz), both
// nonzero and in {-1,1}.
func NewDiagonal(dx, dz int) *Diagonal {
	return &Diagonal{dx: dx, dz: dz}
}

func (d *Diagonal) Name() string { return "diagonal" }

func (d *Diagonal) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	dest := util.Pos{X: src.X + d.dx, Y: src.Y, Z: src.Z + d.dz}
	below := util.Pos{X: dest.X, Y: dest.Y - 1, Z: dest.Z}
	if !env.walkable(below) {
		return Result{}, false
	}
	if !env.clearance(dest, bodyHeight) {
		return Result{}, false
	}

	corner1 := util.Pos{X: src.X + d.dx, Y: src.Y, Z: src.Z}
	corner2 := util.Pos{X: src.X, Y: src.Y, Z: src.Z + d.dz}
	if !env.clearance(corner1, bodyHeight) || !env.clearance(corner2, bodyHeight) {
		return Result{}, false
	}

	d.dest = dest
	return Result{Dest: dest, Cost: env.cost(diagonalTicks, nil, nil, dest)}, true
}

func (d *Diagonal) Execute(env *Env, tick int64) Status {
	d.ticks++
	if d.ticks >= int64(diagonalTicks) {
		d.done = true
		return Success
	}
	return Running
}

func (d *Diagonal) Reset() {
	d.ticks = 0
	d.done = false
}

func (d *Diagonal) ValidPositions() []util.Pos {
	return []util.Pos{d.dest, {X: d.dest.X, Y: d.dest.Y + 1, Z: d.dest.Z}}
}
