package movement

import "voxelnav/internal/util"

const bodyHeight = 2

// walkTicks is the baseline cost of a single cardinal step at normal walk
// speed, expressed in game ticks.
const walkTicks = 20.0

// Walk is a single cardinal step onto an adjacent walkable voxel at the
// same Y level.
type Walk struct {
	dx, dz int
	ticks  int64
	dest   util.Pos
	done   bool
}

// NewWalk returns a Walk primitive stepping by (dx, dz), each in {-1,0,1}
// with exactly one nonzero.
func NewWalk(dx, dz int) *Walk {
	return &Walk{dx: dx, dz: dz}
}

func (w *Walk) Name() string { return "walk" }

func (w *Walk) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	dest := util.Pos{X: src.X + w.dx, Y: src.Y, Z: src.Z + w.dz}
	below := util.Pos{X: dest.X, Y: dest.Y - 1, Z: dest.Z}
	if !env.walkable(below) {
		return Result{}, false
	}
	if !env.clearance(dest, bodyHeight) {
		return Result{}, false
	}
	w.dest = dest
	return Result{Dest: dest, Cost: env.cost(walkTicks, nil, nil, dest)}, true
}

func (w *Walk) Execute(env *Env, tick int64) Status {
	if w.done {
		return Success
	}
	w.ticks++
	if w.ticks >= int64(walkTicks) {
		w.done = true
		return Success
	}
	return Running
}

func (w *Walk) Reset() {
	w.ticks = 0
	w.done = false
}

func (w *Walk) ValidPositions() []util.Pos {
	return []util.Pos{w.dest, {X: w.dest.X, Y: w.dest.Y + 1, Z: w.dest.Z}}
}
