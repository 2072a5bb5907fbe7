package movement

import "voxelnav/internal/util"

// BreakAndWalk is a cardinal step onto a voxel that must first be dug
// clear, amortizing break time into the move's cost so the planner can
// compare it fairly against detours.
type BreakAndWalk struct {
	dx, dz  int
	ticks   int64
	dest    util.Pos
	toBreak []util.Pos
	digging bool
}

func NewBreakAndWalk(dx, dz int) *BreakAndWalk {
	return &BreakAndWalk{dx: dx, dz: dz}
}

func (b *BreakAndWalk) Name() string { return "breakAndWalk" }

func (b *BreakAndWalk) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	if !env.Calc.Flags.CanDig {
		return Result{}, false
	}
	dest := util.Pos{X: src.X + b.dx, Y: src.Y, Z: src.Z + b.dz}
	below := util.Pos{X: dest.X, Y: dest.Y - 1, Z: dest.Z}
	if !env.walkable(below) {
		return Result{}, false
	}
	positions := []util.Pos{dest, {X: dest.X, Y: dest.Y + 1, Z: dest.Z}}
	toBreak, ok := diggableBreakSet(env, positions)
	if !ok {
		return Result{}, false
	}
	if len(toBreak) == 0 {
		// Nothing to break here; this degenerates to a plain Walk, which
		// will already have been offered by that primitive.
		return Result{}, false
	}
	b.dest = dest
	b.toBreak = toBreak
	return Result{Dest: dest, Cost: env.cost(walkTicks, toBreak, nil, dest), ToBreak: toBreak}, true
}

func (b *BreakAndWalk) Execute(env *Env, tick int64) Status {
	if !b.digging && len(b.toBreak) > 0 {
		b.digging = true
		if env.Actuator != nil {
			if err := env.Actuator.Dig(b.toBreak[0], true); err != nil {
				return Failed
			}
		}
		return Prepping
	}
	b.ticks++
	if b.ticks >= int64(walkTicks) {
		return Success
	}
	return Running
}

func (b *BreakAndWalk) Reset() {
	b.ticks = 0
	b.digging = false
}

func (b *BreakAndWalk) ValidPositions() []util.Pos {
	return []util.Pos{b.dest, {X: b.dest.X, Y: b.dest.Y + 1, Z: b.dest.Z}}
}
