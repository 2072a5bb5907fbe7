package movement

import "voxelnav/internal/util"

const climbTicks = walkTicks * 1.3

// ClimbUp ascends one Y level via a climbable voxel (ladder, vine, scaffold).
type ClimbUp struct {
	ticks int64
	dest  util.Pos
}

func NewClimbUp() *ClimbUp { return &ClimbUp{} }

func (c *ClimbUp) Name() string { return "climbUp" }

func (c *ClimbUp) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	kind, ok := env.kindAt(src)
	if !ok || !env.Table.Flags(kind).Climbable {
		return Result{}, false
	}
	dest := util.Pos{X: src.X, Y: src.Y + 1, Z: src.Z}
	if !env.clearance(dest, bodyHeight) {
		return Result{}, false
	}
	c.dest = dest
	return Result{Dest: dest, Cost: env.cost(climbTicks, nil, nil, dest)}, true
}

func (c *ClimbUp) Execute(env *Env, tick int64) Status {
	c.ticks++
	if c.ticks >= int64(climbTicks) {
		return Success
	}
	return Running
}

func (c *ClimbUp) Reset() { c.ticks = 0 }

func (c *ClimbUp) ValidPositions() []util.Pos { return []util.Pos{c.dest} }

// ClimbDown descends one Y level via a climbable voxel.
type ClimbDown struct {
	ticks int64
	dest  util.Pos
}

func NewClimbDown() *ClimbDown { return &ClimbDown{} }

func (c *ClimbDown) Name() string { return "climbDown" }

func (c *ClimbDown) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	below := util.Pos{X: src.X, Y: src.Y - 1, Z: src.Z}
	kind, ok := env.kindAt(below)
	if !ok || !env.Table.Flags(kind).Climbable {
		return Result{}, false
	}
	c.dest = below
	return Result{Dest: below, Cost: env.cost(climbTicks, nil, nil, below)}, true
}

func (c *ClimbDown) Execute(env *Env, tick int64) Status {
	c.ticks++
	if c.ticks >= int64(climbTicks) {
		return Success
	}
	return Running
}

func (c *ClimbDown) Reset() { c.ticks = 0 }

func (c *ClimbDown) ValidPositions() []util.Pos { return []util.Pos{c.dest} }
