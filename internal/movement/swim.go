package movement

import (
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/util"
)

const swimTicks = walkTicks * 1.5

// SwimAscend rises one Y level while staying in water, the water-specific
// counterpart to AscendBlock.
type SwimAscend struct {
	ticks int64
	dest  util.Pos
}

func NewSwimAscend() *SwimAscend { return &SwimAscend{} }

func (s *SwimAscend) Name() string { return "swimAscend" }

func (s *SwimAscend) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	if v, ok := env.lookup(src); !ok || v != chunkcache.Water {
		return Result{}, false
	}
	dest := util.Pos{X: src.X, Y: src.Y + 1, Z: src.Z}
	v, ok := env.lookup(dest)
	if !ok || !v.Passable() {
		return Result{}, false
	}
	s.dest = dest
	return Result{Dest: dest, Cost: env.cost(swimTicks, nil, nil, dest)}, true
}

func (s *SwimAscend) Execute(env *Env, tick int64) Status {
	s.ticks++
	if s.ticks >= int64(swimTicks) {
		return Success
	}
	return Running
}

func (s *SwimAscend) Reset() { s.ticks = 0 }

func (s *SwimAscend) ValidPositions() []util.Pos { return []util.Pos{s.dest} }

// SwimDescend sinks one Y level while staying in water.
type SwimDescend struct {
	ticks int64
	dest  util.Pos
}

func NewSwimDescend() *SwimDescend { return &SwimDescend{} }

func (s *SwimDescend) Name() string { return "swimDescend" }

func (s *SwimDescend) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	if v, ok := env.lookup(src); !ok || v != chunkcache.Water {
		return Result{}, false
	}
	dest := util.Pos{X: src.X, Y: src.Y - 1, Z: src.Z}
	v, ok := env.lookup(dest)
	if !ok || (v != chunkcache.Water && v != chunkcache.Air) {
		return Result{}, false
	}
	s.dest = dest
	return Result{Dest: dest, Cost: env.cost(swimTicks, nil, nil, dest)}, true
}

func (s *SwimDescend) Execute(env *Env, tick int64) Status {
	s.ticks++
	if s.ticks >= int64(swimTicks) {
		return Success
	}
	return Running
}

func (s *SwimDescend) Reset() { s.ticks = 0 }

func (s *SwimDescend) ValidPositions() []util.Pos { return []util.Pos{s.dest} }
