package movement

import "voxelnav/internal/util"

const minParkourGap = 2
const maxParkourGap = 4
const parkourTicksPerBlock = 6.0

// ParkourJump clears a 2-4 block horizontal gap at the same Y level,
// requiring allowParkour and headroom the whole way across. Only enabled
// when the calculation context's AllowParkour flag is set (spec §4.5).
type ParkourJump struct {
	dx, dz int // unit direction
	gap    int
	ticks  int64
	dest   util.Pos
}

// NewParkourJump returns a jump of gap blocks (2-4) in unit direction
// (dx,dz).
func NewParkourJump(dx, dz, gap int) *ParkourJump {
	return &ParkourJump{dx: dx, dz: dz, gap: gap}
}

func (p *ParkourJump) Name() string { return "parkourJump" }

func (p *ParkourJump) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	if !env.Calc.Flags.AllowParkour {
		return Result{}, false
	}
	if p.gap < minParkourGap || p.gap > maxParkourGap {
		return Result{}, false
	}

	// The takeoff edge must be clear (no block directly ahead at foot or
	// head level) for the whole gap, and the landing must be solid with
	// clearance.
	for step := 1; step < p.gap; step++ {
		mid := util.Pos{X: src.X + p.dx*step, Y: src.Y, Z: src.Z + p.dz*step}
		if !env.clearance(mid, bodyHeight) {
			return Result{}, false
		}
	}
	dest := util.Pos{X: src.X + p.dx*p.gap, Y: src.Y, Z: src.Z + p.dz*p.gap}
	below := util.Pos{X: dest.X, Y: dest.Y - 1, Z: dest.Z}
	if !env.walkable(below) {
		return Result{}, false
	}
	if !env.clearance(dest, bodyHeight) {
		return Result{}, false
	}
	p.dest = dest
	return Result{Dest: dest, Cost: env.cost(parkourTicksPerBlock*float64(p.gap), nil, nil, dest)}, true
}

func (p *ParkourJump) Execute(env *Env, tick int64) Status {
	p.ticks++
	if p.ticks >= int64(parkourTicksPerBlock*float64(p.gap)) {
		return Success
	}
	return Running
}

func (p *ParkourJump) Reset() { p.ticks = 0 }

func (p *ParkourJump) ValidPositions() []util.Pos {
	start := util.Pos{X: p.dest.X - p.dx*p.gap, Y: p.dest.Y, Z: p.dest.Z - p.dz*p.gap}
	positions := make([]util.Pos, 0, p.gap+1)
	for step := 1; step <= p.gap; step++ {
		positions = append(positions, util.Pos{X: start.X + p.dx*step, Y: start.Y, Z: start.Z + p.dz*step})
	}
	return positions
}
