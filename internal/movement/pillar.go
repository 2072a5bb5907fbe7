package movement

import "voxelnav/internal/util"

const pillarTicks = walkTicks * 1.4

// Pillar jumps straight up one Y level while placing a block underfoot,
// the tower-up tactic for gaining height with no horizontal support.
type Pillar struct {
	ticks   int64
	dest    util.Pos
	toPlace []util.Pos
	placing bool
}

func NewPillar() *Pillar { return &Pillar{} }

func (p *Pillar) Name() string { return "pillar" }

func (p *Pillar) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	if !env.Calc.Flags.CanPlace {
		return Result{}, false
	}
	dest := util.Pos{X: src.X, Y: src.Y + 1, Z: src.Z}
	if !env.clearance(util.Pos{X: dest.X, Y: dest.Y + 1, Z: dest.Z}, 1) {
		return Result{}, false
	}
	toPlace := []util.Pos{src}
	p.dest = dest
	p.toPlace = toPlace
	return Result{Dest: dest, Cost: env.cost(pillarTicks, nil, toPlace, dest), ToPlace: toPlace}, true
}

func (p *Pillar) Execute(env *Env, tick int64) Status {
	if !p.placing && len(p.toPlace) > 0 {
		p.placing = true
		if env.Actuator != nil {
			reference := util.Pos{X: p.toPlace[0].X, Y: p.toPlace[0].Y - 1, Z: p.toPlace[0].Z}
			face := util.Pos{X: 0, Y: 1, Z: 0}
			if err := env.Actuator.PlaceBlock(reference, face); err != nil {
				return Failed
			}
		}
		return Prepping
	}
	p.ticks++
	if p.ticks >= int64(pillarTicks) {
		return Success
	}
	return Running
}

func (p *Pillar) Reset() {
	p.ticks = 0
	p.placing = false
}

func (p *Pillar) ValidPositions() []util.Pos {
	return []util.Pos{p.dest, {X: p.dest.X, Y: p.dest.Y + 1, Z: p.dest.Z}}
}
