package movement

import "voxelnav/internal/util"

const placeTicks = walkTicks * 1.5

// PlaceAndWalk bridges a one-block gap by placing scaffolding beneath the
// destination before stepping onto it.
type PlaceAndWalk struct {
	dx, dz  int
	ticks   int64
	dest    util.Pos
	toPlace []util.Pos
	placing bool
}

func NewPlaceAndWalk(dx, dz int) *PlaceAndWalk {
	return &PlaceAndWalk{dx: dx, dz: dz}
}

func (p *PlaceAndWalk) Name() string { return "placeAndWalk" }

func (p *PlaceAndWalk) IntrinsicCost(env *Env, src util.Pos) (Result, bool) {
	if !env.Calc.Flags.CanPlace {
		return Result{}, false
	}
	dest := util.Pos{X: src.X + p.dx, Y: src.Y, Z: src.Z + p.dz}
	below := util.Pos{X: dest.X, Y: dest.Y - 1, Z: dest.Z}
	if env.walkable(below) {
		// Already solid; nothing to place, Walk already covers this case.
		return Result{}, false
	}
	if !env.passable(below) {
		return Result{}, false
	}
	if !env.clearance(dest, bodyHeight) {
		return Result{}, false
	}
	toPlace := []util.Pos{below}
	p.dest = dest
	p.toPlace = toPlace
	return Result{Dest: dest, Cost: env.cost(placeTicks, nil, toPlace, dest), ToPlace: toPlace}, true
}

func (p *PlaceAndWalk) Execute(env *Env, tick int64) Status {
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
	if p.ticks >= int64(placeTicks) {
		return Success
	}
	return Running
}

func (p *PlaceAndWalk) Reset() {
	p.ticks = 0
	p.placing = false
}

func (p *PlaceAndWalk) ValidPositions() []util.Pos {
	return []util.Pos{p.dest, {X: p.dest.X, Y: p.dest.Y + 1, Z: p.dest.Z}}
}
