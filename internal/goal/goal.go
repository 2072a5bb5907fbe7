// Package goal implements the enumerated goal set of spec §4.6: pure
// {isEnd, heuristic} pairs the planner consults on every node expansion.
// Goals never mutate world state; Follow is the one goal whose target can
// move between A* runs, modeled as an explicit Advance(pos) call rather
// than a side-effecting internal poll (spec §9 Open Question).
package goal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/internal/adapter"
	"voxelnav/internal/util"
)

// Goal is the contract every goal type implements.
type Goal interface {
	// IsEnd reports whether pos satisfies the goal.
	IsEnd(pos util.Pos) bool
	// Heuristic returns an estimate, in ticks, of the remaining distance
	// from pos. Must return a finite, non-negative value for admissible
	// goals; RunAway* and Inverted are documented exceptions (spec §9).
	Heuristic(pos util.Pos) float64
}

func dist(a, b util.Pos) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Block targets a single exact position.
type Block struct{ Target util.Pos }

func (g Block) IsEnd(pos util.Pos) bool     { return pos == g.Target }
func (g Block) Heuristic(pos util.Pos) float64 { return dist(pos, g.Target) }

// XZ targets any Y at a given (x,z) column.
type XZ struct{ X, Z int }

func (g XZ) IsEnd(pos util.Pos) bool { return pos.X == g.X && pos.Z == g.Z }
func (g XZ) Heuristic(pos util.Pos) float64 {
	dx := float64(pos.X - g.X)
	dz := float64(pos.Z - g.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

// YLevel targets any (x,z) at a given Y.
type YLevel struct{ Y int }

func (g YLevel) IsEnd(pos util.Pos) bool       { return pos.Y == g.Y }
func (g YLevel) Heuristic(pos util.Pos) float64 { return math.Abs(float64(pos.Y - g.Y)) }

// Near targets any position within radius r of Target.
type Near struct {
	Target util.Pos
	Radius float64
}

func (g Near) IsEnd(pos util.Pos) bool { return dist(pos, g.Target) <= g.Radius }
func (g Near) Heuristic(pos util.Pos) float64 {
	return math.Max(0, dist(pos, g.Target)-g.Radius)
}

// TwoBlocks is satisfied at either of two alternative targets (e.g. either
// side of a door), heuristic is the nearer one.
type TwoBlocks struct{ A, B util.Pos }

func (g TwoBlocks) IsEnd(pos util.Pos) bool { return pos == g.A || pos == g.B }
func (g TwoBlocks) Heuristic(pos util.Pos) float64 {
	return math.Min(dist(pos, g.A), dist(pos, g.B))
}

// GetToBlock is satisfied standing adjacent to Target (for interacting
// with it), not occupying it.
type GetToBlock struct{ Target util.Pos }

func (g GetToBlock) IsEnd(pos util.Pos) bool {
	d := dist(pos, g.Target)
	return d > 0 && d <= math.Sqrt2+1e-6
}
func (g GetToBlock) Heuristic(pos util.Pos) float64 {
	return math.Max(0, dist(pos, g.Target)-math.Sqrt2)
}

// AABB is satisfied anywhere inside an axis-aligned box, using continuous
// math since box bounds need not land on voxel centers.
type AABB struct {
	Min, Max mgl64.Vec3
}

func (g AABB) IsEnd(pos util.Pos) bool {
	p := mgl64.Vec3{float64(pos.X), float64(pos.Y), float64(pos.Z)}
	for i := 0; i < 3; i++ {
		if p[i] < g.Min[i] || p[i] > g.Max[i] {
			return false
		}
	}
	return true
}

func (g AABB) Heuristic(pos util.Pos) float64 {
	p := mgl64.Vec3{float64(pos.X), float64(pos.Y), float64(pos.Z)}
	var sumSq float64
	for i := 0; i < 3; i++ {
		if p[i] < g.Min[i] {
			d := g.Min[i] - p[i]
			sumSq += d * d
		} else if p[i] > g.Max[i] {
			d := p[i] - g.Max[i]
			sumSq += d * d
		}
	}
	return math.Sqrt(sumSq)
}

// Composite is satisfied when any contained goal is satisfied; heuristic is
// the minimum across all of them (an "or" goal).
type Composite struct{ Goals []Goal }

func (g Composite) IsEnd(pos util.Pos) bool {
	for _, inner := range g.Goals {
		if inner.IsEnd(pos) {
			return true
		}
	}
	return false
}

func (g Composite) Heuristic(pos util.Pos) float64 {
	best := math.Inf(1)
	for _, inner := range g.Goals {
		if h := inner.Heuristic(pos); h < best {
			best = h
		}
	}
	return best
}

// And requires every contained goal to be satisfied simultaneously; its
// heuristic sums the members' heuristics, which is NOT admissible in
// general (summing independent lower bounds overestimates the true
// remaining cost) — accepted and documented per spec §9.
type And struct{ Goals []Goal }

func (g And) IsEnd(pos util.Pos) bool {
	for _, inner := range g.Goals {
		if !inner.IsEnd(pos) {
			return false
		}
	}
	return true
}

func (g And) Heuristic(pos util.Pos) float64 {
	var sum float64
	for _, inner := range g.Goals {
		sum += inner.Heuristic(pos)
	}
	return sum
}

// Inverted is satisfied everywhere outside Inner; its heuristic is +Inf
// inside Inner (forcing movement away) and 0 outside.
type Inverted struct{ Inner Goal }

func (g Inverted) IsEnd(pos util.Pos) bool { return !g.Inner.IsEnd(pos) }
func (g Inverted) Heuristic(pos util.Pos) float64 {
	if g.Inner.IsEnd(pos) {
		return math.Inf(1)
	}
	return 0
}

// Follow tracks a moving entity's position across ticks. Advance must be
// called by the owning process each time the entity's position is
// re-sampled; Follow itself never queries the world (spec §9: explicit
// Advance replaces a side-effecting hasChanged poll).
type Follow struct {
	EntityID string
	Radius   float64
	current  util.Pos
}

// NewFollow constructs a Follow goal anchored at the entity's current
// position.
func NewFollow(entityID string, radius float64, initial util.Pos) *Follow {
	return &Follow{EntityID: entityID, Radius: radius, current: initial}
}

// Advance updates the tracked target position, called whenever the process
// re-samples the entity's location (e.g. on an entityMoved event).
func (g *Follow) Advance(pos util.Pos) {
	g.current = pos
}

// Target returns the last position recorded via Advance.
func (g *Follow) Target() util.Pos { return g.current }

func (g *Follow) IsEnd(pos util.Pos) bool { return dist(pos, g.current) <= g.Radius }
func (g *Follow) Heuristic(pos util.Pos) float64 {
	return math.Max(0, dist(pos, g.current)-g.Radius)
}

// Direction is a cardinal facing used by BlockSide.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

func (d Direction) offset() (dx, dz int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	default:
		return -1, 0
	}
}

// BlockSide targets the position buf blocks out from Target's given face.
type BlockSide struct {
	Target util.Pos
	Dir    Direction
	Buffer int
}

func (g BlockSide) anchor() util.Pos {
	dx, dz := g.Dir.offset()
	return util.Pos{X: g.Target.X + dx*g.Buffer, Y: g.Target.Y, Z: g.Target.Z + dz*g.Buffer}
}

func (g BlockSide) IsEnd(pos util.Pos) bool       { return pos == g.anchor() }
func (g BlockSide) Heuristic(pos util.Pos) float64 { return dist(pos, g.anchor()) }

// Chunk is satisfied anywhere within the named chunk column.
type Chunk struct{ Target util.ChunkXZ }

func (g Chunk) IsEnd(pos util.Pos) bool {
	return util.ChunkOf(pos, 16) == g.Target
}

func (g Chunk) Heuristic(pos util.Pos) float64 {
	here := util.ChunkOf(pos, 16)
	dx := float64(here.X - g.Target.X)
	dz := float64(here.Z - g.Target.Z)
	return math.Sqrt(dx*dx+dz*dz) * 16
}

// DirectionXZ rewards monotonic progress along a fixed XZ direction vector
// with no fixed endpoint (e.g. "head east"); IsEnd is never true on its
// own — callers combine it with a time or distance bound externally.
type DirectionXZ struct {
	Origin    util.Pos
	dx, dz    float64 // unit vector
}

// NewDirectionXZ normalizes (dx, dz) into a unit heading goal from origin.
func NewDirectionXZ(origin util.Pos, dx, dz float64) DirectionXZ {
	n := math.Hypot(dx, dz)
	if n == 0 {
		n = 1
	}
	return DirectionXZ{Origin: origin, dx: dx / n, dz: dz / n}
}

func (g DirectionXZ) IsEnd(pos util.Pos) bool { return false }
func (g DirectionXZ) Heuristic(pos util.Pos) float64 {
	traveled := float64(pos.X-g.Origin.X)*g.dx + float64(pos.Z-g.Origin.Z)*g.dz
	return -traveled
}

// RunAway returns a negative sum of distances to a set of points, a
// directed repulsor: farther from every point is "closer" to the goal.
// This relaxes A*'s optimality guarantee since the heuristic is not a
// lower bound on remaining cost — accepted and documented per spec §9.
type RunAway struct {
	Points  []util.Pos
	MinDist float64
}

func (g RunAway) IsEnd(pos util.Pos) bool {
	for _, p := range g.Points {
		if dist(pos, p) < g.MinDist {
			return false
		}
	}
	return true
}

func (g RunAway) Heuristic(pos util.Pos) float64 {
	var sum float64
	for _, p := range g.Points {
		sum += dist(pos, p)
	}
	return -sum
}

// RunAwayFromEntities is RunAway with a live entity supplier instead of a
// fixed point set, optionally ignoring Y (xzOnly) for surface-bound
// fleeing.
type RunAwayFromEntities struct {
	Supplier func() []adapter.Entity
	MinDist  float64
	XZOnly   bool
}

func (g RunAwayFromEntities) points() []util.Pos {
	entities := g.Supplier()
	out := make([]util.Pos, 0, len(entities))
	for _, e := range entities {
		if !e.Valid {
			continue
		}
		p := e.Position
		if g.XZOnly {
			p.Y = 0
		}
		out = append(out, p)
	}
	return out
}

func (g RunAwayFromEntities) IsEnd(pos util.Pos) bool {
	q := pos
	if g.XZOnly {
		q.Y = 0
	}
	for _, p := range g.points() {
		if dist(q, p) < g.MinDist {
			return false
		}
	}
	return true
}

func (g RunAwayFromEntities) Heuristic(pos util.Pos) float64 {
	q := pos
	if g.XZOnly {
		q.Y = 0
	}
	var sum float64
	for _, p := range g.points() {
		sum += dist(q, p)
	}
	return -sum
}

// Scaled wraps a Goal with a multiplicative heuristic scale, the
// mechanism behavior.Stack.HeuristicScale() composes into per spec
// §4.10: "heuristic modifiers compose left-to-right" across the active
// frame stack. IsEnd is unaffected — scaling only biases search order,
// never terminal membership.
type Scaled struct {
	Inner Goal
	Scale float64
}

func (g Scaled) IsEnd(pos util.Pos) bool { return g.Inner.IsEnd(pos) }

func (g Scaled) Heuristic(pos util.Pos) float64 {
	return g.Inner.Heuristic(pos) * g.Scale
}
