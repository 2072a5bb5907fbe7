package goal

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/internal/adapter"
	"voxelnav/internal/util"
)

func TestBlockGoal(t *testing.T) {
	g := Block{Target: util.Pos{X: 5, Y: 1, Z: 5}}
	if !g.IsEnd(util.Pos{X: 5, Y: 1, Z: 5}) {
		t.Fatal("IsEnd at target should be true")
	}
	if g.IsEnd(util.Pos{X: 4, Y: 1, Z: 5}) {
		t.Fatal("IsEnd off target should be false")
	}
	if g.Heuristic(util.Pos{X: 5, Y: 1, Z: 5}) != 0 {
		t.Fatal("Heuristic at target should be 0")
	}
}

func TestAndSumsHeuristics(t *testing.T) {
	a := Block{Target: util.Pos{X: 10, Y: 0, Z: 0}}
	b := YLevel{Y: 5}
	and := And{Goals: []Goal{a, b}}
	pos := util.Pos{X: 0, Y: 0, Z: 0}
	want := a.Heuristic(pos) + b.Heuristic(pos)
	if got := and.Heuristic(pos); got != want {
		t.Fatalf("And.Heuristic = %v, want sum %v (non-admissible by design)", got, want)
	}
}

func TestInvertedForcesMovementInsideInner(t *testing.T) {
	inner := Near{Target: util.Pos{X: 0, Y: 0, Z: 0}, Radius: 3}
	inv := Inverted{Inner: inner}
	if !math.IsInf(inv.Heuristic(util.Pos{X: 1, Y: 0, Z: 0}), 1) {
		t.Fatal("Inverted.Heuristic inside inner should be +Inf")
	}
	if got := inv.Heuristic(util.Pos{X: 10, Y: 0, Z: 0}); got != 0 {
		t.Fatalf("Inverted.Heuristic outside inner = %v, want 0", got)
	}
}

func TestRunAwayHeuristicIsNegative(t *testing.T) {
	g := RunAway{Points: []util.Pos{{X: 0, Y: 0, Z: 0}}, MinDist: 10}
	near := g.Heuristic(util.Pos{X: 1, Y: 0, Z: 0})
	far := g.Heuristic(util.Pos{X: 20, Y: 0, Z: 0})
	if far >= near {
		t.Fatalf("farther point should have lower (more negative) heuristic: near=%v far=%v", near, far)
	}
	if !g.IsEnd(util.Pos{X: 20, Y: 0, Z: 0}) {
		t.Fatal("IsEnd should be true once MinDist is cleared")
	}
}

func TestFollowAdvanceUpdatesTarget(t *testing.T) {
	f := NewFollow("entity-1", 2, util.Pos{X: 0, Y: 0, Z: 0})
	if f.IsEnd(util.Pos{X: 0, Y: 0, Z: 0}) != true {
		t.Fatal("IsEnd at initial target within radius should be true")
	}
	f.Advance(util.Pos{X: 100, Y: 0, Z: 0})
	if f.IsEnd(util.Pos{X: 0, Y: 0, Z: 0}) {
		t.Fatal("IsEnd should reflect the advanced target, not the stale one")
	}
	if f.Target() != (util.Pos{X: 100, Y: 0, Z: 0}) {
		t.Fatalf("Target() = %v, want advanced position", f.Target())
	}
}

func TestRunAwayFromEntitiesXZOnly(t *testing.T) {
	g := RunAwayFromEntities{
		Supplier: func() []adapter.Entity {
			return []adapter.Entity{{Valid: true, Position: util.Pos{X: 5, Y: 64, Z: 5}}}
		},
		MinDist: 3,
		XZOnly:  true,
	}
	// Same XZ, very different Y: with XZOnly the Y difference must not
	// count toward distance.
	if g.IsEnd(util.Pos{X: 5, Y: 0, Z: 5}) {
		t.Fatal("IsEnd should be false: XZ-distance is 0 despite large Y gap")
	}
}

func TestAABBGoal(t *testing.T) {
	g := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{10, 10, 10}}
	if !g.IsEnd(util.Pos{X: 5, Y: 5, Z: 5}) {
		t.Fatal("IsEnd inside box should be true")
	}
	if g.IsEnd(util.Pos{X: 50, Y: 5, Z: 5}) {
		t.Fatal("IsEnd outside box should be false")
	}
	if g.Heuristic(util.Pos{X: 20, Y: 5, Z: 5}) != 10 {
		t.Fatalf("Heuristic outside box on X = %v, want 10", g.Heuristic(util.Pos{X: 20, Y: 5, Z: 5}))
	}
}

func TestCompositeIsOr(t *testing.T) {
	g := Composite{Goals: []Goal{
		Block{Target: util.Pos{X: 100, Y: 0, Z: 0}},
		Block{Target: util.Pos{X: 0, Y: 0, Z: 0}},
	}}
	if !g.IsEnd(util.Pos{X: 0, Y: 0, Z: 0}) {
		t.Fatal("Composite should be satisfied if any member is")
	}
}
