package astar

import (
	"testing"
	"time"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/calc"
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/goal"
	"voxelnav/internal/movement"
	"voxelnav/internal/util"
)

const (
	kindAir blockprops.Kind = iota
	kindStone
)

type flatWorld struct {
	floorY int
	walls  map[util.Pos]bool
}

func (w *flatWorld) BlockAt(pos util.Pos) (adapter.Block, bool) {
	if w.walls[pos] {
		return adapter.Block{Kind: kindStone}, true
	}
	if pos.Y <= w.floorY {
		return adapter.Block{Kind: kindStone}, true
	}
	return adapter.Block{Kind: kindAir}, true
}

func newFlatEnv(t *testing.T) *movement.Env {
	t.Helper()
	tbl := blockprops.NewTable()
	tbl.Set(kindStone, blockprops.Flags{WalkOn: true})
	world := &flatWorld{floorY: 63, walls: make(map[util.Pos]bool)}
	cache := chunkcache.New(world, tbl)
	for cx := -4; cx <= 4; cx++ {
		for cz := -4; cz <= 4; cz++ {
			cache.LoadChunk(util.ChunkXZ{X: cx, Z: cz}, 60, 70)
		}
	}
	ctx := calc.New(calc.DefaultFlags(), tbl, nil, nil, nil, nil)
	return &movement.Env{Cache: cache, Calc: ctx, Table: tbl, Blocks: world, BreakCost: 10, PlaceCost: 10}
}

func TestStartEqualsGoalIsImmediateSuccess(t *testing.T) {
	env := newFlatEnv(t)
	start := util.Pos{X: 0, Y: 64, Z: 0}
	g := goal.Block{Target: start}
	p, ok := New(env, start, g, DefaultOptions())
	if !ok {
		t.Fatal("New should succeed for a finite heuristic")
	}
	res := p.Compute(50 * time.Millisecond)
	if res.Kind != Success {
		t.Fatalf("Kind = %v, want Success", res.Kind)
	}
	if len(res.Path) != 1 || res.Path[0].Pos != start {
		t.Fatalf("Path = %v, want single-node path at start", res.Path)
	}
	if res.Cost != 0 {
		t.Fatalf("Cost = %v, want 0", res.Cost)
	}
}

func TestSimplePathSucceeds(t *testing.T) {
	env := newFlatEnv(t)
	start := util.Pos{X: 0, Y: 64, Z: 0}
	g := goal.Block{Target: util.Pos{X: 5, Y: 64, Z: 0}}
	p, ok := New(env, start, g, DefaultOptions())
	if !ok {
		t.Fatal("New should succeed")
	}
	res := p.Compute(100 * time.Millisecond)
	if res.Kind != Success {
		t.Fatalf("Kind = %v, want Success", res.Kind)
	}
	if res.Path[0].Pos != start {
		t.Fatalf("first node = %v, want start", res.Path[0].Pos)
	}
	last := res.Path[len(res.Path)-1].Pos
	if !g.IsEnd(last) {
		t.Fatalf("last node %v does not satisfy goal", last)
	}
	if res.Cost <= 0 {
		t.Fatalf("Cost = %v, want > 0 for a nontrivial path", res.Cost)
	}
}

func TestZeroTickBudgetYieldsPartial(t *testing.T) {
	env := newFlatEnv(t)
	start := util.Pos{X: 0, Y: 64, Z: 0}
	g := goal.Block{Target: util.Pos{X: 100, Y: 64, Z: 100}}
	p, ok := New(env, start, g, DefaultOptions())
	if !ok {
		t.Fatal("New should succeed")
	}
	res := p.Compute(0)
	if res.Kind != Partial {
		t.Fatalf("Kind = %v, want Partial on zero budget", res.Kind)
	}
	if len(res.Path) != 1 {
		t.Fatalf("Path length = %d, want 1 on the very first zero-budget call", len(res.Path))
	}
}

func TestEnclosedStartIsNoPath(t *testing.T) {
	env := newFlatEnv(t)
	start := util.Pos{X: 0, Y: 64, Z: 0}
	for _, d := range []util.Pos{
		{X: 1, Y: 64, Z: 0}, {X: -1, Y: 64, Z: 0},
		{X: 0, Y: 64, Z: 1}, {X: 0, Y: 64, Z: -1},
		{X: 1, Y: 65, Z: 0}, {X: -1, Y: 65, Z: 0},
		{X: 0, Y: 65, Z: 1}, {X: 0, Y: 65, Z: -1},
	} {
		env.Blocks.(*flatWorld).walls[d] = true
		env.Cache.OnBlockUpdate(d)
	}
	g := goal.Block{Target: util.Pos{X: 10, Y: 64, Z: 10}}
	p, ok := New(env, start, g, Options{PrimaryTimeout: 50 * time.Millisecond, FailureTimeout: 50 * time.Millisecond})
	if !ok {
		t.Fatal("New should succeed")
	}
	res := p.Compute(200 * time.Millisecond)
	if res.Kind != NoPath {
		t.Fatalf("Kind = %v, want NoPath for a fully enclosed start", res.Kind)
	}
}

func TestRepeatedComputeOnSolvedInstanceIsStable(t *testing.T) {
	env := newFlatEnv(t)
	start := util.Pos{X: 0, Y: 64, Z: 0}
	g := goal.Block{Target: util.Pos{X: 3, Y: 64, Z: 0}}
	p, _ := New(env, start, g, DefaultOptions())
	first := p.Compute(100 * time.Millisecond)
	second := p.Compute(100 * time.Millisecond)
	if first.Kind != Success || second.Kind != Success {
		t.Fatalf("expected both calls to report Success, got %v then %v", first.Kind, second.Kind)
	}
	if len(first.Path) != len(second.Path) {
		t.Fatalf("repeated compute on solved instance returned different path lengths")
	}
}
