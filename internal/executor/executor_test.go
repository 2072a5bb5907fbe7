package executor

import (
	"testing"

	"voxelnav/internal/adapter"
	"voxelnav/internal/astar"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/calc"
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/movement"
	"voxelnav/internal/util"
)

const (
	kindAir blockprops.Kind = iota
	kindStone
)

type flatWorld struct {
	floorY int
	holes  map[util.Pos]bool
}

func (w *flatWorld) BlockAt(pos util.Pos) (adapter.Block, bool) {
	if w.holes[pos] {
		return adapter.Block{Kind: kindAir}, true
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
	world := &flatWorld{floorY: 0, holes: make(map[util.Pos]bool)}
	cache := chunkcache.New(world, tbl)
	cache.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -2, 4)
	ctx := calc.New(calc.DefaultFlags(), tbl, nil, nil, func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 {
		return 30
	}, nil)
	return &movement.Env{Cache: cache, Calc: ctx, Table: tbl, Blocks: world, BreakCost: 10, PlaceCost: 10}
}

func TestExecutorDrivesWalkStepToCompletion(t *testing.T) {
	env := newFlatEnv(t)
	path := []astar.Step{
		{Pos: util.Pos{X: 0, Y: 1, Z: 0}, MoveName: "walk"},
		{Pos: util.Pos{X: 1, Y: 1, Z: 0}, MoveName: "walk"},
	}
	x := New(env, path)
	cur := util.Pos{X: 0, Y: 1, Z: 0}
	var tick int64
	for i := 0; i < 25; i++ {
		tick++
		r := x.Execute(tick, cur)
		if r.Outcome == Advanced {
			cur = path[0].Pos
			break
		}
		if r.Outcome == Replan {
			t.Fatalf("unexpected replan at tick %d: %s", tick, r.Reason)
		}
	}
	if x.Done() {
		t.Fatal("executor should not be done after one of two steps")
	}
	for i := 0; i < 25; i++ {
		tick++
		r := x.Execute(tick, cur)
		if r.Outcome == Done {
			return
		}
		if r.Outcome == Replan {
			t.Fatalf("unexpected replan at tick %d: %s", tick, r.Reason)
		}
	}
	t.Fatal("executor never reached Done within the tick budget")
}

func TestExecutorSignalsReplanWhenNoPrimitiveMatches(t *testing.T) {
	env := newFlatEnv(t)
	path := []astar.Step{
		{Pos: util.Pos{X: 99, Y: 99, Z: 99}, MoveName: "walk"},
	}
	x := New(env, path)
	r := x.Execute(1, util.Pos{X: 0, Y: 1, Z: 0})
	if r.Outcome != Replan {
		t.Fatalf("Execute() outcome = %v, want Replan", r.Outcome)
	}
}

func TestExecutorNeverMutatesPath(t *testing.T) {
	env := newFlatEnv(t)
	path := []astar.Step{
		{Pos: util.Pos{X: 0, Y: 1, Z: 0}, MoveName: "walk"},
		{Pos: util.Pos{X: 1, Y: 1, Z: 0}, MoveName: "walk"},
	}
	original := append([]astar.Step(nil), path...)
	x := New(env, path)
	for i := 0; i < 50; i++ {
		x.Execute(int64(i), util.Pos{X: 0, Y: 1, Z: 0})
	}
	for i := range path {
		if path[i].Pos != original[i].Pos || path[i].MoveName != original[i].MoveName {
			t.Fatalf("path mutated at index %d: %v vs %v", i, path[i], original[i])
		}
	}
}
