package movement

import (
	"math"
	"testing"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/calc"
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/util"
)

const (
	kindAir blockprops.Kind = iota
	kindStone
	kindWater
	kindLava
)

type flatWorld struct {
	floorY int
	holes  map[util.Pos]bool
}

func (w *flatWorld) BlockAt(pos util.Pos) (adapter.Block, bool) {
	if w.holes[pos] {
		return adapter.Block{Kind: kindAir}, true
	}
	if pos.Y == w.floorY {
		return adapter.Block{Kind: kindStone}, true
	}
	if pos.Y < w.floorY {
		return adapter.Block{Kind: kindStone}, true
	}
	return adapter.Block{Kind: kindAir}, true
}

func newFlatEnv(t *testing.T, flags calc.Flags) (*Env, *flatWorld) {
	t.Helper()
	tbl := blockprops.NewTable()
	tbl.Set(kindStone, blockprops.Flags{WalkOn: true})
	tbl.Set(kindWater, blockprops.Flags{Water: true})
	tbl.Set(kindLava, blockprops.Flags{Lava: true})

	world := &flatWorld{floorY: 0, holes: make(map[util.Pos]bool)}
	cache := chunkcache.New(world, tbl)
	cache.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -2, 4)

	ctx := calc.New(flags, tbl, nil, nil, func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 {
		return 30
	}, nil)

	return &Env{
		Cache:     cache,
		Calc:      ctx,
		Table:     tbl,
		Blocks:    world,
		BreakCost: 10,
		PlaceCost: 10,
	}, world
}

func TestWalkFeasibleOnFlatGround(t *testing.T) {
	env, _ := newFlatEnv(t, calc.DefaultFlags())
	w := NewWalk(1, 0)
	res, ok := w.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0})
	if !ok {
		t.Fatal("Walk should be feasible on flat ground")
	}
	if res.Dest != (util.Pos{X: 1, Y: 1, Z: 0}) {
		t.Fatalf("Walk.Dest = %v, want {1,1,0}", res.Dest)
	}
	if math.IsInf(res.Cost, 1) || res.Cost <= 0 {
		t.Fatalf("Walk.Cost = %v, want finite positive", res.Cost)
	}
}

func TestWalkInfeasibleOverHole(t *testing.T) {
	env, world := newFlatEnv(t, calc.DefaultFlags())
	world.holes[util.Pos{X: 1, Y: 0, Z: 0}] = true
	env.Cache.OnBlockUpdate(util.Pos{X: 1, Y: 0, Z: 0})
	w := NewWalk(1, 0)
	if _, ok := w.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0}); ok {
		t.Fatal("Walk over a hole should be infeasible")
	}
}

func TestDiagonalFeasibleOverOpenCorners(t *testing.T) {
	env, _ := newFlatEnv(t, calc.DefaultFlags())
	d := NewDiagonal(1, 1)
	if _, ok := d.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0}); !ok {
		t.Fatal("Diagonal should be feasible over open corners")
	}
}

func TestFallTerminatesWithinSafeHeight(t *testing.T) {
	env, world := newFlatEnv(t, calc.DefaultFlags())
	// Carve a 2-block-deep pit in front, landing on solid floor at y=-2.
	world.holes[util.Pos{X: 0, Y: 0, Z: 0}] = true
	world.floorY = -2
	env.Cache.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -2, 4)
	f := NewFall()
	res, ok := f.IntrinsicCost(env, util.Pos{X: 0, Y: -1, Z: 0})
	if !ok {
		t.Fatal("Fall within safe height should be feasible")
	}
	if res.Dest.Y != -1 {
		t.Fatalf("Fall landed at Y=%d, want -1 (one above the floor)", res.Dest.Y)
	}
}

func TestBreakAndWalkRequiresCanDig(t *testing.T) {
	env, world := newFlatEnv(t, calc.Flags{CanDig: false})
	world.holes[util.Pos{X: 1, Y: 1, Z: 0}] = false
	b := NewBreakAndWalk(1, 0)
	if _, ok := b.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0}); ok {
		t.Fatal("BreakAndWalk should require CanDig")
	}
}

func TestParkourRequiresAllowParkour(t *testing.T) {
	env, world := newFlatEnv(t, calc.Flags{AllowParkour: false})
	world.holes[util.Pos{X: 1, Y: 0, Z: 0}] = true
	world.holes[util.Pos{X: 2, Y: 0, Z: 0}] = true
	p := NewParkourJump(1, 0, 3)
	if _, ok := p.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0}); ok {
		t.Fatal("ParkourJump should require AllowParkour")
	}
}

func TestWalkValidPositionsMatchComputedDest(t *testing.T) {
	env, _ := newFlatEnv(t, calc.DefaultFlags())
	w := NewWalk(1, 0)
	res, ok := w.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0})
	if !ok {
		t.Fatal("Walk should be feasible on flat ground")
	}
	valid := w.ValidPositions()
	if valid[0] != res.Dest {
		t.Fatalf("ValidPositions()[0] = %v, want computed Dest %v", valid[0], res.Dest)
	}
}

func TestFallExecuteTracksComputedDropDistance(t *testing.T) {
	env, world := newFlatEnv(t, calc.DefaultFlags())
	world.holes[util.Pos{X: 0, Y: 0, Z: 0}] = true
	world.floorY = -2
	env.Cache.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -2, 4)
	f := NewFall()
	res, ok := f.IntrinsicCost(env, util.Pos{X: 0, Y: 0, Z: 0})
	if !ok {
		t.Fatal("Fall within safe height should be feasible")
	}
	if f.dropDist != 2 {
		t.Fatalf("Fall.dropDist = %d, want 2 (IntrinsicCost must store it, not leave it zero)", f.dropDist)
	}
	if f.dest != res.Dest {
		t.Fatalf("Fall.dest = %v, want %v", f.dest, res.Dest)
	}
	// One tick short of the full drop, Execute must still be Running.
	for i := 0; i < int(float64(f.dropDist)*fallTicksPerBlock)-1; i++ {
		if status := f.Execute(env, int64(i)); status != Running {
			t.Fatalf("Fall.Execute tick %d = %v, want Running", i, status)
		}
	}
	if status := f.Execute(env, 0); status != Success {
		t.Fatalf("Fall.Execute after full drop = %v, want Success", status)
	}
}

// obstructedWorld is solid everywhere at or below floorY, plus a single
// diggable column of obstructing blocks above the floor.
type obstructedWorld struct {
	floorY     int
	obstructed map[util.Pos]bool
}

func (w *obstructedWorld) BlockAt(pos util.Pos) (adapter.Block, bool) {
	if w.obstructed[pos] {
		return adapter.Block{Kind: kindStone}, true
	}
	if pos.Y <= w.floorY {
		return adapter.Block{Kind: kindStone}, true
	}
	return adapter.Block{Kind: kindAir}, true
}

func TestBreakAndWalkExecuteDigsBeforeCompleting(t *testing.T) {
	tbl := blockprops.NewTable()
	tbl.Set(kindStone, blockprops.Flags{WalkOn: true})

	world := &obstructedWorld{floorY: 0, obstructed: map[util.Pos]bool{
		{X: 1, Y: 1, Z: 0}: true,
		{X: 1, Y: 2, Z: 0}: true,
	}}
	cache := chunkcache.New(world, tbl)
	cache.LoadChunk(util.ChunkXZ{X: 0, Z: 0}, -2, 4)
	ctx := calc.New(calc.Flags{CanDig: true}, tbl, nil, nil, func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 {
		return 30
	}, nil)
	env := &Env{Cache: cache, Calc: ctx, Table: tbl, Blocks: world, BreakCost: 10, PlaceCost: 10}

	b := NewBreakAndWalk(1, 0)
	res, ok := b.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0})
	if !ok {
		t.Fatal("BreakAndWalk should be feasible when a diggable block blocks the step")
	}
	if len(b.toBreak) == 0 {
		t.Fatal("BreakAndWalk.toBreak must be populated by IntrinsicCost, not left empty")
	}
	if b.dest != res.Dest {
		t.Fatalf("BreakAndWalk.dest = %v, want %v", b.dest, res.Dest)
	}
	dig := &recordingActuator{}
	env.Actuator = dig
	if status := b.Execute(env, 0); status != Prepping {
		t.Fatalf("BreakAndWalk.Execute first tick = %v, want Prepping", status)
	}
	if !dig.dug {
		t.Fatal("BreakAndWalk.Execute must call Actuator.Dig once toBreak is populated")
	}
}

type recordingActuator struct {
	dug bool
}

func (r *recordingActuator) Dig(pos util.Pos, forceLook bool) error {
	r.dug = true
	return nil
}

func (r *recordingActuator) StopDigging() error                        { return nil }
func (r *recordingActuator) PlaceBlock(reference, face util.Pos) error { return nil }
func (r *recordingActuator) Attack(entityID string) error              { return nil }
func (r *recordingActuator) Look(yawRad, pitchRad float64, forceSync bool) error { return nil }
func (r *recordingActuator) LookAt(point util.Pos) error                { return nil }
func (r *recordingActuator) ActivateItem() error                        { return nil }
func (r *recordingActuator) DeactivateItem() error                      { return nil }

func TestPlaceAndWalkValidPositionsMatchComputedDest(t *testing.T) {
	env, world := newFlatEnv(t, calc.Flags{CanPlace: true})
	world.holes[util.Pos{X: 1, Y: 0, Z: 0}] = true
	env.Cache.OnBlockUpdate(util.Pos{X: 1, Y: 0, Z: 0})
	p := NewPlaceAndWalk(1, 0)
	res, ok := p.IntrinsicCost(env, util.Pos{X: 0, Y: 1, Z: 0})
	if !ok {
		t.Fatal("PlaceAndWalk should be feasible over a gap when CanPlace is set")
	}
	if len(p.toPlace) == 0 {
		t.Fatal("PlaceAndWalk.toPlace must be populated by IntrinsicCost")
	}
	valid := p.ValidPositions()
	if valid[0] != res.Dest {
		t.Fatalf("ValidPositions()[0] = %v, want computed Dest %v", valid[0], res.Dest)
	}
}

func TestCandidatesCoversClosedSet(t *testing.T) {
	cands := Candidates(util.Pos{})
	names := make(map[string]bool)
	for _, c := range cands {
		names[c.Name()] = true
	}
	want := []string{
		"walk", "diagonal", "ascendBlock", "descendBlock", "fall",
		"parkourJump", "swimAscend", "swimDescend", "climbUp", "climbDown",
		"breakAndWalk", "placeAndWalk", "pillar",
	}
	for _, w := range want {
		if !names[w] {
			t.Errorf("Candidates() missing primitive %q", w)
		}
	}
}
