package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"voxelnav/internal/astar"
	"voxelnav/internal/environment"
	"voxelnav/internal/executor"
	"voxelnav/internal/goal"
	"voxelnav/internal/scheduler"
	"voxelnav/internal/simworld"
	"voxelnav/internal/util"
)

func newTestEngine(t *testing.T) (*Engine, *simworld.Self) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	world := simworld.NewFlat(32)
	self := &simworld.Self{Pos: util.Pos{X: 0, Y: 64, Z: 0}}

	eng := New(log, DefaultConfig(), Deps{
		Table:    simworld.Table(),
		Blocks:   world,
		Entities: simworld.NoEntities{},
		Self:     self,
		Inv:      simworld.NoInventory{},
		Selector: simworld.NoTool{},
		BreakFn:  simworld.FixedBreakTime(30),
		Actuator: simworld.NoActuator{},
	})
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			eng.Cache.LoadChunk(util.ChunkXZ{X: dx, Z: dz}, 0, 80)
		}
	}
	return eng, self
}

func TestTickDrivesExploreProcessToSuccessfulPlan(t *testing.T) {
	eng, self := newTestEngine(t)
	eng.Register(scheduler.NewExplore(scheduler.ExploreSpiral, self.Pos, 1, 4))
	if !eng.Registry.Activate(scheduler.NameExplore) {
		t.Fatalf("expected explore to activate with no competing process")
	}

	sawSuccess := false
	for i := 0; i < 200; i++ {
		report := eng.Tick(self.Pos)
		if report.PlannerResult != nil && report.PlannerResult.Kind == astar.Success {
			sawSuccess = true
			if len(report.PlannerResult.Path) > 0 {
				self.Pos = report.PlannerResult.Path[0].Pos
			}
			break
		}
	}
	if !sawSuccess {
		t.Fatalf("expected at least one successful plan within 200 ticks")
	}
}

func TestTickRecoversFromExecutorReplanWithoutLosingTheGoal(t *testing.T) {
	eng, self := newTestEngine(t)
	target := util.Pos{X: 5, Y: 64, Z: 0}
	eng.replan(self.Pos, goal.Block{Target: target})

	var path []astar.Step
	for i := 0; i < 50 && path == nil; i++ {
		report := eng.Tick(self.Pos)
		if report.PlannerResult != nil && report.PlannerResult.Kind == astar.Success {
			path = report.PlannerResult.Path
		}
	}
	if path == nil {
		t.Fatalf("expected a successful plan within 50 ticks")
	}

	// A fresh executor handed an impossible starting position can't match
	// any primitive's expected destination for the first step, so it must
	// report Replan on its very first Execute call (no primitive is active
	// yet to mask the mismatch).
	fresh := executor.New(eng.currentEnv, path)
	savedGoal := eng.currentGoal
	rep := fresh.Execute(1, util.Pos{X: -999, Y: -999, Z: -999})
	if rep.Outcome != executor.Replan {
		t.Fatalf("expected a Replan outcome when the executor is given an impossible position, got %s", rep.Outcome)
	}
	if savedGoal == nil {
		t.Fatalf("expected currentGoal to be set before simulating interruption")
	}

	eng.replan(rep.ReplanFrom, savedGoal)
	if eng.planner == nil {
		t.Fatalf("expected replan from the interrupted position to install a fresh planner")
	}
}

func TestWeatherStormSuppressesParkourAndSprint(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Weather = environment.New(environment.Config{
		Seed:               7,
		WeatherMinDuration: time.Second,
		WeatherMaxDuration: 2 * time.Second,
		StormChance:        1.0,
	})

	flags := eng.flagsFromFrame()
	if !flags.AllowParkour || !flags.AllowSprint {
		t.Fatalf("expected default frame to allow parkour/sprint before any weather has rolled")
	}

	// The first weather timer expiry is guaranteed to reroll into a storm
	// given StormChance: 1.0.
	eng.Weather.Step(3 * time.Second)
	if eng.Weather.CurrentState().Weather.Kind != environment.WeatherStorm {
		t.Fatalf("expected a storm to have rolled")
	}
	flags = eng.flagsFromFrame()
	if flags.AllowParkour || flags.AllowSprint {
		t.Fatalf("expected a storm to suppress parkour/sprint")
	}
}
