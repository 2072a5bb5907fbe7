// Command navsim drives internal/engine against a synthetic flat world
// (internal/simworld): a minimal stand-in for the game-client adapter of
// spec §6, built only to exercise the core end-to-end. It registers a
// single Explore process and logs the planner/executor outcome
// periodically until the tick budget is exhausted.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"voxelnav/internal/astar"
	"voxelnav/internal/engine"
	"voxelnav/internal/scheduler"
	"voxelnav/internal/simworld"
	"voxelnav/internal/telemetry"
	"voxelnav/internal/util"
)

func main() {
	ticks := flag.Int("ticks", 400, "number of engine ticks to run")
	bound := flag.Int("bound", 64, "half-width of the loaded flat region")
	seed := flag.Int64("seed", 1, "explore process RNG seed")
	tracePath := flag.String("trace", "", "optional BadgerDB directory for search traces")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	world := simworld.NewFlat(*bound)
	self := &simworld.Self{Pos: util.Pos{X: 0, Y: 64, Z: 0}}

	recorder, err := telemetry.Open(*tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry open: %v\n", err)
		os.Exit(1)
	}
	defer recorder.Close()

	eng := engine.New(log, engine.DefaultConfig(), engine.Deps{
		Table:    simworld.Table(),
		Blocks:   world,
		Entities: simworld.NoEntities{},
		Self:     self,
		Inv:      simworld.NoInventory{},
		Selector: simworld.NoTool{},
		BreakFn:  simworld.FixedBreakTime(30),
		Actuator: simworld.NoActuator{},
		Recorder: recorder,
	})
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			eng.Cache.LoadChunk(util.ChunkXZ{X: dx, Z: dz}, 0, 80)
		}
	}

	eng.Register(scheduler.NewExplore(scheduler.ExploreSpiral, self.Pos, *seed, 4))
	eng.Registry.Activate(scheduler.NameExplore)

	for i := 0; i < *ticks; i++ {
		report := eng.Tick(self.Pos)
		if report.PlannerResult != nil && report.PlannerResult.Kind == astar.Success && len(report.PlannerResult.Path) > 0 {
			self.Pos = report.PlannerResult.Path[0].Pos
		}
		if i%50 == 0 {
			log.Info("tick", "i", i, "pos", self.Pos, "active", eng.Registry.Active())
		}
		time.Sleep(time.Millisecond)
	}
	fmt.Println("navsim finished")
}
