// Command navprofile batch-profiles internal/astar over a synthetic flat
// world (internal/simworld), grounded on cmd/pathprofile's concurrent
// worker-pool shape but driving the spec-native core (astar/movement/
// goal) instead of the legacy block navigator.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"voxelnav/internal/astar"
	"voxelnav/internal/calc"
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/favoring"
	"voxelnav/internal/goal"
	"voxelnav/internal/movement"
	"voxelnav/internal/simworld"
	"voxelnav/internal/util"
)

type job struct {
	start util.Pos
	goal  util.Pos
}

func main() {
	requests := flag.Int("requests", 500, "number of searches to run")
	concurrency := flag.Int("concurrency", runtime.NumCPU(), "number of concurrent workers")
	bound := flag.Int("bound", 64, "half-width of the loaded flat region")
	budget := flag.Duration("budget", 50*time.Millisecond, "per-search cumulative primary timeout")
	seed := flag.Int64("seed", 7, "start/goal RNG seed")
	flag.Parse()

	if *requests <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "requests and concurrency must be positive")
		os.Exit(1)
	}

	world := simworld.NewFlat(*bound)
	table := simworld.Table()
	cache := chunkcache.New(world, table)
	for dx := -3; dx <= 3; dx++ {
		for dz := -3; dz <= 3; dz++ {
			cache.LoadChunk(util.ChunkXZ{X: dx, Z: dz}, 0, 80)
		}
	}

	jobs := make(chan job)
	go func() {
		defer close(jobs)
		rng := rand.New(rand.NewSource(*seed))
		span := 2 * (*bound)
		for i := 0; i < *requests; i++ {
			sx, sz := rng.Intn(span)-*bound, rng.Intn(span)-*bound
			gx, gz := rng.Intn(span)-*bound, rng.Intn(span)-*bound
			jobs <- job{start: util.Pos{X: sx, Y: 64, Z: sz}, goal: util.Pos{X: gx, Y: 64, Z: gz}}
		}
	}()

	var (
		wg             sync.WaitGroup
		successes      int64
		partials       int64
		timeouts       int64
		noPaths        int64
		totalNodes     int64
		totalDuration  int64
		totalPathLen   int64
	)

	opts := astar.DefaultOptions()
	opts.PrimaryTimeout = *budget

	worker := func() {
		defer wg.Done()
		for j := range jobs {
			fav := favoring.New(nil, nil)
			ctx := calc.New(calc.DefaultFlags(), table, simworld.NoInventory{}, simworld.NoTool{}, simworld.FixedBreakTime(30), fav.Multiplier)
			env := &movement.Env{Cache: cache, Calc: ctx, Actuator: simworld.NoActuator{}, Blocks: world, Table: table, BreakCost: 1, PlaceCost: 1}

			start := time.Now()
			planner, ok := astar.New(env, j.start, goal.Block{Target: j.goal}, opts)
			if !ok {
				continue
			}
			var result astar.PathResult
			for {
				result = planner.Compute(5 * time.Millisecond)
				if result.Kind == astar.Success || result.Kind == astar.Timeout || result.Kind == astar.NoPath {
					break
				}
			}
			duration := time.Since(start)

			atomic.AddInt64(&totalDuration, int64(duration))
			atomic.AddInt64(&totalNodes, int64(result.NodesVisited))
			switch result.Kind {
			case astar.Success:
				atomic.AddInt64(&successes, 1)
				atomic.AddInt64(&totalPathLen, int64(len(result.Path)))
			case astar.Partial:
				atomic.AddInt64(&partials, 1)
			case astar.Timeout:
				atomic.AddInt64(&timeouts, 1)
			case astar.NoPath:
				atomic.AddInt64(&noPaths, 1)
			}
		}
	}

	wg.Add(*concurrency)
	for i := 0; i < *concurrency; i++ {
		go worker()
	}
	wallStart := time.Now()
	wg.Wait()
	wall := time.Since(wallStart)

	total := int64(*requests)
	fmt.Println("== voxelnav A* Profile ==")
	fmt.Printf("Requests: %d, Concurrency: %d\n", *requests, *concurrency)
	fmt.Printf("Successes: %d, Partials: %d, Timeouts: %d, NoPath: %d\n", successes, partials, timeouts, noPaths)
	if successes > 0 {
		fmt.Printf("Average path length: %.2f\n", float64(totalPathLen)/float64(successes))
	}
	fmt.Printf("Average nodes visited: %.2f\n", float64(totalNodes)/float64(total))
	fmt.Printf("Average per-search duration: %s\n", time.Duration(totalDuration/total))
	fmt.Printf("Wall clock duration: %s\n", wall)
}
