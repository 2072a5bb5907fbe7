// Package pathfinding is the chunk server's façade onto the spec-native
// navigation core (internal/astar, internal/movement, internal/calc,
// internal/chunkcache): BlockNavigator.FindRoute preloads a live chunk
// cache over the requested start/goal volume from a *world.Manager and
// lets astar.Planner search it, instead of re-implementing a second,
// world-package-specific A* alongside the spec's own.
package pathfinding

import (
	"context"
	"math"
	"strings"
	"time"

	"voxelnav/internal/adapter"
	"voxelnav/internal/astar"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/calc"
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/goal"
	"voxelnav/internal/movement"
	"voxelnav/internal/util"
	"voxelnav/internal/world"
)

type Mode int

const (
	ModeGround Mode = iota
	ModeFlying
	ModeUnderground
)

// UnitProfile constrains how a unit may traverse block space. FindRoute
// translates it into calc.Flags for the planner it delegates to.
type UnitProfile struct {
	Mode      Mode
	Clearance int
	MaxClimb  int
	MaxDrop   int
	CanDig    bool
}

// BlockNavigator resolves block-level routes over a *world.Manager by
// delegating to astar.Planner.
type BlockNavigator struct {
	region world.ServerRegion
	world  *world.Manager
	table  *blockprops.Table
}

func NewBlockNavigator(region world.ServerRegion, w *world.Manager) *BlockNavigator {
	return &BlockNavigator{region: region, world: w, table: world.CoreTable()}
}

// DefaultProfile returns traversal defaults for the given unit mode.
func DefaultProfile(mode Mode) UnitProfile {
	switch mode {
	case ModeFlying:
		return UnitProfile{Mode: ModeFlying, Clearance: 2, MaxClimb: 6, MaxDrop: 6, CanDig: false}
	case ModeUnderground:
		return UnitProfile{Mode: ModeUnderground, Clearance: 1, MaxClimb: 2, MaxDrop: 6, CanDig: true}
	case ModeGround:
		fallthrough
	default:
		return UnitProfile{Mode: ModeGround, Clearance: 2, MaxClimb: 1, MaxDrop: 2, CanDig: false}
	}
}

// ModeFromString parses a textual traversal mode label.
func ModeFromString(value string) Mode {
	switch strings.ToLower(value) {
	case "flying":
		return ModeFlying
	case "underground", "digging":
		return ModeUnderground
	default:
		return ModeGround
	}
}

const (
	// chunkLoadMargin buffers the preloaded chunk-column rectangle beyond
	// the straight line between start and goal, so primitives that step
	// off-axis (diagonals, parkour) don't run off the edge of the cache.
	chunkLoadMargin = 1
	// heightLoadMargin buffers the preloaded vertical span beyond
	// start/goal, bounding the preload cost instead of classifying an
	// entire (possibly 2048-block-tall) column.
	heightLoadMargin = 48
	sliceBudget      = 5 * time.Millisecond
)

// FindRoute locates a block-level path subject to unit traversal
// constraints, or nil if none exists within the planner's timeouts.
func (n *BlockNavigator) FindRoute(ctx context.Context, start, goalCoord world.BlockCoord, profile UnitProfile) []world.BlockCoord {
	if start == goalCoord {
		return []world.BlockCoord{start}
	}
	if n.world == nil {
		return nil
	}
	if _, ok := n.region.LocateBlock(start); !ok {
		return nil
	}
	if _, ok := n.region.LocateBlock(goalCoord); !ok {
		return nil
	}

	startPos := world.ToPos(start)
	goalPos := world.ToPos(goalCoord)

	blocks := &world.CoreBlockSource{Manager: n.world, Ctx: ctx}
	cache := chunkcache.New(blocks, n.table)
	n.preload(cache, startPos, goalPos)

	env := &movement.Env{
		Cache:     cache,
		Calc:      calc.New(flagsFor(profile), n.table, nil, nil, breakTimeFor(profile), nil),
		Blocks:    blocks,
		Table:     n.table,
		BreakCost: 20,
		PlaceCost: 20,
	}

	g := goal.Block{Target: goalPos}
	planner, ok := astar.New(env, startPos, g, plannerOptions(profilerFromContext(ctx)))
	if !ok {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		result := planner.Compute(sliceBudget)
		switch result.Kind {
		case astar.Success:
			return toBlockCoords(result.Path)
		case astar.NoPath, astar.Timeout:
			return nil
		}
	}
}

// preload classifies every chunk column the search might touch into cache,
// since the spec's chunk cache (unlike this package's former bespoke
// navigator) treats an unclassified voxel as unusable for walk-on queries
// rather than lazily fetching it mid-expansion.
func (n *BlockNavigator) preload(cache *chunkcache.Cache, start, goalPos util.Pos) {
	startCh := util.ChunkOf(start, chunkcache.SectionSize)
	goalCh := util.ChunkOf(goalPos, chunkcache.SectionSize)

	minCX, maxCX := minInt(startCh.X, goalCh.X)-chunkLoadMargin, maxInt(startCh.X, goalCh.X)+chunkLoadMargin
	minCZ, maxCZ := minInt(startCh.Z, goalCh.Z)-chunkLoadMargin, maxInt(startCh.Z, goalCh.Z)+chunkLoadMargin

	dims := n.region.ChunkDimension
	minY := minInt(start.Y, goalPos.Y) - heightLoadMargin
	maxY := maxInt(start.Y, goalPos.Y) + heightLoadMargin
	if minY < 0 {
		minY = 0
	}
	if maxY >= dims.Height {
		maxY = dims.Height - 1
	}

	for cx := minCX; cx <= maxCX; cx++ {
		for cz := minCZ; cz <= maxCZ; cz++ {
			cache.LoadChunk(util.ChunkXZ{X: cx, Z: cz}, minY, maxY)
		}
	}
}

func flagsFor(p UnitProfile) calc.Flags {
	return calc.Flags{
		CanDig:           p.CanDig,
		CanPlace:         false,
		AllowSprint:      true,
		AllowParkour:     p.Mode != ModeUnderground,
		AllowWaterBucket: false,
	}
}

// breakTimeFor returns a constant break time for diggable profiles, the
// same simplification DefaultProfile already makes for traversal limits —
// this façade has no inventory to consult a real tool-efficiency curve.
func breakTimeFor(p UnitProfile) calc.BreakTimeFunc {
	return func(kind blockprops.Kind, tool adapter.Item, haveTool bool, onGround, inWater bool) float64 {
		if !p.CanDig {
			return math.Inf(1)
		}
		return 15
	}
}

func plannerOptions(np NavigatorProfiler) astar.Options {
	opts := astar.DefaultOptions()
	if np != nil {
		opts.Profiler = profilerBridge{np}
	}
	return opts
}

// profilerBridge adapts this package's NavigatorProfiler (profile.go) to
// astar.Profiler, so existing callers instrumenting FindRoute via
// ContextWithProfiler keep working against the delegated planner.
type profilerBridge struct{ np NavigatorProfiler }

func (p profilerBridge) RecordNodeExpanded()           { p.np.RecordNodeExpanded() }
func (p profilerBridge) RecordNeighborGeneration(n int) { p.np.RecordNeighborGeneration(n) }
func (p profilerBridge) RecordBestSoFar(float64)       {}

func toBlockCoords(steps []astar.Step) []world.BlockCoord {
	out := make([]world.BlockCoord, 0, len(steps))
	for _, s := range steps {
		out = append(out, world.ToBlockCoord(s.Pos))
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
