// Package engine assembles components C1-C14 into the single tick()
// entry point spec §6 describes the core as exposing to its host. It is
// the concrete answer to §5's ordering invariant: "trackers update →
// event bus drains → active process ticks → planner slice runs →
// executor consumes path → controls emitted" — Tick runs exactly that
// sequence, once per call, and nothing else in this module reorders it.
//
// Grounded on the teacher's server.Server, which owns exactly this kind
// of top-level composition root (world manager + navigator + tick loop)
// without itself implementing any of the subsystems.
package engine

import (
	"log/slog"
	"time"

	"voxelnav/internal/adapter"
	"voxelnav/internal/astar"
	"voxelnav/internal/behavior"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/calc"
	"voxelnav/internal/chunkcache"
	"voxelnav/internal/environment"
	"voxelnav/internal/eventbus"
	"voxelnav/internal/executor"
	"voxelnav/internal/favoring"
	"voxelnav/internal/goal"
	"voxelnav/internal/movement"
	"voxelnav/internal/scheduler"
	"voxelnav/internal/smoother"
	"voxelnav/internal/telemetry"
	"voxelnav/internal/util"
)

// Config bundles the per-Engine options an Options section of SPEC_FULL's
// config package would otherwise source from disk.
type Config struct {
	SliceBudget time.Duration // per-tick A* slice budget, spec §5 default 5ms
	TickPeriod  time.Duration // wall-clock duration one Tick call represents, for Weather.Step
	Opts        astar.Options
	Flags       calc.Flags
	BreakCost   float64
	PlaceCost   float64
}

// DefaultConfig returns the spec §5 defaults: a 5ms per-tick slice within
// a 500ms cumulative primary timeout.
func DefaultConfig() Config {
	return Config{
		SliceBudget: 5 * time.Millisecond,
		TickPeriod:  50 * time.Millisecond,
		Opts:        astar.DefaultOptions(),
		Flags:       calc.DefaultFlags(),
		BreakCost:   1,
		PlaceCost:   1,
	}
}

// Engine is the composition root: one per controlled agent, tick-local,
// single-threaded, matching §5's "no parallelism inside A*" constraint.
type Engine struct {
	log *slog.Logger
	cfg Config

	Table    *blockprops.Table
	Cache    *chunkcache.Cache
	Bus      *eventbus.Bus
	Stack    *behavior.Stack
	Registry *scheduler.Registry
	Recorder *telemetry.Recorder

	// Weather is optional; when set, Tick advances it each call and a
	// storm suppresses parkour/sprint for the duration, per §4.10's
	// "heuristic/permission modifiers may come from outside the planner".
	Weather *environment.Environment

	blocks   adapter.BlockSource
	inv      adapter.Inventory
	selector calc.ToolSelector
	breakFn  calc.BreakTimeFunc
	self     adapter.SelfState
	actuator adapter.Actuator

	entities adapter.EntitySource

	planner     *astar.Planner
	currentEnv  *movement.Env
	currentGoal goal.Goal
	exec        *executor.Executor
	lastSmooth  []util.Pos
	avoidance   []favoring.AvoidancePoint
	tick        int64
	searchTrace *telemetry.Bridge
}

// Deps carries the external collaborators an Engine is constructed
// against, per spec §6. Recorder may be nil (telemetry disabled).
type Deps struct {
	Table    *blockprops.Table
	Blocks   adapter.BlockSource
	Entities adapter.EntitySource
	Self     adapter.SelfState
	Inv      adapter.Inventory
	Selector calc.ToolSelector
	BreakFn  calc.BreakTimeFunc
	Actuator adapter.Actuator
	Recorder *telemetry.Recorder
}

// New builds an Engine with fresh component instances: a chunk cache over
// Deps.Blocks, an empty behavior stack (one default frame, per §4.10's
// depth-1 invariant), and an empty process registry the caller populates
// via Register.
func New(log *slog.Logger, cfg Config, deps Deps) *Engine {
	e := &Engine{
		log:      log,
		cfg:      cfg,
		Table:    deps.Table,
		Cache:    chunkcache.New(deps.Blocks, deps.Table),
		Bus:      eventbus.New(log),
		Stack:    behavior.NewStack(),
		Registry: scheduler.NewRegistry(log),
		Recorder: deps.Recorder,
		blocks:   deps.Blocks,
		entities: deps.Entities,
		inv:      deps.Inv,
		selector: deps.Selector,
		breakFn:  deps.BreakFn,
		self:     deps.Self,
		actuator: deps.Actuator,
	}
	e.wireChunkCache()
	return e
}

// wireChunkCache subscribes the cache to the events that keep it
// eventually consistent per spec §3: a single-voxel reclassify on block
// update and a release on chunk column unload. Chunk column load is not
// subscribed: ChunkColumnPayload carries no Y range, so columns enter the
// cache only through direct Cache.LoadChunk calls.
func (e *Engine) wireChunkCache() {
	e.Bus.Subscribe(string(adapter.EventBlockUpdate), 0, func(payload any) {
		if p, ok := payload.(adapter.BlockUpdatePayload); ok {
			e.Cache.OnBlockUpdate(p.Pos)
		}
	})
	e.Bus.Subscribe(string(adapter.EventChunkColumnUnload), 0, func(payload any) {
		if p, ok := payload.(adapter.ChunkColumnPayload); ok {
			e.Cache.UnloadChunk(p.Chunk)
		}
	})
}

// Register installs a scheduler process.
func (e *Engine) Register(p scheduler.Process) { e.Registry.Register(p) }

// Entities exposes the Engine's EntitySource, for constructing processes
// (scheduler.NewFollow, combat) that need to look up live entities outside
// of a planner run.
func (e *Engine) Entities() adapter.EntitySource { return e.entities }

// flagsFromFrame derives a run's calc.Flags from the behavior stack's top
// frame, implementing the C10 → C3 dependency arrow of spec §2: the
// active behavior frame's allow/deny switches become this run's
// traversal permissions. AllowWaterBucket has no frame analogue yet and
// keeps the Engine-wide default.
func (e *Engine) flagsFromFrame() calc.Flags {
	f := e.Stack.Top()
	flags := e.cfg.Flags
	flags.CanDig = f.AllowBreak
	flags.CanPlace = f.AllowPlace
	flags.AllowParkour = f.AllowParkour
	flags.AllowSprint = f.AllowSprint
	if e.Weather != nil && e.Weather.SuppressesAgility() {
		flags.AllowParkour = false
		flags.AllowSprint = false
	}
	return flags
}

// newEnv builds a fresh movement.Env + calc.Context for one planner run,
// reusing the Engine's shared Cache/Table but a run-scoped Context per
// spec §4.3's "single-writer-per-run" rule.
func (e *Engine) newEnv() *movement.Env {
	fav := favoring.New(e.lastSmooth, e.avoidance)
	ctx := calc.New(e.flagsFromFrame(), e.Table, e.inv, e.selector, e.breakFn, fav.Multiplier)
	return &movement.Env{
		Cache:     e.Cache,
		Calc:      ctx,
		Actuator:  e.actuator,
		Blocks:    e.blocks,
		Table:     e.Table,
		BreakCost: e.cfg.BreakCost,
		PlaceCost: e.cfg.PlaceCost,
	}
}

// replan discards any in-progress planner state and starts a fresh A*
// search from start toward g, matching §5's "cancellation is immediate
// and synchronous" rule — the prior Planner/arena/heap are simply
// dropped, never reused across goals.
func (e *Engine) replan(start util.Pos, g goal.Goal) {
	e.currentEnv = e.newEnv()
	e.currentGoal = g
	opts := e.cfg.Opts
	e.searchTrace = &telemetry.Bridge{}
	opts.Profiler = e.searchTrace
	scaled := goal.Scaled{Inner: g, Scale: e.Stack.HeuristicScale()}
	p, ok := astar.New(e.currentEnv, start, scaled, opts)
	if !ok {
		if e.log != nil {
			e.log.Warn("invalid goal heuristic at start, dropping goal")
		}
		e.planner = nil
		return
	}
	e.planner = p
	e.exec = nil
}

// TickReport summarizes what one Tick call did, for a host loop or test
// to assert against.
type TickReport struct {
	ProcessResult   scheduler.TickResult
	PlannerResult   *astar.PathResult
	ExecutorOutcome *executor.Report
}

// Tick runs the invariant ordering of spec §5 exactly once: process tick,
// planner slice, executor step. Event bus draining happens as a side
// effect of the host publishing events before calling Tick (the bus has
// no queue of its own; publish dispatches synchronously).
func (e *Engine) Tick(currentPos util.Pos) TickReport {
	e.tick++
	var report TickReport

	if e.Weather != nil {
		e.Weather.Step(e.cfg.TickPeriod)
	}

	result, active := e.Registry.Tick()
	if active {
		report.ProcessResult = result
		switch result.Kind {
		case scheduler.TickNewGoal:
			e.replan(currentPos, result.Goal)
		case scheduler.TickFail, scheduler.TickComplete:
			e.planner = nil
			e.exec = nil
			e.currentGoal = nil
		}
	}

	if e.planner != nil {
		pr := e.planner.Compute(e.cfg.SliceBudget)
		report.PlannerResult = &pr
		if pr.Kind == astar.Success || pr.Kind == astar.Partial {
			e.recordTrace(pr)
		}
		if pr.Kind == astar.Success {
			positions := make([]util.Pos, len(pr.Path))
			for i, s := range pr.Path {
				positions[i] = s.Pos
			}
			e.lastSmooth = smoother.Smooth(positions, e.walkable, e.passable)
			e.exec = executor.New(e.currentEnv, pr.Path)
		}
	}

	if e.exec != nil {
		rep := e.exec.Execute(e.tick, currentPos)
		report.ExecutorOutcome = &rep
		if rep.Outcome == executor.Replan && e.currentGoal != nil {
			// Spec §4.12 Interruption: locally recovered by replanning from
			// the new position toward the same goal. The active process
			// supplies a different Goal next tick only if it ticks again
			// with TickNewGoal; until then the goal carries over unchanged.
			e.replan(rep.ReplanFrom, e.currentGoal)
		}
	}

	return report
}

func (e *Engine) walkable(pos util.Pos) bool {
	t, ok := e.Cache.Lookup(pos)
	return ok && t == chunkcache.Solid
}

func (e *Engine) passable(pos util.Pos) bool {
	t, ok := e.Cache.Lookup(pos)
	return !ok || t == chunkcache.Air || t == chunkcache.Water
}

func (e *Engine) recordTrace(pr astar.PathResult) {
	if e.Recorder == nil || e.searchTrace == nil {
		return
	}
	trace := e.searchTrace.Trace(pr.SearchID, time.Now(), pr.Kind.String(), pr.Cost, len(pr.Path))
	if err := e.Recorder.Record(trace); err != nil && e.log != nil {
		e.log.Warn("telemetry record failed", "err", err)
	}
}
