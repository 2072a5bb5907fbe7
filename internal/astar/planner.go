// Package astar implements the A* planner of spec §4.7: a single
// Compute(tickBudgetMs) entry point, time-sliced across calls, reusing one
// planner instance until a terminal result is returned. Grounded on the
// teacher's BlockNavigator.FindRoute loop (container/heap + cameFrom map),
// generalized to an arena-indexed node set, movement-primitive expansion,
// and time-slice suspension instead of running to completion in one call.
package astar

import (
	"math"
	"time"

	"github.com/google/uuid"

	"voxelnav/internal/bheap"
	"voxelnav/internal/goal"
	"voxelnav/internal/movement"
	"voxelnav/internal/util"
)

// ResultKind is the outcome variant carried in PathResult.Kind; Path is
// populated for Success and for Partial/Timeout best-so-far snapshots.
type ResultKind int

const (
	Success ResultKind = iota
	Partial
	Timeout
	NoPath
)

func (k ResultKind) String() string {
	switch k {
	case Success:
		return "success"
	case Partial:
		return "partial"
	case Timeout:
		return "timeout"
	case NoPath:
		return "noPath"
	default:
		return "unknown"
	}
}

// Step is one realized move in a PathResult's Path.
type Step struct {
	Pos      util.Pos
	MoveName string
	ToBreak  []util.Pos
	ToPlace  []util.Pos
}

// PathResult is what Compute returns at the end of a slice.
type PathResult struct {
	Kind         ResultKind
	Path         []Step
	Cost         float64
	SearchID     uuid.UUID
	NodesVisited int
}

// Profiler receives optional instrumentation callbacks, grounded on the
// teacher's NavigatorProfiler (profile.go): nil is a valid no-op profiler.
type Profiler interface {
	RecordNodeExpanded()
	RecordNeighborGeneration(n int)
	// RecordBestSoFar is called whenever a newly popped node improves on
	// every previously popped node's heuristic value, for offline
	// best-so-far traces (see internal/telemetry).
	RecordBestSoFar(h float64)
}

// Options configures a Planner's timing behavior (spec §4.7/§5).
type Options struct {
	// PrimaryTimeout is the cumulative wall-clock budget across slices
	// before Compute yields Timeout instead of Partial (default 500ms).
	PrimaryTimeout time.Duration
	// FailureTimeout is carried in Options but Compute does not consult
	// it: an empty frontier is reported as NoPath as soon as it occurs, and
	// PrimaryTimeout alone bounds the cumulative search time.
	FailureTimeout time.Duration
	Profiler       Profiler
}

// DefaultOptions returns spec §5's default timing: 500ms primary timeout.
func DefaultOptions() Options {
	return Options{PrimaryTimeout: 500 * time.Millisecond, FailureTimeout: 2 * time.Second}
}

// Planner holds the state of one in-progress search across Compute calls.
// Not safe for concurrent use; the core runs single-threaded per spec §5.
type Planner struct {
	env  *movement.Env
	goal goal.Goal
	opts Options

	arena      *arena
	open       *bheap.Heap
	startIdx   int32
	searchID   uuid.UUID
	elapsed    time.Duration
	visitedCh  map[util.ChunkXZ]bool
	bestIdx    int32
	bestH      float64
	terminal   *PathResult
}

// New constructs a planner for one goal, starting at start. Returns an
// InvalidInput-equivalent error (nil Planner, ok=false) if the goal's
// heuristic at start is NaN (spec §4.7 step 1 / §7 InvalidInput).
func New(env *movement.Env, start util.Pos, g goal.Goal, opts Options) (*Planner, bool) {
	h := g.Heuristic(start)
	if math.IsNaN(h) {
		return nil, false
	}
	a := newArena(256)
	startIdx := a.alloc(start)
	startNode := a.get(startIdx)
	startNode.g = 0
	startNode.h = h

	open := bheap.New(256)
	open.Push(startNode)

	p := &Planner{
		env:       env,
		goal:      g,
		opts:      opts,
		arena:     a,
		open:      open,
		startIdx:  startIdx,
		searchID:  uuid.New(),
		visitedCh: make(map[util.ChunkXZ]bool),
		bestIdx:   startIdx,
		bestH:     h,
	}
	return p, true
}

// Compute runs one time slice of up to tickBudget, resuming prior state.
// Call again after Partial to continue the same search.
func (p *Planner) Compute(tickBudget time.Duration) PathResult {
	if p.terminal != nil {
		return *p.terminal
	}

	sliceStart := time.Now()
	result := p.computeSlice(sliceStart, tickBudget)
	p.elapsed += time.Since(sliceStart)
	return result
}

func (p *Planner) computeSlice(sliceStart time.Time, tickBudget time.Duration) PathResult {
	for {
		if time.Since(sliceStart) >= tickBudget {
			return p.partial()
		}
		if p.elapsed+time.Since(sliceStart) >= p.opts.PrimaryTimeout {
			return p.timeoutResult()
		}

		top := p.open.Pop()
		if top == nil {
			return p.terminate(PathResult{Kind: NoPath, SearchID: p.searchID})
		}
		current := top.(*node)
		if p.opts.Profiler != nil {
			p.opts.Profiler.RecordNodeExpanded()
		}

		if current.h < p.bestH {
			p.bestH = current.h
			idx, _ := p.arena.lookup(current.pos)
			p.bestIdx = idx
			if p.opts.Profiler != nil {
				p.opts.Profiler.RecordBestSoFar(current.h)
			}
		}

		if p.goal.IsEnd(current.pos) {
			return p.terminate(p.reconstruct(current, Success))
		}

		candidates := movement.Candidates(current.pos)
		feasible := 0
		for _, prim := range candidates {
			res, ok := prim.IntrinsicCost(p.env, current.pos)
			if !ok || math.IsInf(res.Cost, 1) {
				continue
			}
			feasible++
			gPrime := current.g + res.Cost

			idx, exists := p.arena.lookup(res.Dest)
			if exists {
				existing := p.arena.get(idx)
				if existing.g <= gPrime {
					continue
				}
				curIdx, _ := p.arena.lookup(current.pos)
				existing.g = gPrime
				existing.parent = curIdx
				existing.toBreak = res.ToBreak
				existing.toPlace = res.ToPlace
				existing.moveName = prim.Name()
				if p.open.Contains(existing) {
					p.open.Update(existing)
				} else {
					existing.h = p.goal.Heuristic(res.Dest)
					p.open.Push(existing)
				}
			} else {
				idx = p.arena.alloc(res.Dest)
				n := p.arena.get(idx)
				curIdx, _ := p.arena.lookup(current.pos)
				n.g = gPrime
				n.h = p.goal.Heuristic(res.Dest)
				n.parent = curIdx
				n.toBreak = res.ToBreak
				n.toPlace = res.ToPlace
				n.moveName = prim.Name()
				p.open.Push(n)
			}
			p.visitedCh[util.ChunkOf(res.Dest, 16)] = true
		}
		if p.opts.Profiler != nil {
			p.opts.Profiler.RecordNeighborGeneration(feasible)
		}
	}
}

func (p *Planner) terminate(r PathResult) PathResult {
	r.NodesVisited = len(p.arena.nodes)
	p.terminal = &r
	return r
}

func (p *Planner) partial() PathResult {
	best := p.arena.get(p.bestIdx)
	r := p.reconstruct(best, Partial)
	return r
}

func (p *Planner) timeoutResult() PathResult {
	if p.terminal != nil {
		return *p.terminal
	}
	best := p.arena.get(p.bestIdx)
	r := p.reconstruct(best, Timeout)
	p.terminal = &r
	return r
}

// reconstruct walks parent indices from n back to the start, producing the
// path in forward order.
func (p *Planner) reconstruct(n *node, kind ResultKind) PathResult {
	var steps []Step
	idx, _ := p.arena.lookup(n.pos)
	for idx != noParent {
		cur := p.arena.get(idx)
		steps = append(steps, Step{Pos: cur.pos, MoveName: cur.moveName, ToBreak: cur.toBreak, ToPlace: cur.toPlace})
		idx = cur.parent
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return PathResult{Kind: kind, Path: steps, Cost: n.g, SearchID: p.searchID, NodesVisited: len(p.arena.nodes)}
}

// VisitedChunks returns the set of chunk columns touched by this search,
// for telemetry/debug overlays.
func (p *Planner) VisitedChunks() []util.ChunkXZ {
	out := make([]util.ChunkXZ, 0, len(p.visitedCh))
	for ch := range p.visitedCh {
		out = append(out, ch)
	}
	return out
}
