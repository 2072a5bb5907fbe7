// Package executor implements the path executor of spec §4.12: it drives
// a smoothed path one movement.Primitive at a time, never mutating the
// path itself, and signals the caller to replan on interruption or
// failure rather than attempting recovery on its own.
package executor

import (
	"fmt"

	"voxelnav/internal/astar"
	"voxelnav/internal/movement"
	"voxelnav/internal/util"
)

// Outcome is what Execute() reports after driving the active primitive one
// tick.
type Outcome int

const (
	Running Outcome = iota
	Advanced
	Done
	Replan
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Advanced:
		return "advanced"
	case Done:
		return "done"
	case Replan:
		return "replan"
	default:
		return "unknown"
	}
}

// Report is returned from each Execute() call.
type Report struct {
	Outcome Outcome
	// ReplanFrom is the agent's current position, to be used as the new
	// A* start, set only when Outcome == Replan.
	ReplanFrom util.Pos
	Reason     string
}

// Executor drives a fixed, never-mutated path of astar.Step values.
type Executor struct {
	env     *movement.Env
	path    []astar.Step
	index   int
	current movement.Primitive
	started bool
}

// New builds an Executor over path, starting at index 0. path must be
// non-empty.
func New(env *movement.Env, path []astar.Step) *Executor {
	return &Executor{env: env, path: path}
}

// Position returns the step the executor is currently working toward, or
// the final step once the path is exhausted.
func (x *Executor) Position() util.Pos {
	if x.index >= len(x.path) {
		return x.path[len(x.path)-1].Pos
	}
	return x.path[x.index].Pos
}

// Done reports whether every step has been executed successfully.
func (x *Executor) Done() bool { return x.index >= len(x.path) }

// Execute advances the active primitive by one tick, selecting the next
// primitive when the previous one finishes or on the very first call.
func (x *Executor) Execute(tick int64, currentPos util.Pos) Report {
	if x.Done() {
		return Report{Outcome: Done}
	}
	if x.current == nil && x.path[x.index].Pos == currentPos {
		// The step is already reached (planner paths begin with the
		// start position), so no primitive is needed for it.
		x.index++
		if x.Done() {
			return Report{Outcome: Done}
		}
		return Report{Outcome: Advanced}
	}
	if x.current == nil {
		prim, ok := x.selectPrimitive(currentPos)
		if !ok {
			return Report{Outcome: Replan, ReplanFrom: currentPos, Reason: "no primitive matches next step"}
		}
		x.current = prim
		x.started = true
	}
	status := x.current.Execute(x.env, tick)
	switch status {
	case movement.Success:
		x.current.Reset()
		x.current = nil
		x.index++
		if x.Done() {
			return Report{Outcome: Done}
		}
		return Report{Outcome: Advanced}
	case movement.Unreachable, movement.Failed:
		x.current.Reset()
		x.current = nil
		return Report{Outcome: Replan, ReplanFrom: currentPos, Reason: fmt.Sprintf("primitive reported %s", status)}
	default:
		return Report{Outcome: Running}
	}
}

// ValidPositions returns the positions the active primitive's body may
// occupy, for external interruption detection (e.g. a block update
// invalidating an in-flight dig). Empty if no primitive is active.
func (x *Executor) ValidPositions() []util.Pos {
	if x.current == nil {
		return nil
	}
	return x.current.ValidPositions()
}

// selectPrimitive finds the movement.Primitive instance matching the name
// and destination recorded for the current step by regenerating the
// candidate set from currentPos. The planner never stores primitive
// instances directly in a Step since those carry runtime execution state
// that must start fresh for every execution attempt.
func (x *Executor) selectPrimitive(currentPos util.Pos) (movement.Primitive, bool) {
	step := x.path[x.index]
	for _, cand := range movement.Candidates(currentPos) {
		if cand.Name() != step.MoveName {
			continue
		}
		res, ok := cand.IntrinsicCost(x.env, currentPos)
		if !ok || res.Dest != step.Pos {
			continue
		}
		return cand, true
	}
	return nil, false
}
