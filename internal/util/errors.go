package util

import "errors"

// Sentinel error kinds per spec §7. Primitives and heuristics never use
// these for ordinary "no route" outcomes — those are values (PathResult
// variants, +Inf costs). These are reserved for genuinely exceptional,
// host-visible conditions. No function in this module returns them.
var (
	// ErrUnreachable names the no-path outcome: the planner reporting
	// NoPath for an empty frontier, or a primitive reporting Unreachable.
	ErrUnreachable = errors.New("voxelnav: no path to goal")

	// ErrTimeout is surfaced when the cumulative primary timeout is hit on
	// a subsequent compute() call after a Partial result was already
	// returned once.
	ErrTimeout = errors.New("voxelnav: search timed out")

	// ErrInterrupted marks a recoverable mid-movement interruption: the
	// agent left the current movement's valid voxel set, or a
	// higher-priority process activated.
	ErrInterrupted = errors.New("voxelnav: movement interrupted")

	// ErrInvalidInput marks a synchronous construction-time error: a NaN
	// heuristic at the start node, an empty GoalAnd/GoalComposite, or a
	// zero direction vector in GoalDirectionXZ.
	ErrInvalidInput = errors.New("voxelnav: invalid input")

	// ErrWorldUnavailable marks a block lookup for a required voxel that
	// returned "unloaded" at a committed step.
	ErrWorldUnavailable = errors.New("voxelnav: world data unavailable")

	// ErrPersistence marks a chunk-cache read/write failure. The cache
	// always continues in memory after logging and counting this.
	ErrPersistence = errors.New("voxelnav: persistence failure")
)
