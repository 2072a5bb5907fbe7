// Package scheduler implements the process scheduler of spec §4.11: a
// priority-ranked registry of named processes, each a small state machine
// driven one tick() call at a time. Only one process is active at a time;
// activate(name) succeeds only when no higher-priority process already
// holds the slot.
package scheduler

import (
	"log/slog"

	"voxelnav/internal/goal"
)

// Priority ranks processes for preemption. Higher values win.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 1
	PriorityHigh   Priority = 2
)

// Named process priorities per spec §4.11: Combat preempts everything;
// Mine/Gather/Follow/Farm/Build sit at the default tier; Explore only runs
// when nothing else wants the slot.
const (
	NameCombat  = "combat"
	NameMine    = "mine"
	NameGather  = "gather"
	NameFollow  = "follow"
	NameFarm    = "farm"
	NameBuild   = "build"
	NameExplore = "explore"
)

var defaultPriorities = map[string]Priority{
	NameCombat:  PriorityHigh,
	NameMine:    PriorityNormal,
	NameGather:  PriorityNormal,
	NameFollow:  PriorityNormal,
	NameFarm:    PriorityNormal,
	NameBuild:   PriorityNormal,
	NameExplore: PriorityLow,
}

// TickResultKind is the closed set of outcomes a process may report each
// tick.
type TickResultKind string

const (
	TickNewGoal         TickResultKind = "newGoal"
	TickContinuePathing TickResultKind = "continuePathing"
	TickWait            TickResultKind = "wait"
	TickComplete        TickResultKind = "complete"
	TickFail            TickResultKind = "fail"
)

// TickResult is the variant a process's tick() returns.
type TickResult struct {
	Kind    TickResultKind
	Goal    goal.Goal
	Message string
}

func NewGoalResult(g goal.Goal) TickResult { return TickResult{Kind: TickNewGoal, Goal: g} }
func ContinuePathing() TickResult          { return TickResult{Kind: TickContinuePathing} }
func Wait(msg string) TickResult           { return TickResult{Kind: TickWait, Message: msg} }
func Complete(msg string) TickResult       { return TickResult{Kind: TickComplete, Message: msg} }
func Fail(msg string) TickResult           { return TickResult{Kind: TickFail, Message: msg} }

// Process is a named, preemptible behavior state machine.
type Process interface {
	Name() string
	OnActivate()
	OnDeactivate()
	Tick() TickResult
}

// Registry holds every registered process and tracks which one is active.
type Registry struct {
	log        *slog.Logger
	priorities map[string]Priority
	processes  map[string]Process
	activeName string
}

// NewRegistry builds a Registry with the default spec §4.11 priority
// table; priorities can be overridden per name via SetPriority.
func NewRegistry(log *slog.Logger) *Registry {
	priorities := make(map[string]Priority, len(defaultPriorities))
	for name, p := range defaultPriorities {
		priorities[name] = p
	}
	return &Registry{
		log:        log,
		priorities: priorities,
		processes:  make(map[string]Process),
	}
}

// SetPriority overrides the priority tier for a process name.
func (r *Registry) SetPriority(name string, p Priority) {
	r.priorities[name] = p
}

// Register installs a process under its own Name().
func (r *Registry) Register(p Process) {
	r.processes[p.Name()] = p
}

// Active returns the name of the currently active process, or "" if none.
func (r *Registry) Active() string { return r.activeName }

// Activate attempts to make name the active process. It succeeds iff name
// is registered and no currently-active process outranks it in priority.
// Activating the already-active process is a no-op success.
func (r *Registry) Activate(name string) bool {
	if name == r.activeName {
		return true
	}
	p, ok := r.processes[name]
	if !ok {
		return false
	}
	if r.activeName != "" {
		current := r.priorities[r.activeName]
		incoming := r.priorities[name]
		if current > incoming {
			return false
		}
	}
	if r.activeName != "" {
		if prev, ok := r.processes[r.activeName]; ok {
			prev.OnDeactivate()
		}
	}
	r.activeName = name
	p.OnActivate()
	return true
}

// Deactivate clears the active slot, calling OnDeactivate on the process
// that held it.
func (r *Registry) Deactivate() {
	if r.activeName == "" {
		return
	}
	if p, ok := r.processes[r.activeName]; ok {
		p.OnDeactivate()
	}
	r.activeName = ""
}

// Tick drives the currently active process one step, if any.
func (r *Registry) Tick() (TickResult, bool) {
	if r.activeName == "" {
		return TickResult{}, false
	}
	p, ok := r.processes[r.activeName]
	if !ok {
		r.activeName = ""
		return TickResult{}, false
	}
	result := p.Tick()
	switch result.Kind {
	case TickComplete, TickFail:
		if r.log != nil {
			r.log.Info("process finished", "process", r.activeName, "kind", string(result.Kind), "message", result.Message)
		}
		p.OnDeactivate()
		r.activeName = ""
	}
	return result, true
}
