// Package behavior implements the Behavior Stack of spec §4.10: a stack of
// preference frames, push deep-copies the top, pushState installs a
// caller-crafted frame, pop discards the top but never below depth 1 —
// the bottom frame is recreated from defaults if it would be popped.
package behavior

import "github.com/google/uuid"

// PredicateKind tags a predicate record so frames stay serializable
// instead of holding closures directly (spec §9 design note: "Dynamic
// predicate arrays in behavior frames").
type PredicateKind string

const (
	PredicateAvoidBreak  PredicateKind = "avoidBreak"
	PredicateAvoidPlace  PredicateKind = "avoidPlace"
	PredicateAvoidWalk   PredicateKind = "avoidWalk"
)

// Predicate is one tagged entry in a frame's predicate set. Kind
// identifies what's being constrained; Pattern is an opaque match key
// (e.g. a block-kind name) the caller interprets.
type Predicate struct {
	Kind    PredicateKind
	Pattern string
}

// HeuristicModifier is a named, composable scale applied to a goal's
// heuristic; modifiers compose left-to-right across the frame stack from
// bottom to top.
type HeuristicModifier struct {
	Name  string
	Scale float64
}

// Frame is one set of traversal preferences. Frames are value types so
// push() can deep-copy by plain assignment of their slice contents.
type Frame struct {
	ID                uuid.UUID
	AllowParkour      bool
	AllowSprint       bool
	AllowBreak        bool
	AllowPlace        bool
	Predicates        []Predicate
	HeuristicModifiers []HeuristicModifier
}

// DefaultFrame is the bottom-of-stack frame recreated whenever depth would
// otherwise drop below 1.
func DefaultFrame() Frame {
	return Frame{ID: uuid.New(), AllowParkour: true, AllowSprint: true}
}

func (f Frame) clone() Frame {
	out := f
	out.ID = uuid.New()
	if f.Predicates != nil {
		out.Predicates = append([]Predicate(nil), f.Predicates...)
	}
	if f.HeuristicModifiers != nil {
		out.HeuristicModifiers = append([]HeuristicModifier(nil), f.HeuristicModifiers...)
	}
	return out
}

// Stack is the per-agent behavior frame stack. Never empty: depth ≥ 1 is
// an invariant enforced by every mutating method (spec §8 invariant 6).
type Stack struct {
	frames []Frame
}

// NewStack returns a stack with a single default frame.
func NewStack() *Stack {
	return &Stack{frames: []Frame{DefaultFrame()}}
}

// Depth returns the current frame count.
func (s *Stack) Depth() int { return len(s.frames) }

// Top returns the current top frame.
func (s *Stack) Top() Frame { return s.frames[len(s.frames)-1] }

// Push deep-copies the top frame and pushes the copy, so a caller can
// mutate the new top without affecting callers still holding the old one.
func (s *Stack) Push() {
	s.frames = append(s.frames, s.Top().clone())
}

// PushState installs a caller-crafted frame.
func (s *Stack) PushState(f Frame) {
	if f.ID == (uuid.UUID{}) {
		f.ID = uuid.New()
	}
	s.frames = append(s.frames, f)
}

// Pop discards the top frame. If this would empty the stack, a fresh
// DefaultFrame replaces the sole remaining frame instead (depth never
// drops below 1).
func (s *Stack) Pop() {
	if len(s.frames) <= 1 {
		s.frames[0] = DefaultFrame()
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// MutateTop replaces the top frame's fields via fn, applied to a copy so
// callers can't retain a reference into the stack's internal slice.
func (s *Stack) MutateTop(fn func(Frame) Frame) {
	top := s.Top()
	s.frames[len(s.frames)-1] = fn(top)
}

// MatchesPredicate reports whether any predicate in the top frame matches
// kind/pattern, consulted in insertion order with short-circuit on first
// hit (spec §4.10).
func (s *Stack) MatchesPredicate(kind PredicateKind, pattern string) bool {
	for _, p := range s.Top().Predicates {
		if p.Kind == kind && p.Pattern == pattern {
			return true
		}
	}
	return false
}

// HeuristicScale composes every frame's modifiers bottom-to-top into a
// single multiplicative scale.
func (s *Stack) HeuristicScale() float64 {
	scale := 1.0
	for _, f := range s.frames {
		for _, m := range f.HeuristicModifiers {
			scale *= m.Scale
		}
	}
	return scale
}
