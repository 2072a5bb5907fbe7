package behavior

import "testing"

func TestNewStackStartsAtDepthOne(t *testing.T) {
	s := NewStack()
	if s.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", s.Depth())
	}
}

func TestPushDeepCopiesTopFrame(t *testing.T) {
	s := NewStack()
	s.MutateTop(func(f Frame) Frame {
		f.Predicates = append(f.Predicates, Predicate{Kind: PredicateAvoidBreak, Pattern: "stone"})
		return f
	})
	base := s.Top()
	s.Push()
	s.MutateTop(func(f Frame) Frame {
		f.Predicates = append(f.Predicates, Predicate{Kind: PredicateAvoidPlace, Pattern: "water"})
		return f
	})
	if len(base.Predicates) != 1 {
		t.Fatalf("push mutated the original frame's predicate slice: %v", base.Predicates)
	}
	if len(s.Top().Predicates) != 2 {
		t.Fatalf("pushed frame should carry both predicates, got %v", s.Top().Predicates)
	}
}

func TestPopNeverDropsBelowDepthOne(t *testing.T) {
	s := NewStack()
	s.Pop()
	if s.Depth() != 1 {
		t.Fatalf("Depth() after popping the bottom frame = %d, want 1", s.Depth())
	}
}

func TestPopDiscardsTopLeavingLowerFrameIntact(t *testing.T) {
	s := NewStack()
	s.MutateTop(func(f Frame) Frame { f.AllowParkour = false; return f })
	s.Push()
	s.MutateTop(func(f Frame) Frame { f.AllowParkour = true; return f })
	s.Pop()
	if s.Top().AllowParkour {
		t.Fatalf("pop should have restored the lower frame with AllowParkour=false")
	}
}

func TestPushStateInstallsCallerFrame(t *testing.T) {
	s := NewStack()
	s.PushState(Frame{AllowBreak: true, AllowPlace: true})
	if !s.Top().AllowBreak || !s.Top().AllowPlace {
		t.Fatalf("pushed state not installed: %+v", s.Top())
	}
	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}
}

func TestMatchesPredicateShortCircuitsInInsertionOrder(t *testing.T) {
	s := NewStack()
	s.PushState(Frame{Predicates: []Predicate{
		{Kind: PredicateAvoidBreak, Pattern: "stone"},
		{Kind: PredicateAvoidBreak, Pattern: "dirt"},
	}})
	if !s.MatchesPredicate(PredicateAvoidBreak, "dirt") {
		t.Fatalf("expected a match for dirt")
	}
	if s.MatchesPredicate(PredicateAvoidBreak, "obsidian") {
		t.Fatalf("unexpected match for obsidian")
	}
}

func TestHeuristicScaleComposesLeftToRight(t *testing.T) {
	s := NewStack()
	s.MutateTop(func(f Frame) Frame {
		f.HeuristicModifiers = []HeuristicModifier{{Name: "caution", Scale: 2.0}}
		return f
	})
	s.Push()
	s.MutateTop(func(f Frame) Frame {
		f.HeuristicModifiers = append(f.HeuristicModifiers, HeuristicModifier{Name: "haste", Scale: 0.5})
		return f
	})
	got := s.HeuristicScale()
	if got != 2.0 {
		t.Fatalf("HeuristicScale() = %v, want 2.0 (2.0*2.0*0.5)", got)
	}
}
