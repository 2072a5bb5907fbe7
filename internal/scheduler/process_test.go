package scheduler

import "testing"

type stubProcess struct {
	name        string
	activated   int
	deactivated int
	results     []TickResult
	calls       int
}

func (s *stubProcess) Name() string    { return s.name }
func (s *stubProcess) OnActivate()     { s.activated++ }
func (s *stubProcess) OnDeactivate()   { s.deactivated++ }
func (s *stubProcess) Tick() TickResult {
	if s.calls >= len(s.results) {
		return Wait("idle")
	}
	r := s.results[s.calls]
	s.calls++
	return r
}

func TestActivateSucceedsWhenNoProcessIsActive(t *testing.T) {
	r := NewRegistry(nil)
	explore := &stubProcess{name: NameExplore}
	r.Register(explore)
	if !r.Activate(NameExplore) {
		t.Fatalf("Activate(explore) should succeed with nothing else active")
	}
	if explore.activated != 1 {
		t.Fatalf("OnActivate called %d times, want 1", explore.activated)
	}
}

func TestHigherPriorityPreemptsLower(t *testing.T) {
	r := NewRegistry(nil)
	explore := &stubProcess{name: NameExplore}
	combat := &stubProcess{name: NameCombat}
	r.Register(explore)
	r.Register(combat)
	r.Activate(NameExplore)
	if !r.Activate(NameCombat) {
		t.Fatalf("Combat (High) should preempt Explore (Low)")
	}
	if r.Active() != NameCombat {
		t.Fatalf("Active() = %q, want combat", r.Active())
	}
	if explore.deactivated != 1 {
		t.Fatalf("explore should have been deactivated once, got %d", explore.deactivated)
	}
}

func TestLowerPriorityCannotPreemptHigher(t *testing.T) {
	r := NewRegistry(nil)
	explore := &stubProcess{name: NameExplore}
	combat := &stubProcess{name: NameCombat}
	r.Register(explore)
	r.Register(combat)
	r.Activate(NameCombat)
	if r.Activate(NameExplore) {
		t.Fatalf("Explore (Low) should not preempt Combat (High)")
	}
	if r.Active() != NameCombat {
		t.Fatalf("Active() = %q, want combat to remain active", r.Active())
	}
}

func TestSamePriorityPreempts(t *testing.T) {
	r := NewRegistry(nil)
	mine := &stubProcess{name: NameMine}
	gather := &stubProcess{name: NameGather}
	r.Register(mine)
	r.Register(gather)
	r.Activate(NameMine)
	if !r.Activate(NameGather) {
		t.Fatalf("Gather (Normal) should preempt Mine (Normal): only a strictly higher priority blocks activation")
	}
	if r.Active() != NameGather {
		t.Fatalf("Active() = %q, want gather", r.Active())
	}
}

func TestTickCompleteClearsActiveSlot(t *testing.T) {
	r := NewRegistry(nil)
	mine := &stubProcess{name: NameMine, results: []TickResult{Complete("done")}}
	r.Register(mine)
	r.Activate(NameMine)
	result, ok := r.Tick()
	if !ok || result.Kind != TickComplete {
		t.Fatalf("Tick() = %+v, %v", result, ok)
	}
	if r.Active() != "" {
		t.Fatalf("Active() = %q after Complete, want empty", r.Active())
	}
	if mine.deactivated != 1 {
		t.Fatalf("mine should be deactivated once on completion, got %d", mine.deactivated)
	}
}

func TestTickFailClearsActiveSlot(t *testing.T) {
	r := NewRegistry(nil)
	gather := &stubProcess{name: NameGather, results: []TickResult{Fail("no drops")}}
	r.Register(gather)
	r.Activate(NameGather)
	result, _ := r.Tick()
	if result.Kind != TickFail {
		t.Fatalf("result.Kind = %v, want TickFail", result.Kind)
	}
	if r.Active() != "" {
		t.Fatalf("Active() should be empty after a failed process")
	}
}

func TestActivateAlreadyActiveIsNoOp(t *testing.T) {
	r := NewRegistry(nil)
	mine := &stubProcess{name: NameMine}
	r.Register(mine)
	r.Activate(NameMine)
	r.Activate(NameMine)
	if mine.activated != 1 {
		t.Fatalf("re-activating the already-active process should not call OnActivate again, got %d calls", mine.activated)
	}
}
