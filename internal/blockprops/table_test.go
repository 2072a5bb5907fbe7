package blockprops

import "testing"

func TestPassabilityDerivation(t *testing.T) {
	tbl := NewTable()
	tbl.Set(1, Flags{FullyPassable: true})
	tbl.Set(2, Flags{WalkOn: true})
	tbl.Set(3, Flags{Openable: true, WalkThrough: true})

	if got := tbl.Passability(1); got != Yes {
		t.Errorf("fully passable kind should be Yes, got %v", got)
	}
	if got := tbl.Passability(2); got != No {
		t.Errorf("solid walk-on kind should be No, got %v", got)
	}
	if got := tbl.Passability(3); got != Maybe {
		t.Errorf("openable kind should always be Maybe, got %v", got)
	}
	if got := tbl.Passability(999); got != No {
		t.Errorf("unregistered kind should default to No, got %v", got)
	}
}

func TestUnregisteredKindIsConservative(t *testing.T) {
	tbl := NewTable()
	f := tbl.Flags(42)
	if f.WalkOn || f.FullyPassable || f.WalkThrough {
		t.Fatalf("unregistered kind should have no permissive flags set: %+v", f)
	}
}
