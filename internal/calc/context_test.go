package calc

import (
	"math"
	"testing"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
)

const (
	kindStone blockprops.Kind = iota
	kindObsidian
)

func newTable() *blockprops.Table {
	tbl := blockprops.NewTable()
	tbl.Set(kindStone, blockprops.Flags{WalkOn: true})
	tbl.Set(kindObsidian, blockprops.Flags{WalkOn: true, AvoidBreak: true})
	return tbl
}

type fakeSelector struct {
	item adapter.Item
	ok   bool
}

func (f fakeSelector) BestTool(blockprops.Kind, adapter.Inventory) (adapter.Item, bool) {
	return f.item, f.ok
}

func TestBreakTimeInfinityWhenDigDisallowed(t *testing.T) {
	ctx := New(Flags{CanDig: false}, newTable(), nil, fakeSelector{ok: true}, func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 {
		return 20
	}, nil)
	if got := ctx.BreakTime(kindStone); !math.IsInf(got, 1) {
		t.Fatalf("BreakTime = %v, want +Inf when CanDig is false", got)
	}
}

func TestBreakTimeInfinityForAvoidBreakSet(t *testing.T) {
	ctx := New(Flags{CanDig: true}, newTable(), nil, fakeSelector{ok: true}, func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 {
		return 20
	}, nil)
	if got := ctx.BreakTime(kindObsidian); !math.IsInf(got, 1) {
		t.Fatalf("BreakTime(obsidian) = %v, want +Inf (avoid-break set)", got)
	}
}

func TestBreakTimeUsesCachedTool(t *testing.T) {
	calls := 0
	selector := func(kind blockprops.Kind, inv adapter.Inventory) (adapter.Item, bool) {
		calls++
		return adapter.Item{Name: "pickaxe"}, true
	}
	ctx := New(Flags{CanDig: true}, newTable(), nil, selectorFunc(selector), func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 {
		return 15
	}, nil)

	for i := 0; i < 3; i++ {
		if got := ctx.BreakTime(kindStone); got != 15 {
			t.Fatalf("BreakTime = %v, want 15", got)
		}
	}
	if calls != 1 {
		t.Fatalf("tool selector called %d times, want 1 (cached)", calls)
	}

	ctx.InvalidateToolCache()
	ctx.BreakTime(kindStone)
	if calls != 2 {
		t.Fatalf("tool selector called %d times after invalidate, want 2", calls)
	}
}

type selectorFunc func(blockprops.Kind, adapter.Inventory) (adapter.Item, bool)

func (f selectorFunc) BestTool(kind blockprops.Kind, inv adapter.Inventory) (adapter.Item, bool) {
	return f(kind, inv)
}

func TestFavoringMultiplierDefaultsToOne(t *testing.T) {
	ctx := New(Flags{}, newTable(), nil, nil, nil, nil)
	if got := ctx.FavoringMultiplier(1, 2, 3); got != 1.0 {
		t.Fatalf("FavoringMultiplier default = %v, want 1.0", got)
	}
}
