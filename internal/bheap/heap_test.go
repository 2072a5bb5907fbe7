package bheap

import (
	"math/rand"
	"testing"
)

type testItem struct {
	f    float64
	name string
	idx  int
}

func (t *testItem) F() float64         { return t.f }
func (t *testItem) HeapIndex() int     { return t.idx }
func (t *testItem) SetHeapIndex(i int) { t.idx = i }

func newTestItem(f float64, name string) *testItem {
	return &testItem{f: f, name: name, idx: -1}
}

func TestPopOrdersByAscendingF(t *testing.T) {
	h := New(8)
	values := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0}
	for _, v := range values {
		h.Push(newTestItem(v, ""))
	}
	var got []float64
	for h.Len() > 0 {
		got = append(got, h.Pop().F())
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("pop order not ascending: %v", got)
		}
	}
	if len(got) != len(values) {
		t.Fatalf("popped %d items, want %d", len(got), len(values))
	}
}

func TestPopOnEmptyReturnsNil(t *testing.T) {
	h := New(0)
	if got := h.Pop(); got != nil {
		t.Fatalf("Pop on empty heap = %v, want nil", got)
	}
	if got := h.Peek(); got != nil {
		t.Fatalf("Peek on empty heap = %v, want nil", got)
	}
}

func TestHeapIndexTrackedThroughMutation(t *testing.T) {
	h := New(4)
	a := newTestItem(10, "a")
	b := newTestItem(5, "b")
	c := newTestItem(20, "c")
	h.Push(a)
	h.Push(b)
	h.Push(c)

	for _, it := range []*testItem{a, b, c} {
		if !h.Contains(it) {
			t.Fatalf("Contains(%s) = false, want true", it.name)
		}
		if h.items[it.idx] != Item(it) {
			t.Fatalf("heapIndex for %s out of sync", it.name)
		}
	}

	a.f = 1
	h.Update(a)
	if h.Peek().(*testItem) != a {
		t.Fatalf("after decreasing a's key, Peek = %v, want a", h.Peek())
	}
}

func TestUpdateAfterIncreaseSiftsDown(t *testing.T) {
	h := New(4)
	a := newTestItem(1, "a")
	b := newTestItem(5, "b")
	h.Push(a)
	h.Push(b)

	a.f = 100
	h.Update(a)
	if h.Peek().(*testItem) != b {
		t.Fatalf("after increasing a's key, Peek = %v, want b", h.Peek())
	}
}

func TestClearResetsHeapIndex(t *testing.T) {
	h := New(4)
	a := newTestItem(1, "a")
	h.Push(a)
	h.Clear()
	if h.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", h.Len())
	}
	if a.HeapIndex() != -1 {
		t.Fatalf("heapIndex after Clear = %d, want -1", a.HeapIndex())
	}
	if h.Contains(a) {
		t.Fatal("Contains after Clear = true, want false")
	}
}

func TestRandomizedPushPopMaintainsOrder(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	h := New(100)
	n := 500
	for i := 0; i < n; i++ {
		h.Push(newTestItem(r.Float64()*1000, ""))
	}
	last := -1.0
	for h.Len() > 0 {
		v := h.Pop().F()
		if v < last {
			t.Fatalf("pop out of order: %v after %v", v, last)
		}
		last = v
	}
}
