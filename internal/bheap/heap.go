// Package bheap implements the binary min-heap of spec §4.4: array-backed,
// 1-indexed for clean parent/child arithmetic, with a mutable heapIndex
// back-reference on each element so decrease-key (update) runs in
// O(log n) instead of requiring a linear scan.
package bheap

// Item is anything orderable by F() that can hold its own heap slot.
// HeapIndex returns -1 when the item is not currently in a heap.
type Item interface {
	F() float64
	HeapIndex() int
	SetHeapIndex(i int)
}

// Heap is a binary min-heap ordered by ascending F(). Slot 0 is unused so
// that parent = i/2 and children = 2i, 2i+1 hold for every index ≥ 1.
type Heap struct {
	items []Item
}

// New returns an empty heap with capacity hint n.
func New(n int) *Heap {
	h := &Heap{items: make([]Item, 1, n+1)}
	return h
}

// Len returns the number of items currently in the heap.
func (h *Heap) Len() int {
	return len(h.items) - 1
}

// Push inserts an item and restores heap order.
func (h *Heap) Push(it Item) {
	h.items = append(h.items, it)
	idx := len(h.items) - 1
	it.SetHeapIndex(idx)
	h.siftUp(idx)
}

// Pop removes and returns the minimum-F item, or nil when the heap is
// empty.
func (h *Heap) Pop() Item {
	if h.Len() == 0 {
		return nil
	}
	top := h.items[1]
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	top.SetHeapIndex(-1)

	if h.Len() > 0 {
		h.items[1] = last
		last.SetHeapIndex(1)
		h.siftDown(1)
	}
	return top
}

// Peek returns the minimum-F item without removing it, or nil if empty.
func (h *Heap) Peek() Item {
	if h.Len() == 0 {
		return nil
	}
	return h.items[1]
}

// Contains reports whether it is currently tracked by this heap.
func (h *Heap) Contains(it Item) bool {
	idx := it.HeapIndex()
	return idx >= 1 && idx < len(h.items) && h.items[idx] == it
}

// Update re-sifts it after its F() has changed, restoring heap order in
// either direction.
func (h *Heap) Update(it Item) {
	idx := it.HeapIndex()
	if idx < 1 || idx >= len(h.items) || h.items[idx] != it {
		return
	}
	if !h.siftUp(idx) {
		h.siftDown(idx)
	}
}

// Clear empties the heap, resetting every current item's heapIndex to -1.
func (h *Heap) Clear() {
	for _, it := range h.items[1:] {
		it.SetHeapIndex(-1)
	}
	h.items = h.items[:1]
}

func (h *Heap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].SetHeapIndex(i)
	h.items[j].SetHeapIndex(j)
}

// siftUp moves the item at idx toward the root while it's smaller than its
// parent. Returns true if any swap occurred.
func (h *Heap) siftUp(idx int) bool {
	moved := false
	for idx > 1 {
		parent := idx / 2
		if h.items[idx].F() >= h.items[parent].F() {
			break
		}
		h.swap(idx, parent)
		idx = parent
		moved = true
	}
	return moved
}

func (h *Heap) siftDown(idx int) {
	n := len(h.items) - 1
	for {
		left, right := idx*2, idx*2+1
		smallest := idx
		if left <= n && h.items[left].F() < h.items[smallest].F() {
			smallest = left
		}
		if right <= n && h.items[right].F() < h.items[smallest].F() {
			smallest = right
		}
		if smallest == idx {
			return
		}
		h.swap(idx, smallest)
		idx = smallest
	}
}
