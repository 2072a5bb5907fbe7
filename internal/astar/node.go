package astar

import "voxelnav/internal/util"

// noParent marks a node with no parent (the start node).
const noParent int32 = -1

// node is one A* node, allocated in the planner's arena. parent is an
// arena index, never a pointer (spec §9 design note: "Parent pointers in
// A* nodes" — arena-indexed u32, released wholesale on result return so no
// dangling parent survives a replan).
type node struct {
	pos       util.Pos
	g         float64
	h         float64
	parent    int32
	toBreak   []util.Pos
	toPlace   []util.Pos
	moveName  string
	heapIndex int
}

func (n *node) F() float64         { return n.g + n.h }
func (n *node) HeapIndex() int     { return n.heapIndex }
func (n *node) SetHeapIndex(i int) { n.heapIndex = i }

// arena owns every node of a single compute session. Indices are stable
// for the session's lifetime; the whole arena is discarded on return.
// Nodes are individually heap-allocated (not stored inline in a growable
// slice) so pointers handed to the bheap survive arena growth.
type arena struct {
	nodes []*node
	byPos map[util.Pos]int32
}

func newArena(hint int) *arena {
	return &arena{
		nodes: make([]*node, 0, hint),
		byPos: make(map[util.Pos]int32, hint),
	}
}

func (a *arena) get(idx int32) *node {
	return a.nodes[idx]
}

func (a *arena) lookup(pos util.Pos) (int32, bool) {
	idx, ok := a.byPos[pos]
	return idx, ok
}

func (a *arena) alloc(pos util.Pos) int32 {
	idx := int32(len(a.nodes))
	a.nodes = append(a.nodes, &node{pos: pos, parent: noParent, heapIndex: -1})
	a.byPos[pos] = idx
	return idx
}
