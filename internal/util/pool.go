package util

import "sync"

// MoveResult is the mutable, reusable record a movement primitive fills in
// when it evaluates a candidate transition. Pooling these avoids an
// allocation per neighbor expansion inside the A* inner loop.
type MoveResult struct {
	Dest     Pos
	Cost     float64
	ToBreak  []Pos
	ToPlace  []Pos
	Name     string
}

// Reset clears a MoveResult for reuse, retaining the backing arrays of
// ToBreak/ToPlace so repeated expansions do not re-allocate slices.
func (m *MoveResult) Reset() {
	m.Dest = Pos{}
	m.Cost = 0
	m.ToBreak = m.ToBreak[:0]
	m.ToPlace = m.ToPlace[:0]
	m.Name = ""
}

// MoveResultPool hands out MoveResult values for the duration of a single
// neighbor-expansion call and reclaims them once the caller is done
// (typically after copying the cheap fields it needs onto a path node).
type MoveResultPool struct {
	pool sync.Pool
}

// NewMoveResultPool constructs an empty pool.
func NewMoveResultPool() *MoveResultPool {
	return &MoveResultPool{
		pool: sync.Pool{New: func() any { return &MoveResult{} }},
	}
}

// Get returns a zeroed MoveResult ready for a primitive to populate.
func (p *MoveResultPool) Get() *MoveResult {
	r := p.pool.Get().(*MoveResult)
	r.Reset()
	return r
}

// Put returns a MoveResult to the pool for reuse.
func (p *MoveResultPool) Put(r *MoveResult) {
	if r == nil {
		return
	}
	p.pool.Put(r)
}
