// Package blockprops implements the block property table (spec §4.1): a
// table built once per world load from the game registry, exposing O(1)
// queries keyed by a compact kind integer. It is the source of truth the
// chunk cache (internal/chunkcache) consults to classify a block into its
// 2-bit voxel category.
package blockprops

// Kind is a compact integer identifying a block kind, assigned by the
// external game registry at init — the core never interprets its value
// beyond using it as a table key.
type Kind int

// Passability is the ternary result of a passability query. Maybe forces
// the consumer to recheck the live block at the exact position (doors,
// trapdoors, fence gates — state that the property table alone cannot
// resolve).
type Passability int

const (
	No Passability = iota
	Yes
	Maybe
)

func (p Passability) String() string {
	switch p {
	case Yes:
		return "yes"
	case Maybe:
		return "maybe"
	default:
		return "no"
	}
}

// Flags is the bitfield the property table stores per block kind.
type Flags struct {
	WalkOn        bool
	WalkThrough   bool
	FullyPassable bool
	Water         bool
	Lava          bool
	AvoidBreak    bool
	Climbable     bool
	FallingBlock  bool
	Fence         bool
	Carpet        bool
	Openable      bool
}

// Passability derives the ternary passability classification from the
// stored flags. Openable blocks (doors, trapdoors, fence gates) always
// report Maybe: whether they can be passed depends on their live open/shut
// state, which the table does not track.
func (f Flags) Passability() Passability {
	if f.Openable {
		return Maybe
	}
	if f.FullyPassable || f.WalkThrough {
		return Yes
	}
	return No
}

// Table maps block kind to its property flags. The zero value is usable
// and reports the zero Flags{} (solid, non-passable, diggable-unknown) for
// any kind it was not explicitly given — a conservative default.
type Table struct {
	entries map[Kind]Flags
}

// NewTable builds an empty table ready for Set calls from the registry
// walk at world-load time.
func NewTable() *Table {
	return &Table{entries: make(map[Kind]Flags)}
}

// Set installs the flags for a block kind. Called once per kind while
// walking the external game registry during world load.
func (t *Table) Set(k Kind, f Flags) {
	if t.entries == nil {
		t.entries = make(map[Kind]Flags)
	}
	t.entries[k] = f
}

// Flags returns the stored flags for a kind, or the zero value if the kind
// was never registered.
func (t *Table) Flags(k Kind) Flags {
	if t == nil || t.entries == nil {
		return Flags{}
	}
	return t.entries[k]
}

// Passability is a convenience wrapper over Flags(k).Passability().
func (t *Table) Passability(k Kind) Passability {
	return t.Flags(k).Passability()
}

// WalkOn reports whether a block of this kind can support the agent as a
// floor.
func (t *Table) WalkOn(k Kind) bool {
	return t.Flags(k).WalkOn
}

// AvoidBreak reports whether the behavior stack's default policy should
// refuse to mine this block kind (see calc.Context.BreakTime).
func (t *Table) AvoidBreak(k Kind) bool {
	return t.Flags(k).AvoidBreak
}
