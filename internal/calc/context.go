// Package calc implements the Calculation Context (spec §4.3): the
// single-writer-per-run facade threaded through A* and movement primitives
// carrying per-run traversal flags, a tool-selection cache, and the
// break-time/favoring cost functions.
package calc

import (
	"math"
	"sync"

	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/util"
)

// Flags are the per-run traversal permissions the planner and movement
// primitives consult on every expansion.
type Flags struct {
	CanDig           bool
	CanPlace         bool
	AllowSprint      bool
	AllowParkour     bool
	AllowWaterBucket bool
}

// DefaultFlags returns the conservative ground-traversal defaults.
func DefaultFlags() Flags {
	return Flags{CanDig: false, CanPlace: false, AllowSprint: true, AllowParkour: true, AllowWaterBucket: false}
}

// ToolSelector resolves the best inventory item for breaking a block kind,
// mirroring the game's own tool-efficiency rules. Implementations live
// outside this package (they need inventory and enchantment state); the
// context only caches their answers.
type ToolSelector interface {
	BestTool(kind blockprops.Kind, inv adapter.Inventory) (adapter.Item, bool)
}

// BreakTimeFunc computes the dig time in ticks for a block given the
// selected tool, returning +Inf for anything that can't be dug.
type BreakTimeFunc func(kind blockprops.Kind, tool adapter.Item, haveTool bool, onGround, inWater bool) float64

// Context is the facade passed through one A* run. It is not safe for
// concurrent use by more than one writer; the planner and its movement
// primitives run on a single goroutine per spec §5.
type Context struct {
	Flags Flags

	table      *blockprops.Table
	inventory  adapter.Inventory
	selector   ToolSelector
	breakTime  BreakTimeFunc
	onGround   bool
	inWater    bool
	favoring   FavoringFunc

	mu        sync.Mutex
	toolCache map[blockprops.Kind]adapter.Item
	toolKnown map[blockprops.Kind]bool
}

// FavoringFunc combines previous-path bias and avoidance penalties into a
// multiplier applied to a destination's cost (spec §4.9).
type FavoringFunc func(x, y, z int) float64

// New constructs a Calculation Context for one A* run.
func New(flags Flags, table *blockprops.Table, inv adapter.Inventory, selector ToolSelector, breakTime BreakTimeFunc, favoring FavoringFunc) *Context {
	if favoring == nil {
		favoring = func(int, int, int) float64 { return 1.0 }
	}
	return &Context{
		Flags:     flags,
		table:     table,
		inventory: inv,
		selector:  selector,
		breakTime: breakTime,
		favoring:  favoring,
		toolCache: make(map[blockprops.Kind]adapter.Item),
		toolKnown: make(map[blockprops.Kind]bool),
	}
}

// SetPhysicalState records the agent's current ground/water state, consulted
// by BreakTime's dig-speed formula.
func (c *Context) SetPhysicalState(onGround, inWater bool) {
	c.onGround, c.inWater = onGround, inWater
}

// InvalidateToolCache clears the cached tool selections, called on the
// inventoryChanged event (spec §4.3).
func (c *Context) InvalidateToolCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolCache = make(map[blockprops.Kind]adapter.Item)
	c.toolKnown = make(map[blockprops.Kind]bool)
}

func (c *Context) bestTool(kind blockprops.Kind) (adapter.Item, bool) {
	c.mu.Lock()
	if known, ok := c.toolKnown[kind]; ok {
		item := c.toolCache[kind]
		c.mu.Unlock()
		return item, known
	}
	c.mu.Unlock()

	item, ok := adapter.Item{}, false
	if c.selector != nil {
		item, ok = c.selector.BestTool(kind, c.inventory)
	}

	c.mu.Lock()
	c.toolCache[kind] = item
	c.toolKnown[kind] = ok
	c.mu.Unlock()
	return item, ok
}

// BreakTime returns the dig time in ticks for kind, or +Inf when the block
// is not diggable or is in the avoid-break set (spec §4.3).
func (c *Context) BreakTime(kind blockprops.Kind) float64 {
	flags := c.table.Flags(kind)
	if flags.AvoidBreak {
		return math.Inf(1)
	}
	if !c.Flags.CanDig {
		return math.Inf(1)
	}
	if c.breakTime == nil {
		return math.Inf(1)
	}
	tool, haveTool := c.bestTool(kind)
	t := c.breakTime(kind, tool, haveTool, c.onGround, c.inWater)
	if math.IsNaN(t) || t < 0 {
		return math.Inf(1)
	}
	return t
}

// FavoringMultiplier returns the cost multiplier at (x,y,z), combining
// corridor bonus and avoidance repulsion (spec §4.9).
func (c *Context) FavoringMultiplier(x, y, z int) float64 {
	return c.favoring(x, y, z)
}

// Diggable reports whether a block at pos can, in principle, be broken
// under this run's flags (ignoring tool availability, which only affects
// time, never feasibility).
func (c *Context) Diggable(pos util.Pos, kind blockprops.Kind) bool {
	return c.Flags.CanDig && !math.IsInf(c.BreakTime(kind), 1)
}
