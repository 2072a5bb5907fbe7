// Package simworld provides a minimal in-memory implementation of the
// adapter package's interfaces (spec §6), used only by cmd/navsim and
// cmd/navprofile to drive internal/engine end-to-end without a real game
// client. None of this is part of the core; it is a test harness in the
// same spirit as the teacher's cmd/chunkserver synthetic world generator.
package simworld

import (
	"voxelnav/internal/adapter"
	"voxelnav/internal/blockprops"
	"voxelnav/internal/util"
)

const (
	KindAir blockprops.Kind = iota
	KindStone
)

// Table returns a property table with the two kinds Flat registers.
func Table() *blockprops.Table {
	t := blockprops.NewTable()
	t.Set(KindStone, blockprops.Flags{WalkOn: true})
	t.Set(KindAir, blockprops.Flags{FullyPassable: true})
	return t
}

// Flat is a synthetic BlockSource: a solid floor at y=floorY for
// x,z in [-Bound, Bound], air above up to Ceiling, unloaded beyond Bound.
type Flat struct {
	Bound  int
	FloorY int
	Ceil   int
}

// NewFlat returns a Flat with the navsim/navprofile default dimensions.
func NewFlat(bound int) *Flat {
	return &Flat{Bound: bound, FloorY: 63, Ceil: 63 + 200}
}

func (w *Flat) BlockAt(pos util.Pos) (adapter.Block, bool) {
	if pos.X < -w.Bound || pos.X > w.Bound || pos.Z < -w.Bound || pos.Z > w.Bound {
		return adapter.Block{}, false
	}
	if pos.Y == w.FloorY {
		return adapter.Block{Kind: KindStone}, true
	}
	if pos.Y > w.FloorY && pos.Y < w.Ceil {
		return adapter.Block{Kind: KindAir}, true
	}
	return adapter.Block{Kind: KindAir}, true
}

// NoEntities is an EntitySource with nothing in it.
type NoEntities struct{}

func (NoEntities) Entities() []adapter.Entity                  { return nil }
func (NoEntities) EntityByID(string) (adapter.Entity, bool)     { return adapter.Entity{}, false }

// Self is a mutable SelfState the harness updates as the path advances.
type Self struct{ Pos util.Pos }

func (s *Self) Position() util.Pos { return s.Pos }
func (s *Self) Velocity() util.Pos { return util.Pos{} }
func (s *Self) OnGround() bool     { return true }
func (s *Self) Yaw() float64       { return 0 }
func (s *Self) Pitch() float64     { return 0 }
func (s *Self) Height() float64    { return 1.8 }

// NoInventory is an Inventory with no items.
type NoInventory struct{}

func (NoInventory) Items() []adapter.Item                   { return nil }
func (NoInventory) Equip(adapter.Item, int) error           { return nil }

// NoTool is a calc.ToolSelector that never finds a tool.
type NoTool struct{}

func (NoTool) BestTool(blockprops.Kind, adapter.Inventory) (adapter.Item, bool) {
	return adapter.Item{}, false
}

// FixedBreakTime is a calc.BreakTimeFunc returning a constant dig time,
// regardless of tool/wetness/footing.
func FixedBreakTime(ticks float64) func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 {
	return func(blockprops.Kind, adapter.Item, bool, bool, bool) float64 { return ticks }
}

// NoActuator no-ops every actuation call; the harness advances Self.Pos
// directly from the planner's path instead of simulating physics.
type NoActuator struct{}

func (NoActuator) Dig(util.Pos, bool) error              { return nil }
func (NoActuator) StopDigging() error                    { return nil }
func (NoActuator) PlaceBlock(util.Pos, util.Pos) error   { return nil }
func (NoActuator) Attack(string) error                   { return nil }
func (NoActuator) Look(float64, float64, bool) error     { return nil }
func (NoActuator) LookAt(util.Pos) error                 { return nil }
func (NoActuator) ActivateItem() error                   { return nil }
func (NoActuator) DeactivateItem() error                 { return nil }
