// Package adapter defines the external collaborator contracts of spec §6:
// the game-client adapter the core expects to call, and the tick/event
// surface that drives it. The core depends only on these interfaces; a
// concrete game client implements them and is never imported here.
package adapter

import (
	"time"

	"voxelnav/internal/blockprops"
	"voxelnav/internal/util"
)

// Block is the live state of a single world block as reported by the game
// client: its registry kind plus whatever mutable state (open/shut,
// orientation, ...) the Maybe-passability cases need to resolve.
type Block struct {
	Kind  blockprops.Kind
	State map[string]any
}

// BlockSource resolves live block state. ok == false means the position's
// chunk is not currently loaded.
type BlockSource interface {
	BlockAt(pos util.Pos) (Block, bool)
}

// Entity is the minimal view of a world entity the core needs for Follow
// and RunAwayFromEntities goals, and for combat/gather process targeting.
type Entity struct {
	ID       string
	Position util.Pos
	Velocity util.Pos
	Name     string
	Valid    bool
	Health   *float64
}

// EntitySource enumerates currently-known entities.
type EntitySource interface {
	Entities() []Entity
	EntityByID(id string) (Entity, bool)
}

// SelfState reports the controlled agent's own physical state.
type SelfState interface {
	Position() util.Pos
	Velocity() util.Pos
	OnGround() bool
	Yaw() float64
	Pitch() float64
	Height() float64
}

// Item is a minimal inventory entry.
type Item struct {
	Name  string
	Slot  int
	Count int
}

// Inventory is the subset of inventory management the core's break-time and
// tool-selection logic needs.
type Inventory interface {
	Items() []Item
	Equip(item Item, slot int) error
}

// Actuator issues low-level actuation intents; the core never drives input
// controls itself (§1 Non-goals) but movement primitives call through this
// contract during their execute() state machines.
type Actuator interface {
	Dig(pos util.Pos, forceLook bool) error
	StopDigging() error
	PlaceBlock(reference util.Pos, face util.Pos) error
	Attack(entityID string) error
	Look(yawRad, pitchRad float64, forceSync bool) error
	LookAt(point util.Pos) error
	ActivateItem() error
	DeactivateItem() error
}

// EventKind names the closed set of game events the core subscribes to via
// the event bus (spec §4.13/§6).
type EventKind string

const (
	EventBlockUpdate      EventKind = "blockUpdate"
	EventChunkColumnLoad  EventKind = "chunkColumnLoad"
	EventChunkColumnUnload EventKind = "chunkColumnUnload"
	EventEntitySpawn      EventKind = "entitySpawn"
	EventEntityGone       EventKind = "entityGone"
	EventEntityMoved      EventKind = "entityMoved"
	EventMove             EventKind = "move"
	EventHealth           EventKind = "health"
	EventFood             EventKind = "food"
	EventDeath            EventKind = "death"
	EventWindowOpen       EventKind = "windowOpen"
	EventWindowClose      EventKind = "windowClose"
	EventInventoryChanged EventKind = "inventoryChanged"
	EventDimensionChange  EventKind = "dimensionChange"
)

// BlockUpdatePayload is published on EventBlockUpdate.
type BlockUpdatePayload struct {
	Pos  util.Pos
	Time time.Time
}

// ChunkColumnPayload is published on EventChunkColumnLoad/Unload.
type ChunkColumnPayload struct {
	Chunk util.ChunkXZ
	Time  time.Time
}

// EntityEventPayload is published on EventEntitySpawn/Gone/Moved.
type EntityEventPayload struct {
	Entity Entity
	Time   time.Time
}
