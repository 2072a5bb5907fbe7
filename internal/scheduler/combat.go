package scheduler

import (
	"voxelnav/internal/adapter"
	"voxelnav/internal/goal"
	"voxelnav/internal/util"
)

// CombatMode selects the Combat process's current tactic.
type CombatMode string

const (
	CombatAttack CombatMode = "attack"
	CombatFlee   CombatMode = "flee"
	CombatKite   CombatMode = "kite"
	CombatDefend CombatMode = "defend"
)

// HealthReporter exposes the controlled agent's own health for mode
// selection.
type HealthReporter interface {
	Health() float64
}

// Combat engages, kites, defends against, or flees a hostile entity
// depending on relative health and configured thresholds.
type Combat struct {
	entities     adapter.EntitySource
	health       HealthReporter
	targetID     string
	fleeHealth   float64
	kiteHealth   float64
	preferKiting bool
	mode         CombatMode
}

func NewCombat(entities adapter.EntitySource, health HealthReporter, targetID string, fleeHealth, kiteHealth float64, preferKiting bool) *Combat {
	return &Combat{
		entities:     entities,
		health:       health,
		targetID:     targetID,
		fleeHealth:   fleeHealth,
		kiteHealth:   kiteHealth,
		preferKiting: preferKiting,
		mode:         CombatAttack,
	}
}

func (c *Combat) Name() string { return NameCombat }

func (c *Combat) OnActivate() { c.mode = CombatAttack }

func (c *Combat) OnDeactivate() {}

func (c *Combat) Tick() TickResult {
	target, ok := c.entities.EntityByID(c.targetID)
	if !ok || !target.Valid {
		return Complete("target no longer present")
	}
	hp := c.health.Health()
	switch {
	case hp <= c.fleeHealth:
		c.mode = CombatFlee
		return NewGoalResult(goal.RunAway{Points: []util.Pos{target.Position}, MinDist: 16})
	case hp <= c.kiteHealth && c.preferKiting:
		c.mode = CombatKite
		return NewGoalResult(goal.RunAway{Points: []util.Pos{target.Position}, MinDist: 4})
	case hp <= c.kiteHealth:
		c.mode = CombatDefend
		return NewGoalResult(goal.Near{Target: target.Position, Radius: 3})
	default:
		c.mode = CombatAttack
		return NewGoalResult(goal.Near{Target: target.Position, Radius: 2})
	}
}

// Mode reports the tactic chosen on the most recent Tick().
func (c *Combat) Mode() CombatMode { return c.mode }
