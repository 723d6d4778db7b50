package engine

import (
	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
)

// mirrorLoopGuard bounds how many times an attack may be reflected.
const mirrorLoopGuard = 2

// Creature is a creature card instance.
type Creature struct {
	proto  *cards.Prototype
	handle Handle
	owner  *Player

	attack int
	health int
	shield int

	onBoard  bool
	attacked bool

	constraints *constraints.Table
}

func newCreature(proto *cards.Prototype, owner *Player, live constraints.Liveness) *Creature {
	return &Creature{
		proto:       proto,
		owner:       owner,
		attack:      proto.Attack,
		health:      proto.Health,
		shield:      proto.Shield,
		constraints: constraints.NewCreatureTable(live),
	}
}

// Prototype returns the catalog data of the creature.
func (c *Creature) Prototype() *cards.Prototype { return c.proto }

// Handle returns the stable reference of the creature.
func (c *Creature) Handle() Handle { return c.handle }

// Owner returns the player currently owning the creature.
func (c *Creature) Owner() *Player { return c.owner }

func (c *Creature) Attack() int { return c.attack }
func (c *Creature) Health() int { return c.health }
func (c *Creature) Shield() int { return c.shield }

// ShieldType returns the shield type of the prototype.
func (c *Creature) ShieldType() cards.ShieldType { return c.proto.ShieldType }

// OnBoard reports whether the creature is on its owner's board.
func (c *Creature) OnBoard() bool { return c.onBoard }

// Constraint resolves a creature constraint, combining the creature's own
// table with its owner's team table. Block counters are consumed by reads.
func (c *Creature) Constraint(id constraints.ID) int {
	return c.constraints.Overall(id, c.owner.team.Get(id))
}

func (c *Creature) peekConstraint(id constraints.ID) int {
	return c.constraints.PeekOverall(id, c.owner.team.Peek(id))
}

// Paralyzed reports whether the creature may not act.
func (c *Creature) Paralyzed() bool {
	return c.Constraint(constraints.CreatureParalyzed) != 0
}

func (c *Creature) maxHealth() int {
	return max(c.owner.match.rules.MaxCreatureHealth, c.proto.Health)
}

// ChangeHealth adds delta to the creature's health. Negative deltas are
// damage: unless forced, the shield mitigates them first. Health stays within
// [0, max]. It returns the health actually lost.
func (c *Creature) ChangeHealth(delta int, forced bool) int {
	if delta >= 0 {
		c.health = min(c.health+delta, c.maxHealth())
		return 0
	}
	damage := c.mitigate(-delta, forced)
	before := c.health
	c.health = max(c.health-damage, 0)
	return before - c.health
}

func (c *Creature) mitigate(damage int, forced bool) int {
	if forced {
		return damage
	}
	switch c.proto.ShieldType {
	case cards.ShieldBlue:
		return max(damage-c.shield, 0)
	case cards.ShieldOrange:
		if damage <= c.shield {
			return 0
		}
	case cards.ShieldLegendary:
		return 0
	}
	return damage
}

// ChangeAttack adds delta to the attack, floored at 0.
func (c *Creature) ChangeAttack(delta int) {
	c.attack = max(c.attack+delta, 0)
}

// ChangeShield adds delta to the shield, floored at 0.
func (c *Creature) ChangeShield(delta int) {
	c.shield = max(c.shield+delta, 0)
}

func (c *Creature) resetAttack() { c.attack = c.proto.Attack }
func (c *Creature) resetHealth() { c.health = c.proto.Health }
func (c *Creature) resetShield() { c.shield = c.proto.Shield }

// reset restores the creature to its catalog state, dropping every timed
// value. Used when the card comes back from the graveyard.
func (c *Creature) reset() {
	c.resetAttack()
	c.resetHealth()
	c.resetShield()
	c.attacked = false
	c.constraints.Clear()
}

func (c *Creature) dead() bool {
	return c.health == 0
}

// strike delivers an attack to victim. Mirroring victims send it back to the
// attacker until the reflection guard drops it; blocking victims absorb it.
func (c *Creature) strike(victim *Creature, damage, depth int) (*Creature, int) {
	if depth >= mirrorLoopGuard {
		return nil, 0
	}
	if victim.Constraint(constraints.CreatureMirrorAttacks) != 0 {
		return victim.strike(c, damage, depth+1)
	}
	if victim.Constraint(constraints.CreatureBlockAttacks) > 0 {
		return victim, 0
	}
	return victim, victim.ChangeHealth(-damage, false)
}

// enterTurn applies the turn-by-turn creature constraints.
func (c *Creature) enterTurn() {
	c.attacked = false
	c.ChangeHealth(c.Constraint(constraints.CreatureHealthGain), false)
	if loss := c.Constraint(constraints.CreatureHealthLoss); loss > 0 {
		c.ChangeHealth(-loss, true)
	}
	c.ChangeAttack(c.Constraint(constraints.CreatureAttackGain) - c.Constraint(constraints.CreatureAttackLoss))
	c.ChangeShield(c.Constraint(constraints.CreatureShieldGain) - c.Constraint(constraints.CreatureShieldLoss))
}

func (c *Creature) leaveTurn() {
	c.constraints.TimeOut()
}
