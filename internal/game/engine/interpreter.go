package engine

import (
	"fmt"

	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
	"github.com/wizardpoker/duel-server-go/internal/game/effects"
)

// resolution carries the context of one card use or attack.
type resolution struct {
	actor  *Player
	card   Card
	self   *Creature // the creature card being played, if any
	caster Handle
}

// target is a client selection resolved to a concrete card before any
// effect is applied.
type target struct {
	creature *Creature
	card     Card
}

type playerHandler func(r *resolution, p *Player, e effects.Effect, sel target) error

type creatureHandler func(r *resolution, c *Creature, e effects.Effect) error

// interpreter dispatches decoded effects to their handlers. The handler
// tables are built once per interpreter and never modified afterwards.
type interpreter struct {
	player   map[effects.PlayerOp]playerHandler
	creature map[effects.CreatureOp]creatureHandler
}

// newInterpreter builds the handler tables.
func newInterpreter() *interpreter {
	in := &interpreter{}
	in.player = map[effects.PlayerOp]playerHandler{
		effects.PlayerSetConstraint:    playerSetConstraint,
		effects.PlayerPickDeckCards:    playerPickDeckCards,
		effects.PlayerLoseHandCards:    playerLoseHandCards,
		effects.PlayerReviveBinCard:    playerReviveBinCard,
		effects.PlayerStealHandCard:    playerStealHandCard,
		effects.PlayerExchangeHandCard: playerExchangeHandCard,
		effects.PlayerSetEnergy:        func(_ *resolution, p *Player, e effects.Effect, _ target) error { p.setEnergy(e.Operands[0]); return nil },
		effects.PlayerAddEnergy:        func(_ *resolution, p *Player, e effects.Effect, _ target) error { p.changeEnergy(e.Operands[0]); return nil },
		effects.PlayerSubEnergy:        func(_ *resolution, p *Player, e effects.Effect, _ target) error { p.changeEnergy(-e.Operands[0]); return nil },
		effects.PlayerAddHealth:        func(_ *resolution, p *Player, e effects.Effect, _ target) error { p.changeHealth(e.Operands[0]); return nil },
		effects.PlayerSubHealth:        func(_ *resolution, p *Player, e effects.Effect, _ target) error { p.changeHealth(-e.Operands[0]); return nil },
	}
	in.creature = map[effects.CreatureOp]creatureHandler{
		effects.CreatureSetConstraint:   creatureSetConstraint,
		effects.CreatureResetAttack:     func(_ *resolution, c *Creature, _ effects.Effect) error { c.resetAttack(); return nil },
		effects.CreatureResetHealth:     func(_ *resolution, c *Creature, _ effects.Effect) error { c.resetHealth(); return nil },
		effects.CreatureResetShield:     func(_ *resolution, c *Creature, _ effects.Effect) error { c.resetShield(); return nil },
		effects.CreatureAddAttack:       func(_ *resolution, c *Creature, e effects.Effect) error { c.ChangeAttack(e.Operands[0]); return nil },
		effects.CreatureAddHealth:       func(_ *resolution, c *Creature, e effects.Effect) error { c.ChangeHealth(e.Operands[0], false); return nil },
		effects.CreatureAddShield:       func(_ *resolution, c *Creature, e effects.Effect) error { c.ChangeShield(e.Operands[0]); return nil },
		effects.CreatureSubAttack:       func(_ *resolution, c *Creature, e effects.Effect) error { c.ChangeAttack(-e.Operands[0]); return nil },
		effects.CreatureSubHealth:       func(_ *resolution, c *Creature, e effects.Effect) error { c.ChangeHealth(-e.Operands[0], false); return nil },
		effects.CreatureSubShield:       func(_ *resolution, c *Creature, e effects.Effect) error { c.ChangeShield(-e.Operands[0]); return nil },
		effects.CreatureForcedSubHealth: func(_ *resolution, c *Creature, e effects.Effect) error { c.ChangeHealth(-e.Operands[0], true); return nil },
	}
	return in
}

// apply applies one decoded effect for the resolution r. sel is the
// selection made for this effect, if it needed one.
func (in *interpreter) apply(r *resolution, e effects.Effect, sel target) error {
	actor := r.actor
	switch e.Subject {
	case effects.PlayerSelf:
		return in.applyToPlayer(r, actor, e, sel)
	case effects.PlayerOppo:
		return in.applyToPlayer(r, actor.Opponent(), e, sel)
	case effects.CreatureSelf:
		c := r.self
		if sel.creature != nil {
			c = sel.creature
		}
		if c == nil || !c.onBoard {
			return nil
		}
		return in.applyToCreature(r, c, e)
	case effects.CreatureTeam:
		if e.CreatureOp() == effects.CreatureSetConstraint {
			return actor.SetTeamConstraint(constraints.ID(e.Operands[0]), e.Operands[1], e.Operands[2], r.caster)
		}
		return in.applyToCreatures(r, actor.Board(), e)
	case effects.CreatureOneOppo:
		c := sel.creature
		if e.Random {
			board := actor.Opponent().board
			if len(board) == 0 {
				return nil
			}
			c = board[actor.match.rng.Intn(len(board))]
		}
		if c == nil || !c.onBoard {
			return nil
		}
		return in.applyToCreature(r, c, e)
	case effects.CreatureAllOppo:
		return in.applyToCreatures(r, actor.Opponent().Board(), e)
	}
	return fmt.Errorf("subject %s: %w", e.Subject, ErrInvalidEffectArguments)
}

func (in *interpreter) applyToPlayer(r *resolution, p *Player, e effects.Effect, sel target) error {
	h, ok := in.player[e.PlayerOp()]
	if !ok {
		return fmt.Errorf("player operation %s: %w", e.PlayerOp(), ErrInvalidEffectArguments)
	}
	return h(r, p, e, sel)
}

func (in *interpreter) applyToCreature(r *resolution, c *Creature, e effects.Effect) error {
	h, ok := in.creature[e.CreatureOp()]
	if !ok {
		return fmt.Errorf("creature operation %s: %w", e.CreatureOp(), ErrInvalidEffectArguments)
	}
	return h(r, c, e)
}

func (in *interpreter) applyToCreatures(r *resolution, list []*Creature, e effects.Effect) error {
	for _, c := range list {
		if !c.onBoard {
			continue
		}
		if err := in.applyToCreature(r, c, e); err != nil {
			return err
		}
	}
	return nil
}

func playerSetConstraint(r *resolution, p *Player, e effects.Effect, _ target) error {
	return p.SetConstraint(constraints.ID(e.Operands[0]), e.Operands[1], e.Operands[2], r.caster)
}

func playerPickDeckCards(_ *resolution, p *Player, e effects.Effect, _ target) error {
	p.draw(e.Operands[0])
	return nil
}

func playerLoseHandCards(_ *resolution, p *Player, e effects.Effect, _ target) error {
	for i := 0; i < e.Operands[0] && len(p.hand) > 0; i++ {
		p.discard(p.removeFromHand(p.match.rng.Intn(len(p.hand))))
	}
	return nil
}

// playerReviveBinCard returns the most recent graveyard card to the hand.
func playerReviveBinCard(_ *resolution, p *Player, _ effects.Effect, _ target) error {
	if len(p.graveyard) == 0 {
		return nil
	}
	c := p.graveyard[len(p.graveyard)-1]
	p.graveyard = p.graveyard[:len(p.graveyard)-1]
	if creature, ok := c.(*Creature); ok {
		creature.reset()
	}
	p.hand = append(p.hand, p.take(c))
	return nil
}

func playerStealHandCard(_ *resolution, p *Player, _ effects.Effect, _ target) error {
	victim := p.Opponent()
	if len(victim.hand) == 0 {
		return nil
	}
	c := victim.removeFromHand(p.match.rng.Intn(len(victim.hand)))
	p.hand = append(p.hand, p.take(c))
	return nil
}

// playerExchangeHandCard swaps a hand card of p with a random hand card of
// the opponent. The card given away is the selected one when there is a
// selection, a random one otherwise.
func playerExchangeHandCard(_ *resolution, p *Player, _ effects.Effect, sel target) error {
	other := p.Opponent()
	if len(p.hand) == 0 || len(other.hand) == 0 {
		return nil
	}
	mine := -1
	if sel.card != nil {
		for i, c := range p.hand {
			if c == sel.card {
				mine = i
				break
			}
		}
		if mine < 0 {
			return nil
		}
	} else {
		mine = p.match.rng.Intn(len(p.hand))
	}
	theirs := p.match.rng.Intn(len(other.hand))
	given, received := p.hand[mine], other.hand[theirs]
	p.hand[mine] = p.take(received)
	other.hand[theirs] = other.take(given)
	return nil
}

func creatureSetConstraint(r *resolution, c *Creature, e effects.Effect) error {
	return c.constraints.Set(constraints.ID(e.Operands[0]), e.Operands[1], e.Operands[2], r.caster.caster())
}
