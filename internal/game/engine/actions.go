package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
	"github.com/wizardpoker/duel-server-go/internal/game/effects"
)

// OpponentPlayer is the victim index addressing the opposing player.
const OpponentPlayer = -1

// Plan describes a card use that passed every check. Building a plan never
// mutates the match.
type Plan struct {
	Seat      int
	HandIndex int
	Card      cards.ID
	Kind      cards.Kind
	Effects   []effects.Effect
	// Requirements lists, in effect order, the selections the client must
	// make before the card can be used.
	Requirements []effects.Selection
}

// PlanCard validates the use of the card at handIndex and reports the
// selections it needs.
func (m *Match) PlanCard(seat, handIndex int) (*Plan, error) {
	p, err := m.actor(seat)
	if err != nil {
		return nil, err
	}
	if handIndex < 0 || handIndex >= len(p.hand) {
		return nil, fmt.Errorf("hand index %d of %d: %w", handIndex, len(p.hand), ErrInvalidIndex)
	}
	proto := p.hand[handIndex].Prototype()

	if proto.Cost > p.energy {
		return nil, fmt.Errorf("card %d costs %d, energy %d: %w", proto.ID, proto.Cost, p.energy, ErrNotEnoughEnergy)
	}
	if p.turn.cardsUsed >= p.Constraint(constraints.PlayerUseCardLimit) {
		return nil, ErrCardLimitReached
	}
	if proto.IsSpell() {
		if p.turn.spellsCalled >= p.Constraint(constraints.PlayerCallSpellLimit) {
			return nil, ErrCardLimitReached
		}
	} else {
		if p.turn.creaturesPlaced >= p.Constraint(constraints.PlayerPlaceCreatureLimit) ||
			len(p.board) >= p.Constraint(constraints.PlayerCreaturesOnBoardLimit) {
			return nil, ErrCardLimitReached
		}
	}

	list, err := effects.DecodeAll(proto.Effects)
	if err != nil {
		return nil, fmt.Errorf("card %d: %w", proto.ID, err)
	}
	plan := &Plan{
		Seat:         seat,
		HandIndex:    handIndex,
		Card:         proto.ID,
		Kind:         proto.Kind,
		Effects:      list,
		Requirements: effects.Requirements(proto.Kind, list),
	}
	for _, req := range plan.Requirements {
		if m.zoneSize(p, req) == 0 {
			return nil, fmt.Errorf("card %d needs %s: %w", proto.ID, req, ErrNoValidTarget)
		}
	}
	return plan, nil
}

// zoneSize is the number of selectable cards for a requirement, with the
// card being used already out of the hand.
func (m *Match) zoneSize(p *Player, req effects.Selection) int {
	switch req {
	case effects.SelectSelfBoard:
		return len(p.board)
	case effects.SelectOppoBoard:
		return len(p.Opponent().board)
	case effects.SelectSelfHand:
		return len(p.hand) - 1
	}
	return 0
}

func (m *Match) resolveTargets(p *Player, plan *Plan, selections []int) ([]target, error) {
	if len(selections) != len(plan.Requirements) {
		return nil, fmt.Errorf("%d selections for %d requirements: %w", len(selections), len(plan.Requirements), ErrInvalidSelection)
	}
	handAfter := make([]Card, 0, len(p.hand))
	handAfter = append(handAfter, p.hand[:plan.HandIndex]...)
	handAfter = append(handAfter, p.hand[plan.HandIndex+1:]...)

	targets := make([]target, len(selections))
	for i, req := range plan.Requirements {
		index := selections[i]
		if index < 0 || index >= m.zoneSize(p, req) {
			return nil, fmt.Errorf("selection %d (%s) index %d: %w", i, req, index, ErrInvalidIndex)
		}
		switch req {
		case effects.SelectSelfBoard:
			targets[i] = target{creature: p.board[index]}
		case effects.SelectOppoBoard:
			targets[i] = target{creature: p.Opponent().board[index]}
		case effects.SelectSelfHand:
			targets[i] = target{card: handAfter[index]}
		}
	}
	return targets, nil
}

// UseCard plays the card at handIndex. selections answer the plan's
// requirements in order. Either the whole card resolves or, on rejection,
// nothing changes.
func (m *Match) UseCard(seat, handIndex int, selections []int) (err error) {
	defer m.guard(&err)
	plan, err := m.PlanCard(seat, handIndex)
	if err != nil {
		return err
	}
	p := m.players[seat]
	targets, err := m.resolveTargets(p, plan, selections)
	if err != nil {
		return err
	}

	card := p.removeFromHand(handIndex)
	proto := card.Prototype()
	p.energy -= proto.Cost
	p.turn.cardsUsed++
	p.timeouts = 0

	r := &resolution{actor: p, card: card}
	if creature, ok := card.(*Creature); ok {
		p.place(creature)
		p.turn.creaturesPlaced++
		r.self = creature
		r.caster = creature.handle
		m.events.Publish(Event{Type: EventCreaturePlaced, Turn: m.turn, Seat: seat, Card: proto.ID})
	} else {
		p.turn.spellsCalled++
	}
	m.events.Publish(Event{Type: EventCardUsed, Turn: m.turn, Seat: seat, Card: proto.ID, Amount: proto.Cost})

	next := 0
	for _, e := range plan.Effects {
		var sel target
		if _, ok := e.Selection(proto.Kind); ok {
			sel = targets[next]
			next++
		}
		if err := m.interp.apply(r, e, sel); err != nil {
			return fmt.Errorf("card %d effect %s: %w", proto.ID, e, err)
		}
		m.events.Publish(Event{Type: EventEffectApplied, Turn: m.turn, Seat: seat, Card: proto.ID, Data: e.String()})
	}
	if _, ok := card.(*Spell); ok {
		p.discard(card)
	}

	m.logger.Debug("card used",
		zap.String("player", p.name),
		zap.Uint32("card", uint32(proto.ID)),
		zap.Int("energy_left", p.energy),
	)
	m.sweep()
	m.checkEnd()
	return nil
}

// Attack makes the creature at boardIndex attack the opposing creature at
// victim, or the opposing player when victim is OpponentPlayer.
func (m *Match) Attack(seat, boardIndex, victim int) (err error) {
	defer m.guard(&err)
	p, err := m.actor(seat)
	if err != nil {
		return err
	}
	opponent := p.Opponent()
	if boardIndex < 0 || boardIndex >= len(p.board) {
		return fmt.Errorf("board index %d of %d: %w", boardIndex, len(p.board), ErrInvalidIndex)
	}
	if victim != OpponentPlayer && (victim < 0 || victim >= len(opponent.board)) {
		return fmt.Errorf("victim index %d of %d: %w", victim, len(opponent.board), ErrInvalidIndex)
	}
	if p.turn.attacks >= p.Constraint(constraints.PlayerAttackLimit) {
		return ErrCardLimitReached
	}
	attacker := p.board[boardIndex]
	if attacker.attacked {
		return ErrAlreadyAttacked
	}
	if attacker.Paralyzed() {
		return ErrCreatureParalyzed
	}

	p.turn.attacks++
	p.timeouts = 0
	attacker.attacked = true
	damage := attacker.attack
	m.events.Publish(Event{Type: EventAttack, Turn: m.turn, Seat: seat, Card: attacker.proto.ID, Amount: damage})

	switch {
	case attacker.Constraint(constraints.CreatureBackfireAttacks) != 0:
		lost := attacker.ChangeHealth(-damage, false)
		m.events.Publish(Event{Type: EventCreatureDamaged, Turn: m.turn, Seat: seat, Card: attacker.proto.ID, Amount: lost})
	case victim == OpponentPlayer:
		lost := opponent.changeHealth(-damage)
		m.events.Publish(Event{Type: EventPlayerDamaged, Turn: m.turn, Seat: opponent.seat, Amount: lost})
	default:
		hit, lost := attacker.strike(opponent.board[victim], damage, 0)
		if hit != nil {
			m.events.Publish(Event{Type: EventCreatureDamaged, Turn: m.turn, Seat: hit.owner.seat, Card: hit.proto.ID, Amount: lost})
		}
	}

	m.sweep()
	m.checkEnd()
	return nil
}

// ApplyEffect decodes params and applies them as if card had been used by
// seat. Effects that need a client selection are rejected.
func (m *Match) ApplyEffect(seat int, card Card, params cards.EffectParams) (err error) {
	defer m.guard(&err)
	p, err := m.actor(seat)
	if err != nil {
		return err
	}
	e, err := effects.Decode(params)
	if err != nil {
		return err
	}
	kind := card.Prototype().Kind
	if _, ok := e.Selection(kind); ok {
		return fmt.Errorf("%s needs a selection: %w", e, ErrInvalidSelection)
	}
	r := &resolution{actor: p, card: card}
	if creature, ok := card.(*Creature); ok && creature.owner == p && creature.onBoard {
		r.self = creature
		r.caster = creature.handle
	}
	if err := m.interp.apply(r, e, target{}); err != nil {
		return err
	}
	m.sweep()
	m.checkEnd()
	return nil
}
