package engine

import (
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
)

// turnCounters are reset at the start of each of the player's turns.
type turnCounters struct {
	cardsUsed       int
	spellsCalled    int
	creaturesPlaced int
	attacks         int
}

// Player is one side of a match. It owns four disjoint zones; the top of the
// deck is its last element.
type Player struct {
	seat  int
	name  string
	match *Match

	deck      []Card
	hand      []Card
	board     []*Creature
	graveyard []Card

	energy     int
	health     int
	tookDamage bool

	turn            turnCounters
	turnsPlayed     int
	emptyDeckStreak int
	timeouts        int

	// deckedOut is set while the health of the player sits at zero because
	// of the empty deck penalty.
	deckedOut bool

	constraints *constraints.Table
	team        *constraints.Table
}

func newPlayer(m *Match, seat int, name string) *Player {
	return &Player{
		seat:        seat,
		name:        name,
		match:       m,
		health:      m.rules.InitialHealth,
		constraints: constraints.NewPlayerTable(m.arena),
		team:        constraints.NewCreatureTable(m.arena),
	}
}

func (p *Player) Seat() int { return p.seat }
func (p *Player) Name() string { return p.name }
func (p *Player) Health() int { return p.health }
func (p *Player) Energy() int { return p.energy }
func (p *Player) DeckSize() int { return len(p.deck) }
func (p *Player) HandSize() int { return len(p.hand) }
func (p *Player) EmptyDeckStreak() int { return p.emptyDeckStreak }
func (p *Player) TookDamage() bool { return p.tookDamage }

// Opponent returns the other player of the match.
func (p *Player) Opponent() *Player {
	return p.match.players[1-p.seat]
}

// Hand returns a copy of the hand zone.
func (p *Player) Hand() []Card {
	return append([]Card(nil), p.hand...)
}

// Board returns a copy of the board zone.
func (p *Player) Board() []*Creature {
	return append([]*Creature(nil), p.board...)
}

// Graveyard returns a copy of the graveyard zone.
func (p *Player) Graveyard() []Card {
	return append([]Card(nil), p.graveyard...)
}

// Constraint resolves a player constraint.
func (p *Player) Constraint(id constraints.ID) int {
	return p.constraints.Get(id)
}

// SetConstraint adds a timed value to the player's table.
func (p *Player) SetConstraint(id constraints.ID, value, turns int, caster Handle) error {
	return p.constraints.Set(id, value, turns, caster.caster())
}

// SetTeamConstraint adds a timed value applying to all of the player's creatures.
func (p *Player) SetTeamConstraint(id constraints.ID, value, turns int, caster Handle) error {
	return p.team.Set(id, value, turns, caster.caster())
}

func (p *Player) maxEnergy() int {
	return p.match.rules.MaxEnergy
}

func (p *Player) setEnergy(v int) {
	p.energy = min(max(v, 0), p.maxEnergy())
}

func (p *Player) changeEnergy(delta int) {
	p.setEnergy(p.energy + delta)
}

// changeHealth adds delta to the player's health, clamped to [0, max].
func (p *Player) changeHealth(delta int) int {
	before := p.health
	p.health = min(max(p.health+delta, 0), p.match.rules.MaxHealth)
	if p.health < before {
		p.tookDamage = true
	}
	if p.health > 0 {
		p.deckedOut = false
	}
	return before - p.health
}

// take moves ownership of c to p.
func (p *Player) take(c Card) Card {
	if creature, ok := c.(*Creature); ok {
		creature.owner = p
	}
	return c
}

// draw moves up to n cards from the deck to the hand and returns how many
// were drawn.
func (p *Player) draw(n int) int {
	drawn := 0
	for ; drawn < n && len(p.deck) > 0; drawn++ {
		top := p.deck[len(p.deck)-1]
		p.deck = p.deck[:len(p.deck)-1]
		p.hand = append(p.hand, top)
	}
	return drawn
}

func (p *Player) removeFromHand(index int) Card {
	c := p.hand[index]
	p.hand = append(p.hand[:index], p.hand[index+1:]...)
	return c
}

func (p *Player) discard(c Card) {
	if creature, ok := c.(*Creature); ok {
		creature.onBoard = false
	}
	p.graveyard = append(p.graveyard, c)
}

func (p *Player) place(c *Creature) {
	c.onBoard = true
	c.attacked = false
	p.board = append(p.board, c)
}

func (p *Player) boardIndex(c *Creature) int {
	for i, b := range p.board {
		if b == c {
			return i
		}
	}
	return -1
}

// sweepDead moves dead creatures to the graveyard and applies their ending
// constraints to the rest of the team. It loops until the board is stable.
func (p *Player) sweepDead() []*Creature {
	var died []*Creature
	for {
		index := -1
		for i, c := range p.board {
			if c.dead() {
				index = i
				break
			}
		}
		if index < 0 {
			return died
		}
		c := p.board[index]
		p.board = append(p.board[:index], p.board[index+1:]...)
		healthGain := c.Constraint(constraints.CreatureEndTeamHealthGain)
		attackLoss := c.Constraint(constraints.CreatureEndTeamAttackLoss)
		shieldLoss := c.Constraint(constraints.CreatureEndTeamShieldLoss)
		p.discard(c)
		died = append(died, c)
		for _, mate := range p.board {
			if healthGain != 0 {
				mate.ChangeHealth(healthGain, false)
			}
			mate.ChangeAttack(-attackLoss)
			mate.ChangeShield(-shieldLoss)
		}
	}
}

// enterTurn runs the start-of-turn hooks: counters reset, energy refill,
// deck draw, and the turn-by-turn constraints of the player and creatures.
func (p *Player) enterTurn() {
	p.turn = turnCounters{}
	p.turnsPlayed++
	p.setEnergy(p.Constraint(constraints.PlayerEnergyInit))

	want := p.Constraint(constraints.PlayerCardPickAmount)
	if p.draw(want) < want {
		p.emptyDeckStreak++
		p.deckPenalty()
	} else {
		p.emptyDeckStreak = 0
	}

	p.changeHealth(p.Constraint(constraints.PlayerHealthGain))
	p.changeHealth(-p.Constraint(constraints.PlayerHealthLoss))

	for _, c := range p.board {
		c.enterTurn()
	}
}

// deckPenalty deals the forced damage of an empty deck once the streak
// reached the turn limit. The damage grows with every turn past the limit.
func (p *Player) deckPenalty() {
	over := p.emptyDeckStreak - p.match.rules.EmptyDeckTurnLimit
	if over < 0 {
		return
	}
	p.changeHealth(-p.Constraint(constraints.PlayerHealthLossDeckEmpty) * (over + 1))
	if p.health == 0 {
		p.deckedOut = true
	}
}

// lossCause is the end cause when p ran out of health.
func (p *Player) lossCause() EndCause {
	if p.deckedOut {
		return CauseEmptyDeck
	}
	return CauseOutOfHealth
}

// leaveTurn decays the timed values of the player, its team and creatures.
func (p *Player) leaveTurn() {
	p.constraints.TimeOut()
	p.team.TimeOut()
	for _, c := range p.board {
		c.leaveTurn()
	}
}
