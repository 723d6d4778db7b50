package engine

import (
	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// Card is a live card of a match: a *Creature or a *Spell.
type Card interface {
	Prototype() *cards.Prototype
}

// Spell is a spell card instance. Spells only live in zones; their effects
// resolve once and the card goes to the graveyard.
type Spell struct {
	proto *cards.Prototype
}

// Prototype returns the catalog data of the spell.
func (s *Spell) Prototype() *cards.Prototype {
	return s.proto
}

func cardID(c Card) cards.ID {
	return c.Prototype().ID
}
