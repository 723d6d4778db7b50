package engine

import (
	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// CardView is the client-visible state of a card. Spells only carry their id.
type CardView struct {
	ID         cards.ID
	Attack     int
	Health     int
	Shield     int
	ShieldType cards.ShieldType
}

// View is the state of a match as one seat may see it. The opponent's hand
// and deck are reduced to their sizes.
type View struct {
	Seat   int
	Turn   int
	Active bool

	Energy         int
	Health         int
	OpponentHealth int
	DeckSize       int

	OpponentHandSize int

	Hand          []CardView
	Board         []CardView
	OpponentBoard []CardView
	Graveyard     []CardView
}

func viewOf(c Card) CardView {
	if creature, ok := c.(*Creature); ok {
		return creatureView(creature)
	}
	return CardView{ID: cardID(c)}
}

func creatureView(c *Creature) CardView {
	return CardView{
		ID:         c.proto.ID,
		Attack:     c.attack,
		Health:     c.health,
		Shield:     c.shield,
		ShieldType: c.proto.ShieldType,
	}
}

func cardViews(list []Card) []CardView {
	out := make([]CardView, len(list))
	for i, c := range list {
		out[i] = viewOf(c)
	}
	return out
}

func boardViews(list []*Creature) []CardView {
	out := make([]CardView, len(list))
	for i, c := range list {
		out[i] = creatureView(c)
	}
	return out
}

// View returns what seat currently sees of the match. It reads constraint
// tables without consuming anything.
func (m *Match) View(seat int) View {
	p := m.players[seat]
	o := p.Opponent()
	return View{
		Seat:             seat,
		Turn:             m.turn,
		Active:           m.state == StateRunning && m.active == seat,
		Energy:           p.energy,
		Health:           p.health,
		OpponentHealth:   o.health,
		DeckSize:         len(p.deck),
		OpponentHandSize: len(o.hand),
		Hand:             cardViews(p.hand),
		Board:            boardViews(p.board),
		OpponentBoard:    boardViews(o.board),
		Graveyard:        cardViews(p.graveyard),
	}
}
