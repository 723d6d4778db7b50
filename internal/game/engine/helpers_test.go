package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
	"github.com/wizardpoker/duel-server-go/internal/game/effects"
)

const (
	fillerID cards.ID = 1
	bruteID  cards.ID = 2
	blueID   cards.ID = 3
	titanID  cards.ID = 4
	goldID   cards.ID = 5
	boltID   cards.ID = 10
	drainID  cards.ID = 11
	swapID   cards.ID = 12
	pricyID  cards.ID = 13
	chiefID  cards.ID = 14
)

func testPrototypes() []cards.Prototype {
	return []cards.Prototype{
		{ID: fillerID, Name: "Squire", Kind: cards.KindCreature, Cost: 1, Attack: 1, Health: 5},
		{ID: bruteID, Name: "Brute", Kind: cards.KindCreature, Cost: 3, Attack: 4, Health: 6},
		{ID: blueID, Name: "Warden", Kind: cards.KindCreature, Cost: 2, Attack: 1, Health: 5, Shield: 2, ShieldType: cards.ShieldBlue},
		{ID: titanID, Name: "Titan", Kind: cards.KindCreature, Cost: 6, Attack: 3, Health: 25},
		{ID: goldID, Name: "Idol", Kind: cards.KindCreature, Cost: 4, Attack: 0, Health: 5, ShieldType: cards.ShieldLegendary},
		{ID: boltID, Name: "Bolt", Kind: cards.KindSpell, Cost: 2, Effects: []cards.EffectParams{
			{uint32(effects.CreatureOneOppo), uint32(effects.CreatureSubHealth), effects.ModeSelected, 3},
		}},
		{ID: drainID, Name: "Drain", Kind: cards.KindSpell, Cost: 1, Effects: []cards.EffectParams{
			{uint32(effects.PlayerOppo), uint32(effects.PlayerSubHealth), 4},
			{uint32(effects.PlayerSelf), uint32(effects.PlayerAddHealth), 2},
		}},
		{ID: swapID, Name: "Swap", Kind: cards.KindSpell, Cost: 0, Effects: []cards.EffectParams{
			{uint32(effects.PlayerSelf), uint32(effects.PlayerExchangeHandCard)},
		}},
		{ID: pricyID, Name: "Meteor", Kind: cards.KindSpell, Cost: 11},
		{ID: chiefID, Name: "Chief", Kind: cards.KindCreature, Cost: 2, Attack: 1, Health: 3, Effects: []cards.EffectParams{
			{uint32(effects.CreatureTeam), uint32(effects.CreatureSetConstraint), uint32(constraints.CreatureAttackGain), 2, 0},
		}},
	}
}

func testRules() Rules {
	rules := DefaultRules()
	rules.Seed = 42
	rules.DeckSize = 6
	rules.InitialHandSize = 2
	return rules
}

func testCatalog(t *testing.T) *cards.Collection {
	t.Helper()
	catalog, err := cards.NewCollection(testPrototypes())
	require.NoError(t, err)
	return catalog
}

func fillerDeck(rules Rules) []cards.ID {
	deck := make([]cards.ID, rules.DeckSize)
	for i := range deck {
		deck[i] = fillerID
	}
	return deck
}

// newTestMatch returns a running match where both players submitted a deck
// of fillers.
func newTestMatch(t *testing.T, rules Rules) *Match {
	t.Helper()
	m, err := NewMatch("match-test", [2]string{"alice", "bob"}, testCatalog(t), rules, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.SubmitDeck(0, fillerDeck(rules)))
	require.NoError(t, m.SubmitDeck(1, fillerDeck(rules)))
	require.Equal(t, StateRunning, m.State())
	return m
}

// giveCard puts a fresh card in the hand of seat and returns its index.
func giveCard(t *testing.T, m *Match, seat int, id cards.ID) int {
	t.Helper()
	proto, err := m.catalog.Card(id)
	require.NoError(t, err)
	p := m.players[seat]
	p.hand = append(p.hand, m.instantiate(proto, p))
	return len(p.hand) - 1
}

// putOnBoard places a fresh creature on the board of seat.
func putOnBoard(t *testing.T, m *Match, seat int, id cards.ID) *Creature {
	t.Helper()
	proto, err := m.catalog.Card(id)
	require.NoError(t, err)
	p := m.players[seat]
	c, ok := m.instantiate(proto, p).(*Creature)
	require.True(t, ok, "card %d is not a creature", id)
	p.place(c)
	return c
}

func handIDs(p *Player) []cards.ID {
	out := make([]cards.ID, 0, len(p.hand))
	for _, c := range p.hand {
		out = append(out, cardID(c))
	}
	return out
}
