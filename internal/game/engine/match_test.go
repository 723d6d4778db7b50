package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

func TestNewMatchRejectsBadRules(t *testing.T) {
	rules := testRules()
	rules.DeckSize = 0

	_, err := NewMatch("m", [2]string{"a", "b"}, testCatalog(t), rules, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestMatchStartsOnceBothDecksAreIn(t *testing.T) {
	rules := testRules()
	m, err := NewMatch("m", [2]string{"alice", "bob"}, testCatalog(t), rules, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDecks, m.State())

	var started []Event
	m.Events().SubscribeTyped(EventMatchStarted, func(e Event) { started = append(started, e) })

	require.NoError(t, m.SubmitDeck(1, fillerDeck(rules)))
	assert.Equal(t, StateAwaitingDecks, m.State())
	assert.True(t, m.HasDeck(1))
	assert.False(t, m.HasDeck(0))

	require.NoError(t, m.SubmitDeck(0, fillerDeck(rules)))
	assert.Equal(t, StateRunning, m.State())
	assert.Equal(t, 1, m.Turn())
	assert.Equal(t, m.Starter(), m.Active())
	require.Len(t, started, 1)

	active, waiting := m.Player(m.Active()), m.Player(1-m.Active())
	assert.Equal(t, rules.InitialHandSize+1, active.HandSize())
	assert.Equal(t, rules.InitialHandSize, waiting.HandSize())
	assert.Equal(t, 10, active.Energy())
	assert.Equal(t, rules.DeckSize-rules.InitialHandSize-1, active.DeckSize())
}

func TestSubmitDeckRejectsInvalidDecks(t *testing.T) {
	rules := testRules()
	m, err := NewMatch("m", [2]string{"alice", "bob"}, testCatalog(t), rules, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = m.SubmitDeck(0, fillerDeck(rules)[:3])
	assert.ErrorIs(t, err, ErrInvalidDeck)

	unknown := fillerDeck(rules)
	unknown[2] = cards.ID(999)
	err = m.SubmitDeck(0, unknown)
	assert.ErrorIs(t, err, ErrInvalidDeck)
	assert.False(t, m.HasDeck(0))

	require.NoError(t, m.SubmitDeck(0, fillerDeck(rules)))
	assert.ErrorIs(t, m.SubmitDeck(0, fillerDeck(rules)), ErrInvalidDeck)
}

func TestSameSeedSameMatch(t *testing.T) {
	a := newTestMatch(t, testRules())
	b := newTestMatch(t, testRules())
	assert.Equal(t, a.Checksum(), b.Checksum())

	require.NoError(t, a.EndTurn(a.Active()))
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestEndTurnSwapsPlayers(t *testing.T) {
	m := newTestMatch(t, testRules())
	first := m.Active()

	assert.ErrorIs(t, m.EndTurn(1-first), ErrNotYourTurn)

	require.NoError(t, m.EndTurn(first))
	assert.Equal(t, 1-first, m.Active())
	assert.Equal(t, 2, m.Turn())
	assert.Equal(t, 10, m.Player(1-first).Energy())
}

func TestConsecutiveTimeoutsForfeit(t *testing.T) {
	m := newTestMatch(t, testRules())
	first := m.Active()

	for i := 0; i < 4; i++ {
		require.NoError(t, m.TimeoutTurn())
		require.Equal(t, StateRunning, m.State())
	}
	require.NoError(t, m.TimeoutTurn())

	require.Equal(t, StateEnded, m.State())
	assert.Equal(t, CauseTimeouts, m.Outcome().Cause)
	assert.Equal(t, first, m.Outcome().Loser)
}

func TestActionResetsTimeouts(t *testing.T) {
	m := newTestMatch(t, testRules())
	first := m.Active()

	require.NoError(t, m.TimeoutTurn())
	require.NoError(t, m.TimeoutTurn())
	require.Equal(t, first, m.Active())
	require.NoError(t, m.UseCard(first, 0, nil))
	assert.Equal(t, 0, m.Player(first).timeouts)
}

func TestQuitIsAcceptedOnAnyTurn(t *testing.T) {
	m := newTestMatch(t, testRules())
	waiting := 1 - m.Active()

	m.Quit(waiting)

	require.NotNil(t, m.Outcome())
	assert.Equal(t, CauseQuit, m.Outcome().Cause)
	assert.Equal(t, waiting, m.Outcome().Loser)
	assert.Equal(t, 1-waiting, m.Outcome().Winner)
	assert.ErrorIs(t, m.EndTurn(m.Active()), ErrMatchNotRunning)

	m.Forfeit(1-waiting, CauseLostConnection)
	assert.Equal(t, CauseQuit, m.Outcome().Cause, "first outcome wins")
}

func TestEmptyDeckPenaltyEscalatesAndEndsMatch(t *testing.T) {
	rules := testRules()
	rules.EmptyDeckTurnLimit = 3
	m := newTestMatch(t, rules)
	first := m.Active()
	for _, p := range m.players {
		p.deck = nil
	}
	second := m.Player(1 - first)

	type step struct{ streak, health int }
	var got []step
	for m.State() == StateRunning {
		require.NoError(t, m.EndTurn(m.Active()))
		if m.Active() == second.Seat() {
			got = append(got, step{second.EmptyDeckStreak(), second.Health()})
		}
	}

	assert.Equal(t, []step{
		{1, 20},
		{2, 20},
		{3, 15},
		{4, 5},
		{5, 0},
	}, got)
	assert.Equal(t, CauseEmptyDeck, m.Outcome().Cause)
	assert.Equal(t, second.Seat(), m.Outcome().Loser)
	assert.Equal(t, 5, m.Player(first).Health())
}

func TestDrawResetsEmptyDeckStreak(t *testing.T) {
	m := newTestMatch(t, testRules())
	first := m.Active()
	second := m.Player(1 - first)
	second.deck = nil

	require.NoError(t, m.EndTurn(first))
	require.Equal(t, 1, second.EmptyDeckStreak())

	require.NoError(t, m.EndTurn(second.Seat()))
	proto, err := m.catalog.Card(fillerID)
	require.NoError(t, err)
	second.deck = []Card{m.instantiate(proto, second)}
	require.NoError(t, m.EndTurn(first))

	assert.Equal(t, 0, second.EmptyDeckStreak())
	assert.Equal(t, 20, second.Health())
}

func TestDamageAfterEmptyDeckIsOutOfHealth(t *testing.T) {
	m := newTestMatch(t, testRules())
	p := m.Player(m.Active())
	p.emptyDeckStreak = 12
	p.deckedOut = true
	p.changeHealth(3)
	p.changeHealth(-p.Health())

	m.checkEnd()

	assert.Equal(t, CauseOutOfHealth, m.Outcome().Cause)
}

func TestBothPlayersDeadActiveLoses(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	m.players[0].health = 0
	m.players[1].health = 0

	m.checkEnd()

	assert.Equal(t, seat, m.Outcome().Loser)
}

func TestBrokenInvariantAbortsMatch(t *testing.T) {
	m := newTestMatch(t, testRules())

	err := func() (err error) {
		defer m.guard(&err)
		panic(fmt.Errorf("constraint 42: %w", ErrOutOfRange))
	}()

	require.ErrorIs(t, err, ErrOutOfRange)
	assert.False(t, IsActionRejected(err))
	assert.Equal(t, StateEnded, m.State())
	assert.Equal(t, CauseInternalError, m.Outcome().Cause)
	assert.Equal(t, NoSeat, m.Outcome().Loser)
	assert.ErrorIs(t, m.Fault(), ErrOutOfRange)
}

func TestGuardRepanicsForeignPanics(t *testing.T) {
	m := newTestMatch(t, testRules())

	assert.Panics(t, func() {
		var err error
		defer m.guard(&err)
		panic("boom")
	})
	assert.Equal(t, StateRunning, m.State())
}

func TestViewHidesOpponentHand(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	putOnBoard(t, m, seat, blueID)
	putOnBoard(t, m, 1-seat, bruteID)

	v := m.View(seat)
	assert.True(t, v.Active)
	assert.Equal(t, m.Player(seat).HandSize(), len(v.Hand))
	assert.Equal(t, m.Player(1-seat).HandSize(), v.OpponentHandSize)
	require.Len(t, v.Board, 1)
	assert.Equal(t, CardView{ID: blueID, Attack: 1, Health: 5, Shield: 2, ShieldType: cards.ShieldBlue}, v.Board[0])
	require.Len(t, v.OpponentBoard, 1)
	assert.Equal(t, bruteID, v.OpponentBoard[0].ID)

	assert.False(t, m.View(1-seat).Active)
}

func TestEventsAreTyped(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()

	var placed, all int
	handle := m.Events().SubscribeTyped(EventCreaturePlaced, func(Event) { placed++ })
	m.Events().Subscribe(func(Event) { all++ })

	require.NoError(t, m.UseCard(seat, giveCard(t, m, seat, fillerID), nil))
	assert.Equal(t, 1, placed)
	assert.Greater(t, all, 1)

	m.Events().Unsubscribe(handle)
	require.NoError(t, m.UseCard(seat, giveCard(t, m, seat, fillerID), nil))
	assert.Equal(t, 1, placed)
}
