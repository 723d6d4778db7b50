package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
	"github.com/wizardpoker/duel-server-go/internal/game/effects"
)

func TestUseCardPlacesCreatureAndSpendsEnergy(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	p := m.Player(seat)
	index := giveCard(t, m, seat, bruteID)
	handBefore := p.HandSize()

	require.NoError(t, m.UseCard(seat, index, nil))

	assert.Equal(t, 7, p.Energy())
	assert.Equal(t, handBefore-1, p.HandSize())
	require.Len(t, p.Board(), 1)
	brute := p.Board()[0]
	assert.Equal(t, bruteID, brute.Prototype().ID)
	assert.True(t, brute.OnBoard())
	assert.Same(t, p, brute.Owner())
}

func TestUseCardRejectsWithoutMutation(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()

	tests := []struct {
		name    string
		prepare func() (int, []int)
		wantErr error
	}{
		{
			name:    "not enough energy",
			prepare: func() (int, []int) { return giveCard(t, m, seat, pricyID), nil },
			wantErr: ErrNotEnoughEnergy,
		},
		{
			name:    "hand index out of range",
			prepare: func() (int, []int) { return 99, nil },
			wantErr: ErrInvalidIndex,
		},
		{
			name:    "missing selection",
			prepare: func() (int, []int) { putOnBoard(t, m, 1-seat, fillerID); return giveCard(t, m, seat, boltID), nil },
			wantErr: ErrInvalidSelection,
		},
		{
			name:    "selection out of range",
			prepare: func() (int, []int) { return giveCard(t, m, seat, boltID), []int{7} },
			wantErr: ErrInvalidIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, selections := tt.prepare()
			before := m.Checksum()

			err := m.UseCard(seat, index, selections)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsActionRejected(err))
			assert.Equal(t, before, m.Checksum())
			assert.Equal(t, StateRunning, m.State())
		})
	}
}

func TestUseCardNotYourTurn(t *testing.T) {
	m := newTestMatch(t, testRules())
	other := 1 - m.Active()
	index := giveCard(t, m, other, fillerID)

	err := m.UseCard(other, index, nil)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestUseCardLimit(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	p := m.Player(seat)
	require.NoError(t, p.SetConstraint(constraints.PlayerUseCardLimit, 1, 1, NoHandle))

	require.NoError(t, m.UseCard(seat, giveCard(t, m, seat, fillerID), nil))
	err := m.UseCard(seat, giveCard(t, m, seat, fillerID), nil)
	assert.ErrorIs(t, err, ErrCardLimitReached)
	assert.Len(t, p.Board(), 1)
}

func TestCreaturesOnBoardLimit(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	for i := 0; i < 6; i++ {
		putOnBoard(t, m, seat, fillerID)
	}

	_, err := m.PlanCard(seat, giveCard(t, m, seat, fillerID))
	assert.ErrorIs(t, err, ErrCardLimitReached)

	_, err = m.PlanCard(seat, giveCard(t, m, seat, drainID))
	assert.NoError(t, err, "spells are not bound by the board size")
}

func TestPlanCardHasNoSideEffects(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	putOnBoard(t, m, 1-seat, fillerID)
	index := giveCard(t, m, seat, boltID)
	before := m.Checksum()

	plan, err := m.PlanCard(seat, index)
	require.NoError(t, err)
	assert.Equal(t, []effects.Selection{effects.SelectOppoBoard}, plan.Requirements)
	assert.Equal(t, boltID, plan.Card)
	assert.Equal(t, cards.KindSpell, plan.Kind)
	assert.Equal(t, before, m.Checksum())
}

func TestPlanCardWithoutTargets(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()

	_, err := m.PlanCard(seat, giveCard(t, m, seat, boltID))
	assert.ErrorIs(t, err, ErrNoValidTarget)
}

func TestTimeoutDuringSelectionLeavesCardInHand(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	p := m.Player(seat)
	putOnBoard(t, m, 1-seat, fillerID)
	index := giveCard(t, m, seat, boltID)
	_, err := m.PlanCard(seat, index)
	require.NoError(t, err)
	energy := p.Energy()

	require.NoError(t, m.TimeoutTurn())

	assert.Equal(t, 1-seat, m.Active())
	assert.Contains(t, handIDs(p), boltID)
	assert.Equal(t, energy, p.Energy())
	assert.Empty(t, p.Graveyard())
	assert.Equal(t, 5, m.Player(1-seat).Board()[0].Health())
}

func TestUseCardWithSelection(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	p := m.Player(seat)
	putOnBoard(t, m, 1-seat, fillerID)
	target := putOnBoard(t, m, 1-seat, fillerID)

	require.NoError(t, m.UseCard(seat, giveCard(t, m, seat, boltID), []int{1}))

	assert.Equal(t, 2, target.Health())
	assert.Equal(t, 5, m.Player(1-seat).Board()[0].Health())
	assert.Equal(t, 8, p.Energy())
	require.Len(t, p.Graveyard(), 1)
	assert.Equal(t, boltID, p.Graveyard()[0].Prototype().ID)
}

func TestSpellKillsAndSweeps(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	victim := putOnBoard(t, m, 1-seat, fillerID)
	victim.ChangeHealth(-3, true)

	var died []Event
	m.Events().SubscribeTyped(EventCreatureDied, func(e Event) { died = append(died, e) })

	require.NoError(t, m.UseCard(seat, giveCard(t, m, seat, boltID), []int{0}))

	assert.Empty(t, m.Player(1-seat).Board())
	assert.False(t, victim.OnBoard())
	require.Len(t, died, 1)
	assert.Equal(t, fillerID, died[0].Card)
	assert.Equal(t, 1-seat, died[0].Seat)
}

func TestPlayerEffects(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()

	require.NoError(t, m.UseCard(seat, giveCard(t, m, seat, drainID), nil))

	assert.Equal(t, 16, m.Player(1-seat).Health())
	assert.Equal(t, 22, m.Player(seat).Health())
}

func TestExchangeSelectsFromHandWithoutPlayedCard(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	p := m.Player(seat)
	p.hand = nil
	index := giveCard(t, m, seat, swapID)
	giveCard(t, m, seat, bruteID)
	other := m.Player(1 - seat)
	other.hand = nil
	giveCard(t, m, 1-seat, titanID)

	plan, err := m.PlanCard(seat, index)
	require.NoError(t, err)
	require.Equal(t, []effects.Selection{effects.SelectSelfHand}, plan.Requirements)

	require.NoError(t, m.UseCard(seat, index, []int{0}))

	assert.Equal(t, []cards.ID{titanID}, handIDs(p))
	assert.Equal(t, []cards.ID{bruteID}, handIDs(other))
	brute, ok := other.hand[0].(*Creature)
	require.True(t, ok)
	assert.Same(t, other, brute.Owner())
}

func TestTeamEffectFollowsCaster(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	ally := putOnBoard(t, m, seat, fillerID)

	require.NoError(t, m.UseCard(seat, giveCard(t, m, seat, chiefID), nil))
	chief := m.Player(seat).Board()[1]

	require.NoError(t, m.EndTurn(seat))
	require.NoError(t, m.EndTurn(1-seat))
	assert.Equal(t, 3, ally.Attack(), "team attack gain while the chief stands")

	chief.ChangeHealth(-10, true)
	m.sweep()
	require.NoError(t, m.EndTurn(seat))
	require.NoError(t, m.EndTurn(1-seat))
	assert.Equal(t, 3, ally.Attack(), "gain stops once the chief left the board")
}

func TestAttackCreatureWithBlueShield(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	putOnBoard(t, m, seat, bruteID)
	warden := putOnBoard(t, m, 1-seat, blueID)

	require.NoError(t, m.Attack(seat, 0, 0))

	assert.Equal(t, 3, warden.Health())
}

func TestAttackPlayerEndsMatch(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	putOnBoard(t, m, seat, bruteID)
	m.Player(1 - seat).health = 3

	require.NoError(t, m.Attack(seat, 0, OpponentPlayer))

	assert.Equal(t, 0, m.Player(1-seat).Health())
	assert.Equal(t, StateEnded, m.State())
	require.NotNil(t, m.Outcome())
	assert.Equal(t, CauseOutOfHealth, m.Outcome().Cause)
	assert.Equal(t, seat, m.Outcome().Winner)
}

func TestAttackRejections(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	attacker := putOnBoard(t, m, seat, bruteID)
	putOnBoard(t, m, 1-seat, fillerID)

	assert.ErrorIs(t, m.Attack(seat, 3, 0), ErrInvalidIndex)
	assert.ErrorIs(t, m.Attack(seat, 0, 4), ErrInvalidIndex)
	assert.ErrorIs(t, m.Attack(1-seat, 0, 0), ErrNotYourTurn)

	require.NoError(t, attacker.constraints.Set(constraints.CreatureParalyzed, 1, 1, constraints.NoCaster))
	assert.ErrorIs(t, m.Attack(seat, 0, 0), ErrCreatureParalyzed)
	attacker.constraints.Clear()

	require.NoError(t, m.Attack(seat, 0, OpponentPlayer))
	assert.ErrorIs(t, m.Attack(seat, 0, OpponentPlayer), ErrAlreadyAttacked)
}

func TestAttackBackfires(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	attacker := putOnBoard(t, m, seat, bruteID)
	victim := putOnBoard(t, m, 1-seat, fillerID)
	require.NoError(t, attacker.constraints.Set(constraints.CreatureBackfireAttacks, 1, 1, constraints.NoCaster))

	require.NoError(t, m.Attack(seat, 0, 0))

	assert.Equal(t, 2, attacker.Health())
	assert.Equal(t, 5, victim.Health())
}

func TestAttackLimitConstraint(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	putOnBoard(t, m, seat, fillerID)
	putOnBoard(t, m, seat, fillerID)
	require.NoError(t, m.Player(seat).SetConstraint(constraints.PlayerAttackLimit, 1, 1, NoHandle))

	require.NoError(t, m.Attack(seat, 0, OpponentPlayer))
	assert.ErrorIs(t, m.Attack(seat, 1, OpponentPlayer), ErrCardLimitReached)
}

func TestApplyEffect(t *testing.T) {
	m := newTestMatch(t, testRules())
	seat := m.Active()
	proto, err := m.catalog.Card(drainID)
	require.NoError(t, err)
	spell := &Spell{proto: proto}

	err = m.ApplyEffect(seat, spell, cards.EffectParams{uint32(effects.PlayerOppo), uint32(effects.PlayerSubEnergy), 3})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Player(1-seat).Energy())

	err = m.ApplyEffect(seat, spell, cards.EffectParams{uint32(effects.PlayerSelf), uint32(effects.PlayerSetEnergy), 4})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Player(seat).Energy())

	err = m.ApplyEffect(seat, spell, cards.EffectParams{uint32(effects.CreatureSelf), uint32(effects.CreatureAddAttack), 1})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	err = m.ApplyEffect(seat, spell, cards.EffectParams{uint32(effects.PlayerSelf), 99})
	assert.ErrorIs(t, err, ErrInvalidEffectArguments)
	assert.Equal(t, StateRunning, m.State())
}
