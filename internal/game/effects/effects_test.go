package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
)

func params(v ...uint32) cards.EffectParams {
	return cards.EffectParams(v)
}

func TestDecode(t *testing.T) {
	e, err := Decode(params(uint32(PlayerSelf), uint32(PlayerAddEnergy), 3))
	require.NoError(t, err)
	assert.Equal(t, PlayerSelf, e.Subject)
	assert.Equal(t, PlayerAddEnergy, e.PlayerOp())
	assert.Equal(t, []int{3}, e.Operands)

	e, err = Decode(params(uint32(CreatureTeam), uint32(CreatureSetConstraint),
		uint32(constraints.CreatureBlockAttacks), 2, 1))
	require.NoError(t, err)
	assert.Equal(t, CreatureSetConstraint, e.CreatureOp())
	assert.Equal(t, []int{int(constraints.CreatureBlockAttacks), 2, 1}, e.Operands)

	e, err = Decode(params(uint32(CreatureOneOppo), uint32(CreatureSubHealth), ModeRandom, 4))
	require.NoError(t, err)
	assert.True(t, e.Random)
	assert.Equal(t, []int{4}, e.Operands)

	e, err = Decode(params(uint32(CreatureSelf), uint32(CreatureResetAttack)))
	require.NoError(t, err)
	assert.Empty(t, e.Operands)
}

func TestDecodeRejectsMalformedParams(t *testing.T) {
	tests := []struct {
		name   string
		params cards.EffectParams
	}{
		{"empty", params()},
		{"subject only", params(uint32(PlayerSelf))},
		{"unknown subject", params(17, 0)},
		{"unknown player op", params(uint32(PlayerSelf), 99, 1)},
		{"unknown creature op", params(uint32(CreatureAllOppo), 99)},
		{"too few operands", params(uint32(PlayerOppo), uint32(PlayerSubHealth))},
		{"too many operands", params(uint32(PlayerOppo), uint32(PlayerSubHealth), 1, 2)},
		{"missing mode", params(uint32(CreatureOneOppo), uint32(CreatureSubHealth))},
		{"bad mode", params(uint32(CreatureOneOppo), uint32(CreatureSubHealth), 5, 1)},
		{"player constraint out of range", params(uint32(PlayerSelf), uint32(PlayerSetConstraint),
			uint32(constraints.PlayerCount), 1, 1)},
		{"creature constraint out of range", params(uint32(CreatureSelf), uint32(CreatureSetConstraint),
			uint32(constraints.CreatureCount), 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.params)
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}

func TestDecodeAllIsAllOrNothing(t *testing.T) {
	list := []cards.EffectParams{
		params(uint32(PlayerSelf), uint32(PlayerAddHealth), 2),
		params(uint32(PlayerSelf), uint32(PlayerAddHealth)),
	}
	out, err := DecodeAll(list)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.Nil(t, out)

	out, err = DecodeAll(list[:1])
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestRequirements(t *testing.T) {
	list := []Effect{
		{Subject: CreatureSelf, Op: uint32(CreatureAddAttack), Operands: []int{1}},
		{Subject: CreatureOneOppo, Op: uint32(CreatureSubHealth), Operands: []int{2}},
		{Subject: CreatureOneOppo, Op: uint32(CreatureSubHealth), Random: true, Operands: []int{2}},
		{Subject: PlayerSelf, Op: uint32(PlayerExchangeHandCard)},
		{Subject: PlayerOppo, Op: uint32(PlayerExchangeHandCard)},
		{Subject: CreatureAllOppo, Op: uint32(CreatureSubShield), Operands: []int{1}},
	}

	assert.Equal(t, []Selection{SelectSelfBoard, SelectOppoBoard, SelectSelfHand},
		Requirements(cards.KindSpell, list))
	assert.Equal(t, []Selection{SelectOppoBoard, SelectSelfHand},
		Requirements(cards.KindCreature, list))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "CREATURE_ONE_OPPO", CreatureOneOppo.String())
	assert.Equal(t, "FORCED_SUB_HEALTH", CreatureForcedSubHealth.String())
	assert.Equal(t, "STEAL_HAND_CARD", PlayerStealHandCard.String())
	assert.Equal(t, "PLAYER_OP_42", PlayerOp(42).String())
	assert.Equal(t, "OPPO_BOARD", SelectOppoBoard.String())
}
