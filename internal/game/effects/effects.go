package effects

import (
	"errors"
	"fmt"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
)

// ErrInvalidArguments is returned for malformed effect parameter lists.
var ErrInvalidArguments = errors.New("invalid effect arguments")

// Subject selects what an effect is applied to.
type Subject uint32

const (
	PlayerSelf Subject = iota
	PlayerOppo
	CreatureSelf
	CreatureTeam
	CreatureOneOppo
	CreatureAllOppo
)

var subjectNames = map[Subject]string{
	PlayerSelf:      "PLAYER_SELF",
	PlayerOppo:      "PLAYER_OPPO",
	CreatureSelf:    "CREATURE_SELF",
	CreatureTeam:    "CREATURE_TEAM",
	CreatureOneOppo: "CREATURE_ONE_OPPO",
	CreatureAllOppo: "CREATURE_ALL_OPPO",
}

func (s Subject) String() string {
	if name, ok := subjectNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUBJECT_%d", uint32(s))
}

// TargetsPlayer reports whether the subject is a player.
func (s Subject) TargetsPlayer() bool {
	return s == PlayerSelf || s == PlayerOppo
}

// PlayerOp is an operation applied to a player.
type PlayerOp uint32

const (
	PlayerSetConstraint PlayerOp = iota
	PlayerPickDeckCards
	PlayerLoseHandCards
	PlayerReviveBinCard
	PlayerStealHandCard
	PlayerExchangeHandCard
	PlayerSetEnergy
	PlayerAddEnergy
	PlayerSubEnergy
	PlayerAddHealth
	PlayerSubHealth

	playerOpCount
)

var playerOpNames = [...]string{
	PlayerSetConstraint:    "SET_CONSTRAINT",
	PlayerPickDeckCards:    "PICK_DECK_CARDS",
	PlayerLoseHandCards:    "LOSE_HAND_CARDS",
	PlayerReviveBinCard:    "REVIVE_BIN_CARD",
	PlayerStealHandCard:    "STEAL_HAND_CARD",
	PlayerExchangeHandCard: "EXCHANGE_HAND_CARD",
	PlayerSetEnergy:        "SET_ENERGY",
	PlayerAddEnergy:        "ADD_ENERGY",
	PlayerSubEnergy:        "SUB_ENERGY",
	PlayerAddHealth:        "ADD_HEALTH",
	PlayerSubHealth:        "SUB_HEALTH",
}

var playerOpArity = [...]int{
	PlayerSetConstraint:    3,
	PlayerPickDeckCards:    1,
	PlayerLoseHandCards:    1,
	PlayerReviveBinCard:    0,
	PlayerStealHandCard:    0,
	PlayerExchangeHandCard: 0,
	PlayerSetEnergy:        1,
	PlayerAddEnergy:        1,
	PlayerSubEnergy:        1,
	PlayerAddHealth:        1,
	PlayerSubHealth:        1,
}

func (op PlayerOp) String() string {
	if op < playerOpCount {
		return playerOpNames[op]
	}
	return fmt.Sprintf("PLAYER_OP_%d", uint32(op))
}

// CreatureOp is an operation applied to a creature.
type CreatureOp uint32

const (
	CreatureSetConstraint CreatureOp = iota
	CreatureResetAttack
	CreatureResetHealth
	CreatureResetShield
	CreatureAddAttack
	CreatureAddHealth
	CreatureAddShield
	CreatureSubAttack
	CreatureSubHealth
	CreatureSubShield
	CreatureForcedSubHealth

	creatureOpCount
)

var creatureOpNames = [...]string{
	CreatureSetConstraint:   "SET_CONSTRAINT",
	CreatureResetAttack:     "RESET_ATTACK",
	CreatureResetHealth:     "RESET_HEALTH",
	CreatureResetShield:     "RESET_SHIELD",
	CreatureAddAttack:       "ADD_ATTACK",
	CreatureAddHealth:       "ADD_HEALTH",
	CreatureAddShield:       "ADD_SHIELD",
	CreatureSubAttack:       "SUB_ATTACK",
	CreatureSubHealth:       "SUB_HEALTH",
	CreatureSubShield:       "SUB_SHIELD",
	CreatureForcedSubHealth: "FORCED_SUB_HEALTH",
}

var creatureOpArity = [...]int{
	CreatureSetConstraint:   3,
	CreatureResetAttack:     0,
	CreatureResetHealth:     0,
	CreatureResetShield:     0,
	CreatureAddAttack:       1,
	CreatureAddHealth:       1,
	CreatureAddShield:       1,
	CreatureSubAttack:       1,
	CreatureSubHealth:       1,
	CreatureSubShield:       1,
	CreatureForcedSubHealth: 1,
}

func (op CreatureOp) String() string {
	if op < creatureOpCount {
		return creatureOpNames[op]
	}
	return fmt.Sprintf("CREATURE_OP_%d", uint32(op))
}

// Targeting modes of CreatureOneOppo.
const (
	ModeSelected uint32 = 0
	ModeRandom   uint32 = 1
)

// Effect is a decoded effect parameter list.
type Effect struct {
	Subject Subject
	// Op holds a PlayerOp or a CreatureOp depending on Subject.
	Op uint32
	// Random is set for CreatureOneOppo effects that pick their own target.
	Random   bool
	Operands []int
}

// PlayerOp returns the operation of a player effect.
func (e Effect) PlayerOp() PlayerOp {
	return PlayerOp(e.Op)
}

// CreatureOp returns the operation of a creature effect.
func (e Effect) CreatureOp() CreatureOp {
	return CreatureOp(e.Op)
}

// OpName returns a readable operation name for logs.
func (e Effect) OpName() string {
	if e.Subject.TargetsPlayer() {
		return e.PlayerOp().String()
	}
	return e.CreatureOp().String()
}

func (e Effect) String() string {
	return fmt.Sprintf("%s/%s%v", e.Subject, e.OpName(), e.Operands)
}

// Decode parses params into an Effect. Layout is subject, operation, then
// operands; CreatureOneOppo carries its targeting mode right after the
// operation.
func Decode(params cards.EffectParams) (Effect, error) {
	if len(params) < 2 {
		return Effect{}, fmt.Errorf("%d parameters: %w", len(params), ErrInvalidArguments)
	}
	e := Effect{Subject: Subject(params[0]), Op: params[1]}
	rest := params[2:]

	var arity, constraintCount int
	switch e.Subject {
	case PlayerSelf, PlayerOppo:
		op := PlayerOp(e.Op)
		if op >= playerOpCount {
			return Effect{}, fmt.Errorf("player operation %d: %w", e.Op, ErrInvalidArguments)
		}
		arity = playerOpArity[op]
		if op == PlayerSetConstraint {
			constraintCount = constraints.PlayerCount
		}
	case CreatureSelf, CreatureTeam, CreatureOneOppo, CreatureAllOppo:
		op := CreatureOp(e.Op)
		if op >= creatureOpCount {
			return Effect{}, fmt.Errorf("creature operation %d: %w", e.Op, ErrInvalidArguments)
		}
		arity = creatureOpArity[op]
		if op == CreatureSetConstraint {
			constraintCount = constraints.CreatureCount
		}
		if e.Subject == CreatureOneOppo {
			if len(rest) == 0 {
				return Effect{}, fmt.Errorf("%s without targeting mode: %w", e.Subject, ErrInvalidArguments)
			}
			switch rest[0] {
			case ModeSelected:
			case ModeRandom:
				e.Random = true
			default:
				return Effect{}, fmt.Errorf("targeting mode %d: %w", rest[0], ErrInvalidArguments)
			}
			rest = rest[1:]
		}
	default:
		return Effect{}, fmt.Errorf("subject %d: %w", params[0], ErrInvalidArguments)
	}

	if len(rest) != arity {
		return Effect{}, fmt.Errorf("%s expects %d operands, got %d: %w", e.OpName(), arity, len(rest), ErrInvalidArguments)
	}
	e.Operands = make([]int, len(rest))
	for i, v := range rest {
		e.Operands[i] = int(v)
	}
	if constraintCount > 0 && e.Operands[0] >= constraintCount {
		return Effect{}, fmt.Errorf("constraint %d: %w", e.Operands[0], ErrInvalidArguments)
	}
	return e, nil
}

// DecodeAll decodes every effect of a card. Nothing is returned unless all
// of them are valid.
func DecodeAll(list []cards.EffectParams) ([]Effect, error) {
	out := make([]Effect, 0, len(list))
	for i, params := range list {
		e, err := Decode(params)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
