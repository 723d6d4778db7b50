package effects

import (
	"fmt"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// Selection names the zone a client must pick a card from.
type Selection uint32

const (
	SelectSelfBoard Selection = iota
	SelectOppoBoard
	SelectSelfHand
)

func (s Selection) String() string {
	switch s {
	case SelectSelfBoard:
		return "SELF_BOARD"
	case SelectOppoBoard:
		return "OPPO_BOARD"
	case SelectSelfHand:
		return "SELF_HAND"
	default:
		return fmt.Sprintf("SELECTION_%d", uint32(s))
	}
}

// Selection reports whether the effect needs a client-chosen target when
// it is carried by a card of the given kind.
//
// A creature's CreatureSelf effects target the creature itself; a spell has
// no body, so its caster picks one of their own creatures instead.
func (e Effect) Selection(kind cards.Kind) (Selection, bool) {
	switch e.Subject {
	case CreatureSelf:
		if kind == cards.KindSpell {
			return SelectSelfBoard, true
		}
	case CreatureOneOppo:
		if !e.Random {
			return SelectOppoBoard, true
		}
	case PlayerSelf:
		if e.PlayerOp() == PlayerExchangeHandCard {
			return SelectSelfHand, true
		}
	}
	return 0, false
}

// Requirements lists, in effect order, the selections a card needs.
func Requirements(kind cards.Kind, list []Effect) []Selection {
	var out []Selection
	for _, e := range list {
		if s, ok := e.Selection(kind); ok {
			out = append(out, s)
		}
	}
	return out
}
