package engine

import (
	"errors"

	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
	"github.com/wizardpoker/duel-server-go/internal/game/effects"
)

// Action rejections. They are reported to the acting client; the match goes on.
var (
	ErrNotYourTurn            = errors.New("not your turn")
	ErrNotEnoughEnergy        = errors.New("not enough energy")
	ErrCardLimitReached       = errors.New("card limit reached for this turn")
	ErrInvalidEffectArguments = effects.ErrInvalidArguments
	ErrInvalidIndex           = errors.New("invalid index")
	ErrNoValidTarget          = errors.New("no card to select")
	ErrCreatureParalyzed      = errors.New("creature is paralyzed")
	ErrAlreadyAttacked        = errors.New("creature already attacked this turn")
	ErrInvalidSelection       = errors.New("invalid selection")
	ErrInvalidDeck            = errors.New("invalid deck")
	ErrMatchNotRunning        = errors.New("match is not running")
)

// ErrOutOfRange marks a broken invariant. It is fatal to the match.
var ErrOutOfRange = constraints.ErrOutOfRange

var rejections = []error{
	ErrNotYourTurn,
	ErrNotEnoughEnergy,
	ErrCardLimitReached,
	ErrInvalidEffectArguments,
	ErrInvalidIndex,
	ErrNoValidTarget,
	ErrCreatureParalyzed,
	ErrAlreadyAttacked,
	ErrInvalidSelection,
	ErrInvalidDeck,
	ErrMatchNotRunning,
}

// IsActionRejected reports whether err is a recoverable action rejection.
func IsActionRejected(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
