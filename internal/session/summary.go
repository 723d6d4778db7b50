package session

import (
	"time"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/engine"
	"github.com/wizardpoker/duel-server-go/internal/protocol"
)

// PlayerSummary is the post-match record of one player.
type PlayerSummary struct {
	Name            string
	Won             bool
	Started         bool
	TookDamage      bool
	Quit            bool
	RemainingHealth int
}

// Summary is the immutable record of a finished match handed to the
// result recorder.
type Summary struct {
	MatchID      string
	Cause        engine.EndCause
	Loser        int
	Turns        int
	Duration     time.Duration
	UnlockedCard cards.ID
	Players      [2]PlayerSummary
}

// Winner returns the seat of the winner, or engine.NoSeat.
func (s Summary) Winner() int {
	if s.Loser == engine.NoSeat {
		return engine.NoSeat
	}
	return 1 - s.Loser
}

func forfeited(cause engine.EndCause) bool {
	switch cause {
	case engine.CauseQuit, engine.CauseTimeouts, engine.CauseInvalidDeck:
		return true
	}
	return false
}

func summarize(m *engine.Match, unlocked cards.ID, ended time.Time) Summary {
	out := m.Outcome()
	s := Summary{
		MatchID:      m.ID(),
		Cause:        out.Cause,
		Loser:        out.Loser,
		Turns:        m.Turn(),
		UnlockedCard: unlocked,
	}
	if !m.StartedAt().IsZero() {
		s.Duration = ended.Sub(m.StartedAt())
	}
	for seat := range s.Players {
		p := m.Player(seat)
		s.Players[seat] = PlayerSummary{
			Name:            p.Name(),
			Won:             out.Winner == seat,
			Started:         m.Starter() == seat,
			TookDamage:      p.TookDamage(),
			Quit:            out.Loser == seat && forfeited(out.Cause),
			RemainingHealth: p.Health(),
		}
	}
	return s
}

// wireCause maps an end cause to the cause a client understands.
func wireCause(cause engine.EndCause) protocol.EndCause {
	switch cause {
	case engine.CauseOutOfHealth:
		return protocol.CauseOutOfHealth
	case engine.CauseEmptyDeck:
		return protocol.CauseTenTurnsWithEmptyDeck
	case engine.CauseQuit, engine.CauseTimeouts, engine.CauseInvalidDeck:
		return protocol.CauseQuitted
	case engine.CauseLostConnection, engine.CauseProtocolError:
		return protocol.CauseLostConnection
	default:
		return protocol.CauseEndingServer
	}
}
