package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/game/engine"
	"github.com/wizardpoker/duel-server-go/internal/session"
)

// ResultRepository stores finished matches and updates the players'
// counters.
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a result repository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Record implements session.ResultRecorder. Matches without a loser only
// leave a result row.
func (r *ResultRepository) Record(ctx context.Context, s session.Summary) error {
	var winner, loser *string
	var unlocked *int32
	if s.Loser != engine.NoSeat {
		winner = &s.Players[s.Winner()].Name
		loser = &s.Players[s.Loser].Name
		if s.UnlockedCard != 0 {
			id := int32(s.UnlockedCard)
			unlocked = &id
		}
	}

	err := pgx.BeginFunc(ctx, r.db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO match_results (id, cause, winner, loser, turns, duration_ms, unlocked_card)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.MatchID, s.Cause.String(), winner, loser, s.Turns, s.Duration.Milliseconds(), unlocked); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		if s.Loser == engine.NoSeat {
			return nil
		}

		for _, p := range s.Players {
			if _, err := tx.Exec(ctx, `
				UPDATE accounts
				SET victories = victories + $2, defeats = defeats + $3, giving_up = giving_up + $4
				WHERE login = $1
			`, p.Name, boolInt(p.Won), boolInt(!p.Won), boolInt(p.Quit)); err != nil {
				return fmt.Errorf("update account %s: %w", p.Name, err)
			}
		}

		if unlocked != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO given_cards (owner_id, card_id)
				SELECT id, $2 FROM accounts WHERE login = $1
				ON CONFLICT DO NOTHING
			`, *winner, *unlocked); err != nil {
				return fmt.Errorf("give card: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record match %s: %w", s.MatchID, err)
	}

	r.db.logger.Debug("match result recorded", zap.String("match_id", s.MatchID), zap.String("cause", s.Cause.String()))
	return nil
}
