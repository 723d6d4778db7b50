package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// CardRepository reads the card catalog.
type CardRepository struct {
	db *DB
}

// NewCardRepository creates a card repository.
func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

type cardRow struct {
	ID          int32
	Name        string
	Kind        string
	Cost        int32
	Attack      int32
	Health      int32
	Shield      int32
	ShieldType  int32
	Description string
}

func parseKind(s string) (cards.Kind, error) {
	switch s {
	case "creature":
		return cards.KindCreature, nil
	case "spell":
		return cards.KindSpell, nil
	}
	return 0, fmt.Errorf("card kind %q: %w", s, cards.ErrInvalidPrototype)
}

func (r cardRow) prototype(effects [][]int32) (cards.Prototype, error) {
	kind, err := parseKind(r.Kind)
	if err != nil {
		return cards.Prototype{}, err
	}
	p := cards.Prototype{
		ID:          cards.ID(r.ID),
		Name:        r.Name,
		Kind:        kind,
		Cost:        int(r.Cost),
		Attack:      int(r.Attack),
		Health:      int(r.Health),
		Shield:      int(r.Shield),
		ShieldType:  cards.ShieldType(r.ShieldType),
		Description: r.Description,
	}
	for _, params := range effects {
		e := make(cards.EffectParams, len(params))
		for i, v := range params {
			if v < 0 {
				return cards.Prototype{}, fmt.Errorf("card %d: negative effect parameter: %w", r.ID, cards.ErrInvalidPrototype)
			}
			e[i] = uint32(v)
		}
		p.Effects = append(p.Effects, e)
	}
	return p, nil
}

// LoadCatalog reads every card with its effects and builds the immutable
// catalog shared by all matches.
func (r *CardRepository) LoadCatalog(ctx context.Context) (*cards.Collection, error) {
	effects, err := r.loadEffects(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, kind, cost, attack, health, shield, shield_type, description
		FROM cards
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cards.Prototype, error) {
		var c cardRow
		if err := row.Scan(&c.ID, &c.Name, &c.Kind, &c.Cost, &c.Attack, &c.Health, &c.Shield, &c.ShieldType, &c.Description); err != nil {
			return cards.Prototype{}, err
		}
		return c.prototype(effects[c.ID])
	})
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}

	r.db.logger.Info("card catalog loaded", zap.Int("cards", len(list)))
	return cards.NewCollection(list)
}

func (r *CardRepository) loadEffects(ctx context.Context) (map[int32][][]int32, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT card_id, params
		FROM card_effects
		ORDER BY card_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query card effects: %w", err)
	}
	defer rows.Close()

	out := make(map[int32][][]int32)
	for rows.Next() {
		var id int32
		var params []int32
		if err := rows.Scan(&id, &params); err != nil {
			return nil, fmt.Errorf("scan card effect: %w", err)
		}
		out[id] = append(out[id], params)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read card effects: %w", err)
	}
	return out, nil
}
