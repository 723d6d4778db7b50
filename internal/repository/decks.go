package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// ErrDeckNotFound is returned when a player has no deck with the given name.
var ErrDeckNotFound = errors.New("deck not found")

// DeckRepository resolves the decks players select before a match.
type DeckRepository struct {
	db *DB
}

// NewDeckRepository creates a deck repository.
func NewDeckRepository(db *DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// Deck implements session.DeckSource.
func (r *DeckRepository) Deck(ctx context.Context, owner, name string) ([]cards.ID, error) {
	var list []int32
	err := r.db.pool.QueryRow(ctx, `
		SELECT d.cards
		FROM decks d
		JOIN accounts a ON a.id = d.owner_id
		WHERE a.login = $1 AND d.name = $2
	`, owner, name).Scan(&list)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", owner, name, ErrDeckNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query deck %s/%s: %w", owner, name, err)
	}
	ids := make([]cards.ID, len(list))
	for i, id := range list {
		ids[i] = cards.ID(id)
	}
	return ids, nil
}

// Save creates or replaces a deck of owner.
func (r *DeckRepository) Save(ctx context.Context, owner, name string, ids []cards.ID) error {
	list := make([]int32, len(ids))
	for i, id := range ids {
		list[i] = int32(id)
	}
	tag, err := r.db.pool.Exec(ctx, `
		INSERT INTO decks (owner_id, name, cards)
		SELECT id, $2, $3 FROM accounts WHERE login = $1
		ON CONFLICT (owner_id, name) DO UPDATE SET cards = EXCLUDED.cards
	`, owner, name, list)
	if err != nil {
		return fmt.Errorf("save deck %s/%s: %w", owner, name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save deck %s/%s: unknown owner", owner, name)
	}
	return nil
}
