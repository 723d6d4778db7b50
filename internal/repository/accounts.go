package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wizardpoker/duel-server-go/internal/auth"
	"github.com/wizardpoker/duel-server-go/internal/lobby"
)

// ErrAccountExists is returned when creating an account whose login is taken.
var ErrAccountExists = errors.New("account already exists")

const uniqueViolation = "23505"

// AccountRepository checks player credentials.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates an account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Authenticate implements lobby.Authenticator. Unknown logins and bad
// passwords both yield lobby.ErrWrongIdentifiers.
func (r *AccountRepository) Authenticate(ctx context.Context, name, password string) error {
	var hash string
	err := r.db.pool.QueryRow(ctx, `SELECT password_hash FROM accounts WHERE login = $1`, name).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return lobby.ErrWrongIdentifiers
	}
	if err != nil {
		return fmt.Errorf("query account %s: %w", name, err)
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return lobby.ErrWrongIdentifiers
		}
		return err
	}
	return nil
}

// Create registers a new account and returns its id.
func (r *AccountRepository) Create(ctx context.Context, name, password string) (int64, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.pool.QueryRow(ctx,
		`INSERT INTO accounts (login, password_hash) VALUES ($1, $2) RETURNING id`,
		name, hash,
	).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return 0, fmt.Errorf("%s: %w", name, ErrAccountExists)
	}
	if err != nil {
		return 0, fmt.Errorf("insert account %s: %w", name, err)
	}
	return id, nil
}
