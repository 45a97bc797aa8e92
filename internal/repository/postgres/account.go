package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lakshan-j/threadgate/internal/models"
)

type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

func (s *AccountStore) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	query := `
		INSERT INTO accounts (email, password_hash, created_at)
		VALUES ($1, $2, now())
		RETURNING id, email, password_hash, created_at`

	var acc models.Account
	err := s.pool.QueryRow(ctx, query, email, passwordHash).Scan(
		&acc.ID,
		&acc.Email,
		&acc.PasswordHash,
		&acc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation on the email index.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &acc, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = $1`

	var acc models.Account
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&acc.ID,
		&acc.Email,
		&acc.PasswordHash,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return &acc, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE id = $1`

	var acc models.Account
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Email,
		&acc.PasswordHash,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acc, nil
}
