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

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) Create(ctx context.Context, profile models.UserProfile) error {
	query := `
		INSERT INTO profiles (principal, display_name, registered_at)
		VALUES ($1, $2, now())`

	_, err := s.pool.Exec(ctx, query, profile.Principal, nullIfEmpty(profile.DisplayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) Get(ctx context.Context, principal uuid.UUID) (*models.UserProfile, error) {
	query := `
		SELECT principal, COALESCE(display_name, '')
		FROM profiles
		WHERE principal = $1`

	var p models.UserProfile
	err := s.pool.QueryRow(ctx, query, principal).Scan(&p.Principal, &p.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *ProfileStore) Save(ctx context.Context, profile models.UserProfile) error {
	query := `
		UPDATE profiles
		SET display_name = $2
		WHERE principal = $1`

	tag, err := s.pool.Exec(ctx, query, profile.Principal, nullIfEmpty(profile.DisplayName))
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *ProfileStore) List(ctx context.Context) ([]models.UserProfile, error) {
	query := `
		SELECT principal, COALESCE(display_name, '')
		FROM profiles
		ORDER BY registered_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.UserProfile, 0)
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.Principal, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
