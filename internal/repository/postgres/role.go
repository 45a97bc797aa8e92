package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lakshan-j/threadgate/internal/models"
)

type RoleStore struct {
	pool *pgxpool.Pool
}

func NewRoleStore(pool *pgxpool.Pool) *RoleStore {
	return &RoleStore{pool: pool}
}

// Get returns the stored role, or RoleUser when none was ever assigned.
func (s *RoleStore) Get(ctx context.Context, user uuid.UUID) (models.UserRole, error) {
	query := `SELECT role FROM roles WHERE user_id = $1`

	var role models.UserRole
	err := s.pool.QueryRow(ctx, query, user).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RoleUser, nil
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (s *RoleStore) Set(ctx context.Context, user uuid.UUID, role models.UserRole) error {
	query := `
		INSERT INTO roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`

	_, err := s.pool.Exec(ctx, query, user, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
