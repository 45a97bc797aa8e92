package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockStore struct {
	pool *pgxpool.Pool
}

func NewBlockStore(pool *pgxpool.Pool) *BlockStore {
	return &BlockStore{pool: pool}
}

func (s *BlockStore) Add(ctx context.Context, blocker, blocked uuid.UUID) error {
	// ON CONFLICT DO NOTHING keeps repeated blocks idempotent instead of
	// tripping the primary key.
	query := `
		INSERT INTO blocks (blocker_id, blocked_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, blocker, blocked)
	if err != nil {
		return fmt.Errorf("add block: %w", err)
	}
	return nil
}

func (s *BlockStore) Remove(ctx context.Context, blocker, blocked uuid.UUID) error {
	query := `
		DELETE FROM blocks
		WHERE blocker_id = $1 AND blocked_id = $2`

	_, err := s.pool.Exec(ctx, query, blocker, blocked)
	if err != nil {
		return fmt.Errorf("remove block: %w", err)
	}
	return nil
}

func (s *BlockStore) Has(ctx context.Context, blocker, blocked uuid.UUID) (bool, error) {
	// Hot path: checked for every counterparty on every send.
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blocks
			WHERE blocker_id = $1 AND blocked_id = $2
		)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, blocker, blocked).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return exists, nil
}

func (s *BlockStore) List(ctx context.Context, blocker uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT blocked_id FROM blocks
		WHERE blocker_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, blocker)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	blocked := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocked = append(blocked, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocked, nil
}
