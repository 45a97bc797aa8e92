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

type ThreadStore struct {
	pool *pgxpool.Pool
}

func NewThreadStore(pool *pgxpool.Pool) *ThreadStore {
	return &ThreadStore{pool: pool}
}

// Create inserts the thread row and its participant rows in one
// transaction, so a thread can never exist with a partial participant set.
func (s *ThreadStore) Create(ctx context.Context, participants []uuid.UUID, createdAt int64) (*models.Thread, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO threads (created_at) VALUES ($1) RETURNING id`,
		createdAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}

	for pos, p := range participants {
		_, err = tx.Exec(ctx,
			`INSERT INTO thread_participants (thread_id, user_id, position)
			 VALUES ($1, $2, $3)`,
			id, p, pos,
		)
		if err != nil {
			return nil, fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit thread: %w", err)
	}

	return &models.Thread{
		ID:           id,
		Participants: append([]uuid.UUID(nil), participants...),
		CreatedAt:    createdAt,
	}, nil
}

func (s *ThreadStore) Get(ctx context.Context, id int64) (*models.Thread, error) {
	var thread models.Thread
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at FROM threads WHERE id = $1`, id,
	).Scan(&thread.ID, &thread.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get thread: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM thread_participants
		 WHERE thread_id = $1
		 ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p uuid.UUID
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		thread.Participants = append(thread.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return &thread, nil
}

func (s *ThreadStore) ListByUser(ctx context.Context, user uuid.UUID) ([]int64, error) {
	query := `
		SELECT thread_id FROM thread_participants
		WHERE user_id = $1
		ORDER BY thread_id DESC`

	rows, err := s.pool.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan thread id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread ids: %w", err)
	}
	return ids, nil
}

func (s *ThreadStore) IsParticipant(ctx context.Context, id int64, user uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM thread_participants
			WHERE thread_id = $1 AND user_id = $2
		)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, id, user).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

// Delete removes the thread row; participants and messages go with it via
// ON DELETE CASCADE. Deleting an unknown id deletes zero rows.
func (s *ThreadStore) Delete(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}
