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

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Append lets bigserial assign the id. The global sequence is increasing,
// which keeps ids monotonic within every thread.
func (s *MessageStore) Append(ctx context.Context, threadID int64, sender uuid.UUID, content string, timestamp int64) (*models.Message, error) {
	query := `
		INSERT INTO messages (thread_id, sender_id, content, sent_at, deleted)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, thread_id, sender_id, content, sent_at, deleted`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, threadID, sender, content, timestamp).Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.Sender,
		&msg.Content,
		&msg.Timestamp,
		&msg.Deleted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

func (s *MessageStore) Get(ctx context.Context, threadID, messageID int64) (*models.Message, error) {
	query := `
		SELECT id, thread_id, sender_id, content, sent_at, deleted
		FROM messages
		WHERE thread_id = $1 AND id = $2`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, threadID, messageID).Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.Sender,
		&msg.Content,
		&msg.Timestamp,
		&msg.Deleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

// UpdateContent only touches live messages; a deleted row is left alone so
// a racing delete always wins over an edit.
func (s *MessageStore) UpdateContent(ctx context.Context, threadID, messageID int64, content string) error {
	query := `
		UPDATE messages
		SET content = $3
		WHERE thread_id = $1 AND id = $2 AND deleted = false`

	tag, err := s.pool.Exec(ctx, query, threadID, messageID, content)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

func (s *MessageStore) MarkDeleted(ctx context.Context, threadID, messageID int64) error {
	query := `
		UPDATE messages
		SET deleted = true, content = ''
		WHERE thread_id = $1 AND id = $2`

	tag, err := s.pool.Exec(ctx, query, threadID, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MessageStore) ListByThread(ctx context.Context, threadID int64) ([]models.Message, error) {
	query := `
		SELECT id, thread_id, sender_id, content, sent_at, deleted
		FROM messages
		WHERE thread_id = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ThreadID,
			&msg.Sender,
			&msg.Content,
			&msg.Timestamp,
			&msg.Deleted,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
