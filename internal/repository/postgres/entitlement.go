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

type EntitlementStore struct {
	pool *pgxpool.Pool
}

func NewEntitlementStore(pool *pgxpool.Pool) *EntitlementStore {
	return &EntitlementStore{pool: pool}
}

func (s *EntitlementStore) Get(ctx context.Context, user uuid.UUID) (*models.AccessEntitlement, error) {
	query := `
		SELECT user_id, entitlement_type, source, status,
		       request_timestamp, start_time, end_time
		FROM entitlements
		WHERE user_id = $1`

	var ent models.AccessEntitlement
	err := s.pool.QueryRow(ctx, query, user).Scan(
		&ent.User,
		&ent.EntitlementType,
		&ent.Source,
		&ent.Status,
		&ent.RequestTimestamp,
		&ent.StartTime,
		&ent.EndTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entitlement: %w", err)
	}
	return &ent, nil
}

func (s *EntitlementStore) GetAll(ctx context.Context) ([]models.AccessEntitlement, error) {
	query := `
		SELECT user_id, entitlement_type, source, status,
		       request_timestamp, start_time, end_time
		FROM entitlements
		ORDER BY request_timestamp DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	defer rows.Close()

	ents := make([]models.AccessEntitlement, 0)
	for rows.Next() {
		var ent models.AccessEntitlement
		if err := rows.Scan(
			&ent.User,
			&ent.EntitlementType,
			&ent.Source,
			&ent.Status,
			&ent.RequestTimestamp,
			&ent.StartTime,
			&ent.EndTime,
		); err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		ents = append(ents, ent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entitlements: %w", err)
	}
	return ents, nil
}

// Upsert replaces the single record for ent.User. The ON CONFLICT upsert
// is a single statement, so concurrent requests for the same user can
// never leave two rows behind.
func (s *EntitlementStore) Upsert(ctx context.Context, ent models.AccessEntitlement) error {
	query := `
		INSERT INTO entitlements
			(user_id, entitlement_type, source, status,
			 request_timestamp, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			entitlement_type  = EXCLUDED.entitlement_type,
			source            = EXCLUDED.source,
			status            = EXCLUDED.status,
			request_timestamp = EXCLUDED.request_timestamp,
			start_time        = EXCLUDED.start_time,
			end_time          = EXCLUDED.end_time`

	_, err := s.pool.Exec(ctx, query,
		ent.User,
		ent.EntitlementType,
		ent.Source,
		ent.Status,
		ent.RequestTimestamp,
		ent.StartTime,
		ent.EndTime,
	)
	if err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	return nil
}
