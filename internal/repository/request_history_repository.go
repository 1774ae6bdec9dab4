package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/verification-service/internal/domain"
)

// RequestHistoryRepository encapsulates audit-record persistence.
type RequestHistoryRepository interface {
	Create(ctx context.Context, entry *domain.RequestHistory) error
	ListByRequest(ctx context.Context, requestID string, limit, offset int) ([]domain.RequestHistory, error)
}

type requestHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewRequestHistoryRepository instantiates repository.
func NewRequestHistoryRepository(pool *pgxpool.Pool) RequestHistoryRepository {
	return &requestHistoryRepository{pool: pool}
}

func (r *requestHistoryRepository) Create(ctx context.Context, entry *domain.RequestHistory) error {
	const query = `
        INSERT INTO request_history (request_id, changed_by_type, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.RequestID,
		entry.ChangedByType,
		entry.ChangedByID,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *requestHistoryRepository) ListByRequest(ctx context.Context, requestID string, limit, offset int) ([]domain.RequestHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, request_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM request_history WHERE request_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, requestID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.RequestHistory{}
	for rows.Next() {
		var entry domain.RequestHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.ChangedByType,
			&entry.ChangedByID,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
