package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/verification-service/internal/domain"
)

// OccurrenceRepository encapsulates recurring-occurrence persistence.
// Occurrences are inserted in bulk when a schedule is generated and only
// transition status afterwards; they are never deleted.
type OccurrenceRepository interface {
	BulkCreate(ctx context.Context, occurrences []domain.Occurrence) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.Occurrence, error)
	GetByNumber(ctx context.Context, requestID string, number int) (*domain.Occurrence, error)
	Update(ctx context.Context, occurrence *domain.Occurrence) error
}

type occurrenceRepository struct {
	pool *pgxpool.Pool
}

// NewOccurrenceRepository instantiates repository.
func NewOccurrenceRepository(pool *pgxpool.Pool) OccurrenceRepository {
	return &occurrenceRepository{pool: pool}
}

func (r *occurrenceRepository) BulkCreate(ctx context.Context, occurrences []domain.Occurrence) error {
	const query = `
        INSERT INTO occurrences (request_id, occurrence_number, scheduled_date, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	for i := range occurrences {
		occ := &occurrences[i]
		if err := r.pool.QueryRow(ctx, query,
			occ.RequestID,
			occ.Number,
			occ.ScheduledDate,
			occ.Status,
		).Scan(&occ.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *occurrenceRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Occurrence, error) {
	const query = `
        SELECT id, request_id, occurrence_number, scheduled_date, status, agent_id, completed_at, deliverable_ref
        FROM occurrences WHERE request_id=$1 ORDER BY occurrence_number ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occurrences := []domain.Occurrence{}
	for rows.Next() {
		var occ domain.Occurrence
		if err := rows.Scan(
			&occ.ID,
			&occ.RequestID,
			&occ.Number,
			&occ.ScheduledDate,
			&occ.Status,
			&occ.AgentID,
			&occ.CompletedAt,
			&occ.DeliverableRef,
		); err != nil {
			return nil, err
		}
		occurrences = append(occurrences, occ)
	}
	return occurrences, rows.Err()
}

func (r *occurrenceRepository) GetByNumber(ctx context.Context, requestID string, number int) (*domain.Occurrence, error) {
	const query = `
        SELECT id, request_id, occurrence_number, scheduled_date, status, agent_id, completed_at, deliverable_ref
        FROM occurrences WHERE request_id=$1 AND occurrence_number=$2`
	var occ domain.Occurrence
	if err := r.pool.QueryRow(ctx, query, requestID, number).Scan(
		&occ.ID,
		&occ.RequestID,
		&occ.Number,
		&occ.ScheduledDate,
		&occ.Status,
		&occ.AgentID,
		&occ.CompletedAt,
		&occ.DeliverableRef,
	); err != nil {
		return nil, err
	}
	return &occ, nil
}

func (r *occurrenceRepository) Update(ctx context.Context, occurrence *domain.Occurrence) error {
	const query = `
        UPDATE occurrences SET status=$1, agent_id=$2, completed_at=$3, deliverable_ref=$4
        WHERE id=$5`
	_, err := r.pool.Exec(ctx, query,
		occurrence.Status,
		occurrence.AgentID,
		occurrence.CompletedAt,
		occurrence.DeliverableRef,
		occurrence.ID,
	)
	return err
}
