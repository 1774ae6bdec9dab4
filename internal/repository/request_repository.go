package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/verification-service/internal/domain"
)

// ErrVersionConflict signals that a concurrent writer bumped the request
// version first; the caller must reload and retry the action.
var ErrVersionConflict = errors.New("request version conflict")

// RequestFilter captures request search parameters.
type RequestFilter struct {
	CustomerID    *string
	AgentID       *string
	RequestTypeID *string
	Statuses      []domain.RequestStatus
	IsRecurring   *bool
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	Update(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Request, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	ListByStatuses(ctx context.Context, statuses []domain.RequestStatus, limit int) ([]domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, external_key, customer_id, request_type_id, agent_id, status, tier, price,
               is_urgent, is_recurring, scheduled_at, find_agent_deadline, completion_deadline,
               metadata, version, created_at, updated_at, closed_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (external_key, customer_id, request_type_id, agent_id, status, tier, price,
            is_urgent, is_recurring, scheduled_at, find_agent_deadline, completion_deadline, metadata, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.ExternalKey,
		request.CustomerID,
		request.RequestTypeID,
		request.AgentID,
		request.Status,
		request.Tier,
		request.Price,
		request.IsUrgent,
		request.IsRecurring,
		request.ScheduledAt,
		request.FindAgentDeadline,
		request.CompletionDeadline,
		request.Metadata,
	).Scan(&request.ID, &request.Version, &request.CreatedAt, &request.UpdatedAt)
}

// Update persists the request guarded by its version stamp: the row is
// only written when the stored version matches, enforcing at most one
// in-flight transition per request.
func (r *requestRepository) Update(ctx context.Context, request *domain.Request) error {
	const query = `
        UPDATE requests SET agent_id=$1, status=$2, tier=$3, price=$4, scheduled_at=$5,
            find_agent_deadline=$6, completion_deadline=$7, metadata=$8, closed_at=$9,
            version=version+1, updated_at=NOW()
        WHERE id=$10 AND version=$11`
	cmd, err := r.pool.Exec(ctx, query,
		request.AgentID,
		request.Status,
		request.Tier,
		request.Price,
		request.ScheduledAt,
		request.FindAgentDeadline,
		request.CompletionDeadline,
		request.Metadata,
		request.ClosedAt,
		request.ID,
		request.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	request.Version++
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id=$1`, requestColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *requestRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE external_key=$1`, requestColumns)
	return r.fetchSingle(ctx, query, key)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Request, error) {
	var request domain.Request
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&request.ID,
		&request.ExternalKey,
		&request.CustomerID,
		&request.RequestTypeID,
		&request.AgentID,
		&request.Status,
		&request.Tier,
		&request.Price,
		&request.IsUrgent,
		&request.IsRecurring,
		&request.ScheduledAt,
		&request.FindAgentDeadline,
		&request.CompletionDeadline,
		&request.Metadata,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	base := fmt.Sprintf(`SELECT %s FROM requests`, requestColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if filter.RequestTypeID != nil {
		args = append(args, *filter.RequestTypeID)
		clauses = append(clauses, fmt.Sprintf("request_type_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.IsRecurring != nil {
		args = append(args, *filter.IsRecurring)
		clauses = append(clauses, fmt.Sprintf("is_recurring=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// ListByStatuses returns requests in any of the given statuses, oldest
// first, for the overdue scan.
func (r *requestRepository) ListByStatuses(ctx context.Context, statuses []domain.RequestStatus, limit int) ([]domain.Request, error) {
	if len(statuses) == 0 {
		return []domain.Request{}, nil
	}
	if limit <= 0 {
		limit = 200
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE status IN (%s) ORDER BY created_at ASC LIMIT %d`,
		requestColumns, strings.Join(placeholders, ","), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]domain.Request, error) {
	requests := []domain.Request{}
	for rows.Next() {
		var request domain.Request
		if err := rows.Scan(
			&request.ID,
			&request.ExternalKey,
			&request.CustomerID,
			&request.RequestTypeID,
			&request.AgentID,
			&request.Status,
			&request.Tier,
			&request.Price,
			&request.IsUrgent,
			&request.IsRecurring,
			&request.ScheduledAt,
			&request.FindAgentDeadline,
			&request.CompletionDeadline,
			&request.Metadata,
			&request.Version,
			&request.CreatedAt,
			&request.UpdatedAt,
			&request.ClosedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}
