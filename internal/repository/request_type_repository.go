package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/verification-service/internal/domain"
)

// RequestTypeRepository encapsulates request-type persistence.
type RequestTypeRepository interface {
	Create(ctx context.Context, requestType *domain.RequestType) error
	GetByID(ctx context.Context, id string) (*domain.RequestType, error)
	ListActive(ctx context.Context) ([]domain.RequestType, error)
}

type requestTypeRepository struct {
	pool *pgxpool.Pool
}

// NewRequestTypeRepository instantiates repository.
func NewRequestTypeRepository(pool *pgxpool.Pool) RequestTypeRepository {
	return &requestTypeRepository{pool: pool}
}

func (r *requestTypeRepository) Create(ctx context.Context, requestType *domain.RequestType) error {
	const query = `
        INSERT INTO request_types (name, description, sla_hours, completion_sla_hours,
            allow_extension, extension_hours, pricing_tiers, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		requestType.Name,
		requestType.Description,
		requestType.SLAHours,
		requestType.CompletionSLAHours,
		requestType.AllowExtension,
		requestType.ExtensionHours,
		requestType.PricingTiers,
		requestType.IsActive,
	).Scan(&requestType.ID)
}

func (r *requestTypeRepository) GetByID(ctx context.Context, id string) (*domain.RequestType, error) {
	const query = `
        SELECT id, name, description, sla_hours, completion_sla_hours,
               allow_extension, extension_hours, pricing_tiers, is_active
        FROM request_types WHERE id=$1`
	var requestType domain.RequestType
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&requestType.ID,
		&requestType.Name,
		&requestType.Description,
		&requestType.SLAHours,
		&requestType.CompletionSLAHours,
		&requestType.AllowExtension,
		&requestType.ExtensionHours,
		&requestType.PricingTiers,
		&requestType.IsActive,
	); err != nil {
		return nil, err
	}
	return &requestType, nil
}

func (r *requestTypeRepository) ListActive(ctx context.Context) ([]domain.RequestType, error) {
	const query = `
        SELECT id, name, description, sla_hours, completion_sla_hours,
               allow_extension, extension_hours, pricing_tiers, is_active
        FROM request_types WHERE is_active=TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []domain.RequestType{}
	for rows.Next() {
		var requestType domain.RequestType
		if err := rows.Scan(
			&requestType.ID,
			&requestType.Name,
			&requestType.Description,
			&requestType.SLAHours,
			&requestType.CompletionSLAHours,
			&requestType.AllowExtension,
			&requestType.ExtensionHours,
			&requestType.PricingTiers,
			&requestType.IsActive,
		); err != nil {
			return nil, err
		}
		types = append(types, requestType)
	}
	return types, rows.Err()
}
