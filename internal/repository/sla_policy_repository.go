package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// SLAPolicyRepository stores per-hotel SLA overrides.
type SLAPolicyRepository interface {
	Create(ctx context.Context, policy *domain.SLAPolicy) error
	Deactivate(ctx context.Context, id string) error
	FindActive(ctx context.Context, hotelID string, category domain.TicketCategory) (*domain.SLAPolicy, error)
	FindActiveByCategoryDepartment(ctx context.Context, category domain.TicketCategory, department domain.Department) (*domain.SLAPolicy, error)
	ListByHotel(ctx context.Context, hotelID string, limit, offset int) ([]domain.SLAPolicy, error)
}

type slaPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewSLAPolicyRepository builds repository.
func NewSLAPolicyRepository(pool *pgxpool.Pool) SLAPolicyRepository {
	return &slaPolicyRepository{pool: pool}
}

const policyColumns = `id, hotel_id, category, department, response_minutes, resolution_minutes,
       escalation_steps, active, created_at, updated_at`

func (r *slaPolicyRepository) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	steps, err := json.Marshal(policy.EscalationSteps)
	if err != nil {
		return fmt.Errorf("encode escalation steps: %w", err)
	}
	const query = `
        INSERT INTO sla_policies (hotel_id, category, department, response_minutes, resolution_minutes, escalation_steps, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		policy.HotelID,
		policy.Category,
		policy.Department,
		policy.ResponseMinutes,
		policy.ResolutionMinutes,
		steps,
		policy.Active,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

func (r *slaPolicyRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE sla_policies SET active=FALSE, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FindActive returns the first active policy for (hotel, category). Callers
// treat pgx.ErrNoRows as the default-SLA path, not as a failure.
func (r *slaPolicyRepository) FindActive(ctx context.Context, hotelID string, category domain.TicketCategory) (*domain.SLAPolicy, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM sla_policies
        WHERE hotel_id=$1 AND category=$2 AND active=TRUE
        ORDER BY created_at ASC LIMIT 1`, policyColumns)
	return r.fetchSingle(ctx, query, hotelID, category)
}

func (r *slaPolicyRepository) FindActiveByCategoryDepartment(ctx context.Context, category domain.TicketCategory, department domain.Department) (*domain.SLAPolicy, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM sla_policies
        WHERE category=$1 AND department=$2 AND active=TRUE
        ORDER BY created_at ASC LIMIT 1`, policyColumns)
	return r.fetchSingle(ctx, query, category, department)
}

func (r *slaPolicyRepository) ListByHotel(ctx context.Context, hotelID string, limit, offset int) ([]domain.SLAPolicy, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT %s FROM sla_policies WHERE hotel_id=$1
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, policyColumns, limit, offset)
	rows, err := r.pool.Query(ctx, query, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var policy domain.SLAPolicy
		if err := scanPolicy(rows, &policy); err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	return result, rows.Err()
}

func (r *slaPolicyRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.SLAPolicy, error) {
	var policy domain.SLAPolicy
	if err := scanPolicy(r.pool.QueryRow(ctx, query, args...), &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func scanPolicy(row rowScanner, policy *domain.SLAPolicy) error {
	var steps []byte
	if err := row.Scan(
		&policy.ID,
		&policy.HotelID,
		&policy.Category,
		&policy.Department,
		&policy.ResponseMinutes,
		&policy.ResolutionMinutes,
		&steps,
		&policy.Active,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return err
	}
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &policy.EscalationSteps); err != nil {
			return fmt.Errorf("decode escalation steps: %w", err)
		}
	}
	return nil
}
