package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// AuditRepository is the append-only sink for audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
	ListByEntity(ctx context.Context, entity, entityID string, limit, offset int) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_log (actor, action, entity, entity_id, detail)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.Actor,
		entry.Action,
		entry.Entity,
		entry.EntityID,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByEntity(ctx context.Context, entity, entityID string, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, actor, action, entity, entity_id, detail, created_at
        FROM audit_log WHERE entity=$1 AND entity_id=$2
        ORDER BY created_at ASC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, entity, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Action,
			&entry.Entity,
			&entry.EntityID,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
