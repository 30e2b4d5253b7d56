package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// TicketFilter captures listing parameters for the hotel ticket board.
type TicketFilter struct {
	HotelID     string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Departments []domain.Department
	Categories  []domain.TicketCategory
	AssigneeID  *string
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByConversation(ctx context.Context, conversationID string) (*domain.Ticket, error)
	ListUnanswered(ctx context.Context) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Ticket creation treats it as "the conversation already has a
// ticket" rather than as a failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, hotel_id, conversation_id, ticket_type, category, department, priority, status,
       response_due_at, resolution_due_at, first_response_at, resolved_at,
       escalated_level, last_escalation_at, assignee_staff_id, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (hotel_id, conversation_id, ticket_type, category, department, priority, status,
            response_due_at, resolution_due_at, escalated_level, assignee_staff_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.HotelID,
		ticket.ConversationID,
		ticket.Type,
		ticket.Category,
		ticket.Department,
		ticket.Priority,
		ticket.Status,
		ticket.ResponseDueAt,
		ticket.ResolutionDueAt,
		ticket.EscalatedLevel,
		ticket.AssigneeID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category=$1, department=$2, priority=$3, status=$4,
            first_response_at=$5, resolved_at=$6, escalated_level=$7, last_escalation_at=$8,
            assignee_staff_id=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Category,
		ticket.Department,
		ticket.Priority,
		ticket.Status,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.EscalatedLevel,
		ticket.LastEscalationAt,
		ticket.AssigneeID,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByConversation(ctx context.Context, conversationID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE conversation_id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, conversationID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListUnanswered returns open or pending tickets with no first response
// recorded, the selection set for the escalation sweep.
func (r *ticketRepository) ListUnanswered(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status IN ($1,$2) AND first_response_at IS NULL
        ORDER BY created_at ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusOpen, domain.TicketStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{}
	args := []any{}

	args = append(args, filter.HotelID)
	clauses = append(clauses, fmt.Sprintf("hotel_id=$%d", len(args)))

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Departments) > 0 {
		placeholders := make([]string, len(filter.Departments))
		for i, dept := range filter.Departments {
			args = append(args, dept)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("department IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_staff_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT %s FROM tickets WHERE %s
        ORDER BY CASE priority
            WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1
        END DESC, created_at DESC
        LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.HotelID,
		&ticket.ConversationID,
		&ticket.Type,
		&ticket.Category,
		&ticket.Department,
		&ticket.Priority,
		&ticket.Status,
		&ticket.ResponseDueAt,
		&ticket.ResolutionDueAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.EscalatedLevel,
		&ticket.LastEscalationAt,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
