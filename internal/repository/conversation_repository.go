package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// ConversationRepository reads the guest messaging store. The SLA engine
// only consumes it; conversations are written elsewhere in the platform.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.ConversationMessage, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository builds repository.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	const query = `
        SELECT id, hotel_id, guest_id, subject, booking_id, created_at, updated_at
        FROM conversations WHERE id=$1`
	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.HotelID,
		&conv.GuestID,
		&conv.Subject,
		&conv.BookingID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT id, conversation_id, sender_type, body, created_at
        FROM conversation_messages WHERE conversation_id=$1
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConversationMessage
	for rows.Next() {
		var msg domain.ConversationMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderType,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
