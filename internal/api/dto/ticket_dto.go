package dto

import (
	"time"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// TicketResponse is the wire representation of a ticket.
type TicketResponse struct {
	ID               string                `json:"id"`
	HotelID          string                `json:"hotel_id"`
	ConversationID   string                `json:"conversation_id"`
	Type             domain.TicketType     `json:"type"`
	Category         domain.TicketCategory `json:"category"`
	Department       domain.Department     `json:"department"`
	Priority         domain.TicketPriority `json:"priority"`
	Status           domain.TicketStatus   `json:"status"`
	ResponseDueAt    *time.Time            `json:"response_due_at"`
	ResolutionDueAt  *time.Time            `json:"resolution_due_at"`
	FirstResponseAt  *time.Time            `json:"first_response_at"`
	ResolvedAt       *time.Time            `json:"resolved_at"`
	EscalatedLevel   int                   `json:"escalated_level"`
	LastEscalationAt *time.Time            `json:"last_escalation_at"`
	AssigneeID       *string               `json:"assignee_staff_id"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// UpdateTicketRequest payload; absent fields are untouched.
type UpdateTicketRequest struct {
	Status     *domain.TicketStatus   `json:"status"`
	Priority   *domain.TicketPriority `json:"priority"`
	Category   *domain.TicketCategory `json:"category"`
	Department *domain.Department     `json:"department"`
	AssigneeID *string                `json:"assignee_staff_id"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	StaffID string `json:"staff_id"`
}

// AuditEntryResponse represents an audit trail record.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}
