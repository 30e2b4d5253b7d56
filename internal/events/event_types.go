package events

import (
	"time"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketUpdated         EventType = "ticket_updated"
	EventFirstResponseRecorded EventType = "first_response_recorded"
	EventSLABreach             EventType = "sla_breach"
	EventTicketEscalated       EventType = "ticket_escalated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	HotelID   string      `json:"hotel_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ConversationID string                `json:"conversation_id"`
	Type           domain.TicketType     `json:"type"`
	Category       domain.TicketCategory `json:"category"`
	Department     domain.Department     `json:"department"`
	Priority       domain.TicketPriority `json:"priority"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Changes map[string]any `json:"changes"`
}

// FirstResponsePayload payload.
type FirstResponsePayload struct {
	RespondedAt time.Time `json:"responded_at"`
	WithinSLA   bool      `json:"within_sla"`
}

// SLABreachPayload payload.
type SLABreachPayload struct {
	ConversationID string                `json:"conversation_id"`
	Kind           string                `json:"kind"`
	Category       domain.TicketCategory `json:"category"`
	DelayMinutes   int                   `json:"delay_minutes"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	ConversationID string                `json:"conversation_id"`
	Level          int                   `json:"level"`
	Category       domain.TicketCategory `json:"category"`
	NotifyRoles    []string              `json:"notify_roles"`
}
