package dto

import (
	"time"

	"github.com/spec-kit/hotel-ops/internal/domain"
)

// CreatePolicyRequest payload.
type CreatePolicyRequest struct {
	Category          domain.TicketCategory   `json:"category"`
	Department        domain.Department       `json:"department"`
	ResponseMinutes   int                     `json:"response_minutes"`
	ResolutionMinutes int                     `json:"resolution_minutes"`
	EscalationSteps   []domain.EscalationStep `json:"escalation_steps"`
}

// PolicyResponse is the wire representation of an SLA policy.
type PolicyResponse struct {
	ID                string                  `json:"id"`
	HotelID           string                  `json:"hotel_id"`
	Category          domain.TicketCategory   `json:"category"`
	Department        domain.Department       `json:"department"`
	ResponseMinutes   int                     `json:"response_minutes"`
	ResolutionMinutes int                     `json:"resolution_minutes"`
	EscalationSteps   []domain.EscalationStep `json:"escalation_steps"`
	Active            bool                    `json:"active"`
	CreatedAt         time.Time               `json:"created_at"`
}
