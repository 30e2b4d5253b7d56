package domain

import "time"

// EscalationStep binds an escalation level to the roles notified when a
// ticket reaches it.
type EscalationStep struct {
	Level       int      `json:"level"`
	NotifyRoles []string `json:"notify_roles"`
}

// SLAPolicy overrides default response/resolution budgets per hotel and
// category. Several rows may exist per (hotel, category); only the first
// active one is authoritative.
type SLAPolicy struct {
	ID                string
	HotelID           string
	Category          TicketCategory
	Department        Department
	ResponseMinutes   int
	ResolutionMinutes int
	EscalationSteps   []EscalationStep
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StepForLevel returns the escalation step matching the given level, or nil
// when the policy defines none.
func (p *SLAPolicy) StepForLevel(level int) *EscalationStep {
	if p == nil {
		return nil
	}
	for i := range p.EscalationSteps {
		if p.EscalationSteps[i].Level == level {
			return &p.EscalationSteps[i]
		}
	}
	return nil
}
