package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusBreached   TicketStatus = "BREACHED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketType distinguishes general inquiries from booking-linked tickets.
type TicketType string

const (
	TicketTypeGeneralInquiry TicketType = "GENERAL_INQUIRY"
	TicketTypeBookingRelated TicketType = "BOOKING_RELATED"
)

// TicketCategory is the classification outcome for a guest conversation.
type TicketCategory string

const (
	CategoryComplaint    TicketCategory = "COMPLAINT"
	CategoryBilling      TicketCategory = "BILLING"
	CategoryHousekeeping TicketCategory = "HOUSEKEEPING"
	CategoryMaintenance  TicketCategory = "MAINTENANCE"
	CategoryBooking      TicketCategory = "BOOKING"
	CategoryOther        TicketCategory = "OTHER"
)

// Department identifies the hotel unit responsible for a ticket.
type Department string

const (
	DepartmentFrontDesk    Department = "FRONT_DESK"
	DepartmentManagement   Department = "MANAGEMENT"
	DepartmentFinance      Department = "FINANCE"
	DepartmentHousekeeping Department = "HOUSEKEEPING"
	DepartmentMaintenance  Department = "MAINTENANCE"
)

// Ticket is the aggregate for guest support requests. A conversation has at
// most one ticket; EscalatedLevel only ever moves up, and only via the
// escalation sweep.
type Ticket struct {
	ID               string
	HotelID          string
	ConversationID   string
	Type             TicketType
	Category         TicketCategory
	Department       Department
	Priority         TicketPriority
	Status           TicketStatus
	ResponseDueAt    *time.Time
	ResolutionDueAt  *time.Time
	FirstResponseAt  *time.Time
	ResolvedAt       *time.Time
	EscalatedLevel   int
	LastEscalationAt *time.Time
	AssigneeID       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Unanswered reports whether the ticket still awaits a first staff reply.
func (t *Ticket) Unanswered() bool {
	return t.FirstResponseAt == nil
}
