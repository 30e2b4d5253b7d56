package domain

import "time"

// Conversation is the read model for a guest messaging thread. The message
// store itself lives outside the SLA engine; tickets only reference it.
type Conversation struct {
	ID        string
	HotelID   string
	GuestID   string
	Subject   string
	BookingID *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationMessage is a single message in a conversation thread.
type ConversationMessage struct {
	ID             string
	ConversationID string
	SenderType     string
	Body           string
	CreatedAt      time.Time
}
