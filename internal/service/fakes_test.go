package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository with per-method error
// injection hooks.
type fakeTicketRepo struct {
	tickets   map[string]*domain.Ticket
	byConv    map[string]string
	createErr error
	updateErr error
	listErr   error
	updates   int
	seq       int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[string]*domain.Ticket),
		byConv:  make(map[string]string),
	}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.byConv[ticket.ConversationID]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_conversation_unique"}
	}
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	r.byConv[ticket.ConversationID] = ticket.ID
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.updates++
	ticket.UpdatedAt = time.Now()
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByConversation(ctx context.Context, conversationID string) (*domain.Ticket, error) {
	id, ok := r.byConv[conversationID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *fakeTicketRepo) ListUnanswered(ctx context.Context) ([]domain.Ticket, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		open := ticket.Status == domain.TicketStatusOpen || ticket.Status == domain.TicketStatusPending
		if open && ticket.Unanswered() {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.HotelID != "" && ticket.HotelID != filter.HotelID {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) add(ticket domain.Ticket) {
	r.tickets[ticket.ID] = &ticket
	r.byConv[ticket.ConversationID] = ticket.ID
}

// fakePolicyRepo is an in-memory SLAPolicyRepository.
type fakePolicyRepo struct {
	policies []domain.SLAPolicy
	findErr  error
	seq      int
}

func (r *fakePolicyRepo) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	r.seq++
	policy.ID = fmt.Sprintf("policy-%d", r.seq)
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = policy.CreatedAt
	r.policies = append(r.policies, *policy)
	return nil
}

func (r *fakePolicyRepo) Deactivate(ctx context.Context, id string) error {
	for i := range r.policies {
		if r.policies[i].ID == id {
			r.policies[i].Active = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakePolicyRepo) FindActive(ctx context.Context, hotelID string, category domain.TicketCategory) (*domain.SLAPolicy, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for i := range r.policies {
		p := r.policies[i]
		if p.Active && p.HotelID == hotelID && p.Category == category {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePolicyRepo) FindActiveByCategoryDepartment(ctx context.Context, category domain.TicketCategory, department domain.Department) (*domain.SLAPolicy, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for i := range r.policies {
		p := r.policies[i]
		if p.Active && p.Category == category && p.Department == department {
			return &p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePolicyRepo) ListByHotel(ctx context.Context, hotelID string, limit, offset int) ([]domain.SLAPolicy, error) {
	var result []domain.SLAPolicy
	for _, p := range r.policies {
		if p.HotelID == hotelID {
			result = append(result, p)
		}
	}
	return result, nil
}

// fakeAuditRepo records appended entries in order.
type fakeAuditRepo struct {
	entries   []domain.AuditEntry
	appendErr error
	seq       int
}

func (r *fakeAuditRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.seq++
	entry.ID = fmt.Sprintf("audit-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(ctx context.Context, entity, entityID string, limit, offset int) ([]domain.AuditEntry, error) {
	var result []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.Entity == entity && entry.EntityID == entityID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) byAction(action domain.AuditAction) []domain.AuditEntry {
	var result []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.Action == action {
			result = append(result, entry)
		}
	}
	return result
}

// fakeConversationRepo serves fixed conversations and messages.
type fakeConversationRepo struct {
	conversations map[string]*domain.Conversation
	messages      map[string][]domain.ConversationMessage
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]domain.ConversationMessage),
	}
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	conv, ok := r.conversations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepo) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	return r.messages[conversationID], nil
}

// recordingNotifier captures notification calls and optionally fails.
type recordingNotifier struct {
	breaches    []string
	escalations []escalationCall
	fail        bool
}

type escalationCall struct {
	ticketID string
	level    int
	roles    []string
}

var errNotifyDown = errors.New("notification channel unavailable")

func (n *recordingNotifier) NotifySLABreach(ctx context.Context, ticketID, conversationID, hotelID, kind string, category domain.TicketCategory) error {
	if n.fail {
		return errNotifyDown
	}
	n.breaches = append(n.breaches, ticketID)
	return nil
}

func (n *recordingNotifier) NotifyTicketEscalated(ctx context.Context, ticketID, conversationID, hotelID string, level int, category domain.TicketCategory, roles []string) error {
	if n.fail {
		return errNotifyDown
	}
	n.escalations = append(n.escalations, escalationCall{ticketID: ticketID, level: level, roles: roles})
	return nil
}
