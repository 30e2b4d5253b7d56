package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/hotel-ops/internal/domain"
	apperrors "github.com/spec-kit/hotel-ops/pkg/util"
)

type ticketFixture struct {
	svc           *TicketService
	tickets       *fakeTicketRepo
	conversations *fakeConversationRepo
	audit         *fakeAuditRepo
	clock         time.Time
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	conversations := newFakeConversationRepo()
	audit := &fakeAuditRepo{}
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	fx := &ticketFixture{
		tickets:       tickets,
		conversations: conversations,
		audit:         audit,
		clock:         clock,
	}
	fx.svc = NewTicketService(TicketDependencies{
		TicketRepo:       tickets,
		ConversationRepo: conversations,
		AuditRepo:        audit,
		SLA:              newSLAServiceForTest(&fakePolicyRepo{}, audit),
		Clock:            func() time.Time { return fx.clock },
	}, zap.NewNop())
	return fx
}

func (fx *ticketFixture) addConversation(id, subject string, bookingID *string, bodies ...string) {
	fx.conversations.conversations[id] = &domain.Conversation{
		ID:        id,
		HotelID:   "hotel-1",
		GuestID:   "guest-1",
		Subject:   subject,
		BookingID: bookingID,
	}
	for _, body := range bodies {
		fx.conversations.messages[id] = append(fx.conversations.messages[id], domain.ConversationMessage{
			ConversationID: id,
			SenderType:     "GUEST",
			Body:           body,
		})
	}
}

func strPtr(s string) *string { return &s }

func TestEnsureTicketCreatesAndClassifies(t *testing.T) {
	fx := newTicketFixture(t)
	fx.addConversation("conv-1", "Problem with my invoice", nil, "I was charged twice for breakfast")

	ticket, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", strPtr("staff-1"))
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketTypeGeneralInquiry, ticket.Type)
	assert.Equal(t, domain.CategoryBilling, ticket.Category)
	assert.Equal(t, domain.DepartmentFinance, ticket.Department)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, 0, ticket.EscalatedLevel)

	require.NotNil(t, ticket.ResponseDueAt)
	require.NotNil(t, ticket.ResolutionDueAt)
	assert.Equal(t, fx.clock.Add(60*time.Minute), *ticket.ResponseDueAt)
	assert.Equal(t, fx.clock.Add(480*time.Minute), *ticket.ResolutionDueAt)

	created := fx.audit.byAction(domain.AuditTicketCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "staff-1", created[0].Actor)
}

func TestEnsureTicketIsIdempotent(t *testing.T) {
	fx := newTicketFixture(t)
	fx.addConversation("conv-1", "need more towels", nil)

	first, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", nil)
	require.NoError(t, err)
	second, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, fx.tickets.tickets, 1)
}

func TestEnsureTicketSurvivesCreationRace(t *testing.T) {
	fx := newTicketFixture(t)
	fx.addConversation("conv-1", "hello", nil)

	// another writer inserts the ticket between our existence check and
	// Create; the unique violation must resolve to the winner's row
	winner := domain.Ticket{
		ID:             "ticket-race",
		HotelID:        "hotel-1",
		ConversationID: "conv-1",
		Status:         domain.TicketStatusOpen,
	}
	raceRepo := &racingTicketRepo{fakeTicketRepo: fx.tickets, winner: winner}
	fx.svc = NewTicketService(TicketDependencies{
		TicketRepo:       raceRepo,
		ConversationRepo: fx.conversations,
		AuditRepo:        fx.audit,
		SLA:              newSLAServiceForTest(&fakePolicyRepo{}, fx.audit),
		Clock:            func() time.Time { return fx.clock },
	}, zap.NewNop())

	got, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "ticket-race", got.ID)
}

func TestEnsureTicketUnknownConversation(t *testing.T) {
	fx := newTicketFixture(t)

	_, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-missing", nil)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestEnsureTicketBookingConversation(t *testing.T) {
	fx := newTicketFixture(t)
	fx.addConversation("conv-1", "extend my stay", strPtr("booking-42"), "can I extend my reservation by two nights")

	ticket, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketTypeBookingRelated, ticket.Type)
	assert.Equal(t, domain.CategoryBooking, ticket.Category)
}

func TestRecordFirstResponseWithinSLA(t *testing.T) {
	fx := newTicketFixture(t)
	fx.addConversation("conv-1", "hello", nil)
	ticket, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", nil)
	require.NoError(t, err)

	fx.clock = fx.clock.Add(30 * time.Minute)
	updated, err := fx.svc.RecordFirstResponse(context.Background(), ticket.ID, strPtr("staff-1"))
	require.NoError(t, err)

	require.NotNil(t, updated.FirstResponseAt)
	assert.Equal(t, fx.clock, *updated.FirstResponseAt)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	entries := fx.audit.byAction(domain.AuditFirstResponse)
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].Detail["within_sla"])
}

func TestRecordFirstResponseAfterDeadline(t *testing.T) {
	fx := newTicketFixture(t)
	fx.addConversation("conv-1", "hello", nil)
	ticket, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", nil)
	require.NoError(t, err)

	fx.clock = fx.clock.Add(90 * time.Minute)
	_, err = fx.svc.RecordFirstResponse(context.Background(), ticket.ID, strPtr("staff-1"))
	require.NoError(t, err)

	entries := fx.audit.byAction(domain.AuditFirstResponse)
	require.Len(t, entries, 1)
	assert.Equal(t, false, entries[0].Detail["within_sla"])
}

func TestRecordFirstResponseIsIdempotent(t *testing.T) {
	fx := newTicketFixture(t)
	fx.addConversation("conv-1", "hello", nil)
	ticket, err := fx.svc.EnsureTicketForConversation(context.Background(), "conv-1", nil)
	require.NoError(t, err)

	first, err := fx.svc.RecordFirstResponse(context.Background(), ticket.ID, strPtr("staff-1"))
	require.NoError(t, err)

	fx.clock = fx.clock.Add(2 * time.Hour)
	second, err := fx.svc.RecordFirstResponse(context.Background(), ticket.ID, strPtr("staff-2"))
	require.NoError(t, err)

	assert.Equal(t, *first.FirstResponseAt, *second.FirstResponseAt)
	assert.Len(t, fx.audit.byAction(domain.AuditFirstResponse), 1)
}

func TestUpdateTicketRejectsInvalidTransition(t *testing.T) {
	fx := newTicketFixture(t)
	fx.tickets.add(domain.Ticket{
		ID:             "ticket-1",
		ConversationID: "conv-1",
		HotelID:        "hotel-1",
		Status:         domain.TicketStatusClosed,
	})

	status := domain.TicketStatusInProgress
	_, err := fx.svc.UpdateTicket(context.Background(), "ticket-1", TicketPatch{Status: &status}, nil)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestResolveTicketStampsResolvedAt(t *testing.T) {
	fx := newTicketFixture(t)
	fx.tickets.add(domain.Ticket{
		ID:             "ticket-1",
		ConversationID: "conv-1",
		HotelID:        "hotel-1",
		Status:         domain.TicketStatusInProgress,
	})

	ticket, err := fx.svc.ResolveTicket(context.Background(), "ticket-1", strPtr("staff-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, fx.clock, *ticket.ResolvedAt)

	entries := fx.audit.byAction(domain.AuditTicketUpdated)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Detail, "status")
}

func TestBreachedTicketRemainsWorkable(t *testing.T) {
	fx := newTicketFixture(t)
	fx.tickets.add(domain.Ticket{
		ID:             "ticket-1",
		ConversationID: "conv-1",
		HotelID:        "hotel-1",
		Status:         domain.TicketStatusBreached,
	})

	ticket, err := fx.svc.RecordFirstResponse(context.Background(), "ticket-1", strPtr("staff-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
}

func TestUpdateTicketNoopPatch(t *testing.T) {
	fx := newTicketFixture(t)
	fx.tickets.add(domain.Ticket{
		ID:             "ticket-1",
		ConversationID: "conv-1",
		HotelID:        "hotel-1",
		Status:         domain.TicketStatusOpen,
		Priority:       domain.TicketPriorityMedium,
	})

	priority := domain.TicketPriorityMedium
	_, err := fx.svc.UpdateTicket(context.Background(), "ticket-1", TicketPatch{Priority: &priority}, strPtr("staff-1"))
	require.NoError(t, err)

	assert.Zero(t, fx.tickets.updates)
	assert.Empty(t, fx.audit.entries)
}

func TestAssignTicketRecordsAssignee(t *testing.T) {
	fx := newTicketFixture(t)
	fx.tickets.add(domain.Ticket{
		ID:             "ticket-1",
		ConversationID: "conv-1",
		HotelID:        "hotel-1",
		Status:         domain.TicketStatusOpen,
	})

	ticket, err := fx.svc.AssignTicket(context.Background(), "ticket-1", "staff-9", strPtr("staff-1"))
	require.NoError(t, err)
	require.NotNil(t, ticket.AssigneeID)
	assert.Equal(t, "staff-9", *ticket.AssigneeID)
}

// racingTicketRepo simulates losing the insert race: Create always reports a
// unique violation and subsequent conversation lookups find the winner.
type racingTicketRepo struct {
	*fakeTicketRepo
	winner domain.Ticket
}

func (r *racingTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.fakeTicketRepo.add(r.winner)
	return &pgconn.PgError{Code: "23505"}
}
