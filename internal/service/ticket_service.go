package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/hotel-ops/internal/classify"
	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/events"
	"github.com/spec-kit/hotel-ops/internal/repository"
	apperrors "github.com/spec-kit/hotel-ops/pkg/util"
)

const recentMessageWindow = 10

// TicketService owns the ticket lifecycle: lazy creation from guest
// conversations, updates, first-response recording and closure.
type TicketService struct {
	tickets       repository.TicketRepository
	conversations repository.ConversationRepository
	audit         repository.AuditRepository
	classifier    *classify.Classifier
	sla           *SLAService
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	now           func() time.Time
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	ConversationRepo repository.ConversationRepository
	AuditRepo        repository.AuditRepository
	Classifier       *classify.Classifier
	SLA              *SLAService
	Dispatcher       events.Dispatcher
	Clock            func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies, logger *zap.Logger) *TicketService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = classify.NewDefault()
	}
	return &TicketService{
		tickets:       deps.TicketRepo,
		conversations: deps.ConversationRepo,
		audit:         deps.AuditRepo,
		classifier:    classifier,
		sla:           deps.SLA,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		now:           now,
	}
}

// EnsureTicketForConversation returns the conversation's ticket, creating it
// on first classification. Idempotent: concurrent callers race on the unique
// conversation constraint and the loser refetches the winner's ticket.
func (s *TicketService) EnsureTicketForConversation(ctx context.Context, conversationID string, actorID *string) (*domain.Ticket, error) {
	existing, err := s.tickets.GetByConversation(ctx, conversationID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("conversation", map[string]any{"conversation_id": conversationID})
		}
		return nil, err
	}

	messages, err := s.conversations.ListRecentMessages(ctx, conv.ID, recentMessageWindow)
	if err != nil {
		return nil, err
	}
	bodies := make([]string, 0, len(messages))
	for _, msg := range messages {
		bodies = append(bodies, msg.Body)
	}

	outcome := s.classifier.Classify(conv.Subject, strings.Join(bodies, " "))

	ticketType := domain.TicketTypeGeneralInquiry
	if conv.BookingID != nil {
		ticketType = domain.TicketTypeBookingRelated
	}

	now := s.now()
	deadlines, _, err := s.sla.Resolve(ctx, conv.HotelID, outcome.Category, now)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		HotelID:         conv.HotelID,
		ConversationID:  conv.ID,
		Type:            ticketType,
		Category:        outcome.Category,
		Department:      outcome.Department,
		Priority:        outcome.Priority,
		Status:          domain.TicketStatusOpen,
		ResponseDueAt:   &deadlines.ResponseDueAt,
		ResolutionDueAt: &deadlines.ResolutionDueAt,
		EscalatedLevel:  0,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if repository.IsUniqueViolation(err) {
			// lost the creation race; the conversation's ticket exists now
			return s.tickets.GetByConversation(ctx, conversationID)
		}
		return nil, err
	}

	if actorID != nil {
		s.appendAudit(ctx, *actorID, domain.AuditTicketCreated, ticket.ID, map[string]any{
			"conversation_id": ticket.ConversationID,
			"category":        ticket.Category,
			"department":      ticket.Department,
			"priority":        ticket.Priority,
		})
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		HotelID:  ticket.HotelID,
		Actor:    actorOrSystem(actorID),
		Payload: events.TicketCreatedPayload{
			ConversationID: ticket.ConversationID,
			Type:           ticket.Type,
			Category:       ticket.Category,
			Department:     ticket.Department,
			Priority:       ticket.Priority,
		},
	})
	return ticket, nil
}

// TicketPatch describes a partial ticket update; nil fields are untouched.
type TicketPatch struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *domain.TicketCategory
	Department *domain.Department
	AssigneeID *string
}

// UpdateTicket applies a patch. Setting status to RESOLVED additionally
// stamps ResolvedAt; status changes must follow the forward-only lifecycle.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, patch TicketPatch, actorID *string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if patch.Status != nil && *patch.Status != ticket.Status {
		if !isValidTransition(ticket.Status, *patch.Status) {
			return nil, apperrors.NewConflict("invalid status transition", map[string]any{
				"from": ticket.Status,
				"to":   *patch.Status,
			})
		}
		changes["status"] = *patch.Status
		ticket.Status = *patch.Status
		if *patch.Status == domain.TicketStatusResolved {
			now := s.now()
			ticket.ResolvedAt = &now
			changes["resolved_at"] = now
		}
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		changes["priority"] = *patch.Priority
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil && *patch.Category != ticket.Category {
		changes["category"] = *patch.Category
		ticket.Category = *patch.Category
	}
	if patch.Department != nil && *patch.Department != ticket.Department {
		changes["department"] = *patch.Department
		ticket.Department = *patch.Department
	}
	if patch.AssigneeID != nil {
		changes["assignee_staff_id"] = *patch.AssigneeID
		ticket.AssigneeID = patch.AssigneeID
	}

	if len(changes) == 0 {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if actorID != nil {
		s.appendAudit(ctx, *actorID, domain.AuditTicketUpdated, ticket.ID, changes)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		HotelID:  ticket.HotelID,
		Actor:    actorOrSystem(actorID),
		Payload:  events.TicketUpdatedPayload{Changes: changes},
	})
	return ticket, nil
}

// AssignTicket sets the assignee.
func (s *TicketService) AssignTicket(ctx context.Context, id, staffID string, actorID *string) (*domain.Ticket, error) {
	return s.UpdateTicket(ctx, id, TicketPatch{AssigneeID: &staffID}, actorID)
}

// ResolveTicket moves the ticket to RESOLVED.
func (s *TicketService) ResolveTicket(ctx context.Context, id string, actorID *string) (*domain.Ticket, error) {
	status := domain.TicketStatusResolved
	return s.UpdateTicket(ctx, id, TicketPatch{Status: &status}, actorID)
}

// CloseTicket moves the ticket to CLOSED.
func (s *TicketService) CloseTicket(ctx context.Context, id string, actorID *string) (*domain.Ticket, error) {
	status := domain.TicketStatusClosed
	return s.UpdateTicket(ctx, id, TicketPatch{Status: &status}, actorID)
}

// RecordFirstResponse stamps the first staff reply exactly once and advances
// the ticket to IN_PROGRESS. Subsequent calls return the ticket unchanged.
func (s *TicketService) RecordFirstResponse(ctx context.Context, id string, actorID *string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.FirstResponseAt != nil {
		return ticket, nil
	}

	now := s.now()
	withinSLA := ticket.ResponseDueAt == nil || !now.After(*ticket.ResponseDueAt)
	ticket.FirstResponseAt = &now
	ticket.Status = domain.TicketStatusInProgress
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if actorID != nil {
		s.appendAudit(ctx, *actorID, domain.AuditFirstResponse, ticket.ID, map[string]any{
			"responded_at": now,
			"within_sla":   withinSLA,
		})
	}
	s.logger.Info("first response recorded",
		zap.String("ticket_id", ticket.ID),
		zap.Bool("within_sla", withinSLA))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventFirstResponseRecorded,
		TicketID: ticket.ID,
		HotelID:  ticket.HotelID,
		Actor:    actorOrSystem(actorID),
		Payload:  events.FirstResponsePayload{RespondedAt: now, WithinSLA: withinSLA},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.getTicket(ctx, id)
}

// ListTickets returns a filtered, paginated hotel ticket board sorted by
// priority then recency.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// AuditTrail returns the audit entries recorded against a ticket.
func (s *TicketService) AuditTrail(ctx context.Context, ticketID string, limit, offset int) ([]domain.AuditEntry, error) {
	return s.audit.ListByEntity(ctx, "ticket", ticketID, limit, offset)
}

func (s *TicketService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) appendAudit(ctx context.Context, actor string, action domain.AuditAction, ticketID string, detail map[string]any) {
	entry := &domain.AuditEntry{
		Actor:    actor,
		Action:   action,
		Entity:   "ticket",
		EntityID: ticketID,
		Detail:   detail,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append audit entry",
			zap.Error(err),
			zap.String("ticket_id", ticketID),
			zap.String("action", string(action)))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOrSystem(actorID *string) string {
	if actorID != nil {
		return *actorID
	}
	return domain.SystemActor
}

// Forward-only lifecycle; BREACHED remains workable so a late reply can
// still move the ticket toward resolution.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusPending, domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusBreached},
	domain.TicketStatusPending:    {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusBreached},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusBreached:   {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
