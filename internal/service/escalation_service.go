package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/hotel-ops/internal/config"
	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/observability"
	"github.com/spec-kit/hotel-ops/internal/repository"
)

// breachKindResponseOverdue is the only breach kind the sweep emits today;
// resolution-deadline breaches are surfaced through dashboards instead.
const breachKindResponseOverdue = "RESPONSE_OVERDUE"

// SweepError records a failure while processing a single ticket.
type SweepError struct {
	TicketID string `json:"ticket_id"`
	Message  string `json:"message"`
}

// SweepResult summarizes one escalation sweep run.
type SweepResult struct {
	Processed int          `json:"processed"`
	Escalated int          `json:"escalated"`
	Breached  int          `json:"breached"`
	Errors    []SweepError `json:"errors,omitempty"`
}

// EscalationService runs the periodic breach/escalation sweep over open,
// unanswered tickets. It does not self-schedule; an external job trigger
// invokes it, and overlapping invocations are not mutually excluded.
type EscalationService struct {
	tickets  repository.TicketRepository
	audit    repository.AuditRepository
	sla      *SLAService
	notifier Notifier
	cfg      config.SLAConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// EscalationDependencies bundles requirements for the sweep.
type EscalationDependencies struct {
	TicketRepo repository.TicketRepository
	AuditRepo  repository.AuditRepository
	SLA        *SLAService
	Notifier   Notifier
	Metrics    *observability.Metrics
}

// NewEscalationService constructs the service.
func NewEscalationService(cfg config.SLAConfig, deps EscalationDependencies, logger *zap.Logger) *EscalationService {
	return &EscalationService{
		tickets:  deps.TicketRepo,
		audit:    deps.AuditRepo,
		sla:      deps.SLA,
		notifier: deps.Notifier,
		cfg:      cfg,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// RunSweep scans all open or pending tickets without a first response and
// applies the breach check, then the escalation ladder, to each. Failures
// are isolated per ticket; one bad row never stops the batch.
func (s *EscalationService) RunSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{}

	tickets, err := s.tickets.ListUnanswered(ctx)
	if err != nil {
		return result, fmt.Errorf("list unanswered tickets: %w", err)
	}

	for i := range tickets {
		ticket := &tickets[i]
		result.Processed++
		if err := s.processTicket(ctx, ticket, now, &result); err != nil {
			s.logger.Error("sweep failed for ticket",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			result.Errors = append(result.Errors, SweepError{TicketID: ticket.ID, Message: err.Error()})
		}
	}

	s.metrics.RecordSweep(result.Breached, result.Escalated)
	s.logger.Info("escalation sweep finished",
		zap.Int("processed", result.Processed),
		zap.Int("breached", result.Breached),
		zap.Int("escalated", result.Escalated),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *EscalationService) processTicket(ctx context.Context, ticket *domain.Ticket, now time.Time, result *SweepResult) error {
	// breach and escalation are mutually exclusive outcomes per iteration
	if ticket.ResponseDueAt != nil && now.After(*ticket.ResponseDueAt) {
		if err := s.breachTicket(ctx, ticket, now); err != nil {
			return err
		}
		result.Breached++
		return nil
	}

	escalated, err := s.escalateTicket(ctx, ticket, now)
	if err != nil {
		return err
	}
	if escalated {
		result.Escalated++
	}
	return nil
}

func (s *EscalationService) breachTicket(ctx context.Context, ticket *domain.Ticket, now time.Time) error {
	ticket.Status = domain.TicketStatusBreached
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return fmt.Errorf("mark breached: %w", err)
	}

	delayMinutes := int(now.Sub(*ticket.ResponseDueAt).Minutes())
	if err := s.audit.Append(ctx, &domain.AuditEntry{
		Actor:    domain.SystemActor,
		Action:   domain.AuditSLABreach,
		Entity:   "ticket",
		EntityID: ticket.ID,
		Detail: map[string]any{
			"kind":            breachKindResponseOverdue,
			"delay_minutes":   delayMinutes,
			"response_due_at": *ticket.ResponseDueAt,
		},
	}); err != nil {
		return fmt.Errorf("append breach audit: %w", err)
	}

	// state change is durable; delivery is best-effort
	if err := s.notifier.NotifySLABreach(ctx, ticket.ID, ticket.ConversationID, ticket.HotelID, breachKindResponseOverdue, ticket.Category); err != nil {
		s.logger.Warn("breach notification failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}
	return nil
}

func (s *EscalationService) escalateTicket(ctx context.Context, ticket *domain.Ticket, now time.Time) (bool, error) {
	age := now.Sub(ticket.CreatedAt)

	target := 0
	for _, threshold := range s.cfg.EscalationThresholds {
		crossed := age >= time.Duration(threshold.Minutes)*time.Minute
		if crossed && threshold.Level > ticket.EscalatedLevel && threshold.Level > target {
			target = threshold.Level
		}
	}
	if target == 0 {
		return false, nil
	}

	previous := ticket.EscalatedLevel
	ticket.EscalatedLevel = target
	ticket.LastEscalationAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return false, fmt.Errorf("record escalation level: %w", err)
	}

	if err := s.audit.Append(ctx, &domain.AuditEntry{
		Actor:    domain.SystemActor,
		Action:   domain.AuditEscalationTriggered,
		Entity:   "ticket",
		EntityID: ticket.ID,
		Detail: map[string]any{
			"previous_level": previous,
			"new_level":      target,
			"age_minutes":    int(age.Minutes()),
		},
	}); err != nil {
		return false, fmt.Errorf("append escalation audit: %w", err)
	}

	roles := s.resolveNotifyRoles(ctx, ticket, target)
	if err := s.notifier.NotifyTicketEscalated(ctx, ticket.ID, ticket.ConversationID, ticket.HotelID, target, ticket.Category, roles); err != nil {
		s.logger.Warn("escalation notification failed",
			zap.String("ticket_id", ticket.ID),
			zap.Int("level", target),
			zap.Error(err))
	}
	return true, nil
}

// resolveNotifyRoles prefers the matching step of the ticket's SLA policy
// and falls back to the configured default role list when the policy is
// absent, unreadable, or has no step for the level.
func (s *EscalationService) resolveNotifyRoles(ctx context.Context, ticket *domain.Ticket, level int) []string {
	policy, err := s.sla.PolicyForEscalation(ctx, ticket.Category, ticket.Department)
	if err != nil {
		s.logger.Warn("policy lookup for escalation roles failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return s.cfg.DefaultNotifyRoles
	}
	if step := policy.StepForLevel(level); step != nil && len(step.NotifyRoles) > 0 {
		return step.NotifyRoles
	}
	return s.cfg.DefaultNotifyRoles
}
