package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/hotel-ops/internal/config"
	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/repository"
	apperrors "github.com/spec-kit/hotel-ops/pkg/util"
)

// Deadlines carries the response/resolution due times for a new ticket.
type Deadlines struct {
	ResponseDueAt   time.Time
	ResolutionDueAt time.Time
}

// SLAService resolves SLA deadlines from hotel policies, falling back to the
// configured defaults, and manages the policy rows themselves.
type SLAService struct {
	policies repository.SLAPolicyRepository
	audit    repository.AuditRepository
	cfg      config.SLAConfig
	logger   *zap.Logger
}

// SLADependencies bundles requirements for the SLA service.
type SLADependencies struct {
	PolicyRepo repository.SLAPolicyRepository
	AuditRepo  repository.AuditRepository
}

// NewSLAService constructs the service.
func NewSLAService(cfg config.SLAConfig, deps SLADependencies, logger *zap.Logger) *SLAService {
	return &SLAService{
		policies: deps.PolicyRepo,
		audit:    deps.AuditRepo,
		cfg:      cfg,
		logger:   logger,
	}
}

// Resolve computes both deadlines as now + the policy minutes, or the
// defaults when no active policy exists for (hotel, category). A missing
// policy row is the expected path, not an error; any other store failure
// propagates.
func (s *SLAService) Resolve(ctx context.Context, hotelID string, category domain.TicketCategory, now time.Time) (Deadlines, *domain.SLAPolicy, error) {
	responseMinutes := s.cfg.DefaultResponseMinutes
	resolutionMinutes := s.cfg.DefaultResolutionMinutes

	policy, err := s.policies.FindActive(ctx, hotelID, category)
	switch {
	case err == nil:
		responseMinutes = policy.ResponseMinutes
		resolutionMinutes = policy.ResolutionMinutes
	case errors.Is(err, pgx.ErrNoRows):
		policy = nil
	default:
		return Deadlines{}, nil, err
	}

	return Deadlines{
		ResponseDueAt:   now.Add(time.Duration(responseMinutes) * time.Minute),
		ResolutionDueAt: now.Add(time.Duration(resolutionMinutes) * time.Minute),
	}, policy, nil
}

// PolicyForEscalation looks up the active policy governing escalation role
// fan-out for a category/department pair. Absence is reported as nil, nil.
func (s *SLAService) PolicyForEscalation(ctx context.Context, category domain.TicketCategory, department domain.Department) (*domain.SLAPolicy, error) {
	policy, err := s.policies.FindActiveByCategoryDepartment(ctx, category, department)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return policy, nil
}

// PolicyCreateInput describes a new SLA policy.
type PolicyCreateInput struct {
	HotelID           string
	Category          domain.TicketCategory
	Department        domain.Department
	ResponseMinutes   int
	ResolutionMinutes int
	EscalationSteps   []domain.EscalationStep
}

// CreatePolicy validates and stores a new active policy.
func (s *SLAService) CreatePolicy(ctx context.Context, input PolicyCreateInput, actorID string) (*domain.SLAPolicy, error) {
	if input.ResponseMinutes <= 0 || input.ResolutionMinutes <= 0 {
		return nil, apperrors.NewValidationError("response and resolution minutes must be positive", nil)
	}
	if input.ResponseMinutes >= input.ResolutionMinutes {
		return nil, apperrors.NewValidationError("response budget must be shorter than resolution budget", nil)
	}

	policy := &domain.SLAPolicy{
		HotelID:           input.HotelID,
		Category:          input.Category,
		Department:        input.Department,
		ResponseMinutes:   input.ResponseMinutes,
		ResolutionMinutes: input.ResolutionMinutes,
		EscalationSteps:   input.EscalationSteps,
		Active:            true,
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, err
	}
	s.appendAudit(ctx, actorID, domain.AuditPolicyCreated, policy.ID, map[string]any{
		"hotel_id":           policy.HotelID,
		"category":           policy.Category,
		"response_minutes":   policy.ResponseMinutes,
		"resolution_minutes": policy.ResolutionMinutes,
	})
	return policy, nil
}

// ListPolicies returns a hotel's policies, active and inactive.
func (s *SLAService) ListPolicies(ctx context.Context, hotelID string, limit, offset int) ([]domain.SLAPolicy, error) {
	return s.policies.ListByHotel(ctx, hotelID, limit, offset)
}

// DeactivatePolicy retires a policy row.
func (s *SLAService) DeactivatePolicy(ctx context.Context, id, actorID string) error {
	if err := s.policies.Deactivate(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("sla policy", map[string]any{"policy_id": id})
		}
		return err
	}
	s.appendAudit(ctx, actorID, domain.AuditPolicyDeactivated, id, nil)
	return nil
}

func (s *SLAService) appendAudit(ctx context.Context, actor string, action domain.AuditAction, policyID string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	entry := &domain.AuditEntry{
		Actor:    actor,
		Action:   action,
		Entity:   "sla_policy",
		EntityID: policyID,
		Detail:   detail,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to append policy audit entry", zap.Error(err), zap.String("policy_id", policyID))
	}
}
