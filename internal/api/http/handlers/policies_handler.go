package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hotel-ops/internal/api/dto"
	"github.com/spec-kit/hotel-ops/internal/auth"
	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/service"
	apperrors "github.com/spec-kit/hotel-ops/pkg/util"
)

// PoliciesHandler manages SLA policy endpoints.
type PoliciesHandler struct {
	service *service.SLAService
}

// NewPoliciesHandler constructs handler.
func NewPoliciesHandler(slaService *service.SLAService) *PoliciesHandler {
	return &PoliciesHandler{service: slaService}
}

// CreatePolicy POST /hotels/:hotelId/sla-policies.
func (h *PoliciesHandler) CreatePolicy(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Category == "" || req.Department == "" {
		return apperrors.NewValidationError("category and department required", nil)
	}

	policy, err := h.service.CreatePolicy(c.Context(), service.PolicyCreateInput{
		HotelID:           c.Params("hotelId"),
		Category:          req.Category,
		Department:        req.Department,
		ResponseMinutes:   req.ResponseMinutes,
		ResolutionMinutes: req.ResolutionMinutes,
		EscalationSteps:   req.EscalationSteps,
	}, principal.Staff.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": policyResponse(policy)})
}

// ListPolicies GET /hotels/:hotelId/sla-policies.
func (h *PoliciesHandler) ListPolicies(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	policies, err := h.service.ListPolicies(c.Context(), c.Params("hotelId"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, policyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeactivatePolicy POST /sla-policies/:id/deactivate.
func (h *PoliciesHandler) DeactivatePolicy(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	if err := h.service.DeactivatePolicy(c.Context(), c.Params("id"), principal.Staff.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deactivated": true}})
}

func policyResponse(policy *domain.SLAPolicy) dto.PolicyResponse {
	return dto.PolicyResponse{
		ID:                policy.ID,
		HotelID:           policy.HotelID,
		Category:          policy.Category,
		Department:        policy.Department,
		ResponseMinutes:   policy.ResponseMinutes,
		ResolutionMinutes: policy.ResolutionMinutes,
		EscalationSteps:   policy.EscalationSteps,
		Active:            policy.Active,
		CreatedAt:         policy.CreatedAt,
	}
}
