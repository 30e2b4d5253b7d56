package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hotel-ops/internal/service"
	apperrors "github.com/spec-kit/hotel-ops/pkg/util"
)

// SweepTokenHeader carries the shared secret for the sweep trigger.
const SweepTokenHeader = "X-Sweep-Token"

// SweepHandler exposes the escalation sweep to an external job runner.
type SweepHandler struct {
	service *service.EscalationService
	token   string
}

// NewSweepHandler constructs handler.
func NewSweepHandler(escalationService *service.EscalationService, token string) *SweepHandler {
	return &SweepHandler{service: escalationService, token: token}
}

// Trigger POST /internal/escalation-sweep. Gated by a shared secret; the
// scheduler cadence and any overlap locking live outside this service.
func (h *SweepHandler) Trigger(c *fiber.Ctx) error {
	if h.token == "" {
		return apperrors.NewForbidden("sweep trigger disabled")
	}
	provided := c.Get(SweepTokenHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) != 1 {
		return apperrors.NewUnauthorized("invalid sweep token")
	}

	result, err := h.service.RunSweep(c.Context(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
