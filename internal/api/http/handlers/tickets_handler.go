package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hotel-ops/internal/api/dto"
	"github.com/spec-kit/hotel-ops/internal/auth"
	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/repository"
	"github.com/spec-kit/hotel-ops/internal/service"
	apperrors "github.com/spec-kit/hotel-ops/pkg/util"
)

// TicketsHandler manages staff ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// EnsureTicket POST /conversations/:id/ticket.
func (h *TicketsHandler) EnsureTicket(c *fiber.Ctx) error {
	actorID := actorFromContext(c)
	ticket, err := h.service.EnsureTicketForConversation(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /hotels/:hotelId/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetAuditTrail GET /tickets/:id/audit.
func (h *TicketsHandler) GetAuditTrail(c *fiber.Ctx) error {
	limit := parseInt(c.Query("page_size"), 50)
	page := parseInt(c.Query("page"), 1)
	entries, err := h.service.AuditTrail(c.Context(), c.Params("id"), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:        entry.ID,
			Actor:     entry.Actor,
			Action:    string(entry.Action),
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := service.TicketPatch{
		Status:     req.Status,
		Priority:   req.Priority,
		Category:   req.Category,
		Department: req.Department,
		AssigneeID: req.AssigneeID,
	}
	ticket, err := h.service.UpdateTicket(c.Context(), c.Params("id"), patch, actorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.StaffID) == "" {
		return apperrors.NewValidationError("staff_id required", nil)
	}
	ticket, err := h.service.AssignTicket(c.Context(), c.Params("id"), req.StaffID, actorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// RecordFirstResponse POST /tickets/:id/first-response.
func (h *TicketsHandler) RecordFirstResponse(c *fiber.Ctx) error {
	ticket, err := h.service.RecordFirstResponse(c.Context(), c.Params("id"), actorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ResolveTicket POST /tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	ticket, err := h.service.ResolveTicket(c.Context(), c.Params("id"), actorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	ticket, err := h.service.CloseTicket(c.Context(), c.Params("id"), actorFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func actorFromContext(c *fiber.Ctx) *string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil
	}
	return &principal.Staff.ID
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{HotelID: c.Params("hotelId")}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if deptStr := c.Query("department"); deptStr != "" {
		for _, part := range strings.Split(deptStr, ",") {
			filter.Departments = append(filter.Departments, domain.Department(strings.TrimSpace(part)))
		}
	}
	if catStr := c.Query("category"); catStr != "" {
		for _, part := range strings.Split(catStr, ",") {
			filter.Categories = append(filter.Categories, domain.TicketCategory(strings.TrimSpace(part)))
		}
	}
	if assignee := c.Query("assignee"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:               ticket.ID,
		HotelID:          ticket.HotelID,
		ConversationID:   ticket.ConversationID,
		Type:             ticket.Type,
		Category:         ticket.Category,
		Department:       ticket.Department,
		Priority:         ticket.Priority,
		Status:           ticket.Status,
		ResponseDueAt:    ticket.ResponseDueAt,
		ResolutionDueAt:  ticket.ResolutionDueAt,
		FirstResponseAt:  ticket.FirstResponseAt,
		ResolvedAt:       ticket.ResolvedAt,
		EscalatedLevel:   ticket.EscalatedLevel,
		LastEscalationAt: ticket.LastEscalationAt,
		AssigneeID:       ticket.AssigneeID,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
}
