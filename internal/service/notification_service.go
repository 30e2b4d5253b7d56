package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/hotel-ops/internal/config"
	"github.com/spec-kit/hotel-ops/internal/domain"
	"github.com/spec-kit/hotel-ops/internal/events"
)

// Notifier delivers breach/escalation alerts. Delivery is best-effort: the
// caller's state change is already durable when these are invoked, so a
// returned error is logged by the caller, never acted on.
type Notifier interface {
	NotifySLABreach(ctx context.Context, ticketID, conversationID, hotelID, kind string, category domain.TicketCategory) error
	NotifyTicketEscalated(ctx context.Context, ticketID, conversationID, hotelID string, level int, category domain.TicketCategory, roles []string) error
}

// NotificationService handles emitting notifications for SLA events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// NotifySLABreach publishes a breach alert event.
func (n *NotificationService) NotifySLABreach(ctx context.Context, ticketID, conversationID, hotelID, kind string, category domain.TicketCategory) error {
	return n.publish(ctx, events.Event{
		Type:     events.EventSLABreach,
		TicketID: ticketID,
		HotelID:  hotelID,
		Actor:    domain.SystemActor,
		Payload: events.SLABreachPayload{
			ConversationID: conversationID,
			Kind:           kind,
			Category:       category,
		},
	})
}

// NotifyTicketEscalated publishes an escalation alert event for the roles
// resolved from the ticket's policy.
func (n *NotificationService) NotifyTicketEscalated(ctx context.Context, ticketID, conversationID, hotelID string, level int, category domain.TicketCategory, roles []string) error {
	return n.publish(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticketID,
		HotelID:  hotelID,
		Actor:    domain.SystemActor,
		Payload: events.TicketEscalatedPayload{
			ConversationID: conversationID,
			Level:          level,
			Category:       category,
			NotifyRoles:    roles,
		},
	})
}

func (n *NotificationService) publish(ctx context.Context, event events.Event) error {
	if n.dispatcher == nil {
		return nil
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	return n.dispatcher.Publish(ctx, event)
}

// RegisterHandlers subscribes delivery handlers to the dispatcher.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSLABreach, n.handleSLABreach)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
}

func (n *NotificationService) handleSLABreach(ctx context.Context, event events.Event) error {
	n.logger.Info("SLABreach", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketEscalated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
