package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
)

// Broadcaster fans committed events out to connected actors.
type Broadcaster interface {
	Broadcast(ctx context.Context, event events.Event) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher  events.Dispatcher
	broadcaster Broadcaster
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.NotificationConfig
}

// NewNotificationService creates the service; broadcaster may be nil.
func NewNotificationService(dispatcher events.Dispatcher, broadcaster Broadcaster, metrics *observability.Metrics, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.forward)
	n.dispatcher.Subscribe(events.EventSurveyIssued, n.handleSurveyIssued)
}

// forward relays every event except survey issuance, which carries a secret.
func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.broadcaster == nil || event.Type == events.EventSurveyIssued {
		return nil
	}
	if err := n.broadcaster.Broadcast(ctx, event); err != nil {
		n.metrics.EventDropped("broadcast")
		return err
	}
	return nil
}

func (n *NotificationService) handleSurveyIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SurveyIssuedPayload)
	if !ok || payload.Token == "" {
		return nil
	}
	n.sendEmailNotificationStub(ctx, event.TicketID, payload.RecipientEmail, n.SurveyLink(payload.Token))
	return nil
}

// SurveyLink builds the public redemption URL for token.
func (n *NotificationService) SurveyLink(token string) string {
	return strings.TrimRight(n.cfg.SurveyBaseURL, "/") + "/" + token
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, ticketID, recipient, link string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(recipient) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", recipient),
		zap.String("ticket_id", ticketID),
		zap.Int("link_length", len(link)))
}
