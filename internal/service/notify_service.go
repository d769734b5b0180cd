package service

import (
	"context"

	"go.uber.org/zap"

	"daily-tracker/internal/logging"
	"daily-tracker/internal/model"
	"daily-tracker/internal/observability"
)

// Sender delivers a plain text message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// MessageBuilder renders a notification for one recipient.
type MessageBuilder func(source, recipient model.User) string

// NotificationService delivers events to registered users. Deliveries are
// best effort: a failed recipient is logged and skipped.
type NotificationService struct {
	registry *model.Registry
	sender   Sender
	log      *zap.Logger
	metrics  *observability.Metrics
}

func NewNotificationService(registry *model.Registry, sender Sender, log *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{registry: registry, sender: sender, log: log, metrics: metrics}
}

// Broadcast sends an event raised by source to every other registered user
// and returns how many deliveries succeeded.
func (s *NotificationService) Broadcast(ctx context.Context, kind string, source model.User, build MessageBuilder) int {
	delivered := 0
	for _, recipient := range s.registry.Others(source.ID) {
		if err := s.SendTo(ctx, kind, recipient, build(source, recipient)); err == nil {
			delivered++
		}
	}
	return delivered
}

// SendTo delivers one message. The error is returned for counting only;
// it has already been logged.
func (s *NotificationService) SendTo(ctx context.Context, kind string, recipient model.User, text string) error {
	err := s.sender.Send(ctx, recipient.ID, text)
	s.metrics.ObserveNotification(kind, err)
	if err != nil {
		logging.With(ctx, s.log).Error("notification delivery failed",
			zap.String("kind", kind),
			zap.Int64("recipient", recipient.ID),
			zap.Error(err),
		)
	}
	return err
}
