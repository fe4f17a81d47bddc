package event

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Notifier interface {
	NotifyRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	NotifyStatusChanged(ctx context.Context, event CustomerStatusChangedEvent) error
}

type NotificationHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewNotificationHandler(notifier Notifier, logger *slog.Logger) *NotificationHandler {
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger.With("component", "NotificationHandler"),
	}
}

func (h *NotificationHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))

	var notifyErr error
	switch d.RoutingKey {
	case RoutingKeyCustomerRegistered:
		var event CustomerRegisteredEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			logCtx.ErrorContext(ctx, "Failed to unmarshal CustomerRegisteredEvent", "error", err, "body", string(d.Body))
			_ = d.Nack(false, false)
			return
		}
		logCtx = logCtx.With(slog.String("eventId", event.EventID), slog.Int("accountNumber", event.Payload.AccountNumber))
		notifyErr = h.notifier.NotifyRegistered(ctx, event)
	case RoutingKeyCustomerStatusChanged:
		var event CustomerStatusChangedEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			logCtx.ErrorContext(ctx, "Failed to unmarshal CustomerStatusChangedEvent", "error", err, "body", string(d.Body))
			_ = d.Nack(false, false)
			return
		}
		logCtx = logCtx.With(slog.String("eventId", event.EventID), slog.String("newStatus", event.NewStatus))
		notifyErr = h.notifier.NotifyStatusChanged(ctx, event)
	default:
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		_ = d.Reject(false)
		return
	}

	if notifyErr != nil {
		logCtx.ErrorContext(ctx, "Failed to deliver notification, requeueing", "error", notifyErr)
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message after successful processing", "error", err)
		return
	}
	logCtx.InfoContext(ctx, "Successfully processed and acknowledged message")
}
