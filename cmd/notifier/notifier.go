package main

import (
	"context"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/event"
	"customer-registry/internal/infrastructure/monitoring"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const (
	kindWelcome      = "welcome"
	kindStatusChange = "status_change"
)

// logNotifier writes customer-facing messages to out and records a delivery
// metric for each.
type logNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

var _ event.Notifier = (*logNotifier)(nil)

func newLogNotifier(out io.Writer, logger *slog.Logger) *logNotifier {
	return &logNotifier{
		out:    out,
		logger: logger.With("component", "LogNotifier"),
	}
}

func (n *logNotifier) NotifyRegistered(ctx context.Context, evt event.CustomerRegisteredEvent) error {
	msg := customer.ConfirmationMessage(evt.Payload.Name, evt.Payload.AccountNumber)
	if err := n.write(evt.Payload.ContactID, msg); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "Welcome message delivered", "contactId", evt.Payload.ContactID, "accountNumber", evt.Payload.AccountNumber)
	monitoring.RecordNotification(kindWelcome)
	return nil
}

func (n *logNotifier) NotifyStatusChanged(ctx context.Context, evt event.CustomerStatusChangedEvent) error {
	msg := fmt.Sprintf("Dear %s, the status of account %d changed from %s to %s.",
		evt.Payload.Name, evt.Payload.AccountNumber, evt.OldStatus, evt.NewStatus)
	if err := n.write(evt.Payload.ContactID, msg); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "Status change notice delivered", "contactId", evt.Payload.ContactID, "newStatus", evt.NewStatus)
	monitoring.RecordNotification(kindStatusChange)
	return nil
}

func (n *logNotifier) write(to, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintf(n.out, "to=%s %s\n", to, msg); err != nil {
		return fmt.Errorf("write notification for %s: %w", to, err)
	}
	return nil
}
