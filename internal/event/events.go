package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	RoutingKeyCustomerRegistered    = "customer.registered"
	RoutingKeyCustomerStatusChanged = "customer.status_changed"
	publisherAppID                  = "customer-registry"
)

type EventPublisher interface {
	PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	PublishCustomerStatusChanged(ctx context.Context, event CustomerStatusChangedEvent) error
}

type CustomerEventPayload struct {
	CustomerID     int64     `json:"customerId"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Address        string    `json:"address"`
	ContactID      string    `json:"contactId"`
	AccountNumber  int       `json:"accountNumber"`
	Status         string    `json:"status"`
	OpeningBalance string    `json:"openingBalance"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CustomerRegisteredEvent struct {
	EventID   string               `json:"eventId"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerStatusChangedEvent struct {
	EventID   string               `json:"eventId"`
	Timestamp time.Time            `json:"timestamp"`
	OldStatus string               `json:"oldStatus"`
	NewStatus string               `json:"newStatus"`
	Payload   CustomerEventPayload `json:"payload"`
}

func NewCustomerRegisteredEvent(payload CustomerEventPayload) CustomerRegisteredEvent {
	return CustomerRegisteredEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func NewCustomerStatusChangedEvent(oldStatus, newStatus string, payload CustomerEventPayload) CustomerStatusChangedEvent {
	return CustomerStatusChangedEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Payload:   payload,
	}
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

var _ EventPublisher = NoopPublisher{}

func (NoopPublisher) PublishCustomerRegistered(context.Context, CustomerRegisteredEvent) error {
	return nil
}

func (NoopPublisher) PublishCustomerStatusChanged(context.Context, CustomerStatusChangedEvent) error {
	return nil
}
