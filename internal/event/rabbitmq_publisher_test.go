package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeChannel struct {
	exchange   string
	routingKey string
	msg        amqp.Publishing
	publishErr error
	closed     bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.routingKey = key
	c.msg = msg
	return c.publishErr
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func newTestPublisher(ch *fakeChannel, openErr error) *RabbitMQEventPublisher {
	return &RabbitMQEventPublisher{
		openChannel: func() (publishChannel, error) {
			if openErr != nil {
				return nil, openErr
			}
			return ch, nil
		},
		exchangeName: "customer-registry",
		logger:       logger,
	}
}

func TestNewRabbitMQEventPublisherValidation(t *testing.T) {
	_, err := NewRabbitMQEventPublisher(nil, "customer-registry", logger)
	assert.EqualError(t, err, "RabbitMQ connection cannot be nil")

	_, err = NewRabbitMQEventPublisher(&amqp.Connection{}, "", logger)
	assert.EqualError(t, err, "RabbitMQ exchange name cannot be empty")
}

func TestPublishCustomerRegistered(t *testing.T) {
	ch := &fakeChannel{}
	pub := newTestPublisher(ch, nil)

	event := NewCustomerRegisteredEvent(CustomerEventPayload{
		CustomerID:    7,
		Name:          "Alice",
		ContactID:     "a@x.com",
		AccountNumber: 12345,
		Status:        "ACTIVE",
	})

	err := pub.PublishCustomerRegistered(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "customer-registry", ch.exchange)
	assert.Equal(t, RoutingKeyCustomerRegistered, ch.routingKey)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, event.EventID, ch.msg.MessageId)
	assert.Equal(t, publisherAppID, ch.msg.AppId)
	assert.True(t, ch.closed, "channel should be closed after publishing")

	var decoded CustomerRegisteredEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, 12345, decoded.Payload.AccountNumber)
	assert.Equal(t, "a@x.com", decoded.Payload.ContactID)
}

func TestPublishCustomerStatusChanged(t *testing.T) {
	ch := &fakeChannel{}
	pub := newTestPublisher(ch, nil)

	event := NewCustomerStatusChangedEvent("ACTIVE", "BLOCKED", CustomerEventPayload{ContactID: "a@x.com"})
	require.NoError(t, pub.PublishCustomerStatusChanged(context.Background(), event))

	assert.Equal(t, RoutingKeyCustomerStatusChanged, ch.routingKey)
	var decoded CustomerStatusChangedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "ACTIVE", decoded.OldStatus)
	assert.Equal(t, "BLOCKED", decoded.NewStatus)
}

func TestPublishErrors(t *testing.T) {
	t.Run("open channel failure", func(t *testing.T) {
		pub := newTestPublisher(nil, errors.New("connection closed"))
		err := pub.PublishCustomerRegistered(context.Background(), NewCustomerRegisteredEvent(CustomerEventPayload{}))
		assert.ErrorContains(t, err, "failed to open channel")
	})

	t.Run("publish failure", func(t *testing.T) {
		ch := &fakeChannel{publishErr: errors.New("broker unavailable")}
		pub := newTestPublisher(ch, nil)
		err := pub.PublishCustomerRegistered(context.Background(), NewCustomerRegisteredEvent(CustomerEventPayload{}))
		assert.ErrorContains(t, err, "failed to publish message")
		assert.True(t, ch.closed)
	})
}

func TestNewEventsHaveDistinctIDs(t *testing.T) {
	a := NewCustomerRegisteredEvent(CustomerEventPayload{})
	b := NewCustomerRegisteredEvent(CustomerEventPayload{})
	assert.NotEmpty(t, a.EventID)
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.False(t, a.Timestamp.IsZero())
}

func TestNoopPublisher(t *testing.T) {
	var pub EventPublisher = NoopPublisher{}
	assert.NoError(t, pub.PublishCustomerRegistered(context.Background(), CustomerRegisteredEvent{}))
	assert.NoError(t, pub.PublishCustomerStatusChanged(context.Background(), CustomerStatusChangedEvent{}))
}
