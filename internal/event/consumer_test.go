package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeliveryChannel struct {
	mu           sync.Mutex
	deliveries   chan amqp.Delivery
	closeOnce    sync.Once
	consumeErr   error
	consumeCalls int
	queue        string
	cancelledTag string
	closed       bool
}

func newFakeDeliveryChannel() *fakeDeliveryChannel {
	return &fakeDeliveryChannel{deliveries: make(chan amqp.Delivery)}
}

func (c *fakeDeliveryChannel) Consume(queue, _ string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumeCalls++
	c.queue = queue
	if c.consumeErr != nil {
		return nil, c.consumeErr
	}
	return c.deliveries, nil
}

// Cancel closes the delivery channel the way the broker does once the
// consumer tag is cancelled.
func (c *fakeDeliveryChannel) Cancel(consumer string, _ bool) error {
	c.mu.Lock()
	c.cancelledTag = consumer
	c.mu.Unlock()
	c.closeDeliveries()
	return nil
}

func (c *fakeDeliveryChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeDeliveryChannel) closeDeliveries() {
	c.closeOnce.Do(func() { close(c.deliveries) })
}

func (c *fakeDeliveryChannel) state() (calls int, tag string, closed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consumeCalls, c.cancelledTag, c.closed
}

func waitDone(t *testing.T, c *Consumer) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("consumer loop did not exit")
	}
}

func noopHandler(context.Context, amqp.Delivery) {}

func TestConsumer_DispatchesDeliveries(t *testing.T) {
	ch := newFakeDeliveryChannel()
	received := make(chan string, 2)
	c := newConsumer(ch, "customer-notifications", "notifier", func(_ context.Context, d amqp.Delivery) {
		received <- d.RoutingKey
	}, logger)

	require.NoError(t, c.Start(context.Background()))

	ch.deliveries <- amqp.Delivery{RoutingKey: RoutingKeyCustomerRegistered}
	ch.deliveries <- amqp.Delivery{RoutingKey: RoutingKeyCustomerStatusChanged}

	assert.Equal(t, RoutingKeyCustomerRegistered, <-received)
	assert.Equal(t, RoutingKeyCustomerStatusChanged, <-received)

	c.Stop()
	waitDone(t, c)

	calls, tag, closed := ch.state()
	assert.Equal(t, 1, calls)
	assert.Equal(t, "customer-notifications", ch.queue)
	assert.Equal(t, "notifier", tag)
	assert.True(t, closed)
}

func TestConsumer_ContextCancelEndsLoop(t *testing.T) {
	ch := newFakeDeliveryChannel()
	c := newConsumer(ch, "q", "tag", noopHandler, logger)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, c.Start(ctx))
	cancel()
	waitDone(t, c)

	_, tag, closed := ch.state()
	assert.Empty(t, tag)
	assert.False(t, closed)

	c.Stop()
	_, tag, closed = ch.state()
	assert.Equal(t, "tag", tag)
	assert.True(t, closed)
}

func TestConsumer_DeliveryChannelClosed(t *testing.T) {
	ch := newFakeDeliveryChannel()
	c := newConsumer(ch, "q", "tag", noopHandler, logger)

	require.NoError(t, c.Start(context.Background()))
	ch.closeDeliveries()
	waitDone(t, c)

	c.Stop()
	_, _, closed := ch.state()
	assert.True(t, closed)
}

func TestConsumer_StartTwice(t *testing.T) {
	ch := newFakeDeliveryChannel()
	c := newConsumer(ch, "q", "tag", noopHandler, logger)

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrConsumerStarted)

	calls, _, _ := ch.state()
	assert.Equal(t, 1, calls)
	c.Stop()
}

func TestConsumer_ConsumeError(t *testing.T) {
	ch := newFakeDeliveryChannel()
	ch.consumeErr = errors.New("access refused")
	c := newConsumer(ch, "q", "tag", noopHandler, logger)

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "access refused")

	c.Stop()
	waitDone(t, c)
	_, tag, closed := ch.state()
	assert.Empty(t, tag)
	assert.True(t, closed)
}

func TestConsumer_StopBeforeStart(t *testing.T) {
	ch := newFakeDeliveryChannel()
	c := newConsumer(ch, "q", "tag", noopHandler, logger)

	c.Stop()
	waitDone(t, c)
	c.Stop()

	calls, tag, closed := ch.state()
	assert.Zero(t, calls)
	assert.Empty(t, tag)
	assert.True(t, closed)
	assert.ErrorIs(t, c.Start(context.Background()), ErrConsumerStopped)
}

func TestNewConsumerValidation(t *testing.T) {
	_, err := NewConsumer(nil, "ex", "q", "tag", noopHandler, logger)
	assert.EqualError(t, err, "RabbitMQ connection cannot be nil")

	_, err = NewConsumer(&amqp.Connection{}, "ex", "q", "tag", nil, logger)
	assert.EqualError(t, err, "message handler cannot be nil")
}

type fakeTopologyChannel struct {
	exchange     string
	exchangeKind string
	queue        string
	bindings     []string
	prefetch     int
	bindErr      error
}

func (c *fakeTopologyChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.exchange = name
	c.exchangeKind = kind
	return nil
}

func (c *fakeTopologyChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.queue = name
	return amqp.Queue{Name: name}, nil
}

func (c *fakeTopologyChannel) QueueBind(_, key, _ string, _ bool, _ amqp.Table) error {
	if c.bindErr != nil {
		return c.bindErr
	}
	c.bindings = append(c.bindings, key)
	return nil
}

func (c *fakeTopologyChannel) Qos(prefetchCount, _ int, _ bool) error {
	c.prefetch = prefetchCount
	return nil
}

func TestDeclareTopology(t *testing.T) {
	t.Run("declares and binds every routing key", func(t *testing.T) {
		ch := &fakeTopologyChannel{}

		queue, err := declareTopology(ch, "customer-registry", "customer-notifications", logger)

		require.NoError(t, err)
		assert.Equal(t, "customer-notifications", queue)
		assert.Equal(t, "customer-registry", ch.exchange)
		assert.Equal(t, amqp.ExchangeTopic, ch.exchangeKind)
		assert.Equal(t, []string{RoutingKeyCustomerRegistered, RoutingKeyCustomerStatusChanged}, ch.bindings)
		assert.Equal(t, 1, ch.prefetch)
	})

	t.Run("bind failure", func(t *testing.T) {
		ch := &fakeTopologyChannel{bindErr: errors.New("no route")}

		_, err := declareTopology(ch, "customer-registry", "customer-notifications", logger)

		assert.ErrorContains(t, err, "failed to bind queue 'customer-notifications'")
		assert.Zero(t, ch.prefetch)
	})
}
