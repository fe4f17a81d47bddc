package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrConsumerStarted = errors.New("consumer already started")
	ErrConsumerStopped = errors.New("consumer already stopped")
)

type MessageHandler func(ctx context.Context, d amqp.Delivery)

type deliveryChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	Close() error
}

type exchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

type topologyChannel interface {
	exchangeDeclarer
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
}

// Consumer feeds deliveries from one queue to a MessageHandler, one at a
// time. A Consumer can be started once; Stop releases the channel.
type Consumer struct {
	channel     deliveryChannel
	queueName   string
	consumerTag string
	handler     MessageHandler
	logger      *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewConsumer(
	conn *amqp.Connection,
	exchangeName, queueName, consumerTag string,
	handler MessageHandler,
	logger *slog.Logger,
) (*Consumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	boundQueue, err := declareTopology(ch, exchangeName, queueName, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	return newConsumer(ch, boundQueue, consumerTag, handler, logger), nil
}

func newConsumer(ch deliveryChannel, queueName, consumerTag string, handler MessageHandler, logger *slog.Logger) *Consumer {
	return &Consumer{
		channel:     ch,
		queueName:   queueName,
		consumerTag: consumerTag,
		handler:     handler,
		logger:      logger.With("component", "consumer", "queue", queueName),
		done:        make(chan struct{}),
	}
}

// declareTopology makes sure the exchange and a durable queue exist, binds
// the queue to every customer routing key and limits unacked deliveries to
// one. It returns the name the broker assigned to the queue.
func declareTopology(ch topologyChannel, exchangeName, queueName string, logger *slog.Logger) (string, error) {
	logger.Info("Declaring exchange", "name", exchangeName, "type", amqp.ExchangeTopic)
	if err := declareExchange(ch, exchangeName); err != nil {
		return "", err
	}

	logger.Info("Declaring queue", "name", queueName)
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return "", fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}

	for _, key := range []string{RoutingKeyCustomerRegistered, RoutingKeyCustomerStatusChanged} {
		logger.Info("Binding queue", "queue", q.Name, "exchange", exchangeName, "key", key)
		if err := ch.QueueBind(q.Name, key, exchangeName, false, nil); err != nil {
			return "", fmt.Errorf("failed to bind queue '%s' with key '%s': %w", q.Name, key, err)
		}
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return "", fmt.Errorf("failed to set QoS: %w", err)
	}
	return q.Name, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.stopped:
		return ErrConsumerStopped
	case c.started:
		return ErrConsumerStarted
	}

	c.logger.Info("Starting message consumption...")
	deliveries, err := c.channel.Consume(c.queueName, c.consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true

	go c.consume(loopCtx, deliveries)
	return nil
}

func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer close(c.done)
	c.logger.Info("Consumer goroutine started.")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer context cancelled. Exiting consumption loop.")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("RabbitMQ delivery channel closed unexpectedly.")
				return
			}
			c.handler(ctx, d)
		}
	}
}

// Done is closed once the consumption loop has exited, or when the consumer
// is stopped without ever being started.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

func (c *Consumer) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started, cancel := c.started, c.cancel
	c.mu.Unlock()

	c.logger.Info("Stopping consumer...")
	if started {
		cancel()
		if err := c.channel.Cancel(c.consumerTag, false); err != nil {
			c.logger.Warn("Failed to cancel consumer tag", "tag", c.consumerTag, "error", err)
		}
		c.logger.Info("Waiting for consumer goroutine to exit...")
		<-c.done
		c.logger.Info("Consumer goroutine finished.")
	} else {
		close(c.done)
	}

	if err := c.channel.Close(); err != nil {
		c.logger.Error("Failed to close consumer channel", "error", err)
	} else {
		c.logger.Info("Consumer channel closed.")
	}
}
