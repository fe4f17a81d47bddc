package main

import (
	"context"
	"customer-registry/internal/config"
	"customer-registry/internal/event"
	"customer-registry/internal/infrastructure/logging"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

var errConsumerExited = errors.New("consumer stopped receiving deliveries")

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Notifier exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Notifier shut down gracefully.")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Connecting to RabbitMQ", "host", cfg.RabbitMQ.Host, "port", cfg.RabbitMQ.Port)
	conn, err := amqp.Dial(cfg.RabbitMQ.URI())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer func() {
		logger.Info("Closing RabbitMQ connection...")
		if err := conn.Close(); err != nil {
			logger.Error("Error closing RabbitMQ connection", slog.Any("error", err))
		}
	}()

	handler := event.NewNotificationHandler(newLogNotifier(os.Stdout, logger), logger)
	consumer, err := event.NewConsumer(
		conn,
		cfg.RabbitMQ.ExchangeName,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag,
		handler.HandleDelivery,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create RabbitMQ consumer: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	metricsServer := newMetricsServer(cfg.Metrics)
	g.Go(func() error {
		logger.Info("Serving metrics", "addr", metricsServer.Addr, "path", cfg.Metrics.Path)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := consumer.Start(gctx); err != nil {
			return err
		}
		logger.Info("Consumer started successfully. Waiting for events or shutdown signal...")
		return waitForConsumer(gctx, consumer)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down metrics server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type stoppableConsumer interface {
	Done() <-chan struct{}
	Stop()
}

func waitForConsumer(ctx context.Context, consumer stoppableConsumer) error {
	select {
	case <-ctx.Done():
		consumer.Stop()
		return nil
	case <-consumer.Done():
		consumer.Stop()
		if ctx.Err() != nil {
			return nil
		}
		return errConsumerExited
	}
}

func newMetricsServer(cfg config.MetricsConfig) *http.Server {
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
