package main

import (
	"context"
	_ "customer-registry/docs"
	"customer-registry/internal/api"
	"customer-registry/internal/batch"
	"customer-registry/internal/config"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/event"
	redisstore "customer-registry/internal/infrastructure/cache/redis"
	"customer-registry/internal/infrastructure/database/postgres"
	"customer-registry/internal/infrastructure/logging"
	"customer-registry/internal/infrastructure/memory"
	"customer-registry/internal/infrastructure/tracing"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// @title Customer Registry API
// @version 1.0
// @description Bank customer registry: registration, account number assignment and lookup.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	tracerProvider, shutdownTracing, err := tracing.Setup(cfg.Tracing, os.Stdout, logger)
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("Failed to flush traces", "error", err)
		}
	}()

	repo, closeStorage, err := initializeStorage(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	publisher, closePublisher, err := initializePublisher(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Error("Failed to initialize event publisher", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	registry, err := initializeRegistry(cfg.Registry, repo, publisher, tracerProvider, logger)
	if err != nil {
		logger.Error("Failed to initialize customer registry", "error", err)
		os.Exit(1)
	}

	statsJob := batch.NewRegistryStatsJob(registry, logger)
	cronScheduler, err := startBatchJobs(cfg.Batch, logger, statsJob)
	if err != nil {
		logger.Error("Failed to schedule batch jobs", "error", err)
		os.Exit(1)
	}

	router, limiter := api.SetupRouter(registry, cfg, logger)
	defer limiter.Stop()

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed(), "storage", cfg.Storage.Driver)

	return cfg, logger
}

func initializeStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (customer.CustomerRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Info("Using in-memory customer storage")
		return memory.NewCustomerRepository(), func() {}, nil

	case config.StoragePostgres:
		logger.Info("Initializing database connection pool...")
		pool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		closeFn := func() {
			logger.Info("Closing database connection pool...")
			pool.Close()
		}
		return postgres.NewCustomerRepository(pool, logger), closeFn, nil

	case config.StorageRedis:
		client, err := redisstore.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			logger.Info("Closing Redis client...")
			if err := client.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}
		}
		return redisstore.NewCustomerRepository(client, cfg.Redis.KeyPrefix, logger), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func initializePublisher(cfg config.RabbitMQConfig, logger *slog.Logger) (event.EventPublisher, func(), error) {
	if !cfg.Enabled {
		logger.Info("RabbitMQ disabled, customer events will not be published")
		return event.NoopPublisher{}, func() {}, nil
	}

	logger.Info("Connecting to RabbitMQ...", "host", cfg.Host, "port", cfg.Port)
	conn, err := amqp.Dial(cfg.URI())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.ExchangeName, logger)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	closeFn := func() {
		logger.Info("Closing RabbitMQ connection...")
		if err := conn.Close(); err != nil {
			logger.Error("Failed to close RabbitMQ connection", "error", err)
		}
	}
	return publisher, closeFn, nil
}

func initializeRegistry(cfg config.RegistryConfig, repo customer.CustomerRepository, publisher event.EventPublisher, tp trace.TracerProvider, logger *slog.Logger) (customer.RegistryService, error) {
	bounds := customer.AccountNumberRange{Min: cfg.AccountNumberMin, Max: cfg.AccountNumberMax}
	accounts, err := customer.NewRandomAccountNumbers(bounds, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("Initializing customer registry", "account_min", bounds.Min, "account_max", bounds.Max, "max_attempts", cfg.MaxAttempts)
	return customer.NewRegistryService(repo, publisher, accounts, cfg.MaxAttempts, logger, customer.WithTracerProvider(tp)), nil
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.")
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg config.BatchConfig, logger *slog.Logger, statsJob *batch.RegistryStatsJob) (*cron.Cron, error) {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.StatsSchedule
	if scheduleSpec == "" {
		scheduleSpec = "*/5 * * * *"
		logger.Warn("Registry stats schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.StatsTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "RegistryStats")
		jobLogger.Debug("Cron triggered: Running registry stats job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := statsJob.Run(ctx); runErr != nil {
			jobLogger.Error("Registry stats job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule registry stats job with %q: %w", scheduleSpec, err)
	}
	logger.Info("Scheduled registry stats job", "schedule", scheduleSpec, "job_id", jobID)

	c.Start()
	logger.Info("Cron scheduler started.")
	return c, nil
}
