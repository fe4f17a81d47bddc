package batch

import (
	"context"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/infrastructure/monitoring"
	"fmt"
	"log/slog"
	"time"
)

// RegistryStatsJob refreshes the per-status and pool utilization gauges.
type RegistryStatsJob struct {
	registry customer.RegistryService
	metrics  monitoring.RegistryMetrics
	logger   *slog.Logger
}

func NewRegistryStatsJob(registry customer.RegistryService, logger *slog.Logger) *RegistryStatsJob {
	return newRegistryStatsJob(registry, monitoring.Registry, logger)
}

func newRegistryStatsJob(registry customer.RegistryService, metrics monitoring.RegistryMetrics, logger *slog.Logger) *RegistryStatsJob {
	if registry == nil || logger == nil {
		panic("RegistryStatsJob dependencies cannot be nil")
	}
	return &RegistryStatsJob{
		registry: registry,
		metrics:  metrics,
		logger:   logger.With("job", "RegistryStats"),
	}
}

func (j *RegistryStatsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting registry stats job.")

	stats, err := j.registry.Stats(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to compute registry stats, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to compute registry stats: %w", err)
	}

	for _, status := range customer.AllStatuses {
		j.metrics.CustomersByStatus.WithLabelValues(status.String()).Set(float64(stats.ByStatus[status]))
	}
	j.metrics.AccountPoolUtilization.Set(stats.PoolUtilization)

	j.logger.InfoContext(ctx, "Registry stats job finished successfully.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_customers", stats.Total),
		slog.Float64("pool_utilization", stats.PoolUtilization),
	)
	return nil
}
