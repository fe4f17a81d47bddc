package tracing

import (
	"context"
	"customer-registry/internal/config"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultServiceName = "customer-registry"

// ShutdownFunc flushes buffered spans and releases the exporter.
type ShutdownFunc func(ctx context.Context) error

// Setup installs the global tracer provider described by cfg. Spans are
// written as JSON lines to w. When tracing is disabled a no-op provider is
// returned and the global provider is left untouched.
func Setup(cfg config.TracingConfig, w io.Writer, logger *slog.Logger) (trace.TracerProvider, ShutdownFunc, error) {
	if !cfg.Enabled {
		logger.Info("Tracing disabled")
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing enabled", "service_name", serviceName, "sample_ratio", cfg.SampleRatio)

	shutdown := func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down tracer provider: %w", err)
		}
		return nil
	}
	return tp, shutdown, nil
}
