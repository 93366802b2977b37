// Package observability bootstraps OpenTelemetry tracing.
package observability

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// TracerName is the instrumentation scope used for spans created by this service.
const TracerName = "leadscore_backend"

var (
	otelOnce     sync.Once
	otelShutdown = func(context.Context) error { return nil }
)

// InitOTel installs a global tracer provider when tracing is enabled.
// The returned shutdown func is always non-nil.
func InitOTel(ctx context.Context, log *logger.Logger, cfg config.ObservabilityConfig, serviceName, env string) func(context.Context) error {
	otelOnce.Do(func() {
		if !cfg.IsOTelEnabled() {
			return
		}
		serviceName = strings.TrimSpace(serviceName)
		if serviceName == "" {
			serviceName = "leadscore"
		}
		res, err := resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(serviceName),
				attribute.String("deployment.environment", strings.TrimSpace(env)),
			),
		)
		if err != nil {
			log.Warn("otel resource init failed (continuing)", slog.String("error", err.Error()))
		}

		sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.GetOTelSampleRatio()))
		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sampler),
			sdktrace.WithResource(res),
		}
		exporter, expErr := buildTraceExporter(ctx, log, cfg)
		if expErr != nil {
			log.Warn("otel exporter init failed (continuing)", slog.String("error", expErr.Error()))
		}
		if exporter != nil {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}

		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		log.Info("otel tracing initialized", slog.String("service", serviceName), slog.String("endpoint", cfg.GetOTelEndpoint()))
	})
	return otelShutdown
}

func buildTraceExporter(ctx context.Context, log *logger.Logger, cfg config.ObservabilityConfig) (sdktrace.SpanExporter, error) {
	endpoint := cfg.GetOTelEndpoint()
	if endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.GetOTelInsecure() {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	return exp, nil
}
