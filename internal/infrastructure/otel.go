package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ServiceName identifies this service in traces and metrics.
	ServiceName = "leadpulse"
	// MeterName is the instrumentation scope for application metrics.
	MeterName = "leadpulse"
)

// OTelProviders holds the configured OpenTelemetry providers and the
// application's business metrics.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Metrics        *BusinessMetrics
}

// BusinessMetrics are the dashboard's own instruments.
type BusinessMetrics struct {
	RefreshTotal    metric.Int64Counter
	RefreshFailures metric.Int64Counter
	ExportTotal     metric.Int64Counter
	LeadCount       metric.Int64Gauge
}

// InitializeOTel sets up tracing (stdout exporter) and metrics (Prometheus
// exporter, served through the returned PrometheusHTTP handler) and
// registers both providers globally.
func InitializeOTel(logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter(MeterName)
	metrics, err := createBusinessMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	logger.InfoContext(ctx, "observability initialized",
		slog.String("service", ServiceName),
		slog.String("trace_exporter", "stdout"),
		slog.String("metric_exporter", "prometheus"))

	return &OTelProviders{
		TracerProvider: tp,
		MeterProvider:  mp,
		Tracer:         tp.Tracer(ServiceName),
		Meter:          meter,
		PrometheusHTTP: promhttp.Handler(),
		Metrics:        metrics,
	}, nil
}

func createBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	refreshTotal, err := meter.Int64Counter("leadpulse_refresh_total",
		metric.WithDescription("Completed data refresh cycles"))
	if err != nil {
		return nil, err
	}
	refreshFailures, err := meter.Int64Counter("leadpulse_refresh_failures_total",
		metric.WithDescription("Failed data refresh cycles"))
	if err != nil {
		return nil, err
	}
	exportTotal, err := meter.Int64Counter("leadpulse_export_total",
		metric.WithDescription("Completed exports by format"))
	if err != nil {
		return nil, err
	}
	leadCount, err := meter.Int64Gauge("leadpulse_lead_count",
		metric.WithDescription("Leads in the current snapshot"))
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		RefreshTotal:    refreshTotal,
		RefreshFailures: refreshFailures,
		ExportTotal:     exportTotal,
		LeadCount:       leadCount,
	}, nil
}

// RecordExport increments the export counter for one format (csv, xlsx, pdf).
func (m *BusinessMetrics) RecordExport(ctx context.Context, format string) {
	if m == nil {
		return
	}
	m.ExportTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

// RecordRefresh records the outcome of one refresh cycle.
func (m *BusinessMetrics) RecordRefresh(ctx context.Context, leadCount int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RefreshFailures.Add(ctx, 1)
		return
	}
	m.RefreshTotal.Add(ctx, 1)
	m.LeadCount.Record(ctx, int64(leadCount))
}

// Shutdown flushes and stops both providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
