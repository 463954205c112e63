package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/scribekit/logger"
)

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, serviceName, environment string, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.ExportInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.ExportInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(newResource(serviceName, cfg.ServiceVersion, environment)),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", serviceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.ExportInterval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the pipeline.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
	retryTotal        metric.Int64Counter
	segmentTotal      metric.Int64Counter
	inFlight          metric.Int64UpDownCounter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operationTotal, err := meter.Int64Counter("operation.total",
		metric.WithDescription("Total number of operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("operation.duration",
		metric.WithDescription("Duration of operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	retryTotal, err := meter.Int64Counter("transcription.retry.total",
		metric.WithDescription("Retried transcription attempts by provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.retry.total counter: %w", err)
	}

	segmentTotal, err := meter.Int64Counter("segment.total",
		metric.WithDescription("Segments produced by the segmentation stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating segment.total counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("transcription.in_flight",
		metric.WithDescription("Transcription jobs currently holding a local slot"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcription.in_flight gauge: %w", err)
	}

	return &Metrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		errorTotal:        errorTotal,
		retryTotal:        retryTotal,
		segmentTotal:      segmentTotal,
		inFlight:          inFlight,
	}, nil
}

// NewNopMetrics returns instruments from the global meter provider, which
// records nothing until InitMeter installs an exporter.
func NewNopMetrics() *Metrics {
	m, err := NewMetrics(Meter(defaultTracerName))
	if err != nil {
		panic(fmt.Sprintf("observability: global meter rejected instruments: %v", err))
	}
	return m
}

// RecordOperation records an operation execution.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.operationTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// RecordRetry counts one retried attempt against provider.
func (m *Metrics) RecordRetry(ctx context.Context, provider string) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordSegments counts segments produced for one run.
func (m *Metrics) RecordSegments(ctx context.Context, n int) {
	m.segmentTotal.Add(ctx, int64(n))
}

// JobStarted and JobFinished track jobs holding a local slot.
func (m *Metrics) JobStarted(ctx context.Context)  { m.inFlight.Add(ctx, 1) }
func (m *Metrics) JobFinished(ctx context.Context) { m.inFlight.Add(ctx, -1) }
