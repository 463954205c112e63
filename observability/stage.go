package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stage tracks one pipeline stage as a span plus an operation metric.
type Stage struct {
	name    string
	service string
	start   time.Time
	span    trace.Span
	metrics *Metrics
}

// StartStage opens a span named "<service>.<name>". If metrics is nil,
// metric recording is skipped.
func StartStage(ctx context.Context, service, name, runID string, metrics *Metrics) (context.Context, *Stage) {
	ctx, span := StartSpan(ctx, service+"."+name)
	span.SetAttributes(
		attribute.String(AttrServiceName, service),
		attribute.String(AttrStage, name),
		attribute.String(AttrRunID, runID),
	)
	return ctx, &Stage{
		name:    name,
		service: service,
		start:   time.Now(),
		span:    span,
		metrics: metrics,
	}
}

// End closes the stage. A non-nil err marks it failed.
func (s *Stage) End(ctx context.Context, err error) {
	duration := time.Since(s.start)
	status := "ok"
	if err != nil {
		status = "error"
		s.span.RecordError(err)
	}
	s.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	s.span.End()

	if s.metrics != nil {
		s.metrics.RecordOperation(ctx, s.service, s.name, status, duration)
		if err != nil {
			s.metrics.RecordError(ctx, status, s.name)
		}
	}
}

// Duration returns the time elapsed since the stage started.
func (s *Stage) Duration() time.Duration {
	return time.Since(s.start)
}
