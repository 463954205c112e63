package provider

import (
	"context"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
)

// WithLogging logs each call with the backend name and its duration in
// milliseconds. Failures carry the error code and kind; the run id comes
// from ctx.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &loggingRR[I, O]{inner: inner, log: logger.OrDefault(log, "provider")}
	}
}

type loggingRR[I, O any] struct {
	inner RequestResponse[I, O]
	log   *logger.Logger
}

func (l *loggingRR[I, O]) Name() string                         { return l.inner.Name() }
func (l *loggingRR[I, O]) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }

func (l *loggingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Execute(ctx, input)

	fields := logger.Fields(
		logger.FieldProvider, l.inner.Name(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	)
	log := l.log.WithContext(ctx)
	if err == nil {
		log.Debug("provider call ok", fields)
		return output, nil
	}

	fields[logger.FieldError] = err.Error()
	fields["kind"] = errors.KindOf(err).String()
	if appErr, ok := errors.AsAppError(err); ok {
		fields["code"] = string(appErr.Code)
	}
	log.Warn("provider call failed", fields)
	return output, err
}
