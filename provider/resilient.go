package provider

import (
	"context"

	"github.com/kbukum/scribekit/resilience"
)

// WithResilience wraps a RequestResponse provider with admission and retry.
// Execution chain: Bulkhead → Reservoir → Retry → Execute. The concurrency
// slot is held across retries. Empty config returns the provider unchanged.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{
		inner: p,
		state: BuildResilience(cfg),
	}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *ResilienceState
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return ExecuteWithResilience(ctx, r.state, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

// ExecuteWithResilience runs fn through the chain:
// Bulkhead.Acquire → Reservoir.Wait → Retry → fn.
// The reservoir is drawn only once a slot is held, so a start is counted
// when it actually happens. Waiting on either pool stops when ctx ends.
func ExecuteWithResilience[T any](ctx context.Context, s *ResilienceState, fn func() (T, error)) (T, error) {
	var zero T
	if s == nil {
		return fn()
	}

	if s.bh != nil {
		if err := s.bh.Acquire(ctx); err != nil {
			return zero, err
		}
		defer s.bh.Release()
	}
	if s.rv != nil {
		if err := s.rv.Wait(ctx); err != nil {
			return zero, err
		}
	}

	if s.retryCfg != nil {
		return resilience.Retry(ctx, *s.retryCfg, fn)
	}
	return fn()
}
