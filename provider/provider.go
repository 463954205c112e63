package provider

import "context"

// Provider is what every backend reports about itself: transcription
// services, diarization sidecars and language models alike.
type Provider interface {
	Name() string
	// IsAvailable is a cheap reachability check; it never spends quota.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a backend from its typed config.
type Factory[C any, T Provider] func(cfg C) (T, error)

// Middleware wraps a RequestResponse with one cross-cutting concern.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain applies middlewares so the first one listed sees the call first:
// Chain(a, b, c)(p) is a(b(c(p))).
func Chain[I, O any](middlewares ...Middleware[I, O]) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}
