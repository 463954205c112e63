// Package provider is a small generic framework for swappable backends.
//
// A Registry maps provider ids to typed factories so callers pick an
// implementation by id from configuration and never branch on names.
//
// RequestResponse[I, O] is the single interaction pattern: one input, one
// output. Middleware[I, O] wraps it with cross-cutting behavior:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("scribekit"),
//	)(raw)
//
// WithResilience adds a concurrency bulkhead, a start-rate reservoir and
// retry around Execute.
package provider
