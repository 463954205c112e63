package provider

import (
	"github.com/kbukum/scribekit/resilience"
)

// ResilienceConfig bundles optional admission and retry policies for a
// provider. Nil fields are skipped.
type ResilienceConfig struct {
	// Reservoir limits how many calls may start per refill interval.
	Reservoir *resilience.ReservoirConfig
	// Bulkhead limits concurrent calls.
	Bulkhead *resilience.BulkheadConfig
	// Retry retries failed calls with non-decreasing backoff.
	Retry *resilience.RetryConfig
}

// IsEmpty returns true if no policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.Reservoir == nil && c.Bulkhead == nil && c.Retry == nil
}

// ResilienceState holds the primitives built from a ResilienceConfig.
// One state is shared by every call through the same wrapped provider.
type ResilienceState struct {
	rv       *resilience.Reservoir
	bh       *resilience.Bulkhead
	retryCfg *resilience.RetryConfig
}

// BuildResilience creates initialized primitives from config.
func BuildResilience(cfg ResilienceConfig) *ResilienceState {
	if cfg.IsEmpty() {
		return nil
	}
	s := &ResilienceState{retryCfg: cfg.Retry}
	if cfg.Reservoir != nil {
		s.rv = resilience.NewReservoir(*cfg.Reservoir)
	}
	if cfg.Bulkhead != nil {
		s.bh = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	return s
}

// InFlight returns the number of calls holding a concurrency slot.
func (s *ResilienceState) InFlight() int {
	if s == nil || s.bh == nil {
		return 0
	}
	return s.bh.InUse()
}
