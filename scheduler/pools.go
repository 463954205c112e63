package scheduler

import (
	"sync"
	"time"

	"github.com/kbukum/scribekit/provider"
	"github.com/kbukum/scribekit/resilience"
)

// Pools holds one remote admission pool per provider id. Share one Pools
// between schedulers so concurrent runs against the same provider respect
// a single limit.
type Pools struct {
	interval time.Duration

	mu    sync.Mutex
	pools map[string]*provider.ResilienceState
}

// NewPools creates an empty set. interval is the reservoir refill cadence.
func NewPools(interval time.Duration) *Pools {
	if interval <= 0 {
		interval = defaultReservoirInterval
	}
	return &Pools{interval: interval, pools: make(map[string]*provider.ResilienceState)}
}

// For returns the pool for providerID, creating it with concurrency slots
// and concurrency starts per interval. The first caller fixes the size.
func (p *Pools) For(providerID string, concurrency int) *provider.ResilienceState {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.pools[providerID]; ok {
		return s
	}
	s := provider.BuildResilience(provider.ResilienceConfig{
		Bulkhead:  &resilience.BulkheadConfig{Name: providerID, MaxConcurrent: concurrency},
		Reservoir: &resilience.ReservoirConfig{Name: providerID, Size: concurrency, Interval: p.interval},
	})
	p.pools[providerID] = s
	return s
}
