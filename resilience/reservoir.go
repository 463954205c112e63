package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrReservoirEmpty is returned by TryTake when no starts are left in the
// current window.
var ErrReservoirEmpty = errors.New("reservoir is empty")

// ReservoirConfig configures a reservoir.
type ReservoirConfig struct {
	// Name identifies this reservoir for logging.
	Name string
	// Size is how many operations may start per window.
	Size int
	// Interval is the refill cadence. Defaults to one second.
	Interval time.Duration
}

// Reservoir is a token bucket that is topped back up to Size once every
// Interval rather than continuously, so at most Size operations start in
// any one window.
type Reservoir struct {
	config ReservoirConfig
	now    func() time.Time

	mu         sync.Mutex
	tokens     int
	nextRefill time.Time
}

// NewReservoir creates a full reservoir.
func NewReservoir(config ReservoirConfig) *Reservoir {
	if config.Size <= 0 {
		config.Size = 10
	}
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	r := &Reservoir{config: config, now: time.Now}
	r.tokens = config.Size
	r.nextRefill = r.now().Add(config.Interval)
	return r
}

// TryTake takes one start without blocking.
func (r *Reservoir) TryTake() error {
	if _, ok := r.take(); ok {
		return nil
	}
	return ErrReservoirEmpty
}

// Wait blocks until a start is available in the current window or ctx is done.
func (r *Reservoir) Wait(ctx context.Context) error {
	for {
		wait, ok := r.take()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Remaining returns the starts left in the current window.
func (r *Reservoir) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// Size returns the per-window capacity.
func (r *Reservoir) Size() int {
	return r.config.Size
}

// take consumes a token or reports how long until the next refill.
func (r *Reservoir) take() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	if r.tokens > 0 {
		r.tokens--
		return 0, true
	}
	return r.nextRefill.Sub(r.now()), false
}

func (r *Reservoir) refill() {
	now := r.now()
	if now.Before(r.nextRefill) {
		return
	}
	r.tokens = r.config.Size
	// Skip whole windows that elapsed while idle.
	for !now.Before(r.nextRefill) {
		r.nextRefill = r.nextRefill.Add(r.config.Interval)
	}
}
