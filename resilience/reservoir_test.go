package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestReservoir(size int) (*Reservoir, *fakeClock) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	r := &Reservoir{config: ReservoirConfig{Size: size, Interval: time.Second}, now: clock.Now}
	r.tokens = size
	r.nextRefill = clock.Now().Add(time.Second)
	return r, clock
}

func TestReservoir_EmptiesWithinWindow(t *testing.T) {
	r, _ := newTestReservoir(3)
	for i := 0; i < 3; i++ {
		if err := r.TryTake(); err != nil {
			t.Fatalf("take %d: unexpected error %v", i, err)
		}
	}
	if err := r.TryTake(); !errors.Is(err, ErrReservoirEmpty) {
		t.Errorf("expected ErrReservoirEmpty, got %v", err)
	}
}

func TestReservoir_RefillsOnCadence(t *testing.T) {
	r, clock := newTestReservoir(2)
	_ = r.TryTake()
	_ = r.TryTake()

	clock.Advance(999 * time.Millisecond)
	if r.Remaining() != 0 {
		t.Errorf("expected no refill before the window ends, got %d", r.Remaining())
	}
	clock.Advance(time.Millisecond)
	if r.Remaining() != 2 {
		t.Errorf("expected full refill, got %d", r.Remaining())
	}

	// Refill never exceeds Size even after idle windows.
	clock.Advance(5 * time.Second)
	if r.Remaining() != 2 {
		t.Errorf("expected capacity 2 after idling, got %d", r.Remaining())
	}
}

func TestReservoir_WaitBlocksUntilRefill(t *testing.T) {
	r := NewReservoir(ReservoirConfig{Size: 1, Interval: 30 * time.Millisecond})
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected to wait for the refill, waited %v", elapsed)
	}
}

func TestReservoir_WaitRespectsContext(t *testing.T) {
	r := NewReservoir(ReservoirConfig{Size: 1, Interval: time.Hour})
	_ = r.TryTake()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestNewReservoir_Defaults(t *testing.T) {
	r := NewReservoir(ReservoirConfig{})
	if r.Size() != 10 {
		t.Errorf("expected default size 10, got %d", r.Size())
	}
	if r.config.Interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", r.config.Interval)
	}
}
