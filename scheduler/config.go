package scheduler

import (
	"math"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/media"
	"github.com/kbukum/scribekit/resilience"
	"github.com/kbukum/scribekit/validation"
)

const (
	minLocalPool = 6
	maxLocalPool = 30

	// MaxAttempts is the most times one segment is submitted.
	MaxAttempts = 3

	// DefaultConcurrency is the remote pool size when a provider sets none.
	DefaultConcurrency = 10

	defaultReservoirInterval = time.Second
)

// LocalPoolSize derives the local pool from the segment target size:
// round(240/targetMB) clamped to [6, 30]. 24 MB gives 10.
func LocalPoolSize(targetMB float64) int {
	if targetMB <= 0 {
		targetMB = media.DefaultTargetMB
	}
	n := int(math.Round(240 / targetMB))
	return min(max(n, minLocalPool), maxLocalPool)
}

// Config configures a Scheduler.
type Config struct {
	// LocalPoolSize bounds concurrently open segments. 0 derives it from
	// the default target size.
	LocalPoolSize int `yaml:"local_pool_size" mapstructure:"local_pool_size" validate:"gte=0"`
	// Retry is the per-segment retry policy.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	// ReservoirInterval is the remote pool refill cadence.
	ReservoirInterval time.Duration `yaml:"reservoir_interval" mapstructure:"reservoir_interval" validate:"gte=0"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LocalPoolSize <= 0 {
		c.LocalPoolSize = LocalPoolSize(media.DefaultTargetMB)
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = MaxAttempts
	}
	def := resilience.DefaultRetryConfig()
	if c.Retry.InitialBackoff <= 0 {
		c.Retry.InitialBackoff = def.InitialBackoff
	}
	if c.Retry.MaxBackoff <= 0 {
		c.Retry.MaxBackoff = def.MaxBackoff
	}
	if c.Retry.BackoffFactor < 1 {
		c.Retry.BackoffFactor = def.BackoffFactor
	}
	if c.ReservoirInterval <= 0 {
		c.ReservoirInterval = defaultReservoirInterval
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Retry.MaxAttempts > MaxAttempts {
		return errors.InvalidInput("scheduler.retry.max_attempts", "must be at most 3")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return errors.InvalidInput("scheduler.retry.jitter", "must be between 0 and 1")
	}
	return nil
}
