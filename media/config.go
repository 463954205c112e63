package media

import (
	"time"

	"github.com/kbukum/scribekit/validation"
)

const (
	defaultPrefix        = "segment"
	defaultCheckInterval = 2 * time.Second
	defaultTimeout       = 30 * time.Minute
)

// Config configures planning and segmentation.
type Config struct {
	Limits `yaml:",inline" mapstructure:",squash"`

	// FFmpeg is the ffmpeg binary path or name.
	FFmpeg string `yaml:"ffmpeg" mapstructure:"ffmpeg"`
	// FFprobe is the ffprobe binary path or name.
	FFprobe string `yaml:"ffprobe" mapstructure:"ffprobe"`
	// Prefix names segment files: <prefix>-000.<ext>.
	Prefix string `yaml:"prefix" mapstructure:"prefix" validate:"excludesall=/"`
	// CheckInterval is how often the segmentation liveness check runs.
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval" validate:"gte=0"`
	// Timeout is how long segmentation may run before it is killed.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	c.Limits = c.Limits.withDefaults()
	if c.FFmpeg == "" {
		c.FFmpeg = "ffmpeg"
	}
	if c.FFprobe == "" {
		c.FFprobe = "ffprobe"
	}
	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
