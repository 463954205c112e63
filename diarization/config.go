package diarization

import (
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/validation"
)

const (
	defaultURL     = "http://localhost:8388"
	defaultTimeout = 5 * time.Minute
)

// Config enables sidecar diarization for providers that do not label
// speakers.
type Config struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// BaseURL is the sidecar endpoint.
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MinSpeakers and MaxSpeakers bound the speaker search; zero leaves
	// it to the backend.
	MinSpeakers int `yaml:"min_speakers" mapstructure:"min_speakers" validate:"gte=0"`
	MaxSpeakers int `yaml:"max_speakers" mapstructure:"max_speakers" validate:"gte=0"`
}

// ApplyDefaults fills the sidecar endpoint and timeout.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks the config when diarization is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.MaxSpeakers > 0 && c.MinSpeakers > c.MaxSpeakers {
		return errors.InvalidInput("diarization.min_speakers", "must not exceed max_speakers")
	}
	return nil
}
