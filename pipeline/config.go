package pipeline

import (
	"fmt"
	"os"

	"github.com/kbukum/scribekit/chunker"
	"github.com/kbukum/scribekit/config"
	"github.com/kbukum/scribekit/diarization"
	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/media"
	"github.com/kbukum/scribekit/observability"
	"github.com/kbukum/scribekit/scheduler"
	"github.com/kbukum/scribekit/storage"
	"github.com/kbukum/scribekit/summarize"
	"github.com/kbukum/scribekit/transcript"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/validation"
	"github.com/kbukum/scribekit/version"
)

// ServiceName is the default service name and config file stem.
const ServiceName = "scribe"

// EnvPrefix prefixes environment overrides: SCRIBE_MEDIA_TARGET_MB.
const EnvPrefix = "SCRIBE"

// ProviderConfig configures one transcription provider.
type ProviderConfig struct {
	transcription.Config `yaml:",inline" mapstructure:",squash"`
	// Hints are sent with every segment.
	Hints transcription.Hints `yaml:"hints" mapstructure:"hints"`
	// JoinMode overrides the join mode the provider implies.
	JoinMode string `yaml:"join_mode" mapstructure:"join_mode" validate:"omitempty,oneof=simple direct"`
}

// Config is the full pipeline configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Provider is the provider id used when a run names none.
	Provider string `yaml:"provider" mapstructure:"provider"`
	// Providers holds per-provider settings keyed by provider id.
	Providers map[string]ProviderConfig `yaml:"providers" mapstructure:"providers" validate:"dive"`

	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Scheduler     scheduler.Config     `yaml:"scheduler" mapstructure:"scheduler"`
	Chunker       chunker.Config       `yaml:"chunker" mapstructure:"chunker"`
	Summarize     summarize.Config     `yaml:"summarize" mapstructure:"summarize"`
	Diarization   diarization.Config   `yaml:"diarization" mapstructure:"diarization"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`

	// WorkDir is the parent of per-run working directories.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	// KeepWorkDir leaves run directories in place after Close.
	KeepWorkDir bool `yaml:"keep_work_dir" mapstructure:"keep_work_dir"`
}

// Load reads configuration from config.yml, .env and SCRIBE_* variables,
// then applies defaults and validates.
func Load(opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	opts = append([]config.LoaderOption{config.WithEnvPrefix(EnvPrefix)}, opts...)
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetServiceConfig returns the embedded base config.
func (c *Config) GetServiceConfig() *config.ServiceConfig {
	return &c.ServiceConfig
}

// ApplyDefaults fills in zero-valued fields. The local pool follows the
// segment target size unless set.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Media.ApplyDefaults()
	if c.Scheduler.LocalPoolSize <= 0 {
		c.Scheduler.LocalPoolSize = scheduler.LocalPoolSize(c.Media.TargetMB)
	}
	c.Scheduler.ApplyDefaults()
	c.Chunker.ApplyDefaults()
	c.Summarize.ApplyDefaults()
	c.Diarization.ApplyDefaults()
	c.Storage.ApplyDefaults()
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = version.Short()
	}
	c.Observability.ApplyDefaults()
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
	for id, p := range c.Providers {
		p.ID = id
		c.Providers[id] = p
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	sections := []struct {
		name string
		fn   func() error
	}{
		{"media", c.Media.Validate},
		{"scheduler", c.Scheduler.Validate},
		{"chunker", c.Chunker.Validate},
		{"summarize", c.Summarize.Validate},
		{"diarization", c.Diarization.Validate},
		{"storage", c.Storage.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, s := range sections {
		if err := s.fn(); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}
	for id, p := range c.Providers {
		if _, err := transcript.ParseMode(p.JoinMode); err != nil {
			return errors.InvalidInput("providers."+id+".join_mode", err.Error())
		}
	}
	return nil
}

// ProviderSettings returns the settings for id. Unknown ids get an empty
// config carrying only the id.
func (c *Config) ProviderSettings(id string) ProviderConfig {
	p, ok := c.Providers[id]
	if !ok {
		p.ID = id
	}
	return p
}
