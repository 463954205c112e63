package transcription

import (
	"time"

	"github.com/kbukum/scribekit/provider"
)

// Config is what a factory needs to build a provider. Credentials are
// supplied by the caller.
type Config struct {
	// ID is the provider id the config was registered under.
	ID string `yaml:"-" mapstructure:"-"`
	// BaseURL overrides the service endpoint.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// APIKey is the credential sent with each call.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Model is the default model when a request names none.
	Model string `yaml:"model" mapstructure:"model"`
	// Timeout bounds one HTTP call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Concurrency is the most calls in flight and the most starts per
	// second against this provider.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"omitempty,min=5,max=50"`
	// Diarize asks diarization-capable services to label speakers.
	Diarize bool `yaml:"diarize" mapstructure:"diarize"`
	// Format selects the response shape where a service offers several
	// (for example "verbose_json" or "vtt").
	Format string `yaml:"format" mapstructure:"format"`
}

// Factory builds a Provider from its config.
type Factory = provider.Factory[Config, Provider]

// Registry maps provider ids to factories.
type Registry = provider.Registry[Config, Provider]

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return provider.NewRegistry[Config, Provider]()
}
