package summarize

import (
	"time"

	"github.com/kbukum/scribekit/provider"
)

// LLM is a chat-completion backend.
type LLM = provider.RequestResponse[CompletionRequest, *CompletionResponse]

// LLMConfig is what a factory needs to build a backend.
type LLMConfig struct {
	// ID is the backend id the config was registered under.
	ID      string        `yaml:"-" mapstructure:"-"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Registry maps backend ids to factories.
type Registry = provider.Registry[LLMConfig, LLM]

// NewRegistry returns a registry with the built-in backends.
func NewRegistry() *Registry {
	r := provider.NewRegistry[LLMConfig, LLM]()
	r.RegisterFactory(OpenAIID, OpenAIFactory)
	r.RegisterFactory(GroqID, GroqFactory)
	r.RegisterFactory(OllamaID, OllamaFactory)
	return r
}
