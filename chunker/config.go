package chunker

import (
	"github.com/kbukum/scribekit/validation"
)

const (
	// DefaultMaxTokens fits a chunk plus instructions in a 16k context.
	DefaultMaxTokens = 12000
	// DefaultSearchWindow is how far the period search looks each way.
	DefaultSearchWindow = 100
)

// Config configures a Chunker.
type Config struct {
	// MaxTokens is the naive chunk length.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	// Encoding names the tiktoken encoding.
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
	// SearchWindow bounds the period search on either side of the naive
	// boundary.
	SearchWindow int `yaml:"search_window" mapstructure:"search_window" validate:"gte=0"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.SearchWindow <= 0 {
		c.SearchWindow = DefaultSearchWindow
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
