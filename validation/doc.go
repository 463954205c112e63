// Package validation checks configuration structs against `validate` struct
// tags and reports failures as a single INVALID_INPUT error.
//
//	type Config struct {
//	    MaxTokens int `mapstructure:"max_tokens" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
package validation
