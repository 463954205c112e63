package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/scribekit/errors"
)

type poolConfig struct {
	Size    int    `mapstructure:"size" validate:"gte=5,lte=50"`
	Mode    string `mapstructure:"mode" validate:"oneof=simple direct"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

type rootConfig struct {
	Pool      poolConfig `mapstructure:"pool"`
	MaxTokens int        `mapstructure:"max_tokens" validate:"gt=0"`
}

func TestValidate_Valid(t *testing.T) {
	cfg := rootConfig{Pool: poolConfig{Size: 10, Mode: "simple"}, MaxTokens: 1000}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidate_ReportsConfigKeys(t *testing.T) {
	cfg := rootConfig{Pool: poolConfig{Size: 2, Mode: "fancy", BaseURL: "not a url"}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	for _, want := range []string{
		"pool.size must be at least 5",
		"pool.mode must be one of: simple direct",
		"pool.base_url must be a valid URL",
		"max_tokens must be greater than 0",
	} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected message to contain %q, got %q", want, appErr.Message)
		}
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", appErr.Details["fields"])
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"BaseURL":   "base_u_r_l",
		"MaxTokens": "max_tokens",
		"size":      "size",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
