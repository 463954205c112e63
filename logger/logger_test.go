package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").WithComponent("scheduler")
	l.Info("segment done", Fields(FieldSegment, 3, FieldProvider, "openai"))

	m := decodeLine(t, &buf)
	if m["message"] != "segment done" {
		t.Errorf("expected message 'segment done', got %v", m["message"])
	}
	if m[FieldComponent] != "scheduler" {
		t.Errorf("expected component 'scheduler', got %v", m[FieldComponent])
	}
	if m[FieldSegment] != float64(3) {
		t.Errorf("expected segment 3, got %v", m[FieldSegment])
	}
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")
	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestWithContext_AddsRunID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")
	ctx := ContextWithRunID(context.Background(), "run-42")
	l.WithContext(ctx).Info("hello")

	m := decodeLine(t, &buf)
	if m[FieldRunID] != "run-42" {
		t.Errorf("expected run id, got %v", m[FieldRunID])
	}
}

func TestWithContext_NoRunID(t *testing.T) {
	l := NewNop()
	if l.WithContext(context.Background()) != l {
		t.Error("expected the same logger when no run id is present")
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info").WithFields(Fields("a", "b")).WithError(fmt.Errorf("boom"))
	l.Error("failed")

	m := decodeLine(t, &buf)
	if m["a"] != "b" {
		t.Errorf("expected field a=b, got %v", m["a"])
	}
	if m["error"] != "boom" {
		t.Errorf("expected error boom, got %v", m["error"])
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level info, got %s", cfg.Level)
	}
	if cfg.Format != FormatConsole {
		t.Errorf("expected format console, got %s", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output stdout, got %s", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetTagsGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	var buf bytes.Buffer
	SetGlobalLogger(NewWithWriter(&buf, "info"))
	Get("chunker").Info("ready")
	if !strings.Contains(buf.String(), `"component":"chunker"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil, "x") == nil {
		t.Error("expected fallback logger for nil input")
	}
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")
	OrDefault(l, "executor").Info("x")
	if !strings.Contains(buf.String(), `"component":"executor"`) {
		t.Errorf("expected component tag, got %q", buf.String())
	}
}

func TestFieldHelpers(t *testing.T) {
	f := Fields("k1", 1, "k2")
	if len(f) != 1 || f["k1"] != 1 {
		t.Errorf("expected odd trailing key to be ignored, got %v", f)
	}
	ef := ErrorFields("execute", fmt.Errorf("x"))
	if ef[FieldOperation] != "execute" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("plan", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}
