package whisper

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/transcription"
)

func TestSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("expected /transcribe, got %s", r.URL.Path)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("model"); got != "small" {
			t.Errorf("expected model small, got %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("expected language en, got %q", got)
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("expected audio part: %v", err)
			return
		}
		defer f.Close()
		if hdr.Filename != "seg-001.mp3" {
			t.Errorf("expected seg-001.mp3, got %q", hdr.Filename)
		}
		_, _ = w.Write([]byte(`{"text":" Hello there. ","language":"en","segments":[{"text":" Hello","start":0,"end":1.2},{"text":"there.","start":1.2,"end":2.75}]}`))
	}))
	defer srv.Close()

	p, err := New(transcription.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := p.Submit(context.Background(), transcription.Request{
		Path:  "/tmp/seg-001.mp3",
		Audio: bytes.NewReader([]byte("fake audio")),
		Model: "small",
		Hints: transcription.Hints{Language: "en"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Hello there." {
		t.Errorf("expected trimmed text, got %q", res.Text)
	}
	if len(res.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(res.Cues))
	}
	if res.Metadata.DurationSeconds != 2.75 {
		t.Errorf("expected duration from last cue, got %v", res.Metadata.DurationSeconds)
	}
	if res.Metadata.Language != "en" {
		t.Errorf("expected language en, got %q", res.Metadata.Language)
	}
	want := "00:00:00.000\nHello\n\n00:00:01.200\nthere."
	if got := res.CueTrack(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSubmitErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   errors.Kind
	}{
		{"server error", http.StatusBadGateway, errors.KindTransient},
		{"rate limited", http.StatusTooManyRequests, errors.KindTransient},
		{"bad request", http.StatusBadRequest, errors.KindPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			p, err := New(transcription.Config{BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = p.Submit(context.Background(), transcription.Request{Path: "a.mp3", Audio: bytes.NewReader(nil)})
			if err == nil {
				t.Fatal("expected error")
			}
			if k := errors.KindOf(err); k != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, k)
			}
		})
	}
}

func TestSubmitMissingFile(t *testing.T) {
	p, err := New(transcription.Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = p.Submit(context.Background(), transcription.Request{Path: t.TempDir() + "/missing.mp3"})
	if errors.KindOf(err) != errors.KindPrecondition {
		t.Errorf("expected precondition error, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p, _ := New(transcription.Config{BaseURL: srv.URL})
	if !p.IsAvailable(context.Background()) {
		t.Error("expected sidecar to be available")
	}
	if p.Name() != ProviderID {
		t.Errorf("expected name %q, got %q", ProviderID, p.Name())
	}
}
