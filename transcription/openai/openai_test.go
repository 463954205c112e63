package openai

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/transcription"
)

func newServer(t *testing.T, check func(r *http.Request), status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("expected /audio/transcriptions, got %s", r.URL.Path)
		}
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func submit(t *testing.T, cfg transcription.Config, hints transcription.Hints) (*transcription.Result, error) {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p.Submit(context.Background(), transcription.Request{
		Path:  "/work/seg-002.mp3",
		Audio: bytes.NewReader([]byte("audio")),
		Hints: hints,
	})
}

func TestSubmitVerboseJSON(t *testing.T) {
	srv := newServer(t, func(r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("expected verbose_json, got %q", got)
		}
		if got := r.MultipartForm.Value["timestamp_granularities[]"]; len(got) != 2 {
			t.Errorf("expected two granularities, got %v", got)
		}
		if got := r.FormValue("prompt"); got != "Kubernetes" {
			t.Errorf("expected prompt, got %q", got)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("expected default model, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("expected bearer auth, got %q", got)
		}
	}, http.StatusOK, `{"language":"english","duration":4.5,"text":" Hi there. Bye.",
		"words":[{"word":"Hi","start":0,"end":0.3},{"word":"there.","start":0.4,"end":0.9},{"word":"Bye.","start":3.5,"end":4.0}],
		"segments":[{"text":"Hi there. Bye.","start":0,"end":4}]}`)

	res, err := submit(t, transcription.Config{BaseURL: srv.URL, APIKey: "sk-test"}, transcription.Hints{Prompt: "Kubernetes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Hi there. Bye." {
		t.Errorf("expected text, got %q", res.Text)
	}
	if res.Metadata.Language != "english" || res.Metadata.DurationSeconds != 4.5 {
		t.Errorf("unexpected metadata %+v", res.Metadata)
	}
	want := "00:00:00.000\nHi there.\n\n00:00:03.500\nBye."
	if got := res.CueTrack(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSubmitSegmentsOnly(t *testing.T) {
	srv := newServer(t, nil, http.StatusOK, `{"text":"a b","segments":[{"text":" a","start":0,"end":1},{"text":"b","start":1,"end":2.5}]}`)
	res, err := submit(t, transcription.Config{BaseURL: srv.URL}, transcription.Hints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cues) != 2 || res.Cues[0].Text != "a" {
		t.Errorf("unexpected cues %+v", res.Cues)
	}
	if res.Metadata.DurationSeconds != 2.5 {
		t.Errorf("expected duration fallback 2.5, got %v", res.Metadata.DurationSeconds)
	}
}

func TestSubmitVTT(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n<v Speaker 1>Hello</v>\n\n00:00:02.500 --> 00:00:03.000\n<v Speaker 2>Hi</v>\n"
	srv := newServer(t, nil, http.StatusOK, vtt)
	res, err := submit(t, transcription.Config{BaseURL: srv.URL, Format: "vtt"}, transcription.Hints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Hello Hi" {
		t.Errorf("expected joined cue text, got %q", res.Text)
	}
	want := "00:00:01.000\nSpeaker 1: Hello\n\n00:00:02.500\nSpeaker 2: Hi"
	if got := res.CueTrack(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSubmitMalformedVTT(t *testing.T) {
	srv := newServer(t, nil, http.StatusOK, "WEBVTT\n\nnot-a-time --> 00:00:02.000\nHello\n")
	_, err := submit(t, transcription.Config{BaseURL: srv.URL, Format: "vtt"}, transcription.Hints{})
	app, ok := errors.AsAppError(err)
	if !ok || app.Code != errors.ErrCodeProviderRejected {
		t.Errorf("expected provider rejected error, got %v", err)
	}
}

func TestSubmitEmptyTranscript(t *testing.T) {
	srv := newServer(t, nil, http.StatusOK, `{"text":""}`)
	res, err := submit(t, transcription.Config{BaseURL: srv.URL, Format: "json"}, transcription.Hints{})
	if err != nil {
		t.Fatalf("expected empty transcript to succeed, got %v", err)
	}
	if res.Text != "" || len(res.Cues) != 0 || res.Metadata.DurationSeconds != 0 {
		t.Errorf("expected zero result, got %+v", res)
	}
}

func TestSubmitErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   errors.ErrorCode
	}{
		{"rate limited", 429, `{"error":{"message":"slow down","type":"rate_limit"}}`, errors.ErrCodeProviderRateLimited},
		{"server error", 503, `upstream unavailable`, errors.ErrCodeProviderUnavailable},
		{"bad model", 400, `{"error":{"message":"model not found"}}`, errors.ErrCodeProviderRejected},
		{"unauthorized", 401, `{"error":{"message":"bad key"}}`, errors.ErrCodeProviderRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, nil, tt.status, tt.body)
			_, err := submit(t, transcription.Config{BaseURL: srv.URL, ID: "groq"}, transcription.Hints{})
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, appErr.Code)
			}
			if appErr.Details["provider"] != "groq" {
				t.Errorf("expected provider detail groq, got %v", appErr.Details["provider"])
			}
		})
	}
}

func TestSubmitConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := submit(t, transcription.Config{BaseURL: url}, transcription.Hints{})
	if !errors.IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}

func TestToAppErrorPassThrough(t *testing.T) {
	orig := errors.SegmentGap("/tmp", 1, 2)
	if got := ToAppError("openai", orig); got != error(orig) {
		t.Errorf("expected AppError to pass through, got %v", got)
	}
	if ToAppError("openai", nil) != nil {
		t.Error("expected nil for nil error")
	}
	err := ToAppError("openai", stderrors.New("boom"))
	if errors.KindOf(err) != errors.KindPermanent {
		t.Errorf("expected permanent kind, got %v", errors.KindOf(err))
	}
	err = ToAppError("openai", &goopenai.APIError{HTTPStatusCode: 500})
	if errors.KindOf(err) != errors.KindTransient {
		t.Errorf("expected transient kind, got %v", errors.KindOf(err))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(transcription.Config{Format: "xml"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestGroqFactory(t *testing.T) {
	p, err := GroqFactory(transcription.Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("GroqFactory: %v", err)
	}
	gp := p.(*Provider)
	if gp.Name() != GroqProviderID || gp.model != defaultGroqModel {
		t.Errorf("unexpected groq provider %q model %q", gp.Name(), gp.model)
	}
}
