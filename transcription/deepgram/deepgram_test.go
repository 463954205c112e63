package deepgram

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/transcription"
)

const diarizedBody = `{
  "metadata": {"duration": 7.25},
  "results": {
    "channels": [{
      "detected_language": "en",
      "alternatives": [{
        "transcript": "Hello there. Hi.",
        "confidence": 0.97,
        "words": [
          {"word": "hello", "punctuated_word": "Hello", "start": 0.1, "end": 0.5, "speaker": 0},
          {"word": "there", "punctuated_word": "there.", "start": 0.5, "end": 0.9, "speaker": 0},
          {"word": "hi", "punctuated_word": "Hi.", "start": 2.0, "end": 2.3, "speaker": 1}
        ]
      }]
    }],
    "utterances": [
      {"start": 0.1, "end": 0.9, "transcript": "Hello there.", "speaker": 0},
      {"start": 2.0, "end": 2.3, "transcript": "Hi.", "speaker": 1}
    ]
  }
}`

func TestSubmitDiarized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			t.Errorf("expected /v1/listen, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("diarize") != "true" || q.Get("utterances") != "true" || q.Get("model") != "nova-3" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if q.Get("language") != "de" {
			t.Errorf("expected language de, got %q", q.Get("language"))
		}
		if got := r.Header.Get("Authorization"); got != "Token dg-key" {
			t.Errorf("expected token auth, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/mpeg" {
			t.Errorf("expected audio/mpeg, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "mp3 bytes" {
			t.Errorf("expected raw audio body, got %q", body)
		}
		_, _ = w.Write([]byte(diarizedBody))
	}))
	defer srv.Close()

	p, err := New(transcription.Config{BaseURL: srv.URL, APIKey: "dg-key", Diarize: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := p.Submit(context.Background(), transcription.Request{
		Path:  "seg-000.mp3",
		Audio: bytes.NewReader([]byte("mp3 bytes")),
		Model: "nova-3",
		Hints: transcription.Hints{Language: "de"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Metadata.SpeakerCount != 2 {
		t.Errorf("expected 2 speakers, got %d", res.Metadata.SpeakerCount)
	}
	if res.Metadata.Confidence != 0.97 || res.Metadata.Language != "en" || res.Metadata.DurationSeconds != 7.25 {
		t.Errorf("unexpected metadata %+v", res.Metadata)
	}
	want := "00:00:00.100\nSpeaker 1: Hello there.\n\n00:00:02.000\nSpeaker 2: Hi."
	if got := res.CueTrack(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSubmitWordsWithoutUtterances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("detect_language") != "true" {
			t.Errorf("expected language detection when no language hint, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"ok then","words":[
			{"word":"ok","start":1,"end":1.2},{"word":"then","start":1.3,"end":1.6}]}]}]}}`))
	}))
	defer srv.Close()

	p, _ := New(transcription.Config{BaseURL: srv.URL})
	res, err := p.Submit(context.Background(), transcription.Request{Path: "x.wav", Audio: bytes.NewReader(nil)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cues) != 1 || res.Cues[0].Text != "ok then" || res.Cues[0].Speaker != nil {
		t.Errorf("unexpected cues %+v", res.Cues)
	}
	if res.Metadata.SpeakerCount != 0 {
		t.Errorf("expected no speakers, got %d", res.Metadata.SpeakerCount)
	}
	if res.Metadata.DurationSeconds != 1.6 {
		t.Errorf("expected duration fallback 1.6, got %v", res.Metadata.DurationSeconds)
	}
}

func TestSubmitEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer srv.Close()

	p, _ := New(transcription.Config{BaseURL: srv.URL})
	res, err := p.Submit(context.Background(), transcription.Request{Path: "x.wav", Audio: bytes.NewReader(nil)})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Text != "" || res.Metadata.Language != "" || res.Metadata.Confidence != 0 {
		t.Errorf("expected defaults, got %+v", res)
	}
}

func TestSubmitErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusPaymentRequired, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()
			p, _ := New(transcription.Config{BaseURL: srv.URL})
			_, err := p.Submit(context.Background(), transcription.Request{Path: "x.wav", Audio: bytes.NewReader(nil)})
			if errors.IsRetryable(err) != tt.retryable {
				t.Errorf("expected retryable=%v, got %v", tt.retryable, err)
			}
		})
	}
}
