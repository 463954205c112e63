// Package whisper adapts a faster-whisper HTTP sidecar to transcription.Provider.
package whisper

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/httpclient"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/util"
)

const (
	// ProviderID is the registered id for the Whisper sidecar.
	ProviderID = "whisper"

	defaultURL     = "http://localhost:8387"
	defaultModel   = "base"
	defaultTimeout = 10 * time.Minute
)

var _ transcription.Provider = (*Provider)(nil)

// Provider implements transcription.Provider using a faster-whisper HTTP sidecar.
type Provider struct {
	id     string
	model  string
	client *httpclient.Adapter
}

// New creates a Whisper provider. The sidecar needs no credentials; an
// APIKey, when set, is sent as a bearer token.
func New(cfg transcription.Config, opts ...httpclient.Option) (*Provider, error) {
	if cfg.ID == "" {
		cfg.ID = ProviderID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client, err := httpclient.New(httpclient.Config{
		Name:    cfg.ID,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.BearerAuth(cfg.APIKey),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{id: cfg.ID, model: cfg.Model, client: client}, nil
}

// Factory builds Whisper providers for a transcription.Registry.
func Factory(cfg transcription.Config) (transcription.Provider, error) {
	return New(cfg)
}

// Name returns the provider id.
func (p *Provider) Name() string { return p.id }

// IsAvailable checks if the sidecar answers its health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil && resp.IsSuccess()
}

// Submit uploads the segment to /transcribe and maps the returned
// segments to cues.
func (p *Provider) Submit(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	audio, closeAudio, err := req.Open()
	if err != nil {
		return nil, errors.SourceUnavailable(req.Path, err)
	}
	defer func() { _ = closeAudio() }()

	model := util.Coalesce(req.Model, p.model)
	fields := map[string]string{"model": model}
	if req.Hints.Language != "" {
		fields["language"] = req.Hints.Language
	}
	if req.Hints.Prompt != "" {
		fields["initial_prompt"] = req.Hints.Prompt
	}
	if req.Hints.Temperature > 0 {
		fields["temperature"] = strconv.FormatFloat(float64(req.Hints.Temperature), 'f', -1, 32)
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files:  []httpclient.FileField{{FieldName: "audio", FileName: req.FileName(), Reader: audio}},
		},
	})
	if err != nil {
		return nil, httpclient.ToAppError(p.id, err)
	}

	var out response
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, errors.ProviderRejected(p.id, resp.StatusCode, err)
	}
	return out.toResult(), nil
}

type response struct {
	Text     string    `json:"text"`
	Segments []segment `json:"segments"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r *response) toResult() *transcription.Result {
	cues := make([]transcription.Cue, 0, len(r.Segments))
	for _, s := range r.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		cues = append(cues, transcription.Cue{Start: s.Start, End: s.End, Text: text})
	}
	duration := r.Duration
	if duration <= 0 {
		duration = transcription.LastEnd(cues)
	}
	return &transcription.Result{
		Text: strings.TrimSpace(r.Text),
		Cues: cues,
		Metadata: transcription.Metadata{
			Language:        r.Language,
			DurationSeconds: duration,
		},
	}
}
