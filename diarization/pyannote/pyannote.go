// Package pyannote adapts a pyannote.audio HTTP sidecar to
// diarization.Provider.
package pyannote

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kbukum/scribekit/diarization"
	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/httpclient"
)

// ProviderID is the name the sidecar reports in logs and errors.
const ProviderID = "pyannote"

var _ diarization.Provider = (*Provider)(nil)

// Provider implements diarization.Provider using the pyannote sidecar.
type Provider struct {
	client *httpclient.Adapter
}

// New creates a pyannote provider from cfg.
func New(cfg diarization.Config, opts ...httpclient.Option) (*Provider, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		Name:    ProviderID,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderID }

// IsAvailable checks if the sidecar answers its health endpoint.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil && resp.IsSuccess()
}

// Diarize uploads the audio file to /diarize.
func (p *Provider) Diarize(ctx context.Context, req diarization.Request) (*diarization.Response, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, errors.SourceUnavailable(req.AudioPath, err)
	}
	defer f.Close()

	fields := map[string]string{}
	if req.NumSpeakers > 0 {
		fields["num_speakers"] = strconv.Itoa(req.NumSpeakers)
	}
	if req.MinSpeakers > 0 {
		fields["min_speakers"] = strconv.Itoa(req.MinSpeakers)
	}
	if req.MaxSpeakers > 0 {
		fields["max_speakers"] = strconv.Itoa(req.MaxSpeakers)
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/diarize",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files:  []httpclient.FileField{{FieldName: "audio", FileName: filepath.Base(req.AudioPath), Reader: f}},
		},
	})
	if err != nil {
		return nil, httpclient.ToAppError(ProviderID, err)
	}

	var out response
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, errors.ProviderRejected(ProviderID, resp.StatusCode, err)
	}
	if out.Error != "" {
		return nil, errors.New(errors.ErrCodeProviderRejected, "pyannote: "+out.Error).
			WithDetail("provider", ProviderID)
	}
	return out.toResponse(), nil
}

type response struct {
	Segments    []segment `json:"segments"`
	NumSpeakers int       `json:"num_speakers"`
	Error       string    `json:"error,omitempty"`
}

type segment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func (r *response) toResponse() *diarization.Response {
	segments := make([]diarization.Segment, len(r.Segments))
	for i, s := range r.Segments {
		segments[i] = diarization.Segment{Speaker: s.SpeakerID, Start: s.StartTime, End: s.EndTime}
	}
	return &diarization.Response{Segments: segments, NumSpeakers: r.NumSpeakers}
}
