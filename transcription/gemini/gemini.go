// Package gemini adapts the Gemini API to transcription.Provider. Each
// segment is uploaded through the files API and then transcribed with
// generateContent; the uploaded file is deleted afterwards.
package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/httpclient"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/util"
)

const (
	// ProviderID is the registered id for Gemini.
	ProviderID = "gemini"

	defaultURL          = "https://generativelanguage.googleapis.com"
	defaultModel        = "gemini-2.0-flash"
	defaultTimeout      = 10 * time.Minute
	defaultPollInterval = time.Second
	maxPolls            = 120

	basePrompt = "Generate a verbatim transcript of the speech in this audio. " +
		"Return only the transcript as plain prose, without timestamps or commentary."
)

var _ transcription.Provider = (*Provider)(nil)

// Provider runs the upload then generate flow behind Submit.
type Provider struct {
	id           string
	model        string
	pollInterval time.Duration
	client       *httpclient.Adapter
	log          *logger.Logger
}

// New creates a Gemini provider. The API key is sent in x-goog-api-key.
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
		Auth:    httpclient.HeaderAuth("x-goog-api-key", "", cfg.APIKey),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{
		id:           cfg.ID,
		model:        cfg.Model,
		pollInterval: defaultPollInterval,
		client:       client,
		log:          logger.OrDefault(nil, "gemini"),
	}, nil
}

// Factory builds Gemini providers for a transcription.Registry.
func Factory(cfg transcription.Config) (transcription.Provider, error) {
	return New(cfg)
}

// Name returns the provider id.
func (p *Provider) Name() string { return p.id }

// IsAvailable reports true; reachability is learned per request.
func (p *Provider) IsAvailable(_ context.Context) bool { return true }

// CompleteProse reports that Gemini returns finished prose per segment.
func (p *Provider) CompleteProse() bool { return true }

// Submit uploads the segment, waits for it to become active, asks the
// model for a transcript and deletes the upload.
func (p *Provider) Submit(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	audio, closeAudio, err := req.Open()
	if err != nil {
		return nil, errors.SourceUnavailable(req.Path, err)
	}
	data, err := io.ReadAll(audio)
	_ = closeAudio()
	if err != nil {
		return nil, errors.SourceUnavailable(req.Path, err)
	}

	mimeType := audioMIME(req.Path)
	f, err := p.upload(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	defer p.deleteFile(f.Name)

	if f, err = p.waitActive(ctx, f); err != nil {
		return nil, err
	}

	model := util.Coalesce(req.Model, p.model)
	text, err := p.generate(ctx, model, f, req.Hints)
	if err != nil {
		return nil, err
	}
	return &transcription.Result{
		Text:     text,
		Metadata: transcription.Metadata{Language: req.Hints.Language},
	}, nil
}

type file struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type fileEnvelope struct {
	File file `json:"file"`
}

// upload runs the resumable start and finalize calls.
func (p *Provider) upload(ctx context.Context, data []byte, mimeType string) (file, error) {
	start, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/upload/v1beta/files",
		Headers: map[string]string{
			"X-Goog-Upload-Protocol":              "resumable",
			"X-Goog-Upload-Command":               "start",
			"X-Goog-Upload-Header-Content-Length": strconv.Itoa(len(data)),
			"X-Goog-Upload-Header-Content-Type":   mimeType,
		},
		Body: map[string]any{"file": map[string]string{"display_name": "scribekit-" + uuid.NewString()}},
	})
	if err != nil {
		return file{}, httpclient.ToAppError(p.id, err)
	}
	uploadURL := start.Headers[http.CanonicalHeaderKey("X-Goog-Upload-URL")]
	if uploadURL == "" {
		return file{}, errors.ProviderRejected(p.id, start.StatusCode, fmt.Errorf("upload start returned no upload url"))
	}

	done, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   uploadURL,
		Headers: map[string]string{
			"X-Goog-Upload-Command": "upload, finalize",
			"X-Goog-Upload-Offset":  "0",
			"Content-Type":          mimeType,
		},
		Body: data,
	})
	if err != nil {
		return file{}, httpclient.ToAppError(p.id, err)
	}
	var env fileEnvelope
	if err := done.DecodeJSON(&env); err != nil {
		return file{}, errors.ProviderRejected(p.id, done.StatusCode, err)
	}
	if env.File.URI == "" {
		return file{}, errors.ProviderRejected(p.id, done.StatusCode, fmt.Errorf("upload returned no file uri"))
	}
	if env.File.MimeType == "" {
		env.File.MimeType = mimeType
	}
	return env.File, nil
}

// waitActive polls the file until processing finishes.
func (p *Provider) waitActive(ctx context.Context, f file) (file, error) {
	for range maxPolls {
		switch f.State {
		case "", "ACTIVE":
			return f, nil
		case "FAILED":
			return f, errors.ProviderRejected(p.id, 0, fmt.Errorf("file %s failed processing", f.Name))
		}
		select {
		case <-ctx.Done():
			return f, ctx.Err()
		case <-time.After(p.pollInterval):
		}
		resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/v1beta/" + f.Name})
		if err != nil {
			return f, httpclient.ToAppError(p.id, err)
		}
		var next file
		if err := resp.DecodeJSON(&next); err != nil {
			return f, errors.ProviderRejected(p.id, resp.StatusCode, err)
		}
		if next.URI == "" {
			next.URI = f.URI
		}
		if next.MimeType == "" {
			next.MimeType = f.MimeType
		}
		f = next
	}
	return f, errors.ProviderUnavailable(p.id, 0, fmt.Errorf("file %s still %s", f.Name, f.State))
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type generateRequest struct {
	Contents []struct {
		Parts []part `json:"parts"`
	} `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float32 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (p *Provider) generate(ctx context.Context, model string, f file, hints transcription.Hints) (string, error) {
	var body generateRequest
	body.Contents = make([]struct {
		Parts []part `json:"parts"`
	}, 1)
	body.Contents[0].Parts = []part{
		{Text: prompt(hints)},
		{FileData: &fileData{MimeType: f.MimeType, FileURI: f.URI}},
	}
	if hints.Temperature > 0 {
		body.GenerationConfig = &generationConfig{Temperature: hints.Temperature}
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v1beta/models/" + model + ":generateContent",
		Body:   body,
	})
	if err != nil {
		return "", httpclient.ToAppError(p.id, err)
	}
	var out generateResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", errors.ProviderRejected(p.id, resp.StatusCode, err)
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, pt := range out.Candidates[0].Content.Parts {
		b.WriteString(pt.Text)
	}
	// Trailing whitespace is kept: it separates this segment from the next
	// when prose segments are concatenated.
	return strings.TrimLeftFunc(b.String(), unicode.IsSpace), nil
}

func prompt(h transcription.Hints) string {
	s := basePrompt
	if h.Language != "" {
		s += " The speech is in language " + h.Language + "."
	}
	if h.Prompt != "" {
		s += " Context and vocabulary: " + h.Prompt
	}
	return s
}

// deleteFile removes the upload. Failures are logged; the files API
// expires uploads on its own.
func (p *Provider) deleteFile(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: "/v1beta/" + name}); err != nil {
		p.log.Warn("gemini file delete failed", logger.Fields("file", name, logger.FieldError, err.Error()))
	}
}

func audioMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mp3"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".m4a", ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}
