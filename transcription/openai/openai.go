// Package openai adapts OpenAI-compatible audio transcription endpoints
// (OpenAI itself and Groq) to transcription.Provider using go-openai.
package openai

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/util"
)

const (
	// ProviderID is the registered id for OpenAI.
	ProviderID = "openai"
	// GroqProviderID is the registered id for Groq's OpenAI-compatible API.
	GroqProviderID = "groq"

	// GroqBaseURL is Groq's OpenAI-compatible endpoint.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	defaultModel     = goopenai.Whisper1
	defaultGroqModel = "whisper-large-v3"
	defaultTimeout   = 10 * time.Minute
)

var _ transcription.Provider = (*Provider)(nil)

// Provider transcribes segments through /audio/transcriptions.
type Provider struct {
	id       string
	model    string
	format   goopenai.AudioResponseFormat
	grouping transcription.GroupOptions
	client   *goopenai.Client
}

// Option customizes a Provider.
type Option func(*goopenai.ClientConfig)

// WithHTTPClient replaces the HTTP client go-openai uses.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *goopenai.ClientConfig) { cfg.HTTPClient = c }
}

// New creates an OpenAI-compatible provider. cfg.Format chooses the
// response shape: verbose_json (default) yields word-timed cues, vtt and
// srt are normalized from subtitle markup, json and text yield text only.
func New(cfg transcription.Config, opts ...Option) (*Provider, error) {
	if cfg.ID == "" {
		cfg.ID = ProviderID
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	format := goopenai.AudioResponseFormat(cfg.Format)
	switch format {
	case "":
		format = goopenai.AudioResponseFormatVerboseJSON
	case goopenai.AudioResponseFormatVerboseJSON, goopenai.AudioResponseFormatJSON,
		goopenai.AudioResponseFormatText, goopenai.AudioResponseFormatVTT, goopenai.AudioResponseFormatSRT:
	default:
		return nil, errors.InvalidInput(cfg.ID+".format", "unsupported response format "+cfg.Format)
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	for _, opt := range opts {
		opt(&clientCfg)
	}

	return &Provider{
		id:       cfg.ID,
		model:    cfg.Model,
		format:   format,
		grouping: transcription.DefaultGroupOptions(),
		client:   goopenai.NewClientWithConfig(clientCfg),
	}, nil
}

// Factory builds OpenAI providers for a transcription.Registry.
func Factory(cfg transcription.Config) (transcription.Provider, error) {
	return New(cfg)
}

// GroqFactory builds providers against Groq's endpoint and default model.
func GroqFactory(cfg transcription.Config) (transcription.Provider, error) {
	if cfg.ID == "" {
		cfg.ID = GroqProviderID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultGroqModel
	}
	return New(cfg)
}

// Name returns the provider id.
func (p *Provider) Name() string { return p.id }

// IsAvailable reports true; reachability is learned per request.
func (p *Provider) IsAvailable(_ context.Context) bool { return true }

// Submit uploads one segment and normalizes the response.
func (p *Provider) Submit(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	audio, closeAudio, err := req.Open()
	if err != nil {
		return nil, errors.SourceUnavailable(req.Path, err)
	}
	defer func() { _ = closeAudio() }()

	model := util.Coalesce(req.Model, p.model)
	areq := goopenai.AudioRequest{
		Model:       model,
		FilePath:    req.FileName(),
		Reader:      audio,
		Prompt:      req.Hints.Prompt,
		Temperature: req.Hints.Temperature,
		Language:    req.Hints.Language,
		Format:      p.format,
	}
	if p.format == goopenai.AudioResponseFormatVerboseJSON {
		areq.TimestampGranularities = []goopenai.TranscriptionTimestampGranularity{
			goopenai.TranscriptionTimestampGranularityWord,
			goopenai.TranscriptionTimestampGranularitySegment,
		}
	}

	resp, err := p.client.CreateTranscription(ctx, areq)
	if err != nil {
		return nil, ToAppError(p.id, err)
	}
	return p.toResult(resp)
}

func (p *Provider) toResult(resp goopenai.AudioResponse) (*transcription.Result, error) {
	res := &transcription.Result{
		Metadata: transcription.Metadata{
			Language:        resp.Language,
			DurationSeconds: resp.Duration,
		},
	}

	switch p.format {
	case goopenai.AudioResponseFormatVTT, goopenai.AudioResponseFormatSRT:
		cues, err := transcription.ParseSubtitles(resp.Text)
		if err != nil {
			return nil, errors.ProviderRejected(p.id, 0, err)
		}
		res.Cues = cues
		texts := make([]string, len(res.Cues))
		for i, c := range res.Cues {
			texts[i] = c.Text
		}
		res.Text = strings.Join(texts, " ")
	default:
		res.Text = strings.TrimSpace(resp.Text)
		res.Cues = cuesFromResponse(resp, p.grouping)
	}

	if res.Metadata.DurationSeconds <= 0 {
		res.Metadata.DurationSeconds = transcription.LastEnd(res.Cues)
	}
	return res, nil
}

func cuesFromResponse(resp goopenai.AudioResponse, opts transcription.GroupOptions) []transcription.Cue {
	if len(resp.Words) > 0 {
		words := make([]transcription.Word, len(resp.Words))
		for i, w := range resp.Words {
			words[i] = transcription.Word{Start: w.Start, End: w.End, Text: w.Word}
		}
		return transcription.GroupWords(words, opts)
	}
	cues := make([]transcription.Cue, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			cues = append(cues, transcription.Cue{Start: s.Start, End: s.End, Text: text})
		}
	}
	return cues
}

// ToAppError classifies a go-openai error: 429 is rate limited, 5xx and
// transport failures are unavailable, everything else is rejected.
func ToAppError(providerID string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case stderrors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case stderrors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	var urlErr *url.Error
	switch {
	case status == http.StatusTooManyRequests:
		return errors.ProviderRateLimited(providerID, err)
	case status >= 500, status == http.StatusRequestTimeout:
		return errors.ProviderUnavailable(providerID, status, err)
	case status == 0 && stderrors.As(err, &urlErr):
		return errors.ProviderUnavailable(providerID, 0, err)
	default:
		return errors.ProviderRejected(providerID, status, err)
	}
}
