// Package deepgram adapts Deepgram's pre-recorded /v1/listen API to
// transcription.Provider, including diarized utterances.
package deepgram

import (
	"context"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/httpclient"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/util"
)

const (
	// ProviderID is the registered id for Deepgram.
	ProviderID = "deepgram"

	defaultURL     = "https://api.deepgram.com"
	defaultModel   = "nova-2"
	defaultTimeout = 10 * time.Minute
)

var _ transcription.Provider = (*Provider)(nil)

// Provider sends raw segment bytes to /v1/listen.
type Provider struct {
	id       string
	model    string
	diarize  bool
	grouping transcription.GroupOptions
	client   *httpclient.Adapter
}

// New creates a Deepgram provider. The API key is sent as
// "Authorization: Token <key>".
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
		Auth:    httpclient.HeaderAuth("Authorization", "Token", cfg.APIKey),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{
		id:       cfg.ID,
		model:    cfg.Model,
		diarize:  cfg.Diarize,
		grouping: transcription.DefaultGroupOptions(),
		client:   client,
	}, nil
}

// Factory builds Deepgram providers for a transcription.Registry.
func Factory(cfg transcription.Config) (transcription.Provider, error) {
	return New(cfg)
}

// Name returns the provider id.
func (p *Provider) Name() string { return p.id }

// IsAvailable reports true; reachability is learned per request.
func (p *Provider) IsAvailable(_ context.Context) bool { return true }

// Submit posts the segment body and maps utterances (or words) to cues.
// Speaker ids are reported 0-based and rendered 1-based.
func (p *Provider) Submit(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	audio, closeAudio, err := req.Open()
	if err != nil {
		return nil, errors.SourceUnavailable(req.Path, err)
	}
	defer func() { _ = closeAudio() }()

	model := util.Coalesce(req.Model, p.model)
	query := map[string]string{
		"model":        model,
		"punctuate":    "true",
		"smart_format": "true",
		"utterances":   "true",
		"diarize":      strconv.FormatBool(p.diarize),
	}
	if req.Hints.Language != "" {
		query["language"] = req.Hints.Language
	} else {
		query["detect_language"] = "true"
	}
	if req.Hints.Prompt != "" {
		query["keywords"] = req.Hints.Prompt
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/v1/listen",
		Query:   query,
		Headers: map[string]string{"Content-Type": contentType(req.Path)},
		Body:    audio,
	})
	if err != nil {
		return nil, httpclient.ToAppError(p.id, err)
	}

	var out response
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, errors.ProviderRejected(p.id, resp.StatusCode, err)
	}
	return out.toResult(p.grouping), nil
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".webm": "audio/webm",
	".mp4":  "video/mp4",
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type response struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []word  `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Transcript string  `json:"transcript"`
			Speaker    *int    `json:"speaker"`
		} `json:"utterances"`
	} `json:"results"`
}

type word struct {
	Word           string  `json:"word"`
	PunctuatedWord string  `json:"punctuated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Speaker        *int    `json:"speaker"`
}

func displaySpeaker(id *int) *int {
	if id == nil {
		return nil
	}
	return util.Ptr(*id + 1)
}

func (r *response) toResult(opts transcription.GroupOptions) *transcription.Result {
	res := &transcription.Result{}
	var words []transcription.Word

	if len(r.Results.Channels) > 0 {
		ch := r.Results.Channels[0]
		res.Metadata.Language = ch.DetectedLanguage
		if len(ch.Alternatives) > 0 {
			alt := ch.Alternatives[0]
			res.Text = strings.TrimSpace(alt.Transcript)
			res.Metadata.Confidence = alt.Confidence
			for _, w := range alt.Words {
				text := w.PunctuatedWord
				if text == "" {
					text = w.Word
				}
				words = append(words, transcription.Word{
					Start: w.Start, End: w.End, Text: text, Speaker: displaySpeaker(w.Speaker),
				})
			}
		}
	}

	for _, u := range r.Results.Utterances {
		if text := strings.TrimSpace(u.Transcript); text != "" {
			res.Cues = append(res.Cues, transcription.Cue{
				Start: u.Start, End: u.End, Speaker: displaySpeaker(u.Speaker), Text: text,
			})
		}
	}
	if len(res.Cues) == 0 {
		res.Cues = transcription.GroupWords(words, opts)
	}

	res.Metadata.SpeakerCount = transcription.CountSpeakers(words)
	if res.Metadata.SpeakerCount == 0 {
		res.Metadata.SpeakerCount = transcription.CountCueSpeakers(res.Cues)
	}
	res.Metadata.DurationSeconds = r.Metadata.Duration
	if res.Metadata.DurationSeconds <= 0 {
		res.Metadata.DurationSeconds = transcription.LastEnd(res.Cues)
	}
	return res
}
