package summarize

import (
	"context"
	"net/http"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/httpclient"
	"github.com/kbukum/scribekit/util"
)

const (
	// OllamaID is the registered id for the Ollama backend.
	OllamaID = "ollama"

	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3"
	defaultOllamaWait  = 5 * time.Minute
)

var _ LLM = (*Ollama)(nil)

// Ollama implements LLM using Ollama's HTTP API.
type Ollama struct {
	id     string
	model  string
	client *httpclient.Adapter
}

// NewOllama creates an Ollama backend.
func NewOllama(cfg LLMConfig, opts ...httpclient.Option) (*Ollama, error) {
	if cfg.ID == "" {
		cfg.ID = OllamaID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOllamaWait
	}
	client, err := httpclient.New(httpclient.Config{
		Name:    cfg.ID,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Ollama{id: cfg.ID, model: cfg.Model, client: client}, nil
}

// OllamaFactory builds Ollama backends for a Registry.
func OllamaFactory(cfg LLMConfig) (LLM, error) {
	return NewOllama(cfg)
}

// Name returns the backend id.
func (p *Ollama) Name() string { return p.id }

// IsAvailable checks if the Ollama server is reachable.
func (p *Ollama) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/tags"})
	return err == nil && resp.IsSuccess()
}

// Execute sends a non-streaming chat request.
func (p *Ollama) Execute(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/chat",
		Body:   p.buildChatRequest(req),
	})
	if err != nil {
		return nil, httpclient.ToAppError(p.id, err)
	}

	var out ollamaChatResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, errors.ProviderRejected(p.id, resp.StatusCode, err)
	}
	return &CompletionResponse{
		Content: out.Message.Content,
		Model:   out.Model,
		Usage: Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  *ollamaOptions      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model           string            `json:"model"`
	Message         ollamaChatMessage `json:"message"`
	Done            bool              `json:"done"`
	PromptEvalCount int               `json:"prompt_eval_count,omitempty"`
	EvalCount       int               `json:"eval_count,omitempty"`
}

func (p *Ollama) buildChatRequest(req CompletionRequest) ollamaChatRequest {
	model := util.Coalesce(req.Model, p.model)
	msgs := make([]ollamaChatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, ollamaChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, ollamaChatMessage{Role: m.Role, Content: m.Content})
	}
	out := ollamaChatRequest{Model: model, Messages: msgs}
	if req.Temperature != 0 || req.MaxTokens != 0 {
		out.Options = &ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}
	return out
}
