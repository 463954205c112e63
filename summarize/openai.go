package summarize

import (
	"context"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/transcription/openai"
	"github.com/kbukum/scribekit/util"
)

const (
	// OpenAIID is the registered id for OpenAI chat completions.
	OpenAIID = "openai"
	// GroqID is the registered id for Groq's OpenAI-compatible chat API.
	GroqID = "groq"

	defaultOpenAIModel = goopenai.GPT4oMini
	defaultGroqModel   = "llama-3.1-8b-instant"
	defaultChatTimeout = 2 * time.Minute
)

var _ LLM = (*OpenAI)(nil)

// OpenAI talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	id     string
	model  string
	client *goopenai.Client
}

// NewOpenAI creates an OpenAI-compatible backend. httpClient may be nil.
func NewOpenAI(cfg LLMConfig, httpClient *http.Client) *OpenAI {
	if cfg.ID == "" {
		cfg.ID = OpenAIID
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultChatTimeout
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	clientCfg.HTTPClient = httpClient
	return &OpenAI{id: cfg.ID, model: cfg.Model, client: goopenai.NewClientWithConfig(clientCfg)}
}

// OpenAIFactory builds OpenAI backends for a Registry.
func OpenAIFactory(cfg LLMConfig) (LLM, error) {
	return NewOpenAI(cfg, nil), nil
}

// GroqFactory builds backends against Groq's endpoint and default model.
func GroqFactory(cfg LLMConfig) (LLM, error) {
	if cfg.ID == "" {
		cfg.ID = GroqID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openai.GroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultGroqModel
	}
	return NewOpenAI(cfg, nil), nil
}

// Name returns the backend id.
func (o *OpenAI) Name() string { return o.id }

// IsAvailable reports true; reachability is learned per request.
func (o *OpenAI) IsAvailable(_ context.Context) bool { return true }

// Execute sends one chat completion.
func (o *OpenAI) Execute(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := util.Coalesce(req.Model, o.model)
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, openai.ToAppError(o.id, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.ProviderRejected(o.id, 0, nil).WithDetail("reason", "no choices in response")
	}
	return &CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
