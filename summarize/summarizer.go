package summarize

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/scribekit/chunker"
	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/observability"
	"github.com/kbukum/scribekit/provider"
	"github.com/kbukum/scribekit/resilience"
	"github.com/kbukum/scribekit/validation"
)

// DefaultPrompt is the system prompt sent with every chunk.
const DefaultPrompt = "You summarize one part of a longer transcript. " +
	"Keep names, decisions, open questions and action items. " +
	"Answer with the summary only."

const defaultConcurrency = 4

// Config configures a Summarizer.
type Config struct {
	// Backend is the registry id of the chat backend. Empty disables
	// summarization.
	Backend string    `yaml:"backend" mapstructure:"backend"`
	LLM     LLMConfig `yaml:"llm" mapstructure:"llm"`
	// Prompt replaces DefaultPrompt.
	Prompt string `yaml:"prompt" mapstructure:"prompt"`
	// Concurrency bounds chunks summarized at once.
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0,lte=50"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	// MaxTokens limits each summary. 0 leaves the backend default.
	MaxTokens int                    `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Retry     resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// Enabled reports whether a backend is configured.
func (c *Config) Enabled() bool { return c.Backend != "" }

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Summary is the summary of one chunk.
type Summary struct {
	Index int
	Chunk chunker.Chunk
	Text  string
	Usage Usage
}

// Options carry optional collaborators.
type Options struct {
	ServiceName string
	Logger      *logger.Logger
	Metrics     *observability.Metrics
}

// Summarizer summarizes transcript chunks.
type Summarizer struct {
	cfg     Config
	backend LLM
	log     *logger.Logger
}

// New wraps backend with logging, metrics, tracing, a bulkhead of
// cfg.Concurrency and retries of transient errors.
func New(cfg Config, backend LLM, opts Options) *Summarizer {
	cfg.ApplyDefaults()
	if opts.ServiceName == "" {
		opts.ServiceName = "scribekit"
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewNopMetrics()
	}
	log := logger.OrDefault(opts.Logger, "summarize")

	retry := cfg.Retry
	retry.RetryIf = errors.IsRetryable
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("retrying summary", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", backoff.Milliseconds(),
		))
	}

	chain := provider.Chain(
		provider.WithLogging[CompletionRequest, *CompletionResponse](log),
		provider.WithMetrics[CompletionRequest, *CompletionResponse](opts.Metrics),
		provider.WithTracing[CompletionRequest, *CompletionResponse](opts.ServiceName),
	)
	wrapped := provider.WithResilience(chain(backend), provider.ResilienceConfig{
		Bulkhead: &resilience.BulkheadConfig{Name: backend.Name(), MaxConcurrent: cfg.Concurrency},
		Retry:    &retry,
	})
	return &Summarizer{cfg: cfg, backend: wrapped, log: log.WithFields(logger.Fields(logger.FieldProvider, backend.Name()))}
}

// Summarize summarizes every chunk and returns summaries in chunk order.
// The first failure cancels the rest.
func (s *Summarizer) Summarize(ctx context.Context, chunks []chunker.Chunk) ([]Summary, error) {
	start := time.Now()
	out := make([]Summary, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range chunks {
		g.Go(func() error {
			resp, err := s.backend.Execute(gctx, s.request(i, len(chunks), ch))
			if err != nil {
				if appErr, ok := errors.AsAppError(err); ok {
					appErr.WithDetail("chunk", i)
				}
				return err
			}
			out[i] = Summary{Index: i, Chunk: ch, Text: resp.Content, Usage: resp.Usage}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("summarization failed", logger.Fields(logger.FieldError, err.Error()))
		return nil, err
	}

	s.log.Info("summarization complete", logger.Fields(
		"chunks", len(chunks),
		"total_tokens", TotalUsage(out).TotalTokens,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return out, nil
}

func (s *Summarizer) request(i, n int, ch chunker.Chunk) CompletionRequest {
	user := ch.Text
	if n > 1 {
		user = fmt.Sprintf("Part %d of %d:\n\n%s", i+1, n, ch.Text)
	}
	return CompletionRequest{
		SystemPrompt: s.cfg.Prompt,
		Messages:     []Message{{Role: "user", Content: user}},
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	}
}

// TotalUsage sums token usage over summaries.
func TotalUsage(summaries []Summary) Usage {
	var u Usage
	for _, s := range summaries {
		u = u.Add(s.Usage)
	}
	return u
}
