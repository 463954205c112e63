package chunker

import (
	"context"
	"strings"

	"github.com/kbukum/scribekit/logger"
)

// Chunk is the token range [Start, End) and its decoded text.
type Chunk struct {
	Start int
	End   int
	Text  string
}

// Tokens returns the chunk length in tokens.
func (c Chunk) Tokens() int { return c.End - c.Start }

// Chunker splits text into chunks.
type Chunker struct {
	cfg Config
	tok Tokenizer
	log *logger.Logger
}

// New creates a Chunker. A nil tok loads the tiktoken encoding named in cfg.
func New(cfg Config, tok Tokenizer, log *logger.Logger) (*Chunker, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tok == nil {
		var err error
		if tok, err = NewTiktoken(cfg.Encoding); err != nil {
			return nil, err
		}
	}
	return &Chunker{cfg: cfg, tok: tok, log: logger.OrDefault(log, "chunker")}, nil
}

// MaxTokens returns the configured chunk length.
func (c *Chunker) MaxTokens() int { return c.cfg.MaxTokens }

// ChunkForSummary splits text into ordered chunks whose ranges partition
// the token sequence. Empty text yields no chunks. The only error is ctx
// ending mid-way.
func (c *Chunker) ChunkForSummary(ctx context.Context, text string) ([]Chunk, error) {
	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	periods := c.periodTokens(tokens)
	if gap := LargestPeriodGap(periods); gap > c.cfg.MaxTokens {
		c.log.Warn("sentence longer than chunk size will be cut", logger.Fields(
			"largest_gap_tokens", gap,
			"max_tokens", c.cfg.MaxTokens,
		))
	}

	hasPeriod := strings.Contains(text, ".")
	var chunks []Chunk
	for cur := 0; cur < len(tokens); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := c.boundary(periods, cur, hasPeriod)
		chunks = append(chunks, Chunk{Start: cur, End: end, Text: c.tok.Decode(tokens[cur:end])})
		cur = end
	}

	c.log.Debug("transcript chunked", logger.Fields(
		"tokens", len(tokens),
		"chunks", len(chunks),
	))
	return chunks, nil
}

// periodTokens marks the tokens whose decoded text contains a period.
func (c *Chunker) periodTokens(tokens []int) []bool {
	marks := make([]bool, len(tokens))
	for i := range tokens {
		marks[i] = strings.Contains(c.tok.Decode(tokens[i:i+1]), ".")
	}
	return marks
}

// boundary returns the exclusive end of the chunk starting at cur: one
// past the period token nearest cur+MaxTokens, backward winning ties.
// The final window runs to the end of the text; a backward cut there would
// only leave a short trailing chunk behind.
func (c *Chunker) boundary(periods []bool, cur int, hasPeriod bool) int {
	n := len(periods)
	naive := min(cur+c.cfg.MaxTokens, n)
	if naive == n || !hasPeriod {
		return naive
	}

	back := -1
	for i := naive - 1; i >= max(cur, naive-c.cfg.SearchWindow); i-- {
		if periods[i] {
			back = i
			break
		}
	}
	fwd := -1
	for j := naive; j < min(n, naive+c.cfg.SearchWindow); j++ {
		if periods[j] {
			fwd = j
			break
		}
	}

	switch {
	case back >= 0 && fwd >= 0:
		if fwd-naive < naive-back {
			return fwd + 1
		}
		return back + 1
	case back >= 0:
		return back + 1
	case fwd >= 0:
		return fwd + 1
	}
	return naive
}

// LargestPeriodGap returns the most tokens between two consecutive period
// tokens. Fewer than two periods give 0.
func LargestPeriodGap(periods []bool) int {
	largest, last := 0, -1
	for i, p := range periods {
		if !p {
			continue
		}
		if last >= 0 {
			largest = max(largest, i-last)
		}
		last = i
	}
	return largest
}
