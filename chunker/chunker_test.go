package chunker

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kbukum/scribekit/logger"
)

// runeTokenizer makes every rune one token.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		out = append(out, int(r))
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteRune(rune(t))
	}
	return b.String()
}

func newChunker(t *testing.T, maxTokens, window int) *Chunker {
	t.Helper()
	c, err := New(Config{MaxTokens: maxTokens, SearchWindow: window}, runeTokenizer{}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestChunkForSummary(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxTokens int
		window    int
		want      []string
	}{
		{
			name:      "no periods splits naively",
			text:      strings.Repeat("x", 25),
			maxTokens: 10, window: 100,
			want: []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)},
		},
		{
			name:      "backward period",
			text:      "abcdefg.hijklmnopqrstu",
			maxTokens: 10, window: 5,
			want: []string{"abcdefg.", "hijklmnopq", "rstu"},
		},
		{
			name:      "nearer forward period",
			text:      "a.bcdefghijk.lmn",
			maxTokens: 10, window: 100,
			want: []string{"a.bcdefghijk.", "lmn"},
		},
		{
			name:      "forward period one token past the cut",
			text:      "xxxxxxx.xxx.xxx",
			maxTokens: 10, window: 100,
			want: []string{"xxxxxxx.xxx.", "xxx"},
		},
		{
			name:      "equal distance prefers backward",
			text:      "xxxxxxxx.xxx.xx",
			maxTokens: 10, window: 100,
			want: []string{"xxxxxxxx.", "xxx.xx"},
		},
		{
			name:      "period just before the cut",
			text:      "xxxxxxxxx.xxxxxxxx.x",
			maxTokens: 10, window: 100,
			want: []string{"xxxxxxxxx.", "xxxxxxxx.x"},
		},
		{
			name:      "period outside window",
			text:      "a." + strings.Repeat("x", 20),
			maxTokens: 15, window: 5,
			want: []string{"a." + strings.Repeat("x", 13), strings.Repeat("x", 7)},
		},
		{
			name:      "short text is one chunk",
			text:      "One. Two.",
			maxTokens: 100, window: 100,
			want: []string{"One. Two."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := newChunker(t, tt.maxTokens, tt.window).ChunkForSummary(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := texts(chunks)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestChunkForSummaryEmpty(t *testing.T) {
	chunks, err := newChunker(t, 10, 100).ChunkForSummary(context.Background(), "")
	if err != nil || chunks != nil {
		t.Errorf("expected no chunks, got %v, %v", chunks, err)
	}
}

func TestChunkRangesPartitionAndRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"zero periods": strings.Repeat("words without any stop ", 40),
		"one period":   strings.Repeat("lead in text ", 20) + "the end. " + strings.Repeat("trailing ", 30),
		"many periods": strings.Repeat("Short sentence here. Another one follows it. ", 30),
		"unicode":      strings.Repeat("Größe über alles. Ça va? ", 25),
	}
	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			c := newChunker(t, 37, 10)
			chunks, err := c.ChunkForSummary(context.Background(), text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			total := len(runeTokenizer{}.Encode(text))
			next := 0
			var b strings.Builder
			for i, ch := range chunks {
				if ch.Start != next {
					t.Fatalf("chunk %d starts at %d, expected %d", i, ch.Start, next)
				}
				if ch.End <= ch.Start {
					t.Fatalf("chunk %d has non-increasing boundary %d..%d", i, ch.Start, ch.End)
				}
				if ch.Tokens() > c.MaxTokens()+10 {
					t.Errorf("chunk %d has %d tokens, more than max plus window", i, ch.Tokens())
				}
				next = ch.End
				b.WriteString(ch.Text)
			}
			if next != total {
				t.Errorf("expected chunks to cover %d tokens, covered %d", total, next)
			}
			if b.String() != text {
				t.Error("expected decoded chunks to reproduce the input")
			}
		})
	}
}

func TestLargestPeriodGap(t *testing.T) {
	tests := []struct {
		name    string
		periods string
		want    int
	}{
		{"none", "xxxx", 0},
		{"one", "xx.x", 0},
		{"two", ".xxx.", 4},
		{"largest wins", ".x.xxxxx.x.", 6},
	}
	for _, tt := range tests {
		marks := make([]bool, len(tt.periods))
		for i, r := range tt.periods {
			marks[i] = r == '.'
		}
		if got := LargestPeriodGap(marks); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestLongSentenceIsLogged(t *testing.T) {
	var buf bytes.Buffer
	c, err := New(Config{MaxTokens: 5}, runeTokenizer{}, logger.NewWithWriter(&buf, "debug"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ChunkForSummary(context.Background(), "a. this sentence is long. b."); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "sentence longer than chunk size") {
		t.Errorf("expected diagnostic log, got %q", buf.String())
	}

	buf.Reset()
	if _, err := c.ChunkForSummary(context.Background(), "a. b. c."); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "sentence longer") {
		t.Errorf("expected no diagnostic, got %q", buf.String())
	}
}

func TestChunkForSummaryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newChunker(t, 10, 100).ChunkForSummary(ctx, "some text"); err == nil {
		t.Error("expected context error")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.MaxTokens != DefaultMaxTokens || cfg.Encoding != "cl100k_base" || cfg.SearchWindow != 100 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestNewTiktokenUnknownEncoding(t *testing.T) {
	if _, err := NewTiktoken("not_an_encoding"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
