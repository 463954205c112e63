package transcript

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kbukum/scribekit/transcription"
)

// Mode selects how segment texts are joined.
type Mode string

const (
	// ModeSimple joins with spaces and repairs sentence breaks at cut points.
	ModeSimple Mode = "simple"
	// ModeDirect concatenates texts in order.
	ModeDirect Mode = "direct"
)

// ParseMode accepts "simple", "direct" or "" (simple).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSimple:
		return ModeSimple, nil
	case ModeDirect:
		return ModeDirect, nil
	}
	return "", fmt.Errorf("unknown join mode %q", s)
}

// ModeFor picks ModeDirect for providers that return finished prose.
func ModeFor(p transcription.Provider) Mode {
	if transcription.ReturnsProse(p) {
		return ModeDirect
	}
	return ModeSimple
}

// Metadata aggregates per-segment metadata.
type Metadata struct {
	// DurationSeconds is the largest duration any segment reported.
	DurationSeconds float64
	// Languages lists reported languages in first-seen order.
	Languages []string
	// SpeakerCount sums the per-segment speaker counts.
	SpeakerCount int
}

// Unified is the reassembled transcript.
type Unified struct {
	Text     string
	Metadata Metadata
}

// Reassemble joins results in order.
func Reassemble(results []transcription.Result, mode Mode) Unified {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}

	var text string
	if mode == ModeDirect {
		text = JoinDirect(texts)
	} else {
		text = JoinSimple(texts)
	}
	return Unified{Text: text, Metadata: Aggregate(results)}
}

// JoinDirect concatenates texts as returned. A single space is inserted only
// where neither side of a boundary carries whitespace, so words from adjacent
// segments never run together. The result is trimmed.
func JoinDirect(texts []string) string {
	var b strings.Builder
	for _, t := range texts {
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			prev, _ := utf8.DecodeLastRuneInString(b.String())
			next, _ := utf8.DecodeRuneInString(t)
			if !unicode.IsSpace(prev) && !unicode.IsSpace(next) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t)
	}
	return strings.TrimSpace(b.String())
}

// JoinSimple joins texts with single spaces. When the text so far ends with
// "." and the next text starts with a lowercase letter, the period is
// dropped. Empty texts are skipped.
func JoinSimple(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t == "" {
			continue
		}
		if n := len(parts); n > 0 && strings.HasSuffix(parts[n-1], ".") && startsLower(t) {
			parts[n-1] = strings.TrimSuffix(parts[n-1], ".")
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

// Aggregate folds per-segment metadata.
func Aggregate(results []transcription.Result) Metadata {
	var md Metadata
	for _, r := range results {
		md.DurationSeconds = max(md.DurationSeconds, r.Metadata.DurationSeconds)
		if lang := r.Metadata.Language; lang != "" && !slices.Contains(md.Languages, lang) {
			md.Languages = append(md.Languages, lang)
		}
		md.SpeakerCount += r.Metadata.SpeakerCount
	}
	return md
}
