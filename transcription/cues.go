package transcription

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/asticode/go-astisub"
)

// FormatTimestamp renders seconds as HH:MM:SS.mmm. Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// Word is one timed word as reported by a service.
type Word struct {
	Start   float64
	End     float64
	Text    string
	Speaker *int
}

// GroupOptions bound how many words go into one cue.
type GroupOptions struct {
	// MaxDuration is the longest cue in seconds.
	MaxDuration float64
	// MaxChars is the longest cue text.
	MaxChars int
	// MaxGap is the longest silence kept inside one cue, in seconds.
	MaxGap float64
}

// DefaultGroupOptions suit reading-speed subtitles.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{MaxDuration: 6, MaxChars: 84, MaxGap: 1.5}
}

// GroupWords packs words into cues. A new cue starts when the speaker
// changes, the silence before a word exceeds MaxGap, the cue would grow
// past MaxDuration or MaxChars, or the previous word ended a sentence.
func GroupWords(words []Word, opts GroupOptions) []Cue {
	if opts.MaxDuration <= 0 || opts.MaxChars <= 0 || opts.MaxGap <= 0 {
		opts = DefaultGroupOptions()
	}

	var cues []Cue
	var cur *Cue
	var parts []string
	chars := 0

	flush := func() {
		if cur != nil && len(parts) > 0 {
			cur.Text = strings.Join(parts, " ")
			cues = append(cues, *cur)
		}
		cur, parts, chars = nil, nil, 0
	}

	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if cur != nil {
			last := parts[len(parts)-1]
			switch {
			case !sameSpeaker(cur.Speaker, w.Speaker),
				w.Start-cur.End > opts.MaxGap,
				w.End-cur.Start > opts.MaxDuration,
				chars+1+len(text) > opts.MaxChars,
				endsSentence(last):
				flush()
			}
		}
		if cur == nil {
			cur = &Cue{Start: w.Start, Speaker: w.Speaker}
		}
		cur.End = w.End
		if len(parts) > 0 {
			chars++
		}
		parts = append(parts, text)
		chars += len(text)
	}
	flush()
	return cues
}

func sameSpeaker(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!")
}

// RenderCues writes each cue as a start timestamp line followed by its
// text, prefixed with "Speaker N: " when attributed. Cues are separated
// by a blank line.
func RenderCues(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTimestamp(c.Start))
		line := c.Text
		if c.Speaker != nil {
			line = "Speaker " + strconv.Itoa(*c.Speaker) + ": " + line
		}
		if line != "" {
			b.WriteByte('\n')
			b.WriteString(line)
		}
	}
	return b.String()
}

var (
	bracketTag  = regexp.MustCompile(`(?i)\[\s*speaker[\s_]*(\d+)\s*\]`)
	prefixTag   = regexp.MustCompile(`(?i)^\s*speaker[\s_]*(\d+)\s*:\s*`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
	firstNumber = regexp.MustCompile(`\d+`)
)

// ParseSubtitles reads WebVTT or SRT markup into cues. Markup starting with
// a WEBVTT header is read as WebVTT, anything else as SRT. End timestamps
// are dropped, cue text lines are joined, and speaker labels (<v Speaker 1>,
// [SPEAKER_1], "Speaker 1:") collapse into Cue.Speaker.
func ParseSubtitles(markup string) ([]Cue, error) {
	markup = strings.TrimPrefix(markup, "\ufeff")

	var subs *astisub.Subtitles
	var err error
	if strings.HasPrefix(strings.TrimSpace(markup), "WEBVTT") {
		subs, err = astisub.ReadFromWebVTT(strings.NewReader(markup))
	} else {
		subs, err = astisub.ReadFromSRT(strings.NewReader(markup))
	}
	if err != nil {
		return nil, fmt.Errorf("parse subtitles: %w", err)
	}

	cues := make([]Cue, 0, len(subs.Items))
	for _, item := range subs.Items {
		speaker, text := collapseSpeakers(item.Lines)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{Start: item.StartAt.Seconds(), Speaker: speaker, Text: text})
	}
	return cues, nil
}

// NormalizeSubtitles rewrites WebVTT or SRT markup into the two-line cue form.
func NormalizeSubtitles(markup string) (string, error) {
	cues, err := ParseSubtitles(markup)
	if err != nil {
		return "", err
	}
	return RenderCues(cues), nil
}

// collapseSpeakers joins the item's lines and takes the first speaker
// number found in a voice name, a bracket tag or a leading "Speaker N:".
func collapseSpeakers(lines []astisub.Line) (*int, string) {
	var speaker *int
	take := func(label string) {
		if speaker != nil {
			return
		}
		if n, err := strconv.Atoi(firstNumber.FindString(label)); err == nil {
			speaker = &n
		}
	}

	var parts []string
	for _, l := range lines {
		if l.VoiceName != "" {
			take(l.VoiceName)
		}
		for _, li := range l.Items {
			parts = append(parts, li.Text)
		}
	}
	text := strings.Join(parts, " ")
	for _, m := range bracketTag.FindAllStringSubmatch(text, -1) {
		take(m[1])
	}
	text = bracketTag.ReplaceAllString(text, " ")
	text = anyTag.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	if m := prefixTag.FindStringSubmatch(text); m != nil {
		take(m[1])
		text = prefixTag.ReplaceAllString(text, "")
	}
	return speaker, text
}

// CountSpeakers returns the number of distinct non-nil speakers across words.
func CountSpeakers(words []Word) int {
	seen := make(map[int]struct{})
	for _, w := range words {
		if w.Speaker != nil {
			seen[*w.Speaker] = struct{}{}
		}
	}
	return len(seen)
}

// CountCueSpeakers returns the number of distinct non-nil speakers across cues.
func CountCueSpeakers(cues []Cue) int {
	seen := make(map[int]struct{})
	for _, c := range cues {
		if c.Speaker != nil {
			seen[*c.Speaker] = struct{}{}
		}
	}
	return len(seen)
}

// LastEnd returns the end of the last cue, or its start when no end was
// reported. Zero for no cues.
func LastEnd(cues []Cue) float64 {
	if len(cues) == 0 {
		return 0
	}
	last := cues[len(cues)-1]
	return max(last.End, last.Start)
}
