package transcription

import (
	"io"
	"os"
	"path/filepath"
)

// Hints are optional steering values passed to the remote service.
type Hints struct {
	// Prompt is a vocabulary or context prompt.
	Prompt string `yaml:"prompt" mapstructure:"prompt"`
	// Temperature is the sampling temperature. Zero leaves the service default.
	Temperature float32 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=1"`
	// Language is the expected ISO-639-1 language code.
	Language string `yaml:"language" mapstructure:"language"`
}

// Request is one segment submitted for transcription.
type Request struct {
	// SegmentIndex identifies the segment in logs and errors.
	SegmentIndex int
	// Path is the segment file on disk.
	Path string
	// Audio is an already open handle on Path. When nil, adapters open Path.
	Audio io.ReadSeeker
	// Model is the provider model id.
	Model string
	Hints Hints
}

// FileName is the base name sent with uploads.
func (r Request) FileName() string {
	return filepath.Base(r.Path)
}

// Open returns a reader positioned at the start of the audio. Retried
// submits rewind the shared handle instead of reopening the file.
func (r Request) Open() (io.Reader, func() error, error) {
	if r.Audio != nil {
		if _, err := r.Audio.Seek(0, io.SeekStart); err != nil {
			return nil, nil, err
		}
		return r.Audio, func() error { return nil }, nil
	}
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// Cue is one timestamped caption entry. Speaker is nil when the service
// did not attribute the text.
type Cue struct {
	Start   float64
	End     float64
	Speaker *int
	Text    string
}

// Metadata is what a provider reports about one segment. Missing values
// stay at their zero value.
type Metadata struct {
	Language        string
	Confidence      float64
	SpeakerCount    int
	DurationSeconds float64
}

// Result is the normalized output of one Submit call. An empty Text is a
// valid result.
type Result struct {
	Text     string
	Cues     []Cue
	Metadata Metadata
}

// CueTrack renders the cues in the two-line form.
func (r *Result) CueTrack() string {
	return RenderCues(r.Cues)
}
