package pipeline

import (
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/transcription/deepgram"
	"github.com/kbukum/scribekit/transcription/gemini"
	"github.com/kbukum/scribekit/transcription/openai"
	"github.com/kbukum/scribekit/transcription/whisper"

	// Storage backends register themselves.
	_ "github.com/kbukum/scribekit/storage/local"
	_ "github.com/kbukum/scribekit/storage/s3"
)

// DefaultRegistry returns a registry with every built-in provider.
func DefaultRegistry() *transcription.Registry {
	r := transcription.NewRegistry()
	r.RegisterFactory(openai.ProviderID, openai.Factory)
	r.RegisterFactory(openai.GroqProviderID, openai.GroqFactory)
	r.RegisterFactory(deepgram.ProviderID, deepgram.Factory)
	r.RegisterFactory(gemini.ProviderID, gemini.Factory)
	r.RegisterFactory(whisper.ProviderID, whisper.Factory)
	return r
}
