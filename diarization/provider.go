package diarization

import (
	"context"

	"github.com/kbukum/scribekit/provider"
)

// Provider is the interface that diarization backends must implement.
type Provider interface {
	provider.Provider

	// Diarize returns speaker-attributed ranges for the audio in req.
	Diarize(ctx context.Context, req Request) (*Response, error)
}
