package transcription

import (
	"context"

	"github.com/kbukum/scribekit/provider"
)

// Provider is implemented once per remote speech-to-text service.
type Provider interface {
	provider.Provider

	// Submit transcribes one segment. Errors are AppErrors carrying the
	// provider id and a retry kind.
	Submit(ctx context.Context, req Request) (*Result, error)
}

// ProseProvider is implemented by services whose output per call is
// already finished prose, so segment texts are concatenated without the
// sentence-break heuristic.
type ProseProvider interface {
	CompleteProse() bool
}

// ReturnsProse reports whether p produces finished prose.
func ReturnsProse(p Provider) bool {
	pp, ok := p.(ProseProvider)
	return ok && pp.CompleteProse()
}

// AsRequestResponse exposes p's Submit as Execute so provider middleware
// can wrap it.
func AsRequestResponse(p Provider) provider.RequestResponse[Request, *Result] {
	return &submitter{p: p}
}

type submitter struct {
	p Provider
}

func (s *submitter) Name() string                         { return s.p.Name() }
func (s *submitter) IsAvailable(ctx context.Context) bool { return s.p.IsAvailable(ctx) }

func (s *submitter) Execute(ctx context.Context, req Request) (*Result, error) {
	return s.p.Submit(ctx, req)
}
