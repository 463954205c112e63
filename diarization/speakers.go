package diarization

import (
	"context"

	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/transcription"
)

// WithSpeakers wraps p so results without speaker labels are diarized
// by d. Diarization failures are logged and the unlabelled result is
// returned; a transcript without speakers is still a transcript.
func WithSpeakers(p transcription.Provider, d Provider, cfg Config, log *logger.Logger) transcription.Provider {
	return &speakerProvider{
		Provider: p,
		d:        d,
		cfg:      cfg,
		log:      logger.OrDefault(log, "diarization"),
	}
}

type speakerProvider struct {
	transcription.Provider
	d   Provider
	cfg Config
	log *logger.Logger
}

// CompleteProse forwards the wrapped provider's join behaviour.
func (s *speakerProvider) CompleteProse() bool {
	return transcription.ReturnsProse(s.Provider)
}

func (s *speakerProvider) Submit(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	res, err := s.Provider.Submit(ctx, req)
	if err != nil || res == nil || len(res.Cues) == 0 || labelled(res.Cues) || req.Path == "" {
		return res, err
	}

	resp, err := s.d.Diarize(ctx, Request{
		AudioPath:   req.Path,
		MinSpeakers: s.cfg.MinSpeakers,
		MaxSpeakers: s.cfg.MaxSpeakers,
		Language:    req.Hints.Language,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.WithContext(ctx).Warn("diarization failed, keeping unlabelled cues", map[string]interface{}{
			logger.FieldSegment:  req.SegmentIndex,
			logger.FieldProvider: s.d.Name(),
			logger.FieldError:    err.Error(),
		})
		return res, nil
	}

	cues, speakers := Attribute(res.Cues, resp.Segments)
	res.Cues = cues
	if resp.NumSpeakers > speakers {
		speakers = resp.NumSpeakers
	}
	res.Metadata.SpeakerCount = speakers
	return res, nil
}

func labelled(cues []transcription.Cue) bool {
	for _, c := range cues {
		if c.Speaker != nil {
			return true
		}
	}
	return false
}
