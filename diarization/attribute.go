package diarization

import (
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/util"
)

// Attribute assigns each cue the speaker whose range overlaps it most and
// returns the relabelled cues with the number of distinct speakers used.
// Speaker labels become 1-based numbers in order of first appearance,
// matching how services that diarize themselves are rendered.
// Cues that overlap no range keep their existing speaker.
func Attribute(cues []transcription.Cue, segments []Segment) ([]transcription.Cue, int) {
	out := make([]transcription.Cue, len(cues))
	copy(out, cues)
	if len(segments) == 0 {
		return out, 0
	}

	ids := make(map[string]int)
	for i := range out {
		label, ok := dominant(out[i].Start, out[i].End, segments)
		if !ok {
			continue
		}
		id, seen := ids[label]
		if !seen {
			id = len(ids) + 1
			ids[label] = id
		}
		out[i].Speaker = util.Ptr(id)
	}
	return out, len(ids)
}

func dominant(start, end float64, segments []Segment) (string, bool) {
	best, bestOverlap := "", 0.0
	for _, s := range segments {
		o := min(end, s.End) - max(start, s.Start)
		if o > bestOverlap {
			best, bestOverlap = s.Speaker, o
		}
	}
	if bestOverlap > 0 {
		return best, true
	}
	// zero-length cues take the range that contains them
	for _, s := range segments {
		if start >= s.Start && start <= s.End {
			return s.Speaker, true
		}
	}
	return "", false
}
