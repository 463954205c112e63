// Package diarization labels speakers on transcripts from services that do
// not attribute speech themselves.
//
// A diarization backend returns speaker-attributed time ranges for an
// audio file. WithSpeakers wraps a transcription.Provider so each segment
// result is matched against those ranges and every cue gets the speaker
// that overlaps it most.
//
// # Backends
//
//   - diarization/pyannote: pyannote.audio HTTP sidecar
//
// # Usage
//
//	d, _ := pyannote.New(cfg)
//	p = diarization.WithSpeakers(p, d, cfg, log)
package diarization
