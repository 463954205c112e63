// Package transcript joins per-segment transcription results into one
// transcript with aggregated metadata.
//
// Two join modes exist. ModeSimple separates segment texts with a single
// space and drops a trailing period introduced by a segment cut when the
// next segment continues the sentence in lowercase. ModeDirect concatenates
// texts as returned, for services that return finished prose per call; a
// space is added only where a boundary has no whitespace on either side.
package transcript
