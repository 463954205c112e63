// Package media plans and performs the split of one long recording into
// bounded-size segment files.
//
// NewPlan decides the segment length from the source's duration and size.
// Executor runs ffmpeg through a run-scoped process registry and verifies
// the resulting <prefix>-NNN.<ext> files. Stager pulls a source out of a
// storage backend and fills in its duration with ffprobe.
package media
