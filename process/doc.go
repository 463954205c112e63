// Package process runs external programs such as ffmpeg and ffprobe.
//
// Each process runs in its own process group, its output is streamed line by
// line to optional callbacks while also being captured, and an optional
// liveness check kills it once it exceeds its time budget. A Registry owned
// by a run records live processes so that aborting the run can terminate them.
package process
