// Package pipeline composes planning, segmentation, scheduling,
// reassembly and chunking into one run.
//
// A Service is built once from Config. It owns the logger, telemetry
// exporters, storage backend, provider registries and the remote pools
// shared by every run. Each Run owns a working directory and a process
// registry, so Abort can kill a segmentation still in flight.
//
// With diarization.enabled, providers that return no speaker labels are
// wrapped so each segment also goes to the pyannote sidecar.
//
//	cfg, err := pipeline.Load()
//	svc, err := pipeline.NewService(ctx, cfg)
//	defer svc.Shutdown(ctx)
//
//	run, err := svc.NewRun(pipeline.RunOptions{Provider: "groq"})
//	defer run.Close()
//	out, err := run.Transcribe(ctx, media.Source{Path: "meeting.m4a"})
package pipeline
