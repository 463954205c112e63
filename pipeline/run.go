package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kbukum/scribekit/chunker"
	"github.com/kbukum/scribekit/diarization"
	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/media"
	"github.com/kbukum/scribekit/observability"
	"github.com/kbukum/scribekit/process"
	"github.com/kbukum/scribekit/scheduler"
	"github.com/kbukum/scribekit/summarize"
	"github.com/kbukum/scribekit/transcript"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/util"
)

// RunOptions select the provider for one run.
type RunOptions struct {
	// Provider is a registry id. Empty uses Config.Provider.
	Provider string
	// Model overrides the provider's default model.
	Model string
	// Hints override the configured hints when non-empty.
	Hints *transcription.Hints
	// Summarize runs the summarization hand-off when a backend is configured.
	Summarize bool
}

// Output is everything a run produces.
type Output struct {
	RunID      string
	Transcript string
	// Segments holds one result per segment, in segment order.
	Segments  []transcription.Result
	Metadata  transcript.Metadata
	Chunks    []chunker.Chunk
	Summaries []summarize.Summary
}

// Run is one transcription of one recording.
type Run struct {
	ID string

	svc      *Service
	opts     RunOptions
	settings ProviderConfig
	provider transcription.Provider
	dir      string
	procs    *process.Registry
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	aborted atomic.Bool
}

// NewRun builds the provider and creates the run's working directory.
func (s *Service) NewRun(opts RunOptions) (*Run, error) {
	if opts.Provider == "" {
		opts.Provider = s.cfg.Provider
	}
	if opts.Provider == "" {
		return nil, errors.InvalidInput("provider", "no provider selected")
	}
	settings := s.cfg.ProviderSettings(opts.Provider)
	if opts.Model != "" {
		settings.Model = opts.Model
	}
	if opts.Hints != nil {
		settings.Hints = *opts.Hints
	}

	p, err := s.registry.Create(opts.Provider, settings.Config)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := s.log.WithFields(logger.Fields(logger.FieldRunID, id, logger.FieldProvider, opts.Provider))
	if s.diarizer != nil {
		p = diarization.WithSpeakers(p, s.diarizer, s.cfg.Diarization, log)
	}

	dir := filepath.Join(s.cfg.WorkDir, "scribe-"+id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.SourceUnavailable(dir, err)
	}
	log.Debug("run created", logger.Fields(
		logger.FieldPath, dir,
		logger.FieldModel, settings.Model,
		"api_key", util.MaskSecret(settings.APIKey, 4),
	))

	return &Run{
		ID:       id,
		svc:      s,
		opts:     opts,
		settings: settings,
		provider: p,
		dir:      dir,
		procs:    process.NewRegistry(id, log),
		log:      log,
	}, nil
}

// Dir returns the run's working directory.
func (r *Run) Dir() string { return r.dir }

// TranscribeObject stages object from storage into the run directory and
// transcribes it. A positive duration skips the ffprobe call.
func (r *Run) TranscribeObject(ctx context.Context, object string, durationSeconds float64) (*Output, error) {
	ctx, done := r.begin(ctx)
	defer done()

	stager := media.NewStager(r.svc.cfg.Media, r.svc.store, r.procs, r.log)
	var src media.Source
	err := r.stage(ctx, "stage", func(ctx context.Context) error {
		var err error
		src, err = stager.Stage(ctx, object, r.dir, durationSeconds)
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.transcribe(ctx, src)
}

// Transcribe runs the whole pipeline on a local source. The source file is
// deleted once segmented. An unknown duration is probed with ffprobe.
func (r *Run) Transcribe(ctx context.Context, src media.Source) (*Output, error) {
	ctx, done := r.begin(ctx)
	defer done()

	if src.DurationSeconds <= 0 || src.ByteSize <= 0 {
		stager := media.NewStager(r.svc.cfg.Media, nil, r.procs, r.log)
		err := r.stage(ctx, "inspect", func(ctx context.Context) error {
			inspected, err := stager.Inspect(ctx, src.Path, src.DurationSeconds)
			if err != nil {
				return err
			}
			inspected.Extension = src.Extension
			src = inspected
			return nil
		})
		if err != nil {
			return nil, r.fail(err)
		}
	}
	return r.transcribe(ctx, src)
}

func (r *Run) transcribe(ctx context.Context, src media.Source) (*Output, error) {
	cfg := r.svc.cfg
	ctx = logger.ContextWithRunID(ctx, r.ID)

	plan := cfg.Media.Limits.Plan(src.DurationSeconds, src.ByteSize)
	r.log.Info("segment plan", logger.Fields(
		"duration_s", src.DurationSeconds,
		"bytes", src.ByteSize,
		"segment_seconds", plan.SegmentDurationSeconds,
		"split", plan.SplitRequired,
		"segments", plan.SegmentCount(src.DurationSeconds),
	))

	var segments []media.Segment
	err := r.stage(ctx, "segment", func(ctx context.Context) error {
		var err error
		segments, err = media.NewExecutor(cfg.Media, r.procs, r.log).Execute(ctx, src, plan, r.dir)
		observability.SetSpanAttribute(ctx, observability.AttrSegmentCount, len(segments))
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}
	r.svc.metrics.RecordSegments(ctx, len(segments))

	var results []transcription.Result
	err = r.stage(ctx, "transcribe", func(ctx context.Context) error {
		sched := scheduler.New(cfg.Scheduler, r.provider, scheduler.Options{
			ProviderID:  r.opts.Provider,
			Model:       r.settings.Model,
			Hints:       r.settings.Hints,
			Concurrency: r.settings.Concurrency,
			Pools:       r.svc.pools,
			ServiceName: cfg.Name,
			Logger:      r.log,
			Metrics:     r.svc.metrics,
		})
		var err error
		results, err = sched.ScheduleAll(ctx, segments)
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}

	unified := transcript.Reassemble(results, r.joinMode())
	out := &Output{
		RunID:      r.ID,
		Transcript: unified.Text,
		Segments:   results,
		Metadata:   unified.Metadata,
	}

	err = r.stage(ctx, "chunk", func(ctx context.Context) error {
		var err error
		out.Chunks, err = r.svc.chunker.ChunkForSummary(ctx, out.Transcript)
		return err
	})
	if err != nil {
		return nil, r.fail(err)
	}

	if r.opts.Summarize && cfg.Summarize.Enabled() && len(out.Chunks) > 0 {
		err = r.stage(ctx, "summarize", func(ctx context.Context) error {
			var err error
			out.Summaries, err = r.summarize(ctx, out.Chunks)
			return err
		})
		if err != nil {
			return nil, r.fail(err)
		}
	}

	r.log.Info("run complete", logger.Fields(
		"segments", len(results),
		"chunks", len(out.Chunks),
		"characters", len(out.Transcript),
		"languages", out.Metadata.Languages,
	))
	return out, nil
}

func (r *Run) summarize(ctx context.Context, chunks []chunker.Chunk) ([]summarize.Summary, error) {
	cfg := r.svc.cfg.Summarize
	backend, err := r.svc.llms.Create(cfg.Backend, cfg.LLM)
	if err != nil {
		return nil, err
	}
	s := summarize.New(cfg, backend, summarize.Options{
		ServiceName: r.svc.cfg.Name,
		Logger:      r.log,
		Metrics:     r.svc.metrics,
	})
	return s.Summarize(ctx, chunks)
}

func (r *Run) joinMode() transcript.Mode {
	if r.settings.JoinMode != "" {
		if m, err := transcript.ParseMode(r.settings.JoinMode); err == nil {
			return m
		}
	}
	return transcript.ModeFor(r.provider)
}

// stage runs fn inside a span and operation metric named after the stage.
func (r *Run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, st := observability.StartStage(ctx, r.svc.cfg.Name, name, r.ID, r.svc.metrics)
	err := fn(ctx)
	st.End(ctx, err)
	if err == nil {
		r.log.Debug("stage complete", logger.Fields(logger.FieldOperation, name, logger.FieldDuration, st.Duration().Milliseconds()))
	}
	return err
}

// begin makes ctx cancelable by Abort.
func (r *Run) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	if r.aborted.Load() {
		cancel()
	}
	return ctx, cancel
}

// fail reports err, replacing it with an Aborted error when the run was
// aborted.
func (r *Run) fail(err error) error {
	if r.aborted.Load() {
		err = errors.Aborted(r.ID).WithCause(err)
	}
	r.log.Error("run failed", logger.Fields(logger.FieldError, err.Error()))
	return err
}

// Abort cancels the run and kills any process it spawned. Transcribe
// returns an Aborted error.
func (r *Run) Abort() {
	if r.aborted.Swap(true) {
		return
	}
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	killed := r.procs.KillAll()
	r.log.Warn("run aborted", logger.Fields("killed", killed))
}

// Aborted reports whether Abort was called.
func (r *Run) Aborted() bool { return r.aborted.Load() }

// Close kills leftover processes and removes the working directory unless
// KeepWorkDir is set.
func (r *Run) Close() error {
	r.procs.KillAll()
	if r.svc.cfg.KeepWorkDir {
		return nil
	}
	return os.RemoveAll(r.dir)
}
