package scheduler

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/media"
	"github.com/kbukum/scribekit/observability"
	"github.com/kbukum/scribekit/provider"
	"github.com/kbukum/scribekit/resilience"
	"github.com/kbukum/scribekit/transcription"
)

// Job is one segment's trip through the scheduler.
type Job struct {
	Segment    media.Segment
	ProviderID string
	Model      string
	Hints      transcription.Hints
	// Attempts counts Submit calls made so far.
	Attempts int
}

// Options carry the per-run values a Scheduler needs.
type Options struct {
	// ProviderID names the provider in logs and pools. Defaults to its Name.
	ProviderID string
	Model      string
	Hints      transcription.Hints
	// Concurrency is the remote pool size M.
	Concurrency int
	// Pools shares remote pools across schedulers. Nil creates private ones.
	Pools *Pools
	// ServiceName prefixes span names.
	ServiceName string
	Logger      *logger.Logger
	Metrics     *observability.Metrics
}

// Scheduler runs transcription jobs for one provider.
type Scheduler struct {
	cfg        Config
	providerID string
	model      string
	hints      transcription.Hints
	local      *resilience.Bulkhead
	remote     *provider.ResilienceState
	submit     provider.RequestResponse[transcription.Request, *transcription.Result]
	log        *logger.Logger
	metrics    *observability.Metrics
}

// New creates a scheduler that submits to p.
func New(cfg Config, p transcription.Provider, opts Options) *Scheduler {
	cfg.ApplyDefaults()
	if opts.ProviderID == "" {
		opts.ProviderID = p.Name()
	}
	if opts.Pools == nil {
		opts.Pools = NewPools(cfg.ReservoirInterval)
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "scribekit"
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewNopMetrics()
	}
	log := logger.OrDefault(opts.Logger, "scheduler")

	chain := provider.Chain(
		provider.WithLogging[transcription.Request, *transcription.Result](log),
		provider.WithMetrics[transcription.Request, *transcription.Result](opts.Metrics),
		provider.WithTracing[transcription.Request, *transcription.Result](opts.ServiceName),
	)

	return &Scheduler{
		cfg:        cfg,
		providerID: opts.ProviderID,
		model:      opts.Model,
		hints:      opts.Hints,
		local:      resilience.NewBulkhead(resilience.BulkheadConfig{Name: "local", MaxConcurrent: cfg.LocalPoolSize}),
		remote:     opts.Pools.For(opts.ProviderID, opts.Concurrency),
		submit:     chain(transcription.AsRequestResponse(p)),
		log:        log.WithFields(logger.Fields(logger.FieldProvider, opts.ProviderID)),
		metrics:    opts.Metrics,
	}
}

// ScheduleAll transcribes every segment and returns results aligned with
// segments. The first failing job cancels the others and its error is
// returned; partial results are discarded.
func (s *Scheduler) ScheduleAll(ctx context.Context, segments []media.Segment) ([]transcription.Result, error) {
	start := time.Now()
	s.log.Info("transcription started", logger.Fields(
		"segments", len(segments),
		"local_pool", s.cfg.LocalPoolSize,
		logger.FieldModel, s.model,
	))

	results := make([]transcription.Result, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segments {
		job := &Job{Segment: seg, ProviderID: s.providerID, Model: s.model, Hints: s.hints}
		g.Go(func() error {
			res, err := s.run(gctx, job)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("transcription failed", logger.Fields(logger.FieldError, err.Error()))
		return nil, err
	}

	s.log.Info("transcription complete", logger.Fields(
		"segments", len(segments),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return results, nil
}

// run executes one job: local slot, open handle, remote slot, retried
// submit. Every acquired resource is released on return.
func (s *Scheduler) run(ctx context.Context, job *Job) (*transcription.Result, error) {
	if err := s.local.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.local.Release()

	f, err := os.Open(job.Segment.Path)
	if err != nil {
		return nil, errors.SourceUnavailable(job.Segment.Path, err).WithDetail(logger.FieldSegment, job.Segment.Index)
	}
	defer func() { _ = f.Close() }()

	s.metrics.JobStarted(ctx)
	defer s.metrics.JobFinished(ctx)

	req := transcription.Request{
		SegmentIndex: job.Segment.Index,
		Path:         job.Segment.Path,
		Audio:        f,
		Model:        job.Model,
		Hints:        job.Hints,
	}
	res, err := provider.ExecuteWithResilience(ctx, s.remote, func() (*transcription.Result, error) {
		return resilience.Retry(ctx, s.retryPolicy(ctx, job), func() (*transcription.Result, error) {
			job.Attempts++
			return s.submit.Execute(ctx, req)
		})
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithDetails(map[string]any{logger.FieldSegment: job.Segment.Index, logger.FieldAttempt: job.Attempts})
		}
		return nil, err
	}
	if res == nil {
		res = &transcription.Result{}
	}

	s.log.Debug("segment transcribed", logger.Fields(
		logger.FieldSegment, job.Segment.Index,
		logger.FieldAttempt, job.Attempts,
	))
	return res, nil
}

// retryPolicy retries transient errors only and logs each retry with the
// failed attempt and its error.
func (s *Scheduler) retryPolicy(ctx context.Context, job *Job) resilience.RetryConfig {
	cfg := s.cfg.Retry
	cfg.RetryIf = errors.IsRetryable
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		s.metrics.RecordRetry(ctx, job.ProviderID)
		s.log.Warn("retrying segment", logger.Fields(
			logger.FieldSegment, job.Segment.Index,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", backoff.Milliseconds(),
		))
	}
	return cfg
}
