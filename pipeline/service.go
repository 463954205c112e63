package pipeline

import (
	"context"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/scribekit/chunker"
	"github.com/kbukum/scribekit/diarization"
	"github.com/kbukum/scribekit/diarization/pyannote"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/observability"
	"github.com/kbukum/scribekit/scheduler"
	"github.com/kbukum/scribekit/storage"
	"github.com/kbukum/scribekit/summarize"
	"github.com/kbukum/scribekit/transcription"
	"github.com/kbukum/scribekit/version"
)

// Option customizes a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger       *logger.Logger
	registry     *transcription.Registry
	llms         *summarize.Registry
	tokenizer    chunker.Tokenizer
	store        storage.Storage
	diarizer     diarization.Provider
	shutdownWait time.Duration
}

// WithLogger sets the logger instead of initializing one from config.
func WithLogger(l *logger.Logger) Option {
	return func(o *serviceOptions) { o.logger = l }
}

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *transcription.Registry) Option {
	return func(o *serviceOptions) { o.registry = r }
}

// WithLLMRegistry replaces summarize.NewRegistry.
func WithLLMRegistry(r *summarize.Registry) Option {
	return func(o *serviceOptions) { o.llms = r }
}

// WithTokenizer replaces the tiktoken tokenizer named in config.
func WithTokenizer(t chunker.Tokenizer) Option {
	return func(o *serviceOptions) { o.tokenizer = t }
}

// WithStorage replaces the backend built from config.Storage.
func WithStorage(s storage.Storage) Option {
	return func(o *serviceOptions) { o.store = s }
}

// WithDiarizer replaces the pyannote sidecar used when diarization is
// enabled.
func WithDiarizer(d diarization.Provider) Option {
	return func(o *serviceOptions) { o.diarizer = d }
}

// WithShutdownTimeout bounds telemetry flushing in Shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *serviceOptions) { o.shutdownWait = d }
}

// Service holds what runs share.
type Service struct {
	cfg      *Config
	log      *logger.Logger
	registry *transcription.Registry
	llms     *summarize.Registry
	store    storage.Storage
	diarizer diarization.Provider
	chunker  *chunker.Chunker
	pools    *scheduler.Pools
	metrics  *observability.Metrics

	tracer       *sdktrace.TracerProvider
	meter        *sdkmetric.MeterProvider
	shutdownWait time.Duration
}

// NewService applies defaults, validates cfg and starts the shared
// collaborators.
func NewService(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := &serviceOptions{shutdownWait: 15 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		logger.Init(cfg.Logging)
		o.logger = logger.GetGlobalLogger()
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.llms == nil {
		o.llms = summarize.NewRegistry()
	}

	s := &Service{
		cfg:          cfg,
		log:          o.logger,
		registry:     o.registry,
		llms:         o.llms,
		store:        o.store,
		pools:        scheduler.NewPools(cfg.Scheduler.ReservoirInterval),
		shutdownWait: o.shutdownWait,
	}

	if err := s.initTelemetry(ctx); err != nil {
		return nil, err
	}

	if s.store == nil {
		store, err := storage.New(ctx, cfg.Storage, s.log)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		s.store = store
	}

	ch, err := chunker.New(cfg.Chunker, o.tokenizer, s.log.WithComponent("chunker"))
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	s.chunker = ch

	if cfg.Diarization.Enabled {
		s.diarizer = o.diarizer
		if s.diarizer == nil {
			d, err := pyannote.New(cfg.Diarization)
			if err != nil {
				return nil, fmt.Errorf("diarization: %w", err)
			}
			s.diarizer = d
		}
	}

	s.log.Info("service ready", logger.Fields(
		"version", version.Short(),
		"environment", cfg.Environment,
		"providers", s.registry.List(),
		"default_provider", cfg.Provider,
		"storage", cfg.Storage.Provider,
		"diarization", s.diarizer != nil,
	))
	return s, nil
}

func (s *Service) initTelemetry(ctx context.Context) error {
	if s.cfg.Observability.Enabled {
		tp, err := observability.InitTracer(ctx, s.cfg.Name, s.cfg.Environment, s.cfg.Observability)
		if err != nil {
			return fmt.Errorf("tracer: %w", err)
		}
		s.tracer = tp
		mp, err := observability.InitMeter(ctx, s.cfg.Name, s.cfg.Environment, s.cfg.Observability)
		if err != nil {
			return fmt.Errorf("meter: %w", err)
		}
		s.meter = mp
		metrics, err := observability.NewMetrics(observability.Meter(s.cfg.Name))
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		s.metrics = metrics
		return nil
	}
	s.metrics = observability.NewNopMetrics()
	return nil
}

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.cfg }

// Storage returns the source backend.
func (s *Service) Storage() storage.Storage { return s.store }

// Shutdown flushes telemetry.
func (s *Service) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownWait)
	defer cancel()

	var firstErr error
	if s.tracer != nil {
		if err := s.tracer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.meter != nil {
		if err := s.meter.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		s.log.Warn("telemetry shutdown failed", logger.Fields(logger.FieldError, firstErr.Error()))
	}
	return firstErr
}
