package media

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/process"
	"github.com/kbukum/scribekit/storage"
)

// Stager prepares a Source: it pulls recordings out of storage into the
// run directory and fills in unknown durations with ffprobe.
type Stager struct {
	store   storage.Storage
	runner  process.Runner
	ffprobe string
	log     *logger.Logger
}

// NewStager creates a stager. store may be nil when only local files are
// inspected.
func NewStager(cfg Config, store storage.Storage, runner process.Runner, log *logger.Logger) *Stager {
	cfg.ApplyDefaults()
	return &Stager{store: store, runner: runner, ffprobe: cfg.FFprobe, log: logger.OrDefault(log, "media")}
}

// Stage downloads object into workDir and describes it. A positive
// duration skips the probe.
func (s *Stager) Stage(ctx context.Context, object, workDir string, duration float64) (Source, error) {
	if s.store == nil {
		return Source{}, errors.InvalidInput("storage", "no backend configured")
	}
	dst := filepath.Join(workDir, "source"+strings.ToLower(path.Ext(object)))
	n, err := storage.Fetch(ctx, s.store, object, dst)
	if err != nil {
		return Source{}, err
	}
	s.log.Info("source staged", logger.Fields("object", object, logger.FieldPath, dst, "bytes", n))
	return s.Inspect(ctx, dst, duration)
}

// Inspect describes a local file. When duration is not positive it is
// probed; a duration ffprobe cannot determine stays 0.
func (s *Stager) Inspect(ctx context.Context, file string, duration float64) (Source, error) {
	info, err := os.Stat(file)
	if err != nil {
		return Source{}, errors.SourceUnavailable(file, err)
	}
	if info.IsDir() {
		return Source{}, errors.SourceUnavailable(file, nil)
	}

	src := Source{Path: file, ByteSize: info.Size(), DurationSeconds: duration}
	if duration <= 0 {
		d, err := process.ProbeDuration(ctx, s.runner, s.ffprobe, file)
		if err != nil {
			return Source{}, err
		}
		src.DurationSeconds = d
		s.log.Debug("source probed", logger.Fields(logger.FieldPath, file, "duration_s", d))
	}
	return src, nil
}
