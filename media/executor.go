package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/process"
	"github.com/kbukum/scribekit/provider"
)

// Source is the recording to split. DurationSeconds of 0 means unknown.
type Source struct {
	Path            string
	ByteSize        int64
	DurationSeconds float64
	// Extension is the container extension without the dot. Empty means
	// take it from Path.
	Extension string
}

// Ext returns the container extension without the dot.
func (s Source) Ext() string {
	if s.Extension != "" {
		return strings.TrimPrefix(s.Extension, ".")
	}
	return strings.TrimPrefix(filepath.Ext(s.Path), ".")
}

// Segment is one split file. Index is contiguous from 0.
type Segment struct {
	Index    int
	Path     string
	ByteSize int64
}

// SegmentName returns the file name for index: <prefix>-NNN.<ext>.
func SegmentName(prefix string, index int, ext string) string {
	return fmt.Sprintf("%s-%03d.%s", prefix, index, ext)
}

// Executor turns a plan into segment files.
type Executor struct {
	cfg    Config
	ffmpeg provider.RequestResponse[process.Command, *process.Result]
	log    *logger.Logger
}

// NewExecutor creates an executor. runner is normally the run's
// process.Registry so an abort can kill ffmpeg. Every ffmpeg call is logged
// with its duration and, on failure, its error kind.
func NewExecutor(cfg Config, runner process.Runner, log *logger.Logger) *Executor {
	cfg.ApplyDefaults()
	log = logger.OrDefault(log, "media")
	ffmpeg := provider.WithLogging[process.Command, *process.Result](log)(provider.Func("ffmpeg", runner.Run))
	return &Executor{cfg: cfg, ffmpeg: ffmpeg, log: log}
}

// Execute splits src into outDir according to plan and deletes src once
// the segments are verified. Without a split the source is copied to
// <prefix>-000.<ext>.
func (e *Executor) Execute(ctx context.Context, src Source, plan Plan, outDir string) ([]Segment, error) {
	if _, err := os.Stat(src.Path); err != nil {
		return nil, errors.SourceUnavailable(src.Path, err)
	}
	ext := src.Ext()
	if ext == "" {
		return nil, errors.InvalidInput("source.extension", "cannot infer container from "+src.Path)
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("media: create output directory: %w", err)
	}

	if !plan.SplitRequired {
		seg, err := e.copyWhole(src, outDir, ext)
		if err != nil {
			return nil, err
		}
		e.removeSource(src.Path)
		return []Segment{seg}, nil
	}

	if err := e.split(ctx, src, plan, outDir, ext); err != nil {
		return nil, err
	}
	segments, err := ListSegments(outDir, e.cfg.Prefix, ext)
	if err != nil {
		return nil, err
	}
	e.removeSource(src.Path)

	e.log.Info("segmentation complete", logger.Fields(
		"segments", len(segments),
		"segment_seconds", plan.SegmentDurationSeconds,
		logger.FieldPath, outDir,
	))
	return segments, nil
}

func (e *Executor) split(ctx context.Context, src Source, plan Plan, outDir, ext string) error {
	pattern := filepath.Join(outDir, e.cfg.Prefix+"-%03d."+ext)
	_, err := e.ffmpeg.Execute(ctx, process.Command{
		Binary: e.cfg.FFmpeg,
		Args: []string{
			"-y",
			"-i", src.Path,
			"-f", "segment",
			"-segment_time", strconv.Itoa(plan.SegmentDurationSeconds),
			"-c", "copy",
			"-reset_timestamps", "1",
			pattern,
		},
		Timeout:       e.cfg.Timeout,
		CheckInterval: e.cfg.CheckInterval,
		OnStderrLine:  e.logProgress,
	})
	return err
}

var progressTime = regexp.MustCompile(`time=\s*(\S+)`)

func (e *Executor) logProgress(line string) {
	if m := progressTime.FindStringSubmatch(line); m != nil {
		e.log.Debug("segmentation progress", logger.Fields("time", m[1]))
	}
}

func (e *Executor) copyWhole(src Source, outDir, ext string) (Segment, error) {
	in, err := os.Open(src.Path)
	if err != nil {
		return Segment{}, errors.SourceUnavailable(src.Path, err)
	}
	defer func() { _ = in.Close() }()

	dst := filepath.Join(outDir, SegmentName(e.cfg.Prefix, 0, ext))
	out, err := os.Create(dst)
	if err != nil {
		return Segment{}, fmt.Errorf("media: create segment: %w", err)
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Segment{}, fmt.Errorf("media: copy source: %w", err)
	}
	return Segment{Index: 0, Path: dst, ByteSize: n}, nil
}

func (e *Executor) removeSource(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.log.Warn("failed to delete source", logger.Fields(logger.FieldPath, path, logger.FieldError, err.Error()))
	}
}

// ListSegments returns the <prefix>-NNN.<ext> files in dir sorted by
// index. Other files are ignored. A missing index is a SegmentGap error.
func ListSegments(dir, prefix, ext string) ([]Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("media: list segments: %w", err)
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d{3,})\.` + regexp.QuoteMeta(ext) + `$`)

	var segments []Segment
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("media: stat segment: %w", err)
		}
		segments = append(segments, Segment{
			Index:    idx,
			Path:     filepath.Join(dir, entry.Name()),
			ByteSize: info.Size(),
		})
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].Index < segments[j].Index })
	if len(segments) == 0 {
		return nil, errors.SegmentGap(dir, 0, -1)
	}
	for i, s := range segments {
		if s.Index != i {
			return nil, errors.SegmentGap(dir, i, s.Index)
		}
	}
	return segments, nil
}
