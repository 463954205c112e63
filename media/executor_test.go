package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/scribekit/errors"
	"github.com/kbukum/scribekit/logger"
	"github.com/kbukum/scribekit/process"
)

// fakeFFmpeg writes a script that records its arguments and creates one
// file per index by expanding the output pattern (the last argument).
func fakeFFmpeg(t *testing.T, indexes []int, extra string) (bin, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	var idx []string
	for _, i := range indexes {
		idx = append(idx, fmt.Sprint(i))
	}
	script := fmt.Sprintf(`#!/bin/sh
echo "$@" > %q
for last; do :; done
echo "size=1kB time=00:00:05.00 bitrate=1.6kbits/s" >&2
%s
for i in %s; do
  f=$(printf "$last" "$i")
  printf 'segment %%s' "$i" > "$f"
done
`, argsFile, extra, strings.Join(idx, " "))
	bin = filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return bin, argsFile
}

func writeSource(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func newTestExecutor(bin string) *Executor {
	return NewExecutor(Config{FFmpeg: bin, CheckInterval: 50 * time.Millisecond}, process.NewRegistry("test", nil), nil)
}

func TestExecuteSplitsOneHour(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t, []int{0, 1, 2, 3}, "")
	src := writeSource(t, "meeting.mp3", 1024)
	out := filepath.Join(t.TempDir(), "segments")

	plan := NewPlan(3600, 100_000_000, 24)
	segments, err := newTestExecutor(bin).Execute(context.Background(), Source{Path: src, ByteSize: 100_000_000, DurationSeconds: 3600}, plan, out)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(segments) != plan.SegmentCount(3600) {
		t.Fatalf("expected %d segments, got %d", plan.SegmentCount(3600), len(segments))
	}
	for i, s := range segments {
		if s.Index != i {
			t.Errorf("expected index %d, got %d", i, s.Index)
		}
		if want := filepath.Join(out, fmt.Sprintf("segment-%03d.mp3", i)); s.Path != want {
			t.Errorf("expected path %q, got %q", want, s.Path)
		}
		if s.ByteSize == 0 {
			t.Errorf("expected non-empty segment %d", i)
		}
	}

	args, _ := os.ReadFile(argsFile)
	if !strings.Contains(string(args), "-f segment -segment_time 906 -c copy -reset_timestamps 1") {
		t.Errorf("unexpected ffmpeg args %q", args)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("expected source deleted, stat returned %v", err)
	}
}

func TestExecuteNoSplitCopies(t *testing.T) {
	src := writeSource(t, "short.m4a", 2048)
	out := t.TempDir()

	segments, err := newTestExecutor("/nonexistent/ffmpeg").Execute(context.Background(), Source{Path: src}, Plan{}, out)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(segments) != 1 || segments[0].Index != 0 || segments[0].ByteSize != 2048 {
		t.Fatalf("unexpected segments %+v", segments)
	}
	if filepath.Base(segments[0].Path) != "segment-000.m4a" {
		t.Errorf("expected segment-000.m4a, got %s", segments[0].Path)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("expected source deleted, stat returned %v", err)
	}
}

func TestExecuteErrors(t *testing.T) {
	split := Plan{SegmentDurationSeconds: 60, SplitRequired: true}

	t.Run("missing source", func(t *testing.T) {
		_, err := newTestExecutor("ffmpeg").Execute(context.Background(), Source{Path: "/no/such/file.mp3"}, split, t.TempDir())
		if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeSourceUnavailable {
			t.Errorf("expected SOURCE_UNAVAILABLE, got %v", err)
		}
	})

	t.Run("no extension", func(t *testing.T) {
		src := writeSource(t, "noext", 10)
		_, err := newTestExecutor("ffmpeg").Execute(context.Background(), Source{Path: src}, split, t.TempDir())
		if errors.KindOf(err) != errors.KindPrecondition {
			t.Errorf("expected precondition error, got %v", err)
		}
	})

	t.Run("ffmpeg fails", func(t *testing.T) {
		bin, _ := fakeFFmpeg(t, nil, `echo "Invalid data found when processing input" >&2; exit 1`)
		src := writeSource(t, "a.mp3", 10)
		_, err := newTestExecutor(bin).Execute(context.Background(), Source{Path: src}, split, t.TempDir())
		appErr, ok := errors.AsAppError(err)
		if !ok || appErr.Kind != errors.KindProcess {
			t.Fatalf("expected process error, got %v", err)
		}
		if !strings.Contains(appErr.Message, "Invalid data found") {
			t.Errorf("expected stderr tail in message, got %q", appErr.Message)
		}
		if _, err := os.Stat(src); err != nil {
			t.Errorf("expected source kept on failure, got %v", err)
		}
	})

	t.Run("liveness timeout", func(t *testing.T) {
		bin, _ := fakeFFmpeg(t, nil, `sleep 5`)
		src := writeSource(t, "a.mp3", 10)
		e := NewExecutor(Config{FFmpeg: bin, Timeout: 200 * time.Millisecond, CheckInterval: 50 * time.Millisecond}, process.NewRegistry("test", nil), nil)
		start := time.Now()
		_, err := e.Execute(context.Background(), Source{Path: src}, split, t.TempDir())
		if errors.KindOf(err) != errors.KindTimeout {
			t.Errorf("expected timeout error, got %v", err)
		}
		if time.Since(start) > 3*time.Second {
			t.Errorf("expected liveness check to kill ffmpeg early, took %s", time.Since(start))
		}
	})

	t.Run("gap", func(t *testing.T) {
		bin, _ := fakeFFmpeg(t, []int{0, 1, 3}, "")
		src := writeSource(t, "a.mp3", 10)
		_, err := newTestExecutor(bin).Execute(context.Background(), Source{Path: src}, split, t.TempDir())
		appErr, ok := errors.AsAppError(err)
		if !ok || appErr.Code != errors.ErrCodeSegmentGap {
			t.Fatalf("expected SEGMENT_GAP, got %v", err)
		}
		if appErr.Details["expected_index"] != 2 {
			t.Errorf("expected missing index 2, got %v", appErr.Details["expected_index"])
		}
	})
}

func TestExecuteLogsFFmpegCalls(t *testing.T) {
	split := Plan{SegmentDurationSeconds: 60, SplitRequired: true}
	tests := []struct {
		name  string
		extra string
		want  []string
	}{
		{"success", "", []string{"provider call ok", `"provider":"ffmpeg"`}},
		{"failure", "exit 1", []string{"provider call failed", `"provider":"ffmpeg"`, `"kind":"process"`, `"code":"PROCESS_FAILED"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			bin, _ := fakeFFmpeg(t, []int{0, 1}, tt.extra)
			src := writeSource(t, "a.mp3", 10)
			e := NewExecutor(Config{FFmpeg: bin, CheckInterval: 50 * time.Millisecond}, process.NewRegistry("test", nil), logger.NewWithWriter(&buf, "debug"))
			_, _ = e.Execute(context.Background(), Source{Path: src}, split, t.TempDir())

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected log output to contain %s, got %s", w, out)
				}
			}
		})
	}
}

func TestListSegmentsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"segment-001.mp3", "segment-000.mp3", "segment-002.wav", "other-003.mp3", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	segments, err := ListSegments(dir, "segment", "mp3")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segments) != 2 || segments[0].Index != 0 || segments[1].Index != 1 {
		t.Errorf("unexpected segments %+v", segments)
	}
	if _, err := ListSegments(t.TempDir(), "segment", "mp3"); errors.KindOf(err) != errors.KindPrecondition {
		t.Errorf("expected gap error for empty dir, got %v", err)
	}
}
