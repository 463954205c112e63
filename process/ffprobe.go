package process

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Runner executes commands. *Registry satisfies it.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ProbeDuration asks ffprobe for the container duration of path in seconds.
// A duration ffprobe cannot determine ("N/A") is reported as 0.
func ProbeDuration(ctx context.Context, runner Runner, ffprobe, path string) (float64, error) {
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	res, err := runner.Run(ctx, Command{
		Binary: ffprobe,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
		Timeout:       time.Minute,
		CheckInterval: time.Second,
	})
	if err != nil {
		return 0, err
	}

	out := strings.TrimSpace(string(res.Stdout))
	if out == "" || out == "N/A" {
		return 0, nil
	}
	d, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("process: parse ffprobe duration %q: %w", out, err)
	}
	return d, nil
}
