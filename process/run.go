package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kbukum/scribekit/errors"
)

const (
	defaultGracePeriod   = 5 * time.Second
	defaultCheckInterval = 2 * time.Second
	diagnosticLines      = 12
)

// Run executes a subprocess outside any registry and waits for it to complete.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	return run(ctx, cmd, nil)
}

// run starts cmd, records it in reg (if any) while it is alive, and waits.
// If ctx is canceled, SIGTERM goes to the process group first, then SIGKILL
// after GracePeriod. If the liveness check trips, the group gets SIGKILL and
// a timeout error is returned.
func run(ctx context.Context, cmd Command, reg *Registry) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.InvalidInput("binary", "is required")
	}

	grace := cmd.GracePeriod
	if grace == 0 {
		grace = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	stdout := &lineWriter{onLine: cmd.OnStdoutLine}
	stderr := &lineWriter{onLine: cmd.OnStderrLine}
	c.Stdout = stdout
	c.Stderr = stderr

	// Own process group so the whole tree can be signaled.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return signalGroup(c, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	if err := c.Start(); err != nil {
		return &Result{ExitCode: -1}, errors.ProcessFailed(cmd.Binary, -1, "", err)
	}
	if reg != nil {
		reg.add(c)
		defer reg.remove(c.Process.Pid)
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	if cmd.Timeout > 0 {
		go watchLiveness(c, cmd, start, done, &timedOut)
	}

	err := c.Wait()
	close(done)
	stdout.flush()
	stderr.flush()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	switch {
	case timedOut.Load():
		return result, errors.ProcessTimeout(cmd.Binary, cmd.Timeout)
	case err != nil && ctx.Err() != nil:
		return result, fmt.Errorf("process: killed by context: %w", ctx.Err())
	case err != nil:
		return result, errors.ProcessFailed(cmd.Binary, result.ExitCode, result.Diagnostics(diagnosticLines), err)
	}
	return result, nil
}

// watchLiveness checks elapsed time every CheckInterval and kills the
// process group once Timeout is exceeded.
func watchLiveness(c *exec.Cmd, cmd Command, start time.Time, done <-chan struct{}, timedOut *atomic.Bool) {
	interval := cmd.CheckInterval
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if time.Since(start) < cmd.Timeout {
				continue
			}
			timedOut.Store(true)
			_ = signalGroup(c, syscall.SIGKILL)
			return
		}
	}
}

func signalGroup(c *exec.Cmd, sig syscall.Signal) error {
	if c.Process == nil {
		return nil
	}
	return syscall.Kill(-c.Process.Pid, sig)
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}
