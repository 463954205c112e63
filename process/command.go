package process

import (
	"io"
	"time"
)

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// Stdin provides input to the process. May be nil.
	Stdin io.Reader
	// GracePeriod is how long to wait after SIGTERM before SIGKILL when the
	// context is canceled. Defaults to 5 seconds if zero.
	GracePeriod time.Duration
	// Timeout is the longest the process may run. The liveness check kills
	// the process group once it is exceeded. Zero disables the check.
	Timeout time.Duration
	// CheckInterval is how often the liveness check runs. Defaults to 2 seconds.
	CheckInterval time.Duration
	// OnStdoutLine receives each line of standard output as it arrives.
	OnStdoutLine func(line string)
	// OnStderrLine receives each line of standard error as it arrives.
	// Carriage returns also end a line so progress updates are delivered.
	OnStderrLine func(line string)
}
