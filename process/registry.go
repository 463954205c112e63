package process

import (
	"context"
	"os/exec"
	"sort"
	"sync"
	"syscall"

	"github.com/kbukum/scribekit/logger"
)

// Registry tracks every subprocess spawned on behalf of one run so an abort
// can terminate whatever is still alive. A process is registered when it
// starts and removed when it exits.
type Registry struct {
	name string
	log  *logger.Logger

	mu    sync.Mutex
	procs map[int]*exec.Cmd
}

// NewRegistry creates an empty registry. name identifies the owning run.
func NewRegistry(name string, log *logger.Logger) *Registry {
	return &Registry{
		name:  name,
		log:   logger.OrDefault(log, "process"),
		procs: make(map[int]*exec.Cmd),
	}
}

// Run executes cmd while it is registered.
func (r *Registry) Run(ctx context.Context, cmd Command) (*Result, error) {
	return run(ctx, cmd, r)
}

// KillAll sends SIGKILL to the process group of every registered process
// and returns how many were signaled.
func (r *Registry) KillAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	killed := 0
	for pid, c := range r.procs {
		if err := signalGroup(c, syscall.SIGKILL); err != nil {
			r.log.Warn("failed to kill process", logger.Fields("pid", pid, logger.FieldError, err.Error()))
			continue
		}
		killed++
	}
	if killed > 0 {
		r.log.Info("killed leftover processes", logger.Fields("count", killed, "registry", r.name))
	}
	return killed
}

// Active returns the pids of processes still running, in ascending order.
func (r *Registry) Active() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	pids := make([]int, 0, len(r.procs))
	for pid := range r.procs {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

func (r *Registry) add(c *exec.Cmd) {
	r.mu.Lock()
	r.procs[c.Process.Pid] = c
	r.mu.Unlock()
	r.log.Debug("process started", logger.Fields("pid", c.Process.Pid, "binary", c.Path))
}

func (r *Registry) remove(pid int) {
	r.mu.Lock()
	delete(r.procs, pid)
	r.mu.Unlock()
	r.log.Debug("process exited", logger.Fields("pid", pid))
}
