// Package process spawns and observes the benchmark driver subprocesses
// launched by a netbench worker: starting them with a captured-to-file
// stdout, and polling the process table for liveness, absence, or zombie
// status on each workflow tick.
package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	gopsproc "github.com/shirou/gopsutil/v3/process"

	"github.com/cuemby/russula/pkg/log"
)

// Status is the outcome of a single process-table probe.
type Status int

const (
	// Alive: the pid exists and is not a zombie.
	Alive Status = iota
	// Zombie: the pid exists in defunct state, waiting to be reaped.
	Zombie
	// Absent: no process with this pid exists.
	Absent
)

func (s Status) String() string {
	switch s {
	case Alive:
		return "alive"
	case Zombie:
		return "zombie"
	case Absent:
		return "absent"
	default:
		return "unknown"
	}
}

// Handle is a spawned subprocess: its pid, and enough state to terminate it
// and reap its exit once killed.
type Handle struct {
	Pid int

	mu   sync.Mutex
	cmd  *exec.Cmd
	file *os.File
}

// Spawn starts binary with args and env, redirecting its stdout to a file at
// outputPath (truncated if it already exists). The child is placed in the
// current process group; callers own its lifecycle via Terminate/Wait.
func Spawn(ctx context.Context, binary string, args []string, env []string, outputPath string) (*Handle, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("process: create output file %s: %w", outputPath, err)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		out.Close()
		return nil, fmt.Errorf("process: start %s: %w", binary, err)
	}

	log.WithComponent("process").Info().Str("binary", binary).Int("pid", cmd.Process.Pid).Msg("spawned subprocess")

	return &Handle{Pid: cmd.Process.Pid, cmd: cmd, file: out}, nil
}

// Probe reports the current process-table status of pid.
func Probe(pid int) (Status, error) {
	exists, err := gopsproc.PidExists(int32(pid))
	if err != nil {
		return Absent, fmt.Errorf("process: probe pid %d: %w", pid, err)
	}
	if !exists {
		return Absent, nil
	}

	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return Absent, nil
	}

	statuses, err := p.Status()
	if err != nil {
		// the process table entry can disappear between PidExists and
		// Status under a race; treat that as Absent rather than an error.
		return Absent, nil
	}
	for _, s := range statuses {
		if s == gopsproc.Zombie || s == "Z" {
			return Zombie, nil
		}
	}
	return Alive, nil
}

// Terminate sends SIGTERM to pid. It is not an error for pid to already be
// gone; the caller's next Probe will observe Absent.
func Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if err == os.ErrProcessDone {
			return nil
		}
		return fmt.Errorf("process: terminate pid %d: %w", pid, err)
	}
	return nil
}

// Wait releases the subprocess's resources once it has exited (or been
// terminated), closing its captured output file.
func (h *Handle) Wait() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.cmd.Wait()
	h.file.Close()
	return err
}
