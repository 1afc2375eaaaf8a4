package tunnel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessFinder scans the host process table with gopsutil
type ProcessFinder struct {
	self int32
}

// NewProcessFinder returns a finder that never matches the calling process
func NewProcessFinder() *ProcessFinder {
	return &ProcessFinder{self: int32(os.Getpid())}
}

// Find returns the PIDs whose command line contains the signature
func (f *ProcessFinder) Find(ctx context.Context, signature []string) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var pids []int32
	for _, p := range procs {
		if p.Pid == f.self {
			continue
		}
		args, err := p.CmdlineSliceWithContext(ctx)
		if err != nil {
			// exited or not ours to read
			continue
		}
		if ContainsSequence(args, signature) {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

// Terminate sends SIGTERM to the process. A process that already exited is not an error.
func (f *ProcessFinder) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return err
	}
	if err := p.TerminateWithContext(ctx); err != nil {
		if running, rerr := p.IsRunningWithContext(ctx); rerr == nil && !running {
			return nil
		}
		return err
	}
	return nil
}

// DetachedLauncher starts processes in their own session with output sent to a log file
type DetachedLauncher struct{}

// Launch starts name with args and releases it. The process is not tied to any
// context so it keeps running after the CLI exits.
func (DetachedLauncher) Launch(name string, args []string, logPath string) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", logPath, err)
	}
	defer func() { _ = logFile.Close() }()

	cmd := exec.Command(name, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
