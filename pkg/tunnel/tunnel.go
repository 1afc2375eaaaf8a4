// Package tunnel manages the kubectl port-forward to the ArgoCD API server.
// The process is found by its command line on every query; no PID is persisted.
package tunnel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/utils/clock"
)

// Finder locates and terminates processes by command-line signature
type Finder interface {
	Find(ctx context.Context, signature []string) ([]int32, error)
	Terminate(ctx context.Context, pid int32) error
}

// Launcher starts a detached process that outlives the caller
type Launcher interface {
	Launch(name string, args []string, logPath string) error
}

// Options configures the port-forward
type Options struct {
	// Args is the full kubectl argument list
	Args []string
	// Signature is the argument subsequence that identifies the process
	Signature []string
	LogPath   string
	BindDelay time.Duration
	URL       string
}

// Manager starts, stops and checks the port-forward
type Manager struct {
	finder   Finder
	launcher Launcher
	clock    clock.Clock
	opts     Options
}

// NewManager creates a tunnel manager
func NewManager(finder Finder, launcher Launcher, clk clock.Clock, opts Options) *Manager {
	return &Manager{finder: finder, launcher: launcher, clock: clk, opts: opts}
}

// URL returns the local address the tunnel serves
func (m *Manager) URL() string {
	return m.opts.URL
}

// LogPath returns the file the port-forward writes to
func (m *Manager) LogPath() string {
	return m.opts.LogPath
}

// Alive reports whether a matching port-forward process is running
func (m *Manager) Alive(ctx context.Context) (bool, error) {
	pids, err := m.finder.Find(ctx, m.opts.Signature)
	if err != nil {
		return false, fmt.Errorf("failed to look up port-forward: %w", err)
	}
	return len(pids) > 0, nil
}

// Start launches the port-forward unless one is already running, waits the
// bind delay and verifies the process survived
func (m *Manager) Start(ctx context.Context) error {
	alive, err := m.Alive(ctx)
	if err != nil {
		return err
	}
	if alive {
		slog.Debug("port-forward already running", "signature", m.opts.Signature)
		return nil
	}

	if err := m.launcher.Launch("kubectl", m.opts.Args, m.opts.LogPath); err != nil {
		return fmt.Errorf("failed to start port-forward: %w", err)
	}

	m.clock.Sleep(m.opts.BindDelay)

	alive, err = m.Alive(ctx)
	if err != nil {
		return err
	}
	if !alive {
		return fmt.Errorf("port-forward exited after start; see %s", m.opts.LogPath)
	}
	return nil
}

// Stop terminates every matching port-forward. No match is not an error.
func (m *Manager) Stop(ctx context.Context) error {
	pids, err := m.finder.Find(ctx, m.opts.Signature)
	if err != nil {
		return fmt.Errorf("failed to look up port-forward: %w", err)
	}

	var firstErr error
	for _, pid := range pids {
		if err := m.finder.Terminate(ctx, pid); err != nil {
			slog.Warn("failed to terminate port-forward", "pid", pid, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to terminate port-forward %d: %w", pid, err)
			}
		}
	}
	return firstErr
}

// ContainsSequence reports whether args contains sig as a contiguous run
func ContainsSequence(args, sig []string) bool {
	if len(sig) == 0 {
		return false
	}
	for i := 0; i+len(sig) <= len(args); i++ {
		match := true
		for j := range sig {
			if args[i+j] != sig[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
