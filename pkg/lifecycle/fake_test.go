package lifecycle

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// world simulates the cluster, the installation and the tunnel. Every
// mutating call is recorded in calls.
type world struct {
	cluster     bool
	namespace   bool
	installed   bool
	statefulSet bool
	scaledDown  bool
	running     bool
	tunnel      bool
	password    string

	calls []string
	fail  map[string]error
}

func newWorld() *world {
	return &world{password: "hunter2", fail: map[string]error{}}
}

// at builds a world observed in the given state
func at(s State) *world {
	w := newWorld()
	switch s {
	case Running:
		w.tunnel = true
		fallthrough
	case NoAccess:
		w.running = true
		fallthrough
	case PodsDown:
		w.installed = true
		w.statefulSet = s != PodsDown
		w.scaledDown = s == PodsDown
		fallthrough
	case NotInstalled:
		w.namespace = s != NotInstalled
		w.cluster = true
	}
	return w
}

func (w *world) record(call string) error {
	w.calls = append(w.calls, call)
	return w.fail[call]
}

// Provisioner

func (w *world) Exists(context.Context) (bool, error) { return w.cluster, w.fail["Exists"] }

func (w *world) Create(context.Context) error {
	if err := w.record("Create"); err != nil {
		return err
	}
	w.cluster = true
	return nil
}

func (w *world) Delete(context.Context) error {
	if err := w.record("Delete"); err != nil {
		return err
	}
	*w = world{password: w.password, calls: w.calls, fail: w.fail, tunnel: w.tunnel}
	return nil
}

// Dialer

func (w *world) Dial(context.Context) (Cluster, error) {
	if !w.cluster {
		return nil, stderrors.New("cluster unreachable")
	}
	return w, w.fail["Dial"]
}

// Cluster

func (w *world) NamespaceExists(context.Context, string) (bool, error) { return w.namespace, nil }

func (w *world) CreateNamespace(context.Context, string) error {
	if err := w.record("CreateNamespace"); err != nil {
		return err
	}
	w.namespace = true
	return nil
}

func (w *world) WorkloadRunning(context.Context, string, string) (bool, error) {
	return w.running, nil
}

func (w *world) WaitForAvailable(context.Context, string, time.Duration) error {
	if err := w.record("WaitForAvailable"); err != nil {
		return err
	}
	if !w.installed || w.scaledDown || !w.statefulSet {
		return fmt.Errorf("workloads never became available")
	}
	w.running = true
	return nil
}

func (w *world) RolloutRestart(context.Context, string) error {
	if err := w.record("RolloutRestart"); err != nil {
		return err
	}
	w.scaledDown = false
	return nil
}

func (w *world) ScaleDeployments(_ context.Context, _ string, replicas int32) error {
	if err := w.record(fmt.Sprintf("ScaleDeployments(%d)", replicas)); err != nil {
		return err
	}
	if replicas == 0 {
		w.scaledDown = true
		w.running = false
	}
	return nil
}

func (w *world) DeleteStatefulSet(context.Context, string, string) error {
	if err := w.record("DeleteStatefulSet"); err != nil {
		return err
	}
	w.statefulSet = false
	return nil
}

func (w *world) SecretValue(context.Context, string, string, string) (string, error) {
	if !w.installed {
		return "", stderrors.New("secret not found")
	}
	return w.password, nil
}

// Installer

func (w *world) Install(context.Context) error {
	if err := w.record("Install"); err != nil {
		return err
	}
	if !w.namespace {
		return fmt.Errorf("namespace missing")
	}
	w.installed = true
	w.statefulSet = true
	return nil
}

// Tunnel is a separate type since Stop and Start collide with the controller vocabulary

type worldTunnel struct{ w *world }

func (t worldTunnel) Alive(context.Context) (bool, error) { return t.w.tunnel, nil }

func (t worldTunnel) Start(context.Context) error {
	if err := t.w.record("StartTunnel"); err != nil {
		return err
	}
	if !t.w.running {
		return fmt.Errorf("no server pod to forward to")
	}
	t.w.tunnel = true
	return nil
}

func (t worldTunnel) Stop(context.Context) error {
	if !t.w.tunnel {
		return nil
	}
	if err := t.w.record("StopTunnel"); err != nil {
		return err
	}
	t.w.tunnel = false
	return nil
}

// Janitor

func (w *world) CleanRuntime() error { return w.record("CleanRuntime") }

// recorder is a Reporter that keeps every line
type recorder struct {
	lines []string
}

func (r *recorder) Step(msg string)    { r.lines = append(r.lines, "step: "+msg) }
func (r *recorder) Success(msg string) { r.lines = append(r.lines, "ok: "+msg) }
func (r *recorder) Warn(msg string)    { r.lines = append(r.lines, "warn: "+msg) }
