// Package backup writes and restores point-in-time snapshots of ArgoCD resources.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/utils/clock"

	"github.com/argolocal/argolocal/pkg/errors"
	"github.com/argolocal/argolocal/pkg/k8s"
)

// IDFormat names snapshot directories by creation time
const IDFormat = "20060102-150405"

// Kind is one exported resource kind
type Kind struct {
	// Name is the file stem, e.g. "applications" for applications.yaml
	Name string
	GVR  schema.GroupVersionResource
	// Object names a single object to export; empty exports the whole list
	Object string
}

// File returns the snapshot file name of the kind
func (k Kind) File() string {
	return k.Name + ".yaml"
}

// Kinds are exported in this order and restored in the same order
var Kinds = []Kind{
	{Name: "projects", GVR: k8s.AppProjectGVR},
	{Name: "applications", GVR: k8s.ApplicationGVR},
	{Name: "notifications-cm", GVR: k8s.ConfigMapGVR, Object: "argocd-notifications-cm"},
	{Name: "argocd-cm", GVR: k8s.ConfigMapGVR, Object: "argocd-cm"},
}

// Cluster is what snapshots need from the control plane
type Cluster interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	ExportList(ctx context.Context, gvr schema.GroupVersionResource, namespace string) ([]byte, bool, error)
	ExportObject(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) ([]byte, bool, error)
	ApplyYAML(ctx context.Context, gvr schema.GroupVersionResource, namespace string, data []byte) (int, error)
}

// Snapshot is one backup directory
type Snapshot struct {
	ID    string    `json:"id" yaml:"id"`
	Path  string    `json:"path" yaml:"path"`
	Time  time.Time `json:"time" yaml:"time"`
	Files []string  `json:"files" yaml:"files"`
}

// Manager creates, lists and restores snapshots under one directory
type Manager struct {
	dir       string
	namespace string
	clock     clock.PassiveClock
}

// NewManager creates a snapshot manager rooted at dir
func NewManager(dir, namespace string, clk clock.PassiveClock) *Manager {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Manager{dir: dir, namespace: namespace, clock: clk}
}

// Dir returns the directory holding every snapshot
func (m *Manager) Dir() string {
	return m.dir
}

// Create exports every present kind into a new snapshot. Kinds that do not
// exist are skipped. The snapshot directory appears atomically.
func (m *Manager) Create(ctx context.Context, cl Cluster) (*Snapshot, error) {
	exists, err := cl.NamespaceExists(ctx, m.namespace)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check namespace", err)
	}
	if !exists {
		return nil, errors.Precondition("namespace %s does not exist", m.namespace)
	}

	now := m.clock.Now()
	snap := &Snapshot{
		ID:   now.Format(IDFormat),
		Time: now,
	}
	snap.Path = filepath.Join(m.dir, snap.ID)
	if _, err := os.Stat(snap.Path); err == nil {
		return nil, errors.Precondition("snapshot %s already exists", snap.ID)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}
	staging, err := os.MkdirTemp(m.dir, "."+snap.ID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	for _, kind := range Kinds {
		data, found, err := export(ctx, cl, kind, m.namespace)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to export %s", kind.Name), err)
		}
		if !found {
			slog.Debug("skipping absent kind", "kind", kind.Name)
			continue
		}
		if err := os.WriteFile(filepath.Join(staging, kind.File()), data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", kind.File(), err)
		}
		snap.Files = append(snap.Files, kind.File())
	}

	if err := os.Rename(staging, snap.Path); err != nil {
		return nil, fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return snap, nil
}

func export(ctx context.Context, cl Cluster, kind Kind, namespace string) ([]byte, bool, error) {
	if kind.Object != "" {
		return cl.ExportObject(ctx, kind.GVR, namespace, kind.Object)
	}
	return cl.ExportList(ctx, kind.GVR, namespace)
}

// Resolve maps a snapshot reference (a path, or an ID under the backups
// directory) to an existing directory
func (m *Manager) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", errors.New(errors.ErrCodeInvalidArgument, "snapshot reference is required")
	}
	candidates := []string{ref}
	if !filepath.IsAbs(ref) && !strings.ContainsRune(ref, filepath.Separator) {
		candidates = append(candidates, filepath.Join(m.dir, ref))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, nil
		}
	}
	return "", errors.Precondition("snapshot %s does not exist", ref)
}

// Restore applies the files of a snapshot. Missing files are skipped. It fails
// before any mutating call when the snapshot or the namespace is missing.
func (m *Manager) Restore(ctx context.Context, cl Cluster, ref string) ([]string, error) {
	path, err := m.Resolve(ref)
	if err != nil {
		return nil, err
	}

	exists, err := cl.NamespaceExists(ctx, m.namespace)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check namespace", err)
	}
	if !exists {
		return nil, errors.Precondition("namespace %s does not exist", m.namespace)
	}

	var applied []string
	for _, kind := range Kinds {
		data, err := os.ReadFile(filepath.Join(path, kind.File()))
		if os.IsNotExist(err) {
			slog.Debug("snapshot has no file for kind", "kind", kind.Name)
			continue
		}
		if err != nil {
			return applied, fmt.Errorf("failed to read %s: %w", kind.File(), err)
		}
		if _, err := cl.ApplyYAML(ctx, kind.GVR, m.namespace, data); err != nil {
			return applied, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to restore %s", kind.Name), err)
		}
		applied = append(applied, kind.File())
	}
	return applied, nil
}

// List returns every snapshot, newest first. Staging directories are ignored.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", m.dir, err)
	}

	var snaps []Snapshot
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		t, err := time.ParseInLocation(IDFormat, e.Name(), time.Local)
		if err != nil {
			continue
		}
		snap := Snapshot{ID: e.Name(), Path: filepath.Join(m.dir, e.Name()), Time: t}
		for _, kind := range Kinds {
			if _, err := os.Stat(filepath.Join(snap.Path, kind.File())); err == nil {
				snap.Files = append(snap.Files, kind.File())
			}
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID > snaps[j].ID })
	return snaps, nil
}
