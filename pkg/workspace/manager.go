package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace manages the .argolocal directory structure
type Workspace struct {
	Root       string
	BackupsDir string
	RuntimeDir string
}

func layout(root string) *Workspace {
	return &Workspace{
		Root:       root,
		BackupsDir: filepath.Join(root, "backups"),
		RuntimeDir: filepath.Join(root, "runtime"),
	}
}

// New creates (or reuses) a workspace at the given path
func New(root string) (*Workspace, error) {
	ws := layout(root)

	for _, dir := range []string{ws.BackupsDir, ws.RuntimeDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	gitignore := `# argolocal runtime data
runtime/
*.log

# Keep snapshots
!backups/
`
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignore), 0644); err != nil {
		return nil, fmt.Errorf("failed to write .gitignore: %w", err)
	}

	return ws, nil
}

// Open opens an existing workspace without creating anything
func Open(root string) (*Workspace, error) {
	ws := layout(root)
	if _, err := os.Stat(ws.Root); os.IsNotExist(err) {
		return nil, fmt.Errorf("workspace not found at %s", root)
	}
	return ws, nil
}

// KubeconfigPath returns the path to the cluster kubeconfig file
func (w *Workspace) KubeconfigPath() string {
	return filepath.Join(w.RuntimeDir, "kubeconfig.yaml")
}

// TunnelLogPath returns the file the port-forward writes its output to
func (w *Workspace) TunnelLogPath() string {
	return filepath.Join(w.RuntimeDir, "tunnel.log")
}

// WriteKubeconfig stores the cluster kubeconfig with owner-only permissions
func (w *Workspace) WriteKubeconfig(data []byte) error {
	if err := os.MkdirAll(w.RuntimeDir, 0755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}
	return os.WriteFile(w.KubeconfigPath(), data, 0600)
}

// CleanRuntime removes the runtime directory
func (w *Workspace) CleanRuntime() error {
	return os.RemoveAll(w.RuntimeDir)
}
