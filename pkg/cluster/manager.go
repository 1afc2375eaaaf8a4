// Package cluster owns the local kind cluster. All Kubernetes operations go
// through client-go once the cluster exists.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"sigs.k8s.io/kind/pkg/cluster"
	"sigs.k8s.io/kind/pkg/cmd"

	"github.com/argolocal/argolocal/pkg/k8s"
)

// Provider is the subset of the kind provider the manager uses
type Provider interface {
	List() ([]string, error)
	Create(name string, options ...cluster.CreateOption) error
	Delete(name, explicitKubeconfigPath string) error
	KubeConfig(name string, internal bool) (string, error)
}

// KubeconfigStore persists the cluster kubeconfig locally
type KubeconfigStore interface {
	KubeconfigPath() string
	WriteKubeconfig(data []byte) error
}

// Options configures the cluster
type Options struct {
	Name       string
	NodeImage  string
	ConfigFile string
	Wait       time.Duration
}

// Manager handles the kind cluster lifecycle only
type Manager struct {
	provider Provider
	store    KubeconfigStore
	opts     Options
}

// NewProvider returns the real kind provider, auto-detecting docker or podman
func NewProvider() *cluster.Provider {
	return cluster.NewProvider(cluster.ProviderWithLogger(cmd.NewLogger()))
}

// NewManager creates a cluster manager
func NewManager(provider Provider, store KubeconfigStore, opts Options) *Manager {
	return &Manager{provider: provider, store: store, opts: opts}
}

// Name returns the kind cluster name
func (m *Manager) Name() string {
	return m.opts.Name
}

// KubeContext returns the kube context kind registers for the cluster
func (m *Manager) KubeContext() string {
	return "kind-" + m.opts.Name
}

// List returns the names of every kind cluster on this host
func (m *Manager) List(ctx context.Context) ([]string, error) {
	clusters, err := m.provider.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list kind clusters: %w", err)
	}
	return clusters, nil
}

// Exists reports whether the cluster is present
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	clusters, err := m.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(clusters, m.opts.Name), nil
}

// CreateOptions builds the kind create options from the configuration
func (m *Manager) CreateOptions() []cluster.CreateOption {
	opts := []cluster.CreateOption{
		cluster.CreateWithWaitForReady(m.opts.Wait),
		cluster.CreateWithDisplayUsage(false),
		cluster.CreateWithDisplaySalutation(false),
	}
	if m.opts.NodeImage != "" {
		opts = append(opts, cluster.CreateWithNodeImage(m.opts.NodeImage))
	}
	if m.opts.ConfigFile != "" {
		opts = append(opts, cluster.CreateWithConfigFile(m.opts.ConfigFile))
	}
	return opts
}

// Create creates the cluster and stores its kubeconfig
func (m *Manager) Create(ctx context.Context) error {
	slog.Debug("creating kind cluster", "name", m.opts.Name, "image", m.opts.NodeImage)
	if err := m.provider.Create(m.opts.Name, m.CreateOptions()...); err != nil {
		return fmt.Errorf("failed to create cluster %s: %w", m.opts.Name, err)
	}
	return m.ExportKubeconfig(ctx)
}

// Delete deletes the cluster. kind treats a missing cluster as success.
func (m *Manager) Delete(ctx context.Context) error {
	if err := m.provider.Delete(m.opts.Name, ""); err != nil {
		return fmt.Errorf("failed to delete cluster %s: %w", m.opts.Name, err)
	}
	return nil
}

// ExportKubeconfig writes the cluster kubeconfig into the local store
func (m *Manager) ExportKubeconfig(ctx context.Context) error {
	kubeconfig, err := m.provider.KubeConfig(m.opts.Name, false)
	if err != nil {
		return fmt.Errorf("failed to get kubeconfig for %s: %w", m.opts.Name, err)
	}
	if err := m.store.WriteKubeconfig([]byte(kubeconfig)); err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}
	return nil
}

// Dial refreshes the local kubeconfig and connects to the cluster
func (m *Manager) Dial(ctx context.Context) (*k8s.Client, error) {
	if err := m.ExportKubeconfig(ctx); err != nil {
		return nil, err
	}
	client, err := k8s.NewClient(m.store.KubeconfigPath(), m.KubeContext())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster %s: %w", m.opts.Name, err)
	}
	return client, nil
}
