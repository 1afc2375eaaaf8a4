package kubectl

import (
	"context"
	"log/slog"
	"time"

	"github.com/argolocal/argolocal/pkg/defaults"
)

// ManifestInstaller installs ArgoCD by applying the upstream install manifest
type ManifestInstaller struct {
	kubectl     *Kubectl
	namespace   string
	manifestURL string
	timeout     time.Duration
}

// NewManifestInstaller creates an installer for the given manifest URL
func NewManifestInstaller(k *Kubectl, namespace, manifestURL string) *ManifestInstaller {
	return &ManifestInstaller{
		kubectl:     k,
		namespace:   namespace,
		manifestURL: manifestURL,
		timeout:     defaults.KubectlApplyTimeout,
	}
}

// Install applies the manifest. Re-applying an installed manifest is a no-op
// for unchanged objects and recreates deleted ones.
func (m *ManifestInstaller) Install(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	slog.Debug("applying install manifest", "url", m.manifestURL, "namespace", m.namespace)
	return m.kubectl.Apply(ctx, m.namespace, m.manifestURL)
}
