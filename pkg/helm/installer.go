// Package helm installs ArgoCD from the upstream argo-helm chart.
package helm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/repo"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// Options configures the chart installation
type Options struct {
	Kubeconfig  string
	KubeContext string
	Namespace   string
	RepoName    string
	RepoURL     string
	Chart       string
	Release     string
	Timeout     time.Duration
}

// Installer installs or upgrades the ArgoCD chart
type Installer struct {
	opts Options
}

// NewInstaller creates a chart installer
func NewInstaller(opts Options) *Installer {
	return &Installer{opts: opts}
}

// Install adds the chart repository, then installs the release or upgrades it
// when it already exists
func (i *Installer) Install(ctx context.Context) error {
	settings := cli.New()
	settings.KubeConfig = i.opts.Kubeconfig
	settings.KubeContext = i.opts.KubeContext
	settings.SetNamespace(i.opts.Namespace)

	actionConfig := new(action.Configuration)
	if err := actionConfig.Init(settings.RESTClientGetter(), i.opts.Namespace,
		os.Getenv("HELM_DRIVER"), func(format string, v ...interface{}) {
			slog.Debug(fmt.Sprintf(format, v...), "component", "helm")
		}); err != nil {
		return fmt.Errorf("failed to initialize Helm: %w", err)
	}

	if err := addRepo(settings, i.opts.RepoName, i.opts.RepoURL); err != nil {
		return fmt.Errorf("failed to add Helm repository: %w", err)
	}

	exists, err := releaseExists(actionConfig, i.opts.Release)
	if err != nil {
		return err
	}

	if !exists {
		client := action.NewInstall(actionConfig)
		client.ReleaseName = i.opts.Release
		client.Namespace = i.opts.Namespace
		client.CreateNamespace = true
		client.Timeout = i.opts.Timeout

		chartPath, err := client.ChartPathOptions.LocateChart(i.opts.Chart, settings)
		if err != nil {
			return fmt.Errorf("failed to locate chart: %w", err)
		}
		chart, err := loader.Load(chartPath)
		if err != nil {
			return fmt.Errorf("failed to load chart: %w", err)
		}

		release, err := client.RunWithContext(ctx, chart, chartValues())
		if err != nil {
			return fmt.Errorf("failed to install %s: %w", i.opts.Chart, err)
		}
		slog.Info("helm release installed", "release", release.Name, "status", release.Info.Status.String())
		return nil
	}

	client := action.NewUpgrade(actionConfig)
	client.Namespace = i.opts.Namespace
	client.Timeout = i.opts.Timeout
	client.ReuseValues = true

	chartPath, err := client.ChartPathOptions.LocateChart(i.opts.Chart, settings)
	if err != nil {
		return fmt.Errorf("failed to locate chart: %w", err)
	}
	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart: %w", err)
	}

	release, err := client.RunWithContext(ctx, i.opts.Release, chart, chartValues())
	if err != nil {
		return fmt.Errorf("failed to upgrade %s: %w", i.opts.Release, err)
	}
	slog.Info("helm release upgraded", "release", release.Name, "version", release.Version)
	return nil
}

func releaseExists(cfg *action.Configuration, name string) (bool, error) {
	status := action.NewStatus(cfg)
	_, err := status.Run(name)
	if err == nil {
		return true, nil
	}
	if isReleaseNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to get release %s status: %w", name, err)
}

func isReleaseNotFound(err error) bool {
	return errors.Is(err, driver.ErrReleaseNotFound)
}

// chartValues keeps the chart aligned with the manifest install: the API
// server is reached through a port-forward to its HTTPS port
func chartValues() map[string]interface{} {
	return map[string]interface{}{
		"notifications": map[string]interface{}{
			"enabled": true,
		},
		"dex": map[string]interface{}{
			"enabled": false,
		},
	}
}

// addRepo adds or refreshes a Helm repository entry
func addRepo(settings *cli.EnvSettings, name, url string) error {
	repoFile := settings.RepositoryConfig
	if err := os.MkdirAll(filepath.Dir(repoFile), 0o750); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	entry := &repo.Entry{Name: name, URL: url}
	r, err := repo.NewChartRepository(entry, getter.All(settings))
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	r.CachePath = settings.RepositoryCache

	if _, err := r.DownloadIndexFile(); err != nil {
		return fmt.Errorf("failed to download repository index: %w", err)
	}

	repoFileData, err := repo.LoadFile(repoFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load repository file: %w", err)
	}
	if os.IsNotExist(err) {
		repoFileData = repo.NewFile()
	}

	repoFileData.Update(entry)
	if err := repoFileData.WriteFile(repoFile, 0o644); err != nil {
		return fmt.Errorf("failed to write repository file: %w", err)
	}
	return nil
}
