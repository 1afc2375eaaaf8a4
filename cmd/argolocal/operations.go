package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"k8s.io/utils/clock"

	"github.com/argolocal/argolocal/pkg/argocd"
	"github.com/argolocal/argolocal/pkg/backup"
	"github.com/argolocal/argolocal/pkg/cluster"
	"github.com/argolocal/argolocal/pkg/config"
	"github.com/argolocal/argolocal/pkg/docker"
	"github.com/argolocal/argolocal/pkg/errors"
	"github.com/argolocal/argolocal/pkg/helm"
	"github.com/argolocal/argolocal/pkg/k8s"
	"github.com/argolocal/argolocal/pkg/kubectl"
	"github.com/argolocal/argolocal/pkg/lifecycle"
	"github.com/argolocal/argolocal/pkg/notifications"
	"github.com/argolocal/argolocal/pkg/setup"
	"github.com/argolocal/argolocal/pkg/state"
	"github.com/argolocal/argolocal/pkg/tunnel"
	"github.com/argolocal/argolocal/pkg/ui"
	"github.com/argolocal/argolocal/pkg/workspace"
)

// operations is the single entry point shared by the commands and the menu
type operations struct {
	cfg      *config.Config
	out      io.Writer
	reporter *ui.Reporter
	ws       *workspace.Workspace
	clusters *cluster.Manager
	tunnel   *tunnel.Manager
	ctrl     *lifecycle.Controller
	backups  *backup.Manager
}

func newOperations(cfg *config.Config, out io.Writer) (*operations, error) {
	ws, err := workspace.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	clusters := cluster.NewManager(cluster.NewProvider(), ws, cluster.Options{
		Name:       cfg.Cluster.Name,
		NodeImage:  cfg.Cluster.NodeImage,
		ConfigFile: cfg.Cluster.ConfigFile,
		Wait:       cfg.Cluster.Wait,
	})

	kc := kubectl.New(ws.KubeconfigPath(), clusters.KubeContext())
	clk := clock.RealClock{}

	tun := tunnel.NewManager(tunnel.NewProcessFinder(), tunnel.DetachedLauncher{}, clk, tunnel.Options{
		Args:      kc.PortForwardArgs(cfg.Namespace, cfg.Tunnel.Service, cfg.Tunnel.Port, cfg.Tunnel.RemotePort),
		Signature: tunnelSignature(cfg),
		LogPath:   ws.TunnelLogPath(),
		BindDelay: cfg.Tunnel.BindDelay,
		URL:       serverURL(cfg),
	})

	reporter := ui.NewReporter(out)
	ctrl := lifecycle.New(lifecycle.Deps{
		Provisioner: clusters,
		Dialer: lifecycle.DialFunc(func(ctx context.Context) (lifecycle.Cluster, error) {
			client, err := clusters.Dial(ctx)
			if err != nil {
				return nil, err
			}
			return client, nil
		}),
		Installer: newInstaller(cfg, ws, kc, clusters.KubeContext()),
		Tunnel:    tun,
		Janitor:   ws,
		Reporter:  reporter,
		Clock:     clk,
	}, lifecycle.Options{
		ClusterName:  clusters.Name(),
		Namespace:    cfg.Namespace,
		Selector:     cfg.WorkloadSelector(),
		URL:          tun.URL(),
		ReadyTimeout: cfg.Install.ReadyTimeout,
		SettleDelay:  cfg.Tunnel.SettleDelay,
	})

	return &operations{
		cfg:      cfg,
		out:      out,
		reporter: reporter,
		ws:       ws,
		clusters: clusters,
		tunnel:   tun,
		ctrl:     ctrl,
		backups:  backup.NewManager(ws.BackupsDir, cfg.Namespace, clk),
	}, nil
}

func newInstaller(cfg *config.Config, ws *workspace.Workspace, kc *kubectl.Kubectl, kubeContext string) lifecycle.Installer {
	if cfg.Install.Method == config.InstallMethodHelm {
		return helm.NewInstaller(helm.Options{
			Kubeconfig:  ws.KubeconfigPath(),
			KubeContext: kubeContext,
			Namespace:   cfg.Namespace,
			RepoName:    cfg.Install.HelmRepoName,
			RepoURL:     cfg.Install.HelmRepoURL,
			Chart:       cfg.Install.HelmChart,
			Release:     cfg.Install.HelmRelease,
			Timeout:     cfg.Install.ReadyTimeout,
		})
	}
	return kubectl.NewManifestInstaller(kc, cfg.Namespace, cfg.Install.ManifestURL)
}

// tunnelSignature identifies our port-forward among all kubectl processes
func tunnelSignature(cfg *config.Config) []string {
	return []string{
		"port-forward",
		"svc/" + cfg.Tunnel.Service,
		"-n", cfg.Namespace,
		strconv.Itoa(cfg.Tunnel.Port) + ":" + strconv.Itoa(cfg.Tunnel.RemotePort),
	}
}

func serverAddr(cfg *config.Config) string {
	return "localhost:" + strconv.Itoa(cfg.Tunnel.Port)
}

func serverURL(cfg *config.Config) string {
	return "https://" + serverAddr(cfg)
}

// remediationFailed reports whether err came from a failing remediation step
// rather than from a refused operation. Remediation failures are shown with a
// banner and do not change the exit status.
func remediationFailed(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrCodeTimeout, errors.ErrCodeInternal:
		return true
	default:
		return false
	}
}

func (o *operations) finishReconcile(res *lifecycle.Result, err error) error {
	if err != nil {
		if !remediationFailed(err) {
			return err
		}
		lines := []string{err.Error()}
		if alive, _ := o.tunnel.Alive(context.Background()); !alive {
			lines = append(lines, "Port-forward log: "+o.tunnel.LogPath())
		}
		o.reporter.Banner(false, "ArgoCD is not running", lines...)
		return nil
	}

	switch {
	case res.Credentials != nil:
		o.reporter.Credentials(o.tunnel.URL(), res.Credentials.Username, res.Credentials.Password)
	case res.CredentialsErr != nil:
		o.reporter.Warn(fmt.Sprintf("Could not read the admin password: %v", res.CredentialsErr))
	}
	return nil
}

func (o *operations) start(ctx context.Context) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	res, err := o.ctrl.Reconcile(ctx)
	return o.finishReconcile(res, err)
}

func (o *operations) restart(ctx context.Context) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	res, err := o.ctrl.Restart(ctx)
	return o.finishReconcile(res, err)
}

func (o *operations) stop(ctx context.Context) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	return o.ctrl.Stop(ctx)
}

func (o *operations) clean(ctx context.Context) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	return o.ctrl.Clean(ctx)
}

func (o *operations) status(ctx context.Context, format string) error {
	switch format {
	case state.FormatTable, state.FormatJSON, state.FormatYAML, "":
	default:
		return errors.New(errors.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown output format %q (use table, json or yaml)", format))
	}
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}

	src := state.Sources{
		Status: o.ctrl,
		Components: func(ctx context.Context) (state.ComponentLister, error) {
			client, err := o.clusters.Dial(ctx)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
	dc, err := docker.NewClient()
	if err == nil {
		defer func() { _ = dc.Close() }()
		src.Nodes = dc
	}

	report, err := state.Discover(ctx, o.clusters.Name(), o.cfg.Namespace, o.tunnel.URL(), src)
	if err != nil {
		return err
	}
	return state.Write(o.out, report, format)
}

// connect dials the cluster after checking it and the namespace exist
func (o *operations) connect(ctx context.Context) (*k8s.Client, error) {
	exists, err := o.clusters.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check cluster", err)
	}
	if !exists {
		return nil, errors.Precondition("cluster %s does not exist (run 'argolocal start' first)", o.clusters.Name())
	}
	client, err := o.clusters.Dial(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to connect to cluster", err)
	}
	nsExists, err := client.NamespaceExists(ctx, o.cfg.Namespace)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check namespace", err)
	}
	if !nsExists {
		return nil, errors.Precondition("namespace %s does not exist (run 'argolocal start' first)", o.cfg.Namespace)
	}
	return client, nil
}

func (o *operations) logs(ctx context.Context, opts k8s.LogOptions) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	client, err := o.connect(ctx)
	if err != nil {
		return err
	}
	return client.StreamLogs(ctx, o.cfg.Namespace, opts, o.out)
}

func (o *operations) backup(ctx context.Context) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	client, err := o.connect(ctx)
	if err != nil {
		return err
	}
	o.reporter.Step("Exporting ArgoCD state...")
	snap, err := o.backups.Create(ctx, client)
	if err != nil {
		return err
	}
	o.reporter.Success(fmt.Sprintf("Backup %s written to %s (%d files)", snap.ID, snap.Path, len(snap.Files)))
	return nil
}

func (o *operations) restore(ctx context.Context, ref string) error {
	// Resolve before touching the cluster so a bad reference fails fast
	if _, err := o.backups.Resolve(ref); err != nil {
		return err
	}
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	client, err := o.connect(ctx)
	if err != nil {
		return err
	}
	o.reporter.Step(fmt.Sprintf("Restoring %s...", ref))
	applied, err := o.backups.Restore(ctx, client, ref)
	if err != nil {
		return err
	}
	for _, f := range applied {
		o.reporter.Success("Applied " + f)
	}
	if len(applied) == 0 {
		o.reporter.Warn("Backup contained nothing to restore")
	}
	return nil
}

func (o *operations) snapshots() ([]backup.Snapshot, error) {
	return o.backups.List()
}

func (o *operations) notifications(ctx context.Context) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	client, err := o.connect(ctx)
	if err != nil {
		return err
	}
	n := o.cfg.Notifications
	o.reporter.Step("Writing notification settings...")
	if err := notifications.Write(ctx, client, notifications.Settings{
		Namespace:    o.cfg.Namespace,
		ArgoURL:      o.tunnel.URL(),
		SlackToken:   n.SlackToken,
		SlackChannel: n.SlackChannel,
		WebhookURL:   n.WebhookURL,
		Triggers:     n.Triggers,
	}); err != nil {
		return err
	}
	o.reporter.Success("Notifications configured")
	return nil
}

func (o *operations) credentials(ctx context.Context) error {
	if err := setup.Run(ctx, setup.Base()); err != nil {
		return err
	}
	creds, err := o.ctrl.Credentials(ctx)
	if err != nil {
		return err
	}
	o.reporter.Credentials(o.tunnel.URL(), creds.Username, creds.Password)
	return nil
}

// argocdSession logs the argocd CLI in through the tunnel
func (o *operations) argocdSession(ctx context.Context) (*argocd.Client, error) {
	if err := setup.Run(ctx, setup.Base().WithArgoCD()); err != nil {
		return nil, err
	}
	alive, err := o.tunnel.Alive(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check port-forward", err)
	}
	if !alive {
		return nil, errors.Precondition("ArgoCD is not reachable at %s (run 'argolocal start' first)", o.tunnel.URL())
	}
	creds, err := o.ctrl.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	client := argocd.NewClient(serverAddr(o.cfg), true)
	if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to log in to ArgoCD", err)
	}
	return client, nil
}

func (o *operations) applications(ctx context.Context) ([]string, error) {
	client, err := o.argocdSession(ctx)
	if err != nil {
		return nil, err
	}
	return client.ListApplications(ctx)
}

func (o *operations) appsList(ctx context.Context) error {
	apps, err := o.applications(ctx)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		_, _ = fmt.Fprintln(o.out, "No applications")
		return nil
	}
	for _, app := range apps {
		_, _ = fmt.Fprintln(o.out, app)
	}
	return nil
}

func (o *operations) appsSync(ctx context.Context, name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidArgument, "application name is required")
	}
	client, err := o.argocdSession(ctx)
	if err != nil {
		return err
	}
	o.reporter.Step(fmt.Sprintf("Syncing %s...", name))
	if err := client.SyncApplication(ctx, name); err != nil {
		return err
	}
	o.reporter.Success(fmt.Sprintf("Application %s synced", name))
	return nil
}
