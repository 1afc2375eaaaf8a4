package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/argolocal/argolocal/pkg/argocd"
	"github.com/argolocal/argolocal/pkg/errors"
)

// Credentials are the admin login for the ArgoCD UI and CLI
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Result describes one reconciliation
type Result struct {
	Initial        State
	Actions        []Action
	Final          State
	Credentials    *Credentials
	CredentialsErr error
}

// Options are the fixed parameters of the controller
type Options struct {
	ClusterName  string
	Namespace    string
	Selector     string
	StatefulSet  string
	URL          string
	ReadyTimeout time.Duration
	SettleDelay  time.Duration
}

// Deps are the collaborators the controller drives
type Deps struct {
	Provisioner Provisioner
	Dialer      Dialer
	Installer   Installer
	Tunnel      Tunnel
	Janitor     Janitor
	Reporter    Reporter
	Clock       clock.Clock
}

// Controller observes the environment and runs the remediation for its state.
// It holds no state between calls; the cluster is the source of truth.
type Controller struct {
	deps Deps
	opts Options
}

// New creates a controller
func New(deps Deps, opts Options) *Controller {
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	if opts.StatefulSet == "" {
		opts.StatefulSet = argocd.ApplicationControllerStatefulSet
	}
	return &Controller{deps: deps, opts: opts}
}

// Observe runs every check. Cluster-side checks are skipped when the
// cluster (or namespace) is absent since classification would not reach them.
func (c *Controller) Observe(ctx context.Context) (Observation, error) {
	var obs Observation

	alive, err := c.deps.Tunnel.Alive(ctx)
	if err != nil {
		return obs, err
	}
	obs.TunnelAlive = alive

	exists, err := c.deps.Provisioner.Exists(ctx)
	if err != nil {
		return obs, err
	}
	obs.ClusterExists = exists
	if !exists {
		return obs, nil
	}

	cl, err := c.deps.Dialer.Dial(ctx)
	if err != nil {
		return obs, err
	}

	obs.NamespaceExists, err = cl.NamespaceExists(ctx, c.opts.Namespace)
	if err != nil || !obs.NamespaceExists {
		return obs, err
	}

	obs.WorkloadRunning, err = cl.WorkloadRunning(ctx, c.opts.Namespace, c.opts.Selector)
	return obs, err
}

// Status classifies the environment as it is now
func (c *Controller) Status(ctx context.Context) (State, Observation, error) {
	obs, err := c.Observe(ctx)
	if err != nil {
		return "", obs, errors.Wrap(errors.ErrCodeInternal, "failed to observe environment", err)
	}
	return Classify(obs), obs, nil
}

// Reconcile runs the remediation for the observed state, re-validates and
// reads the credentials. Any failing step aborts the reconciliation.
func (c *Controller) Reconcile(ctx context.Context) (*Result, error) {
	initial, _, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Initial: initial}
	plan := Plan(initial)
	slog.Debug("reconciling", "state", initial, "plan", plan)

	if len(plan) == 0 {
		c.deps.Reporter.Success(fmt.Sprintf("ArgoCD is already running at %s", c.opts.URL))
	}

	var cl Cluster
	for _, action := range plan {
		c.deps.Reporter.Step(c.describe(action))
		if err := c.perform(ctx, action, &cl); err != nil {
			if errors.CodeOf(err) != "" {
				return res, err
			}
			return res, errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("%s failed", action), err)
		}
		res.Actions = append(res.Actions, action)
	}

	final, _, err := c.Status(ctx)
	if err != nil {
		return res, err
	}
	res.Final = final
	if final != Running {
		return res, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("environment did not converge: still %s after remediation", final))
	}

	res.Credentials, res.CredentialsErr = c.Credentials(ctx)
	if len(plan) > 0 {
		c.deps.Reporter.Success(fmt.Sprintf("ArgoCD is running at %s", c.opts.URL))
	}
	return res, nil
}

func (c *Controller) describe(a Action) string {
	switch a {
	case CreateCluster:
		return fmt.Sprintf("Creating cluster %s...", c.opts.ClusterName)
	case CreateNamespace:
		return fmt.Sprintf("Creating namespace %s...", c.opts.Namespace)
	case InstallWorkload:
		return "Installing ArgoCD..."
	case RestartWorkloads:
		return "Restarting ArgoCD workloads..."
	case WaitForReady:
		return fmt.Sprintf("Waiting for ArgoCD to become ready (timeout %s)...", c.opts.ReadyTimeout)
	case StartTunnel:
		return fmt.Sprintf("Starting port-forward to %s...", c.opts.URL)
	default:
		return string(a)
	}
}

// dial connects once per operation
func (c *Controller) dial(ctx context.Context, cl *Cluster) (Cluster, error) {
	if *cl != nil {
		return *cl, nil
	}
	conn, err := c.deps.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	*cl = conn
	return conn, nil
}

func (c *Controller) perform(ctx context.Context, a Action, cl *Cluster) error {
	switch a {
	case CreateCluster:
		return c.deps.Provisioner.Create(ctx)
	case StartTunnel:
		return c.deps.Tunnel.Start(ctx)
	case InstallWorkload:
		return c.deps.Installer.Install(ctx)
	}

	conn, err := c.dial(ctx, cl)
	if err != nil {
		return err
	}

	switch a {
	case CreateNamespace:
		return conn.CreateNamespace(ctx, c.opts.Namespace)
	case RestartWorkloads:
		return conn.RolloutRestart(ctx, c.opts.Namespace)
	case WaitForReady:
		return conn.WaitForAvailable(ctx, c.opts.Namespace, c.opts.ReadyTimeout)
	default:
		return fmt.Errorf("unknown action %q", a)
	}
}

// Stop terminates the tunnel, scales every Deployment to zero and removes the
// application controller StatefulSet. The cluster and namespace stay. An absent
// cluster or namespace is a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	c.deps.Reporter.Step("Stopping port-forward...")
	if err := c.deps.Tunnel.Stop(ctx); err != nil {
		slog.Debug("ignoring tunnel stop failure", "error", err)
	}

	exists, err := c.deps.Provisioner.Exists(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to check cluster", err)
	}
	if !exists {
		c.deps.Reporter.Warn(fmt.Sprintf("Cluster %s does not exist; nothing to stop", c.opts.ClusterName))
		return nil
	}

	cl, err := c.deps.Dialer.Dial(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to connect to cluster", err)
	}
	nsExists, err := cl.NamespaceExists(ctx, c.opts.Namespace)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to check namespace", err)
	}
	if !nsExists {
		c.deps.Reporter.Warn(fmt.Sprintf("Namespace %s does not exist; nothing to stop", c.opts.Namespace))
		return nil
	}

	c.deps.Reporter.Step("Scaling ArgoCD deployments to zero...")
	if err := cl.ScaleDeployments(ctx, c.opts.Namespace, 0); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to scale deployments", err)
	}
	if err := cl.DeleteStatefulSet(ctx, c.opts.Namespace, c.opts.StatefulSet); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to remove application controller", err)
	}

	c.deps.Reporter.Success("ArgoCD stopped")
	return nil
}

// Clean terminates the tunnel, deletes the cluster and removes transient local
// files. Safe to call from any state.
func (c *Controller) Clean(ctx context.Context) error {
	if err := c.deps.Tunnel.Stop(ctx); err != nil {
		slog.Debug("ignoring tunnel stop failure", "error", err)
	}

	exists, err := c.deps.Provisioner.Exists(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to check cluster", err)
	}
	if exists {
		c.deps.Reporter.Step(fmt.Sprintf("Deleting cluster %s...", c.opts.ClusterName))
		if err := c.deps.Provisioner.Delete(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "failed to delete cluster", err)
		}
	}

	if err := c.deps.Janitor.CleanRuntime(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to remove runtime files", err)
	}

	c.deps.Reporter.Success("Environment cleaned")
	return nil
}

// Restart stops, waits for the port to be released and reconciles
func (c *Controller) Restart(ctx context.Context) (*Result, error) {
	if err := c.Stop(ctx); err != nil {
		return nil, err
	}
	c.deps.Clock.Sleep(c.opts.SettleDelay)
	return c.Reconcile(ctx)
}

// Credentials reads the initial admin password. The namespace must exist.
func (c *Controller) Credentials(ctx context.Context) (*Credentials, error) {
	exists, err := c.deps.Provisioner.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check cluster", err)
	}
	if !exists {
		return nil, errors.Precondition("cluster %s does not exist", c.opts.ClusterName)
	}

	cl, err := c.deps.Dialer.Dial(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to connect to cluster", err)
	}
	nsExists, err := cl.NamespaceExists(ctx, c.opts.Namespace)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to check namespace", err)
	}
	if !nsExists {
		return nil, errors.Precondition("namespace %s does not exist", c.opts.Namespace)
	}

	password, err := cl.SecretValue(ctx, c.opts.Namespace, argocd.InitialAdminSecret, argocd.InitialAdminPasswordKey)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read admin password", err)
	}
	return &Credentials{Username: argocd.AdminUser, Password: password}, nil
}
