package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/argolocal/argolocal/pkg/errors"
	"github.com/argolocal/argolocal/pkg/ui"
)

// run builds the operations adapter for the loaded config and calls fn
func run(fn func(ctx context.Context, ops *operations, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ops, err := newOperations(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return settle(ops.reporter, fn(cmd.Context(), ops, args))
	}
}

// settle applies the exit status policy: invalid usage and missing
// prerequisites fail the process, every other failure is reported and the
// process exits zero.
func settle(r *ui.Reporter, err error) error {
	if err == nil {
		return nil
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeMissingPrerequisite, errors.ErrCodeInvalidArgument:
		return err
	}
	r.Error(err.Error())
	return nil
}

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"up"},
	Short:   "Bring ArgoCD up and make it reachable",
	Long: `Observe the environment and do whatever is needed to reach a running,
reachable ArgoCD:

  no cluster          create the kind cluster, install ArgoCD, wait, port-forward
  no namespace        install ArgoCD, wait, port-forward
  workloads down      re-apply the installation, restart, wait, port-forward
  no port-forward     port-forward
  running             nothing

The port-forward runs in the background and survives this command. Its output
goes to <data_dir>/runtime/tunnel.log.

On success the admin credentials are printed. A failing step (for example the
readiness timeout) is reported and leaves the environment as it is, so the next
start resumes from there.

Examples:
  argolocal start
  ARGOLOCAL_INSTALL_METHOD=helm argolocal up`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.start(ctx)
	}),
}

var stopCmd = &cobra.Command{
	Use:     "stop",
	Aliases: []string{"down"},
	Short:   "Stop ArgoCD but keep the cluster",
	Long: `Stop the port-forward, scale every ArgoCD Deployment to zero and remove the
application controller StatefulSet. The cluster, the namespace and all ArgoCD
objects stay, so 'argolocal start' brings everything back quickly.

Stopping an environment that does not exist is not an error.`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.stop(ctx)
	}),
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop and start ArgoCD",
	Long: `Stop ArgoCD, wait for the local port to be released (tunnel.settle_delay)
and start it again.`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.restart(ctx)
	}),
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the cluster and local runtime files",
	Long: `Stop the port-forward, delete the kind cluster and remove the runtime
directory (kubeconfig and tunnel log). Backups are kept.

Safe to run in any state.`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.clean(ctx)
	}),
}
