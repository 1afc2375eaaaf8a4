package main

import (
	"context"

	"github.com/spf13/cobra"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage ArgoCD applications",
	Long: `Manage ArgoCD applications through the argocd CLI. The CLI is logged in as
admin against the local port-forward, so ArgoCD must be running.`,
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications",
	Args:  cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.appsList(ctx)
	}),
}

var appsSyncCmd = &cobra.Command{
	Use:   "sync <NAME>",
	Short: "Sync an application",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, ops *operations, args []string) error {
		return ops.appsSync(ctx, args[0])
	}),
}

func init() {
	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsSyncCmd)
}
