package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/argolocal/argolocal/pkg/state"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the environment state",
	Long: `Show the environment state without changing anything.

The state is one of:
  ClusterAbsent   no cluster under the configured name
  NotInstalled    cluster exists, ArgoCD namespace does not
  PodsDown        namespace exists, the ArgoCD server is not running
  NoAccess        the server runs, the port-forward does not
  Running         the server runs and is reachable on localhost

Node containers and ArgoCD components are listed when they can be queried.

Flags:
  -o, --output <fmt>   Output format: table (default), json, yaml

Examples:
  argolocal status
  argolocal status -o json | jq -r .state`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.status(ctx, statusFormat)
	}),
}

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "output", "o", state.FormatTable, "Output format (table, json, yaml)")
}
