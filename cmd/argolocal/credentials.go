package main

import (
	"context"

	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Show the ArgoCD admin login",
	Long: `Print the ArgoCD URL, the admin user and the initial admin password read
from the argocd-initial-admin-secret Secret.`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.credentials(ctx)
	}),
}
