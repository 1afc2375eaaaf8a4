package main

import (
	"context"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export ArgoCD projects, applications and settings",
	Long: `Export AppProjects, Applications, argocd-notifications-cm and argocd-cm into
a timestamped directory under <data_dir>/backups. Server-managed fields are
stripped so the files can be applied to a fresh installation.

Kinds that do not exist are skipped. The namespace must exist.`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.backup(ctx)
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore <BACKUP>",
	Short: "Apply a backup to the running ArgoCD",
	Long: `Apply a backup created by 'argolocal backup'. BACKUP is a directory path or a
backup ID (for example 20260101-120000) under <data_dir>/backups.

Projects are applied before applications. Files missing from the backup are
skipped. Nothing is changed when the backup does not exist.`,
	Args: cobra.ExactArgs(1),
	RunE: run(func(ctx context.Context, ops *operations, args []string) error {
		return ops.restore(ctx, args[0])
	}),
}
