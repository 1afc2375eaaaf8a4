package main

import (
	"context"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Write the ArgoCD notification settings",
	Long: `Render argocd-notifications-cm and argocd-notifications-secret from the
notifications section of the configuration and create or update them.

Keys:
  notifications.slack_channel   Slack channel for the default subscription
  notifications.slack_token     Slack bot token (stored in the Secret)
  notifications.webhook_url     generic webhook receiver
  notifications.triggers        subset of on-sync-succeeded, on-sync-failed,
                                on-health-degraded`,
	Args: cobra.NoArgs,
	RunE: run(func(ctx context.Context, ops *operations, _ []string) error {
		return ops.notifications(ctx)
	}),
}
