package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/argolocal/argolocal/pkg/k8s"
)

var (
	logsFollow bool
	logsTail   int
)

var logsCmd = &cobra.Command{
	Use:   "logs [COMPONENT...]",
	Short: "View ArgoCD component logs",
	Long: `View logs of ArgoCD components. Without arguments shows the API server.

Components are named with or without the argocd- prefix (server, repo-server,
application-controller, ...). Each line is prefixed with the component name.

Without --follow, prints the last N lines and exits.
With --follow, streams new lines until interrupted (Ctrl+C).

Examples:
  argolocal logs
  argolocal logs repo-server --tail 20
  argolocal logs --follow server application-controller`,
	RunE: run(func(ctx context.Context, ops *operations, args []string) error {
		return ops.logs(ctx, k8s.LogOptions{
			Follow:     logsFollow,
			TailLines:  int64(logsTail),
			Components: args,
		})
	}),
}

func init() {
	logsCmd.Flags().BoolVar(&logsFollow, "follow", false, "Follow log output")
	logsCmd.Flags().IntVar(&logsTail, "tail", 100, "Number of lines to show from the end")
}
