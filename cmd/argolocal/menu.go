package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/argolocal/argolocal/pkg/k8s"
	"github.com/argolocal/argolocal/pkg/state"
	"github.com/argolocal/argolocal/pkg/ui"
)

// selectFunc shows a selector and returns the chosen key
var selectFunc = ui.Run

func runMenu(cmd *cobra.Command, args []string) error {
	ops, err := newOperations(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	for {
		choice, err := selectFunc(ui.NewMenu())
		if err != nil {
			return err
		}
		if choice == "" || choice == ui.ItemQuit {
			return nil
		}

		if err := dispatch(ctx, ops, choice); err != nil {
			ops.reporter.Error(err.Error())
		}
		if ctx.Err() != nil {
			return nil
		}
		_, _ = fmt.Fprintln(ops.out)
	}
}

// dispatch runs one menu entry
func dispatch(ctx context.Context, ops *operations, choice string) error {
	switch choice {
	case ui.ItemStart:
		return ops.start(ctx)
	case ui.ItemStop:
		return ops.stop(ctx)
	case ui.ItemRestart:
		return ops.restart(ctx)
	case ui.ItemClean:
		return ops.clean(ctx)
	case ui.ItemStatus:
		return ops.status(ctx, state.FormatTable)
	case ui.ItemLogs:
		return ops.logs(ctx, k8s.LogOptions{TailLines: 100})
	case ui.ItemBackup:
		return ops.backup(ctx)
	case ui.ItemRestore:
		ref, err := pickSnapshot(ops)
		if err != nil || ref == "" {
			return err
		}
		return ops.restore(ctx, ref)
	case ui.ItemNotifications:
		return ops.notifications(ctx)
	case ui.ItemCredentials:
		return ops.credentials(ctx)
	case ui.ItemApps:
		return ops.appsList(ctx)
	case ui.ItemAppsSync:
		apps, err := ops.applications(ctx)
		if err != nil {
			return err
		}
		name, err := pickApplication(ops, apps)
		if err != nil || name == "" {
			return err
		}
		return ops.appsSync(ctx, name)
	case ui.ItemHelp:
		_, err := fmt.Fprint(ops.out, rootCmd.UsageString())
		return err
	default:
		return fmt.Errorf("unknown menu entry %q", choice)
	}
}

// pickSnapshot lets the user choose a backup. Returns "" when there is none
// or the user backed out.
func pickSnapshot(ops *operations) (string, error) {
	snaps, err := ops.snapshots()
	if err != nil {
		return "", err
	}
	if len(snaps) == 0 {
		ops.reporter.Warn(fmt.Sprintf("No backups in %s", ops.backups.Dir()))
		return "", nil
	}

	items := make([]ui.Item, 0, len(snaps))
	for _, s := range snaps {
		items = append(items, ui.Item{
			Key:   s.ID,
			Label: fmt.Sprintf("%s  (%d files)", s.Time.Format("2006-01-02 15:04:05"), len(s.Files)),
		})
	}
	return selectFunc(ui.NewSelector("Restore which backup?", items))
}

// pickApplication lets the user choose one of apps. Returns "" when there is
// none or the user backed out.
func pickApplication(ops *operations, apps []string) (string, error) {
	if len(apps) == 0 {
		ops.reporter.Warn("No applications to sync")
		return "", nil
	}
	items := make([]ui.Item, 0, len(apps))
	for _, app := range apps {
		items = append(items, ui.Item{Key: app, Label: app})
	}
	return selectFunc(ui.NewSelector("Sync which application?", items))
}
