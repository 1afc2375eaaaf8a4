package setup

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/argolocal/argolocal/pkg/errors"
)

// lookPath is overridden in tests
var lookPath = exec.LookPath

// Check verifies every requirement and reports all missing ones together
func Check(ctx context.Context, req Requirements, pinger Pinger) error {
	var missing []string

	for _, tool := range req.Tools {
		if _, err := lookPath(tool); err != nil {
			slog.Debug("tool not found on PATH", "tool", tool, "error", err)
			missing = append(missing, tool)
		}
	}

	if req.Docker {
		if pinger == nil {
			missing = append(missing, "docker")
		} else if err := pinger.Ping(ctx); err != nil {
			slog.Debug("docker daemon ping failed", "error", err)
			missing = append(missing, "docker")
		}
	}

	if len(missing) > 0 {
		return errors.MissingPrerequisites(missing)
	}
	return nil
}
