package setup

import (
	"context"
	"fmt"

	"github.com/argolocal/argolocal/pkg/docker"
)

// Pinger reports whether a container runtime daemon is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Requirements names what an operation needs from the host
type Requirements struct {
	Tools  []string
	Docker bool
}

// Base is what every cluster operation needs
func Base() Requirements {
	return Requirements{Tools: []string{"kubectl"}, Docker: true}
}

// WithArgoCD adds the argocd CLI to the requirements
func (r Requirements) WithArgoCD() Requirements {
	r.Tools = append(append([]string{}, r.Tools...), "argocd")
	return r
}

// Run checks the requirements against the real host, dialing Docker only when needed
func Run(ctx context.Context, req Requirements) error {
	var pinger Pinger
	if req.Docker {
		cli, err := docker.NewClient()
		if err != nil {
			return Check(ctx, req, failingPinger{err: err})
		}
		defer func() { _ = cli.Close() }()
		pinger = cli
	}
	return Check(ctx, req, pinger)
}

type failingPinger struct{ err error }

func (f failingPinger) Ping(context.Context) error {
	return fmt.Errorf("docker client unavailable: %w", f.err)
}
