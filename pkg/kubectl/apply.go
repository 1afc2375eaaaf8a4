package kubectl

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// execCommand is overridden in tests
var execCommand = exec.CommandContext

// Kubectl runs kubectl against one kubeconfig and context
type Kubectl struct {
	Kubeconfig string
	Context    string
	Stdout     io.Writer
	Stderr     io.Writer
}

// New returns a Kubectl writing to the process stdout and stderr
func New(kubeconfig, kubeContext string) *Kubectl {
	return &Kubectl{
		Kubeconfig: kubeconfig,
		Context:    kubeContext,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// BaseArgs returns the connection flags shared by every invocation
func (k *Kubectl) BaseArgs() []string {
	var args []string
	if k.Kubeconfig != "" {
		args = append(args, "--kubeconfig", k.Kubeconfig)
	}
	if k.Context != "" {
		args = append(args, "--context", k.Context)
	}
	return args
}

// ApplyArgs builds the arguments for a server-side apply of a manifest URL or file
func (k *Kubectl) ApplyArgs(namespace, source string) []string {
	args := append(k.BaseArgs(), "apply")
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	// ArgoCD CRDs exceed the client-side last-applied annotation limit
	return append(args, "--server-side", "--force-conflicts", "-f", source)
}

// PortForwardArgs builds the arguments for forwarding a local port to a service
func (k *Kubectl) PortForwardArgs(namespace, service string, localPort, remotePort int) []string {
	return append(k.BaseArgs(),
		"port-forward",
		"svc/"+service,
		"-n", namespace,
		strconv.Itoa(localPort)+":"+strconv.Itoa(remotePort),
	)
}

// Apply applies a manifest URL or file into the namespace
func (k *Kubectl) Apply(ctx context.Context, namespace, source string) error {
	cmd := execCommand(ctx, "kubectl", k.ApplyArgs(namespace, source)...)
	cmd.Stdout = k.Stdout
	cmd.Stderr = k.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("kubectl apply -f %s failed: %w", source, err)
	}
	return nil
}
