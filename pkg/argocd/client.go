// Package argocd drives the argocd CLI and names the resources argolocal reads.
package argocd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	// AdminUser is the built-in ArgoCD administrator
	AdminUser = "admin"
	// InitialAdminSecret holds the generated admin password
	InitialAdminSecret = "argocd-initial-admin-secret"
	// InitialAdminPasswordKey is the key of the password in InitialAdminSecret
	InitialAdminPasswordKey = "password"
	// ApplicationControllerStatefulSet is removed on stop and restored on start
	ApplicationControllerStatefulSet = "argocd-application-controller"
)

// execCommand is overridden in tests
var execCommand = exec.CommandContext

// Client runs argocd CLI commands against a server reachable through the tunnel
type Client struct {
	// Server is the host:port of the API server, e.g. localhost:8080
	Server string
	// Insecure skips TLS verification of the self-signed server certificate
	Insecure bool
}

// NewClient creates a CLI client for the given server address
func NewClient(server string, insecure bool) *Client {
	return &Client{Server: server, Insecure: insecure}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, "argocd", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("argocd %s failed: %w", args[0], err)
		}
		return "", fmt.Errorf("argocd %s failed: %s: %w", args[0], msg, err)
	}
	return stdout.String(), nil
}

func (c *Client) serverArgs() []string {
	args := []string{"--server", c.Server}
	if c.Insecure {
		args = append(args, "--insecure")
	}
	return args
}

// Login authenticates the CLI session
func (c *Client) Login(ctx context.Context, username, password string) error {
	args := []string{"login", c.Server, "--username", username, "--password", password}
	if c.Insecure {
		args = append(args, "--insecure")
	}
	_, err := c.run(ctx, args...)
	return err
}

// ListApplications returns the application names known to the server
func (c *Client) ListApplications(ctx context.Context) ([]string, error) {
	args := append([]string{"app", "list", "-o", "name"}, c.serverArgs()...)
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseNames(out), nil
}

// SyncApplication triggers a sync of one application
func (c *Client) SyncApplication(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("application name is required")
	}
	args := append([]string{"app", "sync", name}, c.serverArgs()...)
	_, err := c.run(ctx, args...)
	return err
}

// parseNames splits `-o name` output, dropping blanks and the "argocd/" namespace prefix
func parseNames(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.LastIndex(line, "/"); i >= 0 {
			line = line[i+1:]
		}
		names = append(names, line)
	}
	return names
}
