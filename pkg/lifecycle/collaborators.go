package lifecycle

import (
	"context"
	"time"
)

// Provisioner creates and deletes the local cluster
type Provisioner interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	Delete(ctx context.Context) error
}

// Cluster is a connected control-plane client
type Cluster interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	CreateNamespace(ctx context.Context, name string) error
	WorkloadRunning(ctx context.Context, namespace, selector string) (bool, error)
	WaitForAvailable(ctx context.Context, namespace string, timeout time.Duration) error
	RolloutRestart(ctx context.Context, namespace string) error
	ScaleDeployments(ctx context.Context, namespace string, replicas int32) error
	DeleteStatefulSet(ctx context.Context, namespace, name string) error
	SecretValue(ctx context.Context, namespace, name, key string) (string, error)
}

// Dialer connects to the cluster once it exists
type Dialer interface {
	Dial(ctx context.Context) (Cluster, error)
}

// DialFunc adapts a function to Dialer
type DialFunc func(ctx context.Context) (Cluster, error)

// Dial calls f
func (f DialFunc) Dial(ctx context.Context) (Cluster, error) {
	return f(ctx)
}

// Installer installs the workload. Install must be idempotent.
type Installer interface {
	Install(ctx context.Context) error
}

// Tunnel is the local port-forward to the server workload
type Tunnel interface {
	Alive(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Janitor removes transient local files
type Janitor interface {
	CleanRuntime() error
}

// Reporter prints human status lines
type Reporter interface {
	Step(msg string)
	Success(msg string)
	Warn(msg string)
}
