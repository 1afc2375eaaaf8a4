// Package defaults holds the timing constants shared by argolocal components.
package defaults

import "time"

// Readiness and polling.
const (
	// ReadyTimeout bounds the wait for ArgoCD workloads to become available.
	ReadyTimeout = 5 * time.Minute

	// PollInterval is the delay between readiness checks.
	PollInterval = 2 * time.Second

	// ClusterWaitForReady is how long kind waits for the control plane.
	ClusterWaitForReady = 60 * time.Second
)

// Tunnel timing.
const (
	// TunnelBindDelay is the pause after launching port-forward before the
	// liveness check runs.
	TunnelBindDelay = 3 * time.Second

	// SettleDelay is the pause between stop and start on restart so the
	// local port is released.
	SettleDelay = 3 * time.Second
)

// Kubernetes API calls.
const (
	// K8sCallTimeout bounds a single API request issued outside a wait loop.
	K8sCallTimeout = 30 * time.Second

	// KubectlApplyTimeout bounds a manifest apply.
	KubectlApplyTimeout = 5 * time.Minute
)
