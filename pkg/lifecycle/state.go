// Package lifecycle classifies the local ArgoCD environment and drives it to Running.
package lifecycle

import "slices"

// State is the environment classification. It is derived fresh on every query.
type State string

const (
	// ClusterAbsent means no local cluster exists under the managed name
	ClusterAbsent State = "ClusterAbsent"
	// NotInstalled means the cluster exists but the namespace does not
	NotInstalled State = "NotInstalled"
	// PodsDown means the namespace exists but the server workload is not running
	PodsDown State = "PodsDown"
	// NoAccess means the server workload runs but the tunnel is not alive
	NoAccess State = "NoAccess"
	// Running means the server workload is healthy and the tunnel is alive
	Running State = "Running"
)

// States lists every state in priority order
var States = []State{ClusterAbsent, NotInstalled, PodsDown, NoAccess, Running}

// Observation is a point-in-time snapshot of the four checks
type Observation struct {
	ClusterExists   bool `json:"clusterExists" yaml:"clusterExists"`
	NamespaceExists bool `json:"namespaceExists" yaml:"namespaceExists"`
	WorkloadRunning bool `json:"workloadRunning" yaml:"workloadRunning"`
	TunnelAlive     bool `json:"tunnelAlive" yaml:"tunnelAlive"`
}

// Classify maps an observation to exactly one state. Cluster existence is
// checked first, then namespace, then workload health, then the tunnel.
func Classify(o Observation) State {
	switch {
	case !o.ClusterExists:
		return ClusterAbsent
	case !o.NamespaceExists:
		return NotInstalled
	case !o.WorkloadRunning:
		return PodsDown
	case !o.TunnelAlive:
		return NoAccess
	default:
		return Running
	}
}

// Action is one remediation step
type Action string

const (
	// CreateCluster provisions the kind cluster
	CreateCluster Action = "CreateCluster"
	// CreateNamespace creates the ArgoCD namespace
	CreateNamespace Action = "CreateNamespace"
	// InstallWorkload applies the manifests or Helm chart
	InstallWorkload Action = "InstallWorkload"
	// RestartWorkloads scales deployments back up and rolls them
	RestartWorkloads Action = "RestartWorkloads"
	// WaitForReady blocks until every workload reports available
	WaitForReady Action = "WaitForReady"
	// StartTunnel launches the port-forward to the server
	StartTunnel Action = "StartTunnel"
)

var remediation = map[State][]Action{
	ClusterAbsent: {CreateCluster, CreateNamespace, InstallWorkload, WaitForReady, StartTunnel},
	NotInstalled:  {CreateNamespace, InstallWorkload, WaitForReady, StartTunnel},
	// re-applying the install restores the StatefulSet that Stop removes
	PodsDown: {InstallWorkload, RestartWorkloads, WaitForReady, StartTunnel},
	NoAccess: {StartTunnel},
	Running:  nil,
}

// Plan returns the remediation steps for a state, in execution order
func Plan(s State) []Action {
	return slices.Clone(remediation[s])
}
