package state

import (
	"github.com/argolocal/argolocal/pkg/docker"
	"github.com/argolocal/argolocal/pkg/k8s"
	"github.com/argolocal/argolocal/pkg/lifecycle"
)

// Report holds the discovered runtime state of the environment.
type Report struct {
	Cluster     string                 `json:"cluster" yaml:"cluster"`
	Namespace   string                 `json:"namespace" yaml:"namespace"`
	State       lifecycle.State        `json:"state" yaml:"state"`
	Observation lifecycle.Observation  `json:"observation" yaml:"observation"`
	URL         string                 `json:"url,omitempty" yaml:"url,omitempty"`
	Nodes       []docker.NodeContainer `json:"nodes" yaml:"nodes"`
	Components  []k8s.ComponentStatus  `json:"components" yaml:"components"`
	// Warnings name checks that could not be completed
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
