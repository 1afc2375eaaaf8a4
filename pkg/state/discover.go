package state

import (
	"context"
	"fmt"

	"github.com/argolocal/argolocal/pkg/docker"
	"github.com/argolocal/argolocal/pkg/k8s"
	"github.com/argolocal/argolocal/pkg/lifecycle"
)

// StatusSource classifies the environment
type StatusSource interface {
	Status(ctx context.Context) (lifecycle.State, lifecycle.Observation, error)
}

// NodeLister lists the node containers of a cluster
type NodeLister interface {
	NodeContainers(ctx context.Context, clusterName string) ([]docker.NodeContainer, error)
}

// ComponentLister reports component pod health in a namespace
type ComponentLister interface {
	ComponentStatuses(ctx context.Context, namespace string) ([]k8s.ComponentStatus, error)
}

// Sources are the checks Discover consults. Nodes and Components may be nil.
type Sources struct {
	Status     StatusSource
	Nodes      NodeLister
	Components func(ctx context.Context) (ComponentLister, error)
}

// Discover builds a report from live state. Only the classification is
// required; node and component details are best effort and recorded as
// warnings when unavailable.
func Discover(ctx context.Context, cluster, namespace, url string, src Sources) (*Report, error) {
	st, obs, err := src.Status.Status(ctx)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Cluster:     cluster,
		Namespace:   namespace,
		State:       st,
		Observation: obs,
		Nodes:       []docker.NodeContainer{},
		Components:  []k8s.ComponentStatus{},
	}
	if obs.TunnelAlive {
		r.URL = url
	}

	if src.Nodes != nil {
		nodes, err := src.Nodes.NodeContainers(ctx, cluster)
		if err != nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("nodes: %v", err))
		} else {
			r.Nodes = nodes
		}
	}

	if !obs.NamespaceExists || src.Components == nil {
		return r, nil
	}

	lister, err := src.Components(ctx)
	if err != nil {
		r.Warnings = append(r.Warnings, fmt.Sprintf("components: %v", err))
		return r, nil
	}
	components, err := lister.ComponentStatuses(ctx, namespace)
	if err != nil {
		r.Warnings = append(r.Warnings, fmt.Sprintf("components: %v", err))
		return r, nil
	}
	r.Components = MergeExpected(components, ExpectedComponents)
	return r, nil
}
