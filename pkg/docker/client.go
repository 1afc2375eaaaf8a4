package docker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	dockerfilters "github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// KindClusterLabel is the label kind puts on every node container
const KindClusterLabel = "io.x-k8s.kind.cluster"

// filtersArgs builds a docker filters.Args with a single key=value pair.
func filtersArgs(key, value string) dockerfilters.Args {
	f := dockerfilters.NewArgs()
	f.Add(key, value)
	return f
}

// Client wraps the Docker SDK client
type Client struct {
	cli *client.Client
}

// NodeContainer describes one kind node container
type NodeContainer struct {
	Name   string `json:"name" yaml:"name"`
	Image  string `json:"image" yaml:"image"`
	State  string `json:"state" yaml:"state"`
	Status string `json:"status" yaml:"status"`
	Role   string `json:"role" yaml:"role"`
}

// NewClient creates a Docker client from environment
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

// Close closes the Docker client
func (c *Client) Close() error {
	return c.cli.Close()
}

// Ping checks that the Docker daemon is reachable
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon is not reachable: %w", err)
	}
	return nil
}

// NodeContainers lists the node containers of a kind cluster, including stopped ones
func (c *Client) NodeContainers(ctx context.Context, clusterName string) ([]NodeContainer, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filtersArgs("label", KindClusterLabel+"="+clusterName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers for cluster %s: %w", clusterName, err)
	}
	return toNodeContainers(containers), nil
}

func toNodeContainers(containers []container.Summary) []NodeContainer {
	nodes := make([]NodeContainer, 0, len(containers))
	for _, ctr := range containers {
		name := ctr.ID
		if len(ctr.Names) > 0 {
			name = strings.TrimPrefix(ctr.Names[0], "/")
		}
		nodes = append(nodes, NodeContainer{
			Name:   name,
			Image:  ctr.Image,
			State:  string(ctr.State),
			Status: ctr.Status,
			Role:   ctr.Labels["io.x-k8s.kind.role"],
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}
