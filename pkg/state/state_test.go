package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/argolocal/argolocal/pkg/docker"
	"github.com/argolocal/argolocal/pkg/k8s"
	"github.com/argolocal/argolocal/pkg/lifecycle"
)

type fakeStatus struct {
	obs lifecycle.Observation
	err error
}

func (f fakeStatus) Status(context.Context) (lifecycle.State, lifecycle.Observation, error) {
	return lifecycle.Classify(f.obs), f.obs, f.err
}

type fakeNodes struct {
	nodes []docker.NodeContainer
	err   error
}

func (f fakeNodes) NodeContainers(context.Context, string) ([]docker.NodeContainer, error) {
	return f.nodes, f.err
}

type fakeComponents []k8s.ComponentStatus

func (f fakeComponents) ComponentStatuses(context.Context, string) ([]k8s.ComponentStatus, error) {
	return f, nil
}

var running = lifecycle.Observation{ClusterExists: true, NamespaceExists: true, WorkloadRunning: true, TunnelAlive: true}

func TestDiscoverRunning(t *testing.T) {
	src := Sources{
		Status: fakeStatus{obs: running},
		Nodes:  fakeNodes{nodes: []docker.NodeContainer{{Name: "argocd-dev-control-plane", Role: "control-plane", State: "running"}}},
		Components: func(context.Context) (ComponentLister, error) {
			return fakeComponents{{Name: "argocd-server", Status: "Up", Ready: 1, Total: 1}}, nil
		},
	}

	r, err := Discover(context.Background(), "argocd-dev", "argocd", "https://localhost:8080", src)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if r.State != lifecycle.Running {
		t.Errorf("State = %s, want Running", r.State)
	}
	if r.URL != "https://localhost:8080" {
		t.Errorf("URL = %q", r.URL)
	}
	if len(r.Nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(r.Nodes))
	}
	if len(r.Components) != len(ExpectedComponents) {
		t.Errorf("expected %d components, got %d", len(ExpectedComponents), len(r.Components))
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestDiscoverBestEffort(t *testing.T) {
	obs := lifecycle.Observation{ClusterExists: true}
	called := false
	src := Sources{
		Status: fakeStatus{obs: obs},
		Nodes:  fakeNodes{err: errors.New("docker unreachable")},
		Components: func(context.Context) (ComponentLister, error) {
			called = true
			return nil, nil
		},
	}

	r, err := Discover(context.Background(), "argocd-dev", "argocd", "https://localhost:8080", src)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if r.State != lifecycle.NotInstalled {
		t.Errorf("State = %s, want NotInstalled", r.State)
	}
	if r.URL != "" {
		t.Errorf("URL should be empty without a tunnel, got %q", r.URL)
	}
	if called {
		t.Error("components must not be queried without a namespace")
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "docker unreachable") {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestDiscoverStatusError(t *testing.T) {
	_, err := Discover(context.Background(), "c", "ns", "", Sources{Status: fakeStatus{err: errors.New("boom")}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestMergeExpected(t *testing.T) {
	got := MergeExpected([]k8s.ComponentStatus{
		{Name: "argocd-server", Status: "Up", Ready: 1, Total: 1},
		{Name: "guestbook-ui", Status: "Up", Ready: 1, Total: 1},
	}, []string{"argocd-server", "argocd-redis"})

	want := []k8s.ComponentStatus{
		{Name: "argocd-redis", Status: "Not Found"},
		{Name: "argocd-server", Status: "Up", Ready: 1, Total: 1},
		{Name: "guestbook-ui", Status: "Up", Ready: 1, Total: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteFormats(t *testing.T) {
	r := &Report{
		Cluster:     "argocd-dev",
		Namespace:   "argocd",
		State:       lifecycle.Running,
		Observation: running,
		URL:         "https://localhost:8080",
		Nodes:       []docker.NodeContainer{{Name: "argocd-dev-control-plane", Role: "control-plane", State: "running", Status: "Up"}},
		Components:  []k8s.ComponentStatus{{Name: "argocd-server", Status: "Up", Ready: 1, Total: 1}},
	}

	var table bytes.Buffer
	if err := Write(&table, r, FormatTable); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"State:     Running", "URL:       https://localhost:8080", "COMPONENT", "argocd-server", "1/1", "argocd-dev-control-plane"} {
		if !strings.Contains(table.String(), want) {
			t.Errorf("table output missing %q:\n%s", want, table.String())
		}
	}

	var js bytes.Buffer
	if err := Write(&js, r, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["state"] != "Running" {
		t.Errorf("json state = %v", decoded["state"])
	}

	var y bytes.Buffer
	if err := Write(&y, r, FormatYAML); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(y.String(), "state: Running") {
		t.Errorf("yaml output missing state:\n%s", y.String())
	}

	if err := Write(&y, r, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
