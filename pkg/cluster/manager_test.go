package cluster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/kind/pkg/cluster"

	"github.com/argolocal/argolocal/pkg/workspace"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
  name: kind-argocd-dev
contexts:
- context:
    cluster: kind-argocd-dev
    user: kind-argocd-dev
  name: kind-argocd-dev
current-context: kind-argocd-dev
users:
- name: kind-argocd-dev
  user:
    token: test
`

type fakeProvider struct {
	clusters   []string
	created    []string
	createOpts int
	deleted    []string
	listErr    error
	createErr  error
}

func (f *fakeProvider) List() ([]string, error) {
	return f.clusters, f.listErr
}

func (f *fakeProvider) Create(name string, options ...cluster.CreateOption) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, name)
	f.createOpts = len(options)
	f.clusters = append(f.clusters, name)
	return nil
}

func (f *fakeProvider) Delete(name, _ string) error {
	f.deleted = append(f.deleted, name)
	var kept []string
	for _, c := range f.clusters {
		if c != name {
			kept = append(kept, c)
		}
	}
	f.clusters = kept
	return nil
}

func (f *fakeProvider) KubeConfig(name string, internal bool) (string, error) {
	return testKubeconfig, nil
}

func newTestManager(t *testing.T, p *fakeProvider, opts Options) (*Manager, *workspace.Workspace) {
	t.Helper()
	ws, err := workspace.New(filepath.Join(t.TempDir(), ".argolocal"))
	require.NoError(t, err)
	return NewManager(p, ws, opts), ws
}

func TestExistsAndCreate(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{clusters: []string{"other"}}
	m, ws := newTestManager(t, p, Options{Name: "argocd-dev", Wait: time.Minute})

	exists, err := m.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, m.Create(ctx))
	assert.Equal(t, []string{"argocd-dev"}, p.created)
	assert.Equal(t, 3, p.createOpts)
	assert.FileExists(t, ws.KubeconfigPath())

	exists, err = m.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "kind-argocd-dev", m.KubeContext())
	assert.Equal(t, "argocd-dev", m.Name())
}

func TestCreateOptionsIncludeOverrides(t *testing.T) {
	m := NewManager(&fakeProvider{}, nil, Options{
		Name:       "argocd-dev",
		NodeImage:  "kindest/node:v1.34.0",
		ConfigFile: "kind.yaml",
	})
	assert.Len(t, m.CreateOptions(), 5)
}

func TestCreateFailure(t *testing.T) {
	p := &fakeProvider{createErr: errors.New("docker not running")}
	m, _ := newTestManager(t, p, Options{Name: "argocd-dev"})

	err := m.Create(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create cluster argocd-dev")
}

func TestListFailure(t *testing.T) {
	p := &fakeProvider{listErr: errors.New("boom")}
	m, _ := newTestManager(t, p, Options{Name: "argocd-dev"})

	_, err := m.Exists(context.Background())
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{clusters: []string{"argocd-dev"}}
	m, _ := newTestManager(t, p, Options{Name: "argocd-dev"})

	require.NoError(t, m.Delete(ctx))
	exists, err := m.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDialBuildsClient(t *testing.T) {
	p := &fakeProvider{clusters: []string{"argocd-dev"}}
	m, _ := newTestManager(t, p, Options{Name: "argocd-dev"})

	client, err := m.Dial(context.Background())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "https://127.0.0.1:6443", client.RESTConfig().Host)
}
