package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/argolocal/argolocal/pkg/k8s"
)

// podCluster keeps the world bookkeeping but answers workload health from
// real pod objects. Scaling down marks the server pod for deletion without
// removing it, the way the API server reports a pod during its grace period.
type podCluster struct {
	*world
	clientset kubernetes.Interface
	client    *k8s.Client
	pods      int
}

func newPodCluster(t *testing.T, w *world) *podCluster {
	t.Helper()
	cs := fake.NewClientset()
	pc := &podCluster{
		world:     w,
		clientset: cs,
		client:    k8s.NewClientFromInterfaces(cs, dynamicfake.NewSimpleDynamicClient(runtime.NewScheme())),
	}
	if w.running {
		require.NoError(t, pc.startServerPod(context.Background()))
	}
	return pc
}

func (p *podCluster) startServerPod(ctx context.Context) error {
	p.pods++
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("argocd-server-%d", p.pods),
			Namespace: "argocd",
			Labels:    map[string]string{k8s.ComponentLabel: "argocd-server"},
		},
		Status: corev1.PodStatus{Phase: corev1.PodRunning},
	}
	_, err := p.clientset.CoreV1().Pods("argocd").Create(ctx, pod, metav1.CreateOptions{})
	return err
}

func (p *podCluster) Dial(ctx context.Context) (Cluster, error) {
	if _, err := p.world.Dial(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *podCluster) WorkloadRunning(ctx context.Context, namespace, selector string) (bool, error) {
	return p.client.WorkloadRunning(ctx, namespace, selector)
}

func (p *podCluster) ScaleDeployments(ctx context.Context, namespace string, replicas int32) error {
	if err := p.world.ScaleDeployments(ctx, namespace, replicas); err != nil {
		return err
	}
	if replicas > 0 {
		return nil
	}
	pods, err := p.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	for i := range pods.Items {
		pod := pods.Items[i]
		now := metav1.Now()
		pod.DeletionTimestamp = &now
		if _, err := p.clientset.CoreV1().Pods(namespace).Update(ctx, &pod, metav1.UpdateOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func (p *podCluster) WaitForAvailable(ctx context.Context, namespace string, timeout time.Duration) error {
	if err := p.world.WaitForAvailable(ctx, namespace, timeout); err != nil {
		return err
	}
	pods, err := p.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	for _, pod := range pods.Items {
		if pod.DeletionTimestamp == nil {
			continue
		}
		if err := p.clientset.CoreV1().Pods(namespace).Delete(ctx, pod.Name, metav1.DeleteOptions{}); err != nil {
			return err
		}
	}
	return p.startServerPod(ctx)
}

func newPodController(t *testing.T, w *world) (*Controller, *podCluster) {
	c, _, _ := newController(w)
	pc := newPodCluster(t, w)
	c.deps.Dialer = DialFunc(pc.Dial)
	return c, pc
}

func TestTerminatingServerPodIsNotRunning(t *testing.T) {
	ctx := context.Background()
	w := at(Running)
	c, _ := newPodController(t, w)

	state, _, err := c.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, Running, state)

	require.NoError(t, c.Stop(ctx))

	state, obs, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, obs.WorkloadRunning, "a pod in its grace period is not serving")
	assert.Equal(t, PodsDown, state)

	res, err := c.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, PodsDown, res.Initial)
	assert.Equal(t, Plan(PodsDown), res.Actions)
	assert.Equal(t, Running, res.Final)
}

func TestRestartSeesTerminatingPodsAsDown(t *testing.T) {
	w := at(Running)
	c, _ := newPodController(t, w)

	res, err := c.Restart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PodsDown, res.Initial)
	assert.Contains(t, res.Actions, InstallWorkload)
	assert.Contains(t, res.Actions, RestartWorkloads)
	assert.Equal(t, Running, res.Final)
}
