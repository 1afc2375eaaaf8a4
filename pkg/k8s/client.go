package k8s

import (
	"context"
	"fmt"
	"io"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/argolocal/argolocal/pkg/defaults"
	"github.com/argolocal/argolocal/pkg/errors"
)

// RestartedAtAnnotation is the pod template annotation kubectl uses for rollout restarts
const RestartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"

// Client wraps the Kubernetes typed and dynamic clients
type Client struct {
	clientset  kubernetes.Interface
	dynamic    dynamic.Interface
	restConfig *rest.Config

	// pollInterval is shortened in tests
	pollInterval time.Duration
	now          func() time.Time
}

// NewClient creates a new Kubernetes client from a kubeconfig file and optional context
func NewClient(kubeconfigPath, kubeContext string) (*Client, error) {
	loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}
	return NewClientForConfig(config)
}

// NewClientForConfig creates a client from a REST config
func NewClientForConfig(config *rest.Config) (*Client, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	c := NewClientFromInterfaces(clientset, dyn)
	c.restConfig = config
	return c, nil
}

// NewClientFromInterfaces wraps existing clients (fakes in tests)
func NewClientFromInterfaces(clientset kubernetes.Interface, dyn dynamic.Interface) *Client {
	return &Client{
		clientset:    clientset,
		dynamic:      dyn,
		pollInterval: defaults.PollInterval,
		now:          time.Now,
	}
}

// RESTConfig returns the REST config for the client
func (c *Client) RESTConfig() *rest.Config {
	return c.restConfig
}

// Clientset returns the underlying kubernetes clientset
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

// CheckConnection verifies the connection to the cluster
func (c *Client) CheckConnection(ctx context.Context) error {
	_, err := c.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
	return err
}

// ListPods returns pods matching the given label selector in a namespace
func (c *Client) ListPods(ctx context.Context, namespace, labelSelector string) (*corev1.PodList, error) {
	return c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
}

// GetPodLogs returns a ReadCloser for streaming pod logs
func (c *Client) GetPodLogs(ctx context.Context, namespace, podName string, opts *corev1.PodLogOptions) (io.ReadCloser, error) {
	req := c.clientset.CoreV1().Pods(namespace).GetLogs(podName, opts)
	return req.Stream(ctx)
}

// NamespaceExists checks if a namespace exists
func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := c.clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get namespace %s: %w", name, err)
	}
	return true, nil
}

// CreateNamespace creates a namespace. Idempotent.
func (c *Client) CreateNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	_, err := c.clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create namespace %s: %w", name, err)
	}
	return nil
}

// WorkloadRunning reports whether at least one live pod matching the selector
// is in the Running phase. Pods being deleted do not count, and leftover
// pods in other phases (evicted, completed) are ignored.
//
// An empty selector checks the whole namespace and is stricter: besides one
// running pod, no live pod may be Pending or Unknown. Finished pods are still
// ignored since their controllers replace them.
func (c *Client) WorkloadRunning(ctx context.Context, namespace, labelSelector string) (bool, error) {
	pods, err := c.ListPods(ctx, namespace, labelSelector)
	if err != nil {
		return false, fmt.Errorf("failed to list pods in %s: %w", namespace, err)
	}

	running := 0
	for _, pod := range pods.Items {
		if pod.DeletionTimestamp != nil {
			continue
		}
		switch pod.Status.Phase {
		case corev1.PodRunning:
			running++
		case corev1.PodPending, corev1.PodUnknown:
			if labelSelector == "" {
				return false, nil
			}
		}
	}
	return running > 0, nil
}

// WaitForAvailable waits until every Deployment and StatefulSet in the namespace
// has observed its latest spec and reports all desired replicas updated and
// available.
func (c *Client) WaitForAvailable(ctx context.Context, namespace string, timeout time.Duration) error {
	err := wait.PollUntilContextTimeout(ctx, c.pollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		ready, err := c.workloadsAvailable(ctx, namespace)
		if err != nil {
			// transient API errors are retried until the deadline
			return false, nil
		}
		return ready, nil
	})
	if err != nil {
		if wait.Interrupted(err) {
			return errors.Wrap(errors.ErrCodeTimeout,
				fmt.Sprintf("timed out after %s waiting for workloads in %s", timeout, namespace), err)
		}
		return err
	}
	return nil
}

func (c *Client) workloadsAvailable(ctx context.Context, namespace string) (bool, error) {
	deployments, err := c.ListDeployments(ctx, namespace, "")
	if err != nil {
		return false, err
	}
	statefulSets, err := c.clientset.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return false, err
	}

	if len(deployments.Items) == 0 && len(statefulSets.Items) == 0 {
		return false, nil
	}

	for _, d := range deployments.Items {
		want := desired(d.Spec.Replicas)
		if d.Status.ObservedGeneration < d.Generation ||
			d.Status.UpdatedReplicas < want ||
			d.Status.AvailableReplicas < want {
			return false, nil
		}
	}
	for _, s := range statefulSets.Items {
		want := desired(s.Spec.Replicas)
		if s.Status.ObservedGeneration < s.Generation ||
			s.Status.UpdatedReplicas < want ||
			s.Status.ReadyReplicas < want {
			return false, nil
		}
	}
	return true, nil
}

func desired(replicas *int32) int32 {
	if replicas == nil {
		return 1
	}
	return *replicas
}

// RolloutRestart restarts every Deployment and StatefulSet in the namespace by
// stamping the pod template. Workloads scaled to zero are brought back to one replica.
func (c *Client) RolloutRestart(ctx context.Context, namespace string) error {
	stamp := c.now().Format(time.RFC3339)

	deployments, err := c.ListDeployments(ctx, namespace, "")
	if err != nil {
		return fmt.Errorf("failed to list deployments in %s: %w", namespace, err)
	}
	for i := range deployments.Items {
		d := &deployments.Items[i]
		restartTemplate(&d.Spec.Template, stamp)
		if desired(d.Spec.Replicas) == 0 {
			d.Spec.Replicas = int32Ptr(1)
		}
		if _, err := c.clientset.AppsV1().Deployments(namespace).Update(ctx, d, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("failed to restart deployment %s: %w", d.Name, err)
		}
	}

	statefulSets, err := c.clientset.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list statefulsets in %s: %w", namespace, err)
	}
	for i := range statefulSets.Items {
		s := &statefulSets.Items[i]
		restartTemplate(&s.Spec.Template, stamp)
		if desired(s.Spec.Replicas) == 0 {
			s.Spec.Replicas = int32Ptr(1)
		}
		if _, err := c.clientset.AppsV1().StatefulSets(namespace).Update(ctx, s, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("failed to restart statefulset %s: %w", s.Name, err)
		}
	}

	return nil
}

func restartTemplate(tpl *corev1.PodTemplateSpec, stamp string) {
	if tpl.Annotations == nil {
		tpl.Annotations = map[string]string{}
	}
	tpl.Annotations[RestartedAtAnnotation] = stamp
}

// ScaleDeployments sets the replica count of every Deployment in the namespace
func (c *Client) ScaleDeployments(ctx context.Context, namespace string, replicas int32) error {
	deployments, err := c.ListDeployments(ctx, namespace, "")
	if err != nil {
		return fmt.Errorf("failed to list deployments in %s: %w", namespace, err)
	}
	for i := range deployments.Items {
		d := &deployments.Items[i]
		d.Spec.Replicas = int32Ptr(replicas)
		if _, err := c.clientset.AppsV1().Deployments(namespace).Update(ctx, d, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("failed to scale deployment %s: %w", d.Name, err)
		}
	}
	return nil
}

// DeleteStatefulSet deletes a StatefulSet. Idempotent.
func (c *Client) DeleteStatefulSet(ctx context.Context, namespace, name string) error {
	err := c.clientset.AppsV1().StatefulSets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete statefulset %s: %w", name, err)
	}
	return nil
}

// ListDeployments returns deployments matching the given label selector in a namespace
func (c *Client) ListDeployments(ctx context.Context, namespace, labelSelector string) (*appsv1.DeploymentList, error) {
	return c.clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
}

// SecretValue returns one key of a secret as a string
func (c *Client) SecretValue(ctx context.Context, namespace, name, key string) (string, error) {
	secret, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s/%s: %w", namespace, name, err)
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("secret %s/%s has no key %q", namespace, name, key)
	}
	return string(value), nil
}

// ApplySecret creates the secret or replaces its data when it already exists
func (c *Client) ApplySecret(ctx context.Context, secret *corev1.Secret) error {
	secrets := c.clientset.CoreV1().Secrets(secret.Namespace)
	existing, err := secrets.Get(ctx, secret.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := secrets.Create(ctx, secret, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create secret %s: %w", secret.Name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get secret %s: %w", secret.Name, err)
	}

	existing.Labels = secret.Labels
	existing.Type = secret.Type
	existing.Data = secret.Data
	existing.StringData = secret.StringData
	if _, err := secrets.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update secret %s: %w", secret.Name, err)
	}
	return nil
}

// GetConfigMap returns a ConfigMap, or nil when it does not exist
func (c *Client) GetConfigMap(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error) {
	cm, err := c.clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configmap %s: %w", name, err)
	}
	return cm, nil
}

// ApplyConfigMap creates the ConfigMap or replaces its data when it already exists
func (c *Client) ApplyConfigMap(ctx context.Context, cm *corev1.ConfigMap) error {
	configMaps := c.clientset.CoreV1().ConfigMaps(cm.Namespace)
	existing, err := configMaps.Get(ctx, cm.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := configMaps.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create configmap %s: %w", cm.Name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get configmap %s: %w", cm.Name, err)
	}

	existing.Labels = cm.Labels
	existing.Annotations = cm.Annotations
	existing.Data = cm.Data
	existing.BinaryData = cm.BinaryData
	if _, err := configMaps.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update configmap %s: %w", cm.Name, err)
	}
	return nil
}

// GetNodes returns the list of nodes in the cluster
func (c *Client) GetNodes(ctx context.Context) (*corev1.NodeList, error) {
	return c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
}

func int32Ptr(i int32) *int32 { return &i }
