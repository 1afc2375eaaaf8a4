package k8s

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/yaml"
)

var (
	// ApplicationGVR is the ArgoCD Application resource
	ApplicationGVR = schema.GroupVersionResource{Group: "argoproj.io", Version: "v1alpha1", Resource: "applications"}
	// AppProjectGVR is the ArgoCD AppProject resource
	AppProjectGVR = schema.GroupVersionResource{Group: "argoproj.io", Version: "v1alpha1", Resource: "appprojects"}
	// ConfigMapGVR is the core ConfigMap resource
	ConfigMapGVR = schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}
)

// server-populated metadata dropped from exports
var strippedMetadata = []string{"resourceVersion", "uid", "creationTimestamp", "generation", "managedFields", "selfLink"}

const lastAppliedAnnotation = "kubectl.kubernetes.io/last-applied-configuration"

// ExportList lists every object of a resource in the namespace and renders the
// sanitized list as YAML. found is false when the resource is not served.
func (c *Client) ExportList(ctx context.Context, gvr schema.GroupVersionResource, namespace string) (data []byte, found bool, err error) {
	list, err := c.dynamic.Resource(gvr).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) || meta.IsNoMatchError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to list %s: %w", gvr.Resource, err)
	}

	items := make([]any, 0, len(list.Items))
	for i := range list.Items {
		obj := list.Items[i].DeepCopy()
		Sanitize(obj)
		items = append(items, obj.Object)
	}

	out := map[string]any{
		"apiVersion": "v1",
		"kind":       "List",
		"items":      items,
	}
	data, err = yaml.Marshal(out)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal %s: %w", gvr.Resource, err)
	}
	return data, true, nil
}

// ExportObject renders one sanitized object as YAML. found is false when it does not exist.
func (c *Client) ExportObject(ctx context.Context, gvr schema.GroupVersionResource, namespace, name string) (data []byte, found bool, err error) {
	obj, err := c.dynamic.Resource(gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) || meta.IsNoMatchError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s/%s: %w", gvr.Resource, name, err)
	}

	Sanitize(obj)
	data, err = yaml.Marshal(obj.Object)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal %s/%s: %w", gvr.Resource, name, err)
	}
	return data, true, nil
}

// ApplyYAML creates or updates every object in a YAML document (a single object
// or a List) in the namespace. Returns the number of objects applied.
func (c *Client) ApplyYAML(ctx context.Context, gvr schema.GroupVersionResource, namespace string, data []byte) (int, error) {
	objs, err := DecodeObjects(data)
	if err != nil {
		return 0, err
	}

	for _, obj := range objs {
		if err := c.applyObject(ctx, gvr, namespace, obj); err != nil {
			return 0, err
		}
	}
	return len(objs), nil
}

func (c *Client) applyObject(ctx context.Context, gvr schema.GroupVersionResource, namespace string, obj *unstructured.Unstructured) error {
	Sanitize(obj)
	obj.SetNamespace(namespace)
	resource := c.dynamic.Resource(gvr).Namespace(namespace)

	existing, err := resource.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		if _, err := resource.Create(ctx, obj, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create %s/%s: %w", gvr.Resource, obj.GetName(), err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get %s/%s: %w", gvr.Resource, obj.GetName(), err)
	}

	obj.SetResourceVersion(existing.GetResourceVersion())
	if _, err := resource.Update(ctx, obj, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", gvr.Resource, obj.GetName(), err)
	}
	return nil
}

// DecodeObjects parses a YAML document holding one object or a List of objects
func DecodeObjects(data []byte) ([]*unstructured.Unstructured, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	root := &unstructured.Unstructured{Object: raw}
	if !root.IsList() {
		if root.GetName() == "" {
			return nil, fmt.Errorf("object of kind %q has no name", root.GetKind())
		}
		return []*unstructured.Unstructured{root}, nil
	}

	list, err := root.ToList()
	if err != nil {
		return nil, fmt.Errorf("failed to read list: %w", err)
	}
	objs := make([]*unstructured.Unstructured, 0, len(list.Items))
	for i := range list.Items {
		objs = append(objs, &list.Items[i])
	}
	return objs, nil
}

// Sanitize removes status and server-populated metadata so the object can be re-applied
func Sanitize(obj *unstructured.Unstructured) {
	unstructured.RemoveNestedField(obj.Object, "status")
	for _, field := range strippedMetadata {
		unstructured.RemoveNestedField(obj.Object, "metadata", field)
	}

	annotations := obj.GetAnnotations()
	if _, ok := annotations[lastAppliedAnnotation]; ok {
		delete(annotations, lastAppliedAnnotation)
		obj.SetAnnotations(annotations)
	}
}
