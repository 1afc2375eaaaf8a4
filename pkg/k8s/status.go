package k8s

import (
	"context"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
)

// ComponentLabel groups the pods of one ArgoCD component
const ComponentLabel = "app.kubernetes.io/name"

// ComponentStatus represents the status of one component's pods
type ComponentStatus struct {
	Name     string `json:"name" yaml:"name"`
	Status   string `json:"status" yaml:"status"`
	Ready    int    `json:"ready" yaml:"ready"`
	Total    int    `json:"total" yaml:"total"`
	Restarts int32  `json:"restarts" yaml:"restarts"`
}

// ComponentStatuses returns the status of every component in a namespace,
// grouping pods by their app.kubernetes.io/name label
func (c *Client) ComponentStatuses(ctx context.Context, namespace string) ([]ComponentStatus, error) {
	pods, err := c.ListPods(ctx, namespace, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in %s: %w", namespace, err)
	}
	return summarizePods(pods.Items), nil
}

func summarizePods(pods []corev1.Pod) []ComponentStatus {
	byName := map[string]*ComponentStatus{}
	var order []string

	for _, pod := range pods {
		name := pod.Labels[ComponentLabel]
		if name == "" {
			name = pod.Name
		}
		status, ok := byName[name]
		if !ok {
			status = &ComponentStatus{Name: name}
			byName[name] = status
			order = append(order, name)
		}
		status.Total++

		podStatus := mapPodPhase(pod.Status.Phase)
		ready := len(pod.Status.ContainerStatuses) > 0
		for _, cs := range pod.Status.ContainerStatuses {
			status.Restarts += cs.RestartCount
			if cs.State.Waiting != nil {
				podStatus = mapWaitingReason(cs.State.Waiting.Reason)
				ready = false
			} else if cs.State.Terminated != nil {
				podStatus = fmt.Sprintf("Exited (%d)", cs.State.Terminated.ExitCode)
				ready = false
			} else if !cs.Ready {
				ready = false
			}
		}
		if ready && pod.Status.Phase == corev1.PodRunning {
			status.Ready++
		} else if podStatus == "Up" {
			podStatus = "Not Ready"
		}

		// first non-healthy pod decides the reported status
		if status.Status == "" || status.Status == "Up" {
			status.Status = podStatus
		}
	}

	sort.Strings(order)
	statuses := make([]ComponentStatus, 0, len(order))
	for _, name := range order {
		s := byName[name]
		if s.Ready == s.Total {
			s.Status = "Up"
		}
		statuses = append(statuses, *s)
	}
	return statuses
}

// mapPodPhase maps Kubernetes pod phase to a short status
func mapPodPhase(phase corev1.PodPhase) string {
	switch phase {
	case corev1.PodRunning:
		return "Up"
	case corev1.PodPending:
		return "Starting"
	case corev1.PodSucceeded:
		return "Exited (0)"
	case corev1.PodFailed:
		return "Exited (1)"
	case corev1.PodUnknown:
		return "Error"
	default:
		return string(phase)
	}
}

// mapWaitingReason maps Kubernetes waiting reasons to a short status
func mapWaitingReason(reason string) string {
	switch reason {
	case "CrashLoopBackOff":
		return "Restarting"
	case "ImagePullBackOff", "ErrImagePull":
		return "Error (image)"
	case "ContainerCreating":
		return "Starting"
	case "PodInitializing":
		return "Starting"
	default:
		return reason
	}
}
