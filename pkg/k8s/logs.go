package k8s

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	corev1 "k8s.io/api/core/v1"
)

// LogOptions configures log streaming
type LogOptions struct {
	Follow    bool
	TailLines int64
	// Components are ArgoCD component names ("server" or "argocd-server");
	// empty means the API server
	Components []string
}

// ComponentSelector returns the label selector for an ArgoCD component
func ComponentSelector(component string) string {
	if !strings.HasPrefix(component, "argocd-") {
		component = "argocd-" + component
	}
	return ComponentLabel + "=" + component
}

// StreamLogs streams logs from the given components until the streams end or ctx is cancelled
func (c *Client) StreamLogs(ctx context.Context, namespace string, opts LogOptions, out io.Writer) error {
	components := opts.Components
	if len(components) == 0 {
		components = []string{"server"}
	}

	w := &syncWriter{w: out}
	var wg sync.WaitGroup
	errChan := make(chan error, len(components))

	for _, component := range components {
		wg.Add(1)
		go func(component string) {
			defer wg.Done()
			if err := c.streamComponentLogs(ctx, namespace, component, opts, w); err != nil {
				errChan <- fmt.Errorf("%s: %w", component, err)
			}
		}(component)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}
	return nil
}

func (c *Client) streamComponentLogs(ctx context.Context, namespace, component string, opts LogOptions, out io.Writer) error {
	pods, err := c.ListPods(ctx, namespace, ComponentSelector(component))
	if err != nil {
		return err
	}

	if len(pods.Items) == 0 {
		fmt.Fprintf(out, "%s | No pods found\n", component)
		return nil
	}

	var wg sync.WaitGroup
	for _, pod := range pods.Items {
		wg.Add(1)
		go func(podName string) {
			defer wg.Done()
			c.streamPodLogs(ctx, namespace, podName, component, opts, out)
		}(pod.Name)
	}

	wg.Wait()
	return nil
}

func (c *Client) streamPodLogs(ctx context.Context, namespace, podName, component string, opts LogOptions, out io.Writer) {
	logOpts := &corev1.PodLogOptions{
		Follow: opts.Follow,
	}

	if opts.TailLines > 0 {
		logOpts.TailLines = &opts.TailLines
	}

	stream, err := c.GetPodLogs(ctx, namespace, podName, logOpts)
	if err != nil {
		fmt.Fprintf(out, "%s | Error: %v\n", component, err)
		return
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
			fmt.Fprintf(out, "%s | %s\n", component, scanner.Text())
		}
	}
}

// syncWriter serializes writes from concurrent pod streams
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
