// Package notifications renders and writes the argocd-notifications ConfigMap and Secret.
package notifications

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/template"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"

	"github.com/argolocal/argolocal/pkg/errors"
)

//go:embed templates/notifications-cm.yaml.tmpl
var configMapTemplate string

//go:embed templates/notifications-secret.yaml.tmpl
var secretTemplate string

// KnownTriggers are the triggers the ConfigMap defines
var KnownTriggers = []string{"on-sync-succeeded", "on-sync-failed", "on-health-degraded"}

// Settings feed the templates
type Settings struct {
	Namespace    string
	ArgoURL      string
	SlackToken   string
	SlackChannel string
	WebhookURL   string
	Triggers     []string
}

type templateData struct {
	Settings
	SlackEnabled bool
	Recipients   []string
}

// Cluster is what the writer needs from the control plane
type Cluster interface {
	NamespaceExists(ctx context.Context, name string) (bool, error)
	ApplyConfigMap(ctx context.Context, cm *corev1.ConfigMap) error
	ApplySecret(ctx context.Context, secret *corev1.Secret) error
}

func (s Settings) data() (templateData, error) {
	if s.Namespace == "" {
		return templateData{}, errors.New(errors.ErrCodeInvalidArgument, "namespace is required")
	}
	triggers := s.Triggers
	if len(triggers) == 0 {
		triggers = KnownTriggers
	}
	for _, t := range triggers {
		if !slices.Contains(KnownTriggers, t) {
			return templateData{}, errors.New(errors.ErrCodeInvalidArgument,
				fmt.Sprintf("unknown trigger %q (known: %s)", t, strings.Join(KnownTriggers, ", ")))
		}
	}
	s.Triggers = triggers

	d := templateData{Settings: s, SlackEnabled: s.SlackToken != ""}
	if d.SlackEnabled && s.SlackChannel != "" {
		d.Recipients = append(d.Recipients, "slack:"+strings.TrimPrefix(s.SlackChannel, "#"))
	}
	if s.WebhookURL != "" {
		d.Recipients = append(d.Recipients, "webhook:argolocal")
	}
	return d, nil
}

func render(name, text string, data templateData) ([]byte, error) {
	tmpl, err := template.New(name).
		Delims("[[", "]]").
		Funcs(template.FuncMap{"quote": quote}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// quote renders a string as a double-quoted YAML scalar
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Render builds the ConfigMap and Secret without touching the cluster
func Render(s Settings) (*corev1.ConfigMap, *corev1.Secret, error) {
	d, err := s.data()
	if err != nil {
		return nil, nil, err
	}

	cmYAML, err := render("configmap", configMapTemplate, d)
	if err != nil {
		return nil, nil, err
	}
	var cm corev1.ConfigMap
	if err := yaml.Unmarshal(cmYAML, &cm); err != nil {
		return nil, nil, fmt.Errorf("failed to decode rendered configmap: %w", err)
	}

	secretYAML, err := render("secret", secretTemplate, d)
	if err != nil {
		return nil, nil, err
	}
	var secret corev1.Secret
	if err := yaml.Unmarshal(secretYAML, &secret); err != nil {
		return nil, nil, fmt.Errorf("failed to decode rendered secret: %w", err)
	}

	return &cm, &secret, nil
}

// Write renders both objects and creates or updates them. The namespace must exist.
func Write(ctx context.Context, cl Cluster, s Settings) error {
	cm, secret, err := Render(s)
	if err != nil {
		return err
	}

	exists, err := cl.NamespaceExists(ctx, s.Namespace)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to check namespace", err)
	}
	if !exists {
		return errors.Precondition("namespace %s does not exist", s.Namespace)
	}

	if err := cl.ApplySecret(ctx, secret); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to write notifications secret", err)
	}
	if err := cl.ApplyConfigMap(ctx, cm); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to write notifications configmap", err)
	}
	return nil
}
