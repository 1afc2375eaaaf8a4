package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"

	"github.com/argolocal/argolocal/pkg/errors"
)

type fakeCluster struct {
	namespace bool
	cm        *corev1.ConfigMap
	secret    *corev1.Secret
}

func (f *fakeCluster) NamespaceExists(context.Context, string) (bool, error) { return f.namespace, nil }

func (f *fakeCluster) ApplyConfigMap(_ context.Context, cm *corev1.ConfigMap) error {
	f.cm = cm
	return nil
}

func (f *fakeCluster) ApplySecret(_ context.Context, s *corev1.Secret) error {
	f.secret = s
	return nil
}

func TestRenderSlackAndWebhook(t *testing.T) {
	cm, secret, err := Render(Settings{
		Namespace:    "argocd",
		ArgoURL:      "https://localhost:8080",
		SlackToken:   `xoxb-123"quoted"`,
		SlackChannel: "#deploys",
		WebhookURL:   "https://hooks.example.com/argo",
	})
	require.NoError(t, err)

	assert.Equal(t, "argocd-notifications-cm", cm.Name)
	assert.Equal(t, "argocd", cm.Namespace)
	assert.Equal(t, "token: $slack-token\n", cm.Data["service.slack"])
	assert.Contains(t, cm.Data["service.webhook.argolocal"], "url: https://hooks.example.com/argo")
	assert.Contains(t, cm.Data["context"], "argocdUrl: https://localhost:8080")
	assert.Contains(t, cm.Data["template.app-sync-succeeded"], "{{.app.metadata.name}}")

	for _, trigger := range KnownTriggers {
		assert.Contains(t, cm.Data, "trigger."+trigger)
	}

	var subs []struct {
		Recipients []string `json:"recipients"`
		Triggers   []string `json:"triggers"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(cm.Data["subscriptions"]), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, []string{"slack:deploys", "webhook:argolocal"}, subs[0].Recipients)
	assert.Equal(t, KnownTriggers, subs[0].Triggers)

	assert.Equal(t, "argocd-notifications-secret", secret.Name)
	assert.Equal(t, corev1.SecretTypeOpaque, secret.Type)
	assert.Equal(t, `xoxb-123"quoted"`, secret.StringData["slack-token"])
}

func TestRenderWithoutServices(t *testing.T) {
	cm, secret, err := Render(Settings{Namespace: "argocd", ArgoURL: "https://localhost:8080"})
	require.NoError(t, err)

	assert.NotContains(t, cm.Data, "service.slack")
	assert.NotContains(t, cm.Data, "service.webhook.argolocal")
	assert.NotContains(t, cm.Data, "subscriptions")
	assert.NotContains(t, cm.Data["template.app-sync-failed"], "webhook")
	assert.Empty(t, secret.StringData)
}

func TestRenderTriggerSelection(t *testing.T) {
	cm, _, err := Render(Settings{
		Namespace:  "argocd",
		WebhookURL: "https://hooks.example.com",
		Triggers:   []string{"on-sync-failed"},
	})
	require.NoError(t, err)
	assert.Contains(t, cm.Data["subscriptions"], "- on-sync-failed")
	assert.NotContains(t, cm.Data["subscriptions"], "on-sync-succeeded")

	_, _, err = Render(Settings{Namespace: "argocd", Triggers: []string{"on-deployed"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidArgument))
}

func TestWrite(t *testing.T) {
	cl := &fakeCluster{namespace: true}
	require.NoError(t, Write(context.Background(), cl, Settings{Namespace: "argocd", SlackToken: "t"}))
	require.NotNil(t, cl.cm)
	require.NotNil(t, cl.secret)
	assert.Equal(t, "t", cl.secret.StringData["slack-token"])
}

func TestWriteRequiresNamespace(t *testing.T) {
	cl := &fakeCluster{}
	err := Write(context.Background(), cl, Settings{Namespace: "argocd"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodePrecondition))
	assert.Nil(t, cl.cm)
	assert.Nil(t, cl.secret)
}
