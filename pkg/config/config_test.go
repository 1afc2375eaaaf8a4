package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, "app.kubernetes.io/name=argocd-server", cfg.WorkloadSelector())
}

func TestWorkloadSelectorScopeAll(t *testing.T) {
	cfg := Default()
	cfg.Health.Scope = HealthScopeAll
	assert.Equal(t, "", cfg.WorkloadSelector())
}

func TestLoadUsesDefaultsAndOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("tunnel.port", 9090)
	viper.Set("tunnel.bind_delay", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Tunnel.Port)
	assert.Equal(t, time.Second, cfg.Tunnel.BindDelay)
	assert.Equal(t, "argocd", cfg.Namespace)
	assert.Equal(t, InstallMethodManifest, cfg.Install.Method)
	assert.Len(t, cfg.Notifications.Triggers, 3)
}

func TestLoadRejectsInvalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("tunnel.port", 70000)
	viper.Set("health.scope", "everything")

	_, err := Load()
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad cluster name", func(c *Config) { c.Cluster.Name = "Argo_CD" }, "cluster.name"},
		{"bad namespace", func(c *Config) { c.Namespace = "Argo CD" }, "namespace"},
		{"zero port", func(c *Config) { c.Tunnel.Port = 0 }, "tunnel.port"},
		{"bad remote port", func(c *Config) { c.Tunnel.RemotePort = 65536 }, "tunnel.remote_port"},
		{"empty service", func(c *Config) { c.Tunnel.Service = "" }, "tunnel.service"},
		{"negative settle", func(c *Config) { c.Tunnel.SettleDelay = -time.Second }, "tunnel.settle_delay"},
		{"unknown method", func(c *Config) { c.Install.Method = "kustomize" }, "install.method"},
		{"manifest without url", func(c *Config) { c.Install.ManifestURL = "" }, "install.manifest_url"},
		{"helm without chart", func(c *Config) {
			c.Install.Method = InstallMethodHelm
			c.Install.HelmChart = ""
		}, "install.helm_chart"},
		{"zero ready timeout", func(c *Config) { c.Install.ReadyTimeout = 0 }, "install.ready_timeout"},
		{"empty selector", func(c *Config) { c.Health.ServerSelector = "" }, "health.server_selector"},
		{"bad scope", func(c *Config) { c.Health.Scope = "cluster" }, "health.scope"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data_dir"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidationErrorsSingle(t *testing.T) {
	errs := ValidationErrors{{Field: "tunnel.port", Value: 0, Message: "must be between 1 and 65535"}}
	assert.Equal(t, "tunnel.port: must be between 1 and 65535 (got: 0)", errs.Error())
	assert.False(t, strings.Contains(errs.Error(), "validation errors"))
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/argolocal", ConfigDir())
	assert.Equal(t, "/tmp/xdg/argolocal/config.yaml", ConfigFile())
}
