package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/argolocal/argolocal/pkg/defaults"
)

// Config represents the complete argolocal configuration. It is loaded once at
// startup and passed by pointer; nothing mutates it afterwards.
type Config struct {
	Cluster       ClusterConfig       `mapstructure:"cluster"`
	Namespace     string              `mapstructure:"namespace"`
	Tunnel        TunnelConfig        `mapstructure:"tunnel"`
	Install       InstallConfig       `mapstructure:"install"`
	Health        HealthConfig        `mapstructure:"health"`
	DataDir       string              `mapstructure:"data_dir"`
	Log           LogConfig           `mapstructure:"log"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// ClusterConfig controls the local kind cluster
type ClusterConfig struct {
	// Name is the kind cluster name; the kube context is "kind-<name>"
	Name string `mapstructure:"name"`
	// NodeImage overrides the kind node image (optional)
	NodeImage string `mapstructure:"node_image"`
	// ConfigFile is a kind cluster config file (optional)
	ConfigFile string `mapstructure:"config_file"`
	// Wait is how long kind waits for the control plane to become ready
	Wait time.Duration `mapstructure:"wait"`
}

// TunnelConfig controls the port-forward to the ArgoCD API server
type TunnelConfig struct {
	Port       int    `mapstructure:"port"`
	RemotePort int    `mapstructure:"remote_port"`
	Service    string `mapstructure:"service"`
	// BindDelay is the pause after launching the tunnel before checking it is alive
	BindDelay time.Duration `mapstructure:"bind_delay"`
	// SettleDelay is the pause between stop and start on restart
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// InstallConfig controls how ArgoCD is installed
type InstallConfig struct {
	// Method is "manifest" (kubectl apply) or "helm"
	Method       string        `mapstructure:"method"`
	ManifestURL  string        `mapstructure:"manifest_url"`
	HelmRepoName string        `mapstructure:"helm_repo_name"`
	HelmRepoURL  string        `mapstructure:"helm_repo_url"`
	HelmChart    string        `mapstructure:"helm_chart"`
	HelmRelease  string        `mapstructure:"helm_release"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
}

// HealthConfig controls how workload health is judged
type HealthConfig struct {
	// ServerSelector matches the ArgoCD API server pods
	ServerSelector string `mapstructure:"server_selector"`
	// Scope is "server" (only the API server must run) or "all" (every pod in the namespace)
	Scope string `mapstructure:"scope"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// NotificationsConfig feeds the argocd-notifications ConfigMap and Secret
type NotificationsConfig struct {
	SlackToken   string   `mapstructure:"slack_token"`
	SlackChannel string   `mapstructure:"slack_channel"`
	WebhookURL   string   `mapstructure:"webhook_url"`
	Triggers     []string `mapstructure:"triggers"`
}

// Health scopes
const (
	HealthScopeServer = "server"
	HealthScopeAll    = "all"
)

// Install methods
const (
	InstallMethodManifest = "manifest"
	InstallMethodHelm     = "helm"
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Cluster: ClusterConfig{
			Name: "argocd-dev",
			Wait: defaults.ClusterWaitForReady,
		},
		Namespace: "argocd",
		Tunnel: TunnelConfig{
			Port:        8080,
			RemotePort:  443,
			Service:     "argocd-server",
			BindDelay:   defaults.TunnelBindDelay,
			SettleDelay: defaults.SettleDelay,
		},
		Install: InstallConfig{
			Method:       InstallMethodManifest,
			ManifestURL:  "https://raw.githubusercontent.com/argoproj/argo-cd/stable/manifests/install.yaml",
			HelmRepoName: "argo",
			HelmRepoURL:  "https://argoproj.github.io/argo-helm",
			HelmChart:    "argo/argo-cd",
			HelmRelease:  "argocd",
			ReadyTimeout: defaults.ReadyTimeout,
		},
		Health: HealthConfig{
			ServerSelector: "app.kubernetes.io/name=argocd-server",
			Scope:          HealthScopeServer,
		},
		DataDir: ".argolocal",
		Log: LogConfig{
			Level: "warn",
		},
		Notifications: NotificationsConfig{
			Triggers: []string{"on-sync-succeeded", "on-sync-failed", "on-health-degraded"},
		},
	}
}

// SetDefaults registers every default with viper so env vars and config
// files only need to name what they change
func SetDefaults() {
	d := Default()

	viper.SetDefault("cluster.name", d.Cluster.Name)
	viper.SetDefault("cluster.node_image", d.Cluster.NodeImage)
	viper.SetDefault("cluster.config_file", d.Cluster.ConfigFile)
	viper.SetDefault("cluster.wait", d.Cluster.Wait)

	viper.SetDefault("namespace", d.Namespace)

	viper.SetDefault("tunnel.port", d.Tunnel.Port)
	viper.SetDefault("tunnel.remote_port", d.Tunnel.RemotePort)
	viper.SetDefault("tunnel.service", d.Tunnel.Service)
	viper.SetDefault("tunnel.bind_delay", d.Tunnel.BindDelay)
	viper.SetDefault("tunnel.settle_delay", d.Tunnel.SettleDelay)

	viper.SetDefault("install.method", d.Install.Method)
	viper.SetDefault("install.manifest_url", d.Install.ManifestURL)
	viper.SetDefault("install.helm_repo_name", d.Install.HelmRepoName)
	viper.SetDefault("install.helm_repo_url", d.Install.HelmRepoURL)
	viper.SetDefault("install.helm_chart", d.Install.HelmChart)
	viper.SetDefault("install.helm_release", d.Install.HelmRelease)
	viper.SetDefault("install.ready_timeout", d.Install.ReadyTimeout)

	viper.SetDefault("health.server_selector", d.Health.ServerSelector)
	viper.SetDefault("health.scope", d.Health.Scope)

	viper.SetDefault("data_dir", d.DataDir)
	viper.SetDefault("log.level", d.Log.Level)

	viper.SetDefault("notifications.slack_token", d.Notifications.SlackToken)
	viper.SetDefault("notifications.slack_channel", d.Notifications.SlackChannel)
	viper.SetDefault("notifications.webhook_url", d.Notifications.WebhookURL)
	viper.SetDefault("notifications.triggers", d.Notifications.Triggers)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// WorkloadSelector returns the selector used for the workload health check
func (c *Config) WorkloadSelector() string {
	if c.Health.Scope == HealthScopeAll {
		return ""
	}
	return c.Health.ServerSelector
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "argolocal")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".argolocal"
	}
	return filepath.Join(home, ".config", "argolocal")
}

// ConfigFile returns the path to the user-level config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
