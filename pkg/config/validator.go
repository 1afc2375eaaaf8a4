package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "tunnel.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// kind accepts lowercase DNS-ish names
var clusterNameRegex = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if !clusterNameRegex.MatchString(c.Cluster.Name) {
		errs = append(errs, ValidationError{
			Field:   "cluster.name",
			Value:   c.Cluster.Name,
			Message: "must be lowercase alphanumeric with optional hyphens",
		})
	}
	if c.Cluster.Wait < 0 {
		errs = append(errs, ValidationError{Field: "cluster.wait", Value: c.Cluster.Wait, Message: "must not be negative"})
	}

	if msgs := validation.IsDNS1123Label(c.Namespace); len(msgs) > 0 {
		errs = append(errs, ValidationError{Field: "namespace", Value: c.Namespace, Message: strings.Join(msgs, "; ")})
	}

	errs = append(errs, validatePort("tunnel.port", c.Tunnel.Port)...)
	errs = append(errs, validatePort("tunnel.remote_port", c.Tunnel.RemotePort)...)
	if c.Tunnel.Service == "" {
		errs = append(errs, ValidationError{Field: "tunnel.service", Value: c.Tunnel.Service, Message: "must not be empty"})
	}
	if c.Tunnel.BindDelay < 0 {
		errs = append(errs, ValidationError{Field: "tunnel.bind_delay", Value: c.Tunnel.BindDelay, Message: "must not be negative"})
	}
	if c.Tunnel.SettleDelay < 0 {
		errs = append(errs, ValidationError{Field: "tunnel.settle_delay", Value: c.Tunnel.SettleDelay, Message: "must not be negative"})
	}

	switch c.Install.Method {
	case InstallMethodManifest:
		if c.Install.ManifestURL == "" {
			errs = append(errs, ValidationError{Field: "install.manifest_url", Value: c.Install.ManifestURL, Message: "required when install.method is manifest"})
		}
	case InstallMethodHelm:
		if c.Install.HelmChart == "" || c.Install.HelmRelease == "" {
			errs = append(errs, ValidationError{Field: "install.helm_chart", Value: c.Install.HelmChart, Message: "chart and release are required when install.method is helm"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "install.method",
			Value:   c.Install.Method,
			Message: fmt.Sprintf("must be one of: %s, %s", InstallMethodManifest, InstallMethodHelm),
		})
	}
	if c.Install.ReadyTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "install.ready_timeout", Value: c.Install.ReadyTimeout, Message: "must be positive"})
	}

	if _, err := labels.Parse(c.Health.ServerSelector); err != nil || c.Health.ServerSelector == "" {
		errs = append(errs, ValidationError{Field: "health.server_selector", Value: c.Health.ServerSelector, Message: "must be a non-empty label selector"})
	}
	if c.Health.Scope != HealthScopeServer && c.Health.Scope != HealthScopeAll {
		errs = append(errs, ValidationError{
			Field:   "health.scope",
			Value:   c.Health.Scope,
			Message: fmt.Sprintf("must be one of: %s, %s", HealthScopeServer, HealthScopeAll),
		})
	}

	if c.DataDir == "" {
		errs = append(errs, ValidationError{Field: "data_dir", Value: c.DataDir, Message: "must not be empty"})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errs
}

func validatePort(field string, port int) []ValidationError {
	if port < 1 || port > 65535 {
		return []ValidationError{{Field: field, Value: port, Message: "must be between 1 and 65535"}}
	}
	return nil
}
