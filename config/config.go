// Package config resolves the provisioning configuration from the process
// environment, with an optional dotenv file for lab setups that keep their
// knobs next to the machine image.
package config

import (
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/uthrapathy-m/cks-course-environment/domain"
)

// Environment variable names, one per knob.
const (
	EnvKubernetesVersion = "KUBERNETES_VERSION"
	EnvContainerRuntime  = "CONTAINER_RUNTIME"
	EnvCNIPlugin         = "CNI_PLUGIN"
	EnvPodNetworkCidr    = "POD_NETWORK_CIDR"
	EnvAllowUntested     = "ALLOW_UNTESTED"
	EnvDisableSecurity   = "DISABLE_SECURITY"
	EnvControlPlaneHost  = "CONTROL_PLANE_HOST"
	EnvControlPlaneUser  = "CONTROL_PLANE_USER"
	EnvKubeadmOptions    = "KUBEADM_OPTIONS"
)

// Overrides are values supplied on the command line. A non-zero field wins
// over the environment.
type Overrides struct {
	KubernetesVersion string
	ContainerRuntime  string
	CNIPlugin         string
	PodNetworkCidr    string
	AllowUntested     bool
	DisableSecurity   bool
	ControlPlaneHost  string
	ControlPlaneUser  string
	EnvFile           string
}

// Resolve builds the immutable ProvisionConfig for a run. Values come from
// the environment with documented defaults; flag overrides win. Enum knobs
// are validated against their closed sets.
func Resolve(role domain.NodeRole, o Overrides) (domain.ProvisionConfig, error) {
	var cfg domain.ProvisionConfig

	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil {
			return cfg, &domain.ConfigError{Key: "env-file", Value: o.EnvFile}
		}
	}

	cfg.Role = role
	cfg.KubernetesVersion = firstOf(o.KubernetesVersion, getenv(EnvKubernetesVersion, domain.DefaultKubernetesVersion))
	cfg.PodNetworkCidr = firstOf(o.PodNetworkCidr, getenv(EnvPodNetworkCidr, domain.DefaultPodNetworkCidr))
	cfg.ControlPlaneHost = firstOf(o.ControlPlaneHost, os.Getenv(EnvControlPlaneHost))
	cfg.ControlPlaneUser = firstOf(o.ControlPlaneUser, getenv(EnvControlPlaneUser, "root"))
	cfg.KubeadmOptions = os.Getenv(EnvKubeadmOptions)
	cfg.AllowUntested = o.AllowUntested || boolenv(EnvAllowUntested)
	cfg.DisableSecurity = o.DisableSecurity || boolenv(EnvDisableSecurity)

	runtime := firstOf(o.ContainerRuntime, getenv(EnvContainerRuntime, string(domain.RuntimeContainerd)))
	kind, err := parseRuntime(runtime)
	if err != nil {
		return cfg, err
	}
	cfg.ContainerRuntime = kind

	plugin := firstOf(o.CNIPlugin, getenv(EnvCNIPlugin, string(domain.CNIWeave)))
	cni, err := parseCNI(plugin)
	if err != nil {
		return cfg, err
	}
	cfg.CNIPlugin = cni

	if _, _, err := net.ParseCIDR(cfg.PodNetworkCidr); err != nil {
		return cfg, &domain.ConfigError{Key: EnvPodNetworkCidr, Value: cfg.PodNetworkCidr}
	}

	return cfg, nil
}

func parseRuntime(value string) (domain.RuntimeKind, error) {
	for _, kind := range domain.RuntimeKinds {
		if value == string(kind) {
			return kind, nil
		}
	}
	return "", &domain.ConfigError{
		Key:     EnvContainerRuntime,
		Value:   value,
		Allowed: runtimeNames(),
	}
}

func parseCNI(value string) (domain.CNIPlugin, error) {
	for _, plugin := range domain.CNIPlugins {
		if value == string(plugin) {
			return plugin, nil
		}
	}
	return "", &domain.ConfigError{
		Key:     EnvCNIPlugin,
		Value:   value,
		Allowed: cniNames(),
	}
}

func runtimeNames() []string {
	names := make([]string, 0, len(domain.RuntimeKinds))
	for _, kind := range domain.RuntimeKinds {
		names = append(names, string(kind))
	}
	return names
}

func cniNames() []string {
	names := make([]string, 0, len(domain.CNIPlugins))
	for _, plugin := range domain.CNIPlugins {
		names = append(names, string(plugin))
	}
	return names
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func boolenv(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && value
}

func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
