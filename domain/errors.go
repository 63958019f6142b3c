package domain

import (
	"fmt"
	"strings"
)

// ConfigError reports a configuration value outside its accepted set.
type ConfigError struct {
	Key     string
	Value   string
	Allowed []string
}

func (e *ConfigError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid value %q for %s", e.Value, e.Key)
	}
	return fmt.Sprintf("invalid value %q for %s, must be one of: %s", e.Value, e.Key, strings.Join(e.Allowed, ", "))
}

// UnsupportedPlatformError reports a distribution the provisioner does not
// know how to handle at all.
type UnsupportedPlatformError struct {
	DistributionID string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported distribution %q", e.DistributionID)
}

// UntestedVersionError reports a recognized distribution on a release that
// is not on the tested allow-list and AllowUntested was not set.
type UntestedVersionError struct {
	DistributionID string
	VersionID      string
}

func (e *UntestedVersionError) Error() string {
	return fmt.Sprintf("%s %s has not been tested with this provisioner, set ALLOW_UNTESTED=true to proceed anyway", e.DistributionID, e.VersionID)
}

// UnsupportedArchitectureError reports a machine architecture outside the
// supported set.
type UnsupportedArchitectureError struct {
	Machine string
}

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported machine architecture %q", e.Machine)
}

// ServiceStartError wraps the failure of a provisioning step, typically a
// package install or a service that refused to start. Fatal: the pipeline
// halts and the host is left partially provisioned for the operator to
// remediate.
type ServiceStartError struct {
	Step string
	Err  error
}

func (e *ServiceStartError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *ServiceStartError) Unwrap() error { return e.Err }

// NetworkPollTimeout reports that the CNI workload did not become ready
// within the bounded wait. Advisory only, the run continues.
type NetworkPollTimeout struct {
	Namespace string
	Err       error
}

func (e *NetworkPollTimeout) Error() string {
	return fmt.Sprintf("pod network in namespace %q not ready within the wait window: %v", e.Namespace, e.Err)
}

func (e *NetworkPollTimeout) Unwrap() error { return e.Err }

// RemoteCopyError reports a failed fetch of the admin kubeconfig from the
// control-plane. Advisory only, manual instructions are printed instead.
type RemoteCopyError struct {
	Host string
	Err  error
}

func (e *RemoteCopyError) Error() string {
	return fmt.Sprintf("could not copy admin kubeconfig from %s: %v", e.Host, e.Err)
}

func (e *RemoteCopyError) Unwrap() error { return e.Err }
