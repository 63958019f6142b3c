// Package runtime installs the container runtime selected for the run and
// reports the CRI endpoint kubeadm must be pointed at. One installer per
// supported runtime, selected by lookup rather than branching.
package runtime

import (
	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
)

// Installer is the capability each runtime variant implements: produce the
// install steps for a platform and name the socket the runtime serves CRI
// on once those steps succeed.
type Installer interface {
	Kind() domain.RuntimeKind
	Endpoint() domain.RuntimeEndpoint
	Steps(profile domain.PlatformProfile) []orchestrator.Step
}

var installers = map[domain.RuntimeKind]func(domain.ProvisionConfig) Installer{
	domain.RuntimeContainerd: newContainerd,
	domain.RuntimeCRIO:       newCRIO,
	domain.RuntimeDocker:     newDocker,
}

// ForConfig selects the installer for the configured runtime.
func ForConfig(cfg domain.ProvisionConfig) (Installer, error) {
	build, ok := installers[cfg.ContainerRuntime]
	if !ok {
		return nil, &domain.ConfigError{Key: "container runtime", Value: string(cfg.ContainerRuntime)}
	}
	return build(cfg), nil
}

// criDockerdArches are the architectures Mirantis publishes cri-dockerd
// release tarballs for. There is no 32-bit arm asset.
var criDockerdArches = map[domain.Arch]bool{
	domain.ArchAMD64: true,
	domain.ArchARM64: true,
}

// SupportsArch reports whether the runtime can be installed on the
// architecture. Only docker is constrained, through its cri-dockerd shim.
func SupportsArch(kind domain.RuntimeKind, arch domain.Arch) bool {
	if kind != domain.RuntimeDocker {
		return true
	}
	return criDockerdArches[arch]
}

func endpointFor(kind domain.RuntimeKind) domain.RuntimeEndpoint {
	return domain.RuntimeEndpoint{
		Kind:       kind,
		SocketPath: domain.SocketForRuntime[kind],
	}
}
