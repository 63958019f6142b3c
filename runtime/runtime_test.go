package runtime

import (
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
)

func debianProfile() domain.PlatformProfile {
	return domain.PlatformProfile{
		Family:         domain.FamilyDebian,
		DistributionID: "ubuntu",
		VersionID:      "22.04",
		Arch:           domain.ArchAMD64,
	}
}

func TestForConfigEndpoints(t *testing.T) {
	tests := []struct {
		name           string
		runtime        domain.RuntimeKind
		expectedSocket string
	}{
		{name: "containerd", runtime: domain.RuntimeContainerd, expectedSocket: "unix:///run/containerd/containerd.sock"},
		{name: "crio", runtime: domain.RuntimeCRIO, expectedSocket: "unix:///var/run/crio/crio.sock"},
		{name: "docker", runtime: domain.RuntimeDocker, expectedSocket: "unix:///var/run/cri-dockerd.sock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			installer, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: tt.runtime, KubernetesVersion: "1.32.5"})

			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(installer.Kind()).To(Equal(tt.runtime))
			g.Expect(installer.Endpoint().Kind).To(Equal(tt.runtime))
			g.Expect(installer.Endpoint().SocketPath).To(Equal(tt.expectedSocket))
		})
	}
}

func TestForConfigUnknownRuntime(t *testing.T) {
	g := NewWithT(t)

	_, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: "podman"})

	var configErr *domain.ConfigError
	g.Expect(errors.As(err, &configErr)).To(BeTrue())
}

// The docker shim socket must never collide with the native runtime
// sockets, otherwise kubeadm would talk to the wrong endpoint.
func TestDockerEndpointDiffersFromNativeRuntimes(t *testing.T) {
	g := NewWithT(t)

	docker, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: domain.RuntimeDocker})
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(docker.Endpoint().SocketPath).NotTo(Equal(domain.ContainerdSocket))
	g.Expect(docker.Endpoint().SocketPath).NotTo(Equal(domain.CRIOSocket))
}

func TestContainerdSteps(t *testing.T) {
	g := NewWithT(t)

	installer, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: domain.RuntimeContainerd})
	g.Expect(err).NotTo(HaveOccurred())

	steps := installer.Steps(debianProfile())
	g.Expect(steps).To(HaveLen(3))

	g.Expect(steps[0].Families).To(Equal([]domain.Family{domain.FamilyDebian}))
	g.Expect(steps[1].Families).To(Equal([]domain.Family{domain.FamilyRHEL}))

	configure := steps[2]
	g.Expect(configure.Families).To(BeEmpty())
	g.Expect(strings.Join(configure.Stage.Commands, "\n")).To(ContainSubstring("SystemdCgroup = true"))
	g.Expect(configure.Stage.Commands).To(ContainElement("systemctl enable containerd"))
}

func TestCRIOStepsUseMatchingMinorRepo(t *testing.T) {
	g := NewWithT(t)

	installer, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: domain.RuntimeCRIO, KubernetesVersion: "1.32.5"})
	g.Expect(err).NotTo(HaveOccurred())

	steps := installer.Steps(debianProfile())
	g.Expect(steps).To(HaveLen(3))

	debian := steps[0]
	g.Expect(strings.Join(debian.Stage.Commands, "\n")).To(ContainSubstring("pkgs.k8s.io/addons:/cri-o:/stable:/v1.32/deb/"))

	rhel := steps[1]
	g.Expect(rhel.Stage.Files[0].Content).To(ContainSubstring("pkgs.k8s.io/addons:/cri-o:/stable:/v1.32/rpm/"))

	g.Expect(steps[2].Stage.Commands).To(ContainElement("systemctl enable crio"))
}

// On a fresh Debian host the cri-o keyring must land before apt ever sees
// the cri-o sources list, or the first apt-get update fails signature
// verification and the step never recovers.
func TestCRIODebianKeyringBeforeRepoList(t *testing.T) {
	g := NewWithT(t)

	installer, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: domain.RuntimeCRIO, KubernetesVersion: "1.32.5"})
	g.Expect(err).NotTo(HaveOccurred())

	debian := installer.Steps(debianProfile())[0]
	commands := debian.Stage.Commands

	g.Expect(debian.Stage.Files).To(BeEmpty())

	keyring := commandIndex(commands, "cri-o-apt-keyring.gpg")
	repoList := commandIndex(commands, "> /etc/apt/sources.list.d/cri-o.list")
	install := commandIndex(commands, "apt-get install -y cri-o")

	g.Expect(keyring).To(BeNumerically(">=", 0))
	g.Expect(repoList).To(BeNumerically(">", keyring))
	g.Expect(install).To(BeNumerically(">", repoList))
	g.Expect(commands[repoList+1:install]).To(ContainElement("apt-get update"))
}

func commandIndex(commands []string, substring string) int {
	for i, command := range commands {
		if strings.Contains(command, substring) {
			return i
		}
	}
	return -1
}

func TestDockerStepsInstallShimOnce(t *testing.T) {
	g := NewWithT(t)

	installer, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: domain.RuntimeDocker})
	g.Expect(err).NotTo(HaveOccurred())

	steps := installer.Steps(debianProfile())

	var shim *orchestrator.Step
	for i := range steps {
		if steps[i].Stage.Name == "Install CRI Dockerd Shim" {
			shim = &steps[i]
		}
	}

	g.Expect(shim).NotTo(BeNil())
	// Guarded on the installed binary so a re-run does not reinstall.
	g.Expect(shim.Stage.If).To(Equal("[ ! -x /usr/local/bin/cri-dockerd ]"))
	g.Expect(strings.Join(shim.Stage.Commands, "\n")).To(ContainSubstring("cri-dockerd-" + domain.CRIDockerdVersion + ".amd64.tgz"))
}

func TestSupportsArch(t *testing.T) {
	tests := []struct {
		name     string
		runtime  domain.RuntimeKind
		arch     domain.Arch
		expected bool
	}{
		{name: "containerd_on_arm", runtime: domain.RuntimeContainerd, arch: domain.ArchARM, expected: true},
		{name: "crio_on_arm", runtime: domain.RuntimeCRIO, arch: domain.ArchARM, expected: true},
		{name: "docker_on_amd64", runtime: domain.RuntimeDocker, arch: domain.ArchAMD64, expected: true},
		{name: "docker_on_arm64", runtime: domain.RuntimeDocker, arch: domain.ArchARM64, expected: true},
		// Mirantis ships no 32-bit arm cri-dockerd tarball, so the docker
		// variant must be refused up front instead of 404ing mid-run.
		{name: "docker_on_arm", runtime: domain.RuntimeDocker, arch: domain.ArchARM, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			g.Expect(SupportsArch(tt.runtime, tt.arch)).To(Equal(tt.expected))
		})
	}
}

func TestDockerShimArchFollowsProfile(t *testing.T) {
	g := NewWithT(t)

	installer, err := ForConfig(domain.ProvisionConfig{ContainerRuntime: domain.RuntimeDocker})
	g.Expect(err).NotTo(HaveOccurred())

	profile := debianProfile()
	profile.Arch = domain.ArchARM64

	steps := installer.Steps(profile)
	var commands []string
	for _, step := range steps {
		commands = append(commands, step.Stage.Commands...)
	}

	g.Expect(strings.Join(commands, "\n")).To(ContainSubstring(".arm64.tgz"))
}
