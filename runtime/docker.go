package runtime

import (
	"fmt"

	yip "github.com/mudler/yip/pkg/schema"

	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
)

type dockerInstaller struct{}

func newDocker(domain.ProvisionConfig) Installer { return dockerInstaller{} }

func (dockerInstaller) Kind() domain.RuntimeKind { return domain.RuntimeDocker }

func (dockerInstaller) Endpoint() domain.RuntimeEndpoint {
	return endpointFor(domain.RuntimeDocker)
}

// Steps installs Docker plus the cri-dockerd shim. Docker does not speak
// CRI itself, so kubeadm talks to the shim's socket instead of Docker's.
func (dockerInstaller) Steps(profile domain.PlatformProfile) []orchestrator.Step {
	return []orchestrator.Step{
		{
			Families: []domain.Family{domain.FamilyDebian},
			Stage: yip.Stage{
				Name: "Install Docker Packages",
				Commands: []string{
					"apt-get update",
					"apt-get install -y docker.io",
				},
			},
		},
		{
			Families: []domain.Family{domain.FamilyRHEL},
			Stage: yip.Stage{
				Name: "Install Docker Packages",
				Commands: []string{
					"yum install -y yum-utils",
					"yum-config-manager --add-repo https://download.docker.com/linux/centos/docker-ce.repo",
					"yum install -y docker-ce docker-ce-cli",
				},
			},
		},
		{
			Stage: yip.Stage{
				Name: "Start Docker",
				Commands: []string{
					"systemctl enable docker",
					"systemctl restart docker",
				},
			},
		},
		getCRIDockerdStage(profile.Arch),
		{
			Stage: yip.Stage{
				Name: "Start CRI Dockerd",
				Commands: []string{
					"systemctl enable cri-docker.service cri-docker.socket",
					"systemctl restart cri-docker.service",
				},
			},
		},
	}
}

// getCRIDockerdStage fetches the pinned cri-dockerd release binary and its
// systemd units. Guarded on the binary path so a re-run installs the shim
// exactly once.
func getCRIDockerdStage(arch domain.Arch) orchestrator.Step {
	version := domain.CRIDockerdVersion
	tarball := fmt.Sprintf("https://github.com/Mirantis/cri-dockerd/releases/download/v%s/cri-dockerd-%s.%s.tgz", version, version, arch)
	packaging := fmt.Sprintf("https://raw.githubusercontent.com/Mirantis/cri-dockerd/v%s/packaging/systemd", version)

	return orchestrator.Step{
		Stage: yip.Stage{
			Name: "Install CRI Dockerd Shim",
			If:   "[ ! -x /usr/local/bin/cri-dockerd ]",
			Commands: []string{
				fmt.Sprintf("curl -fsSL %s | tar -xz -C /tmp", tarball),
				"install -o root -g root -m 0755 /tmp/cri-dockerd/cri-dockerd /usr/local/bin/cri-dockerd",
				fmt.Sprintf("curl -fsSL %s/cri-docker.service -o /etc/systemd/system/cri-docker.service", packaging),
				fmt.Sprintf("curl -fsSL %s/cri-docker.socket -o /etc/systemd/system/cri-docker.socket", packaging),
				"sed -i 's,/usr/bin/cri-dockerd,/usr/local/bin/cri-dockerd,' /etc/systemd/system/cri-docker.service",
				"systemctl daemon-reload",
			},
		},
	}
}
