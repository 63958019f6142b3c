package runtime

import (
	yip "github.com/mudler/yip/pkg/schema"

	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
)

type containerdInstaller struct{}

func newContainerd(domain.ProvisionConfig) Installer { return containerdInstaller{} }

func (containerdInstaller) Kind() domain.RuntimeKind { return domain.RuntimeContainerd }

func (containerdInstaller) Endpoint() domain.RuntimeEndpoint {
	return endpointFor(domain.RuntimeContainerd)
}

func (containerdInstaller) Steps(domain.PlatformProfile) []orchestrator.Step {
	return []orchestrator.Step{
		{
			Families: []domain.Family{domain.FamilyDebian},
			Stage: yip.Stage{
				Name: "Install Containerd Packages",
				Commands: []string{
					"apt-get update",
					"apt-get install -y containerd",
				},
			},
		},
		{
			Families: []domain.Family{domain.FamilyRHEL},
			Stage: yip.Stage{
				Name: "Install Containerd Packages",
				Commands: []string{
					"yum install -y yum-utils",
					"yum-config-manager --add-repo https://download.docker.com/linux/centos/docker-ce.repo",
					"yum install -y containerd.io",
				},
			},
		},
		{
			Stage: yip.Stage{
				Name: "Configure And Start Containerd",
				Commands: []string{
					"mkdir -p /etc/containerd",
					// Kubernetes drives cgroups through systemd; the
					// stock containerd default does not.
					"containerd config default | sed 's/SystemdCgroup = false/SystemdCgroup = true/' > /etc/containerd/config.toml",
					"systemctl enable containerd",
					"systemctl restart containerd",
				},
			},
		},
	}
}
