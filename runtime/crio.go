package runtime

import (
	"fmt"

	yip "github.com/mudler/yip/pkg/schema"

	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
	"github.com/uthrapathy-m/cks-course-environment/utils"
)

type crioInstaller struct {
	kubernetesVersion string
}

func newCRIO(cfg domain.ProvisionConfig) Installer {
	return crioInstaller{kubernetesVersion: cfg.KubernetesVersion}
}

func (crioInstaller) Kind() domain.RuntimeKind { return domain.RuntimeCRIO }

func (crioInstaller) Endpoint() domain.RuntimeEndpoint {
	return endpointFor(domain.RuntimeCRIO)
}

// Steps adds the pkgs.k8s.io cri-o add-on repository matching the
// Kubernetes minor series, installs cri-o and starts it.
func (c crioInstaller) Steps(domain.PlatformProfile) []orchestrator.Step {
	repoURL := fmt.Sprintf("https://pkgs.k8s.io/addons:/cri-o:/stable:/v%s", utils.MinorVersion(c.kubernetesVersion))

	yumRepo := fmt.Sprintf(`[cri-o]
name=CRI-O
baseurl=%s/rpm/
enabled=1
gpgcheck=1
gpgkey=%s/rpm/repodata/repomd.xml.key
`, repoURL, repoURL)

	return []orchestrator.Step{
		{
			Families: []domain.Family{domain.FamilyDebian},
			Stage: yip.Stage{
				Name: "Install CRI-O Packages",
				Commands: []string{
					"apt-get update",
					"apt-get install -y apt-transport-https ca-certificates curl gpg",
					"mkdir -p /etc/apt/keyrings",
					fmt.Sprintf("curl -fsSL %s/deb/Release.key | gpg --dearmor --yes -o /etc/apt/keyrings/cri-o-apt-keyring.gpg", repoURL),
					// The sources list must not exist before its keyring
					// does, or every apt-get update fails verification.
					fmt.Sprintf("echo 'deb [signed-by=/etc/apt/keyrings/cri-o-apt-keyring.gpg] %s/deb/ /' > /etc/apt/sources.list.d/cri-o.list", repoURL),
					"apt-get update",
					"apt-get install -y cri-o",
				},
			},
		},
		{
			Families: []domain.Family{domain.FamilyRHEL},
			Stage: yip.Stage{
				Name: "Install CRI-O Packages",
				Files: []yip.File{
					{
						Path:        "/etc/yum.repos.d/cri-o.repo",
						Permissions: 0644,
						Content:     yumRepo,
					},
				},
				Commands: []string{
					"yum install -y cri-o",
				},
			},
		},
		{
			Stage: yip.Stage{
				Name: "Start CRI-O",
				Commands: []string{
					"systemctl enable crio",
					"systemctl restart crio",
				},
			},
		},
	}
}
