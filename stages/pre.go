// Package stages builds the host-preparation steps shared by both node
// roles: hostname normalization, CRI client and shell setup, swap and
// kernel tuning, the opt-in security relaxations, and the Kubernetes
// package install.
package stages

import (
	"fmt"

	yip "github.com/mudler/yip/pkg/schema"

	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
	"github.com/uthrapathy-m/cks-course-environment/utils"
)

func GetHostnameStage() orchestrator.Step {
	return orchestrator.Step{
		Stage: yip.Stage{
			Name: "Normalize Hostname",
			Commands: []string{
				"hostnamectl set-hostname \"$(hostname | tr '[:upper:]' '[:lower:]')\"",
			},
		},
	}
}

// GetShellSetupStage writes the crictl client config pointed at the chosen
// CRI socket and a profile.d snippet with the kubectl alias and completion.
// Both files are rendered whole, so re-runs overwrite instead of append.
func GetShellSetupStage(endpoint domain.RuntimeEndpoint) orchestrator.Step {
	crictlConf := fmt.Sprintf("runtime-endpoint: %s\nimage-endpoint: %s\ntimeout: 5\n", endpoint.SocketPath, endpoint.SocketPath)

	kubectlProfile := `alias k=kubectl
source <(kubectl completion bash 2>/dev/null)
complete -o default -F __start_kubectl k 2>/dev/null
export KUBE_EDITOR=vim
`

	return orchestrator.Step{
		Stage: yip.Stage{
			Name: "Configure CRI Client And Shell",
			Files: []yip.File{
				{
					Path:        domain.CrictlConfigPath,
					Permissions: 0644,
					Content:     crictlConf,
				},
				{
					Path:        domain.KubectlProfilePath,
					Permissions: 0644,
					Content:     kubectlProfile,
				},
			},
		},
	}
}

func GetSwapOffStage() orchestrator.Step {
	return orchestrator.Step{
		Stage: yip.Stage{
			Name: "Disable Swap",
			Commands: []string{
				"sed -i '/ swap / s/^\\(.*\\)$/#\\1/g' /etc/fstab",
				"swapoff -a",
			},
		},
	}
}

// GetKernelTuningStage loads the bridge and overlay modules and enables the
// bridged-traffic and forwarding sysctls kubeadm preflight expects.
func GetKernelTuningStage() orchestrator.Step {
	modulesConf := "overlay\nbr_netfilter\n"
	sysctlConf := `net.bridge.bridge-nf-call-iptables = 1
net.bridge.bridge-nf-call-ip6tables = 1
net.ipv4.ip_forward = 1
`

	return orchestrator.Step{
		Stage: yip.Stage{
			Name: "Tune Kernel For Kubernetes",
			Files: []yip.File{
				{
					Path:        domain.ModulesConfPath,
					Permissions: 0644,
					Content:     modulesConf,
				},
				{
					Path:        domain.SysctlConfPath,
					Permissions: 0644,
					Content:     sysctlConf,
				},
			},
			Commands: []string{
				"modprobe overlay",
				"modprobe br_netfilter",
				"sysctl --system",
			},
		},
	}
}

// GetSELinuxPermissiveStage relaxes SELinux on rhel-family hosts. Only
// assembled into the pipeline when the run opts into lab mode.
func GetSELinuxPermissiveStage(cfg domain.ProvisionConfig) orchestrator.Step {
	return orchestrator.Step{
		Families: []domain.Family{domain.FamilyRHEL},
		Disabled: !cfg.DisableSecurity,
		Stage: yip.Stage{
			Name: "Set SELinux Permissive",
			If:   "[ -f /etc/selinux/config ]",
			Commands: []string{
				"setenforce 0 || true",
				"sed -i 's/^SELINUX=enforcing$/SELINUX=permissive/' /etc/selinux/config",
			},
		},
	}
}

// GetFirewallDisableStages stops the host firewall, one variant per family.
// Only active when the run opts into lab mode.
func GetFirewallDisableStages(cfg domain.ProvisionConfig) []orchestrator.Step {
	return []orchestrator.Step{
		{
			Families: []domain.Family{domain.FamilyDebian},
			Disabled: !cfg.DisableSecurity,
			Stage: yip.Stage{
				Name: "Disable UFW Firewall",
				If:   "command -v ufw",
				Commands: []string{
					"ufw disable",
				},
			},
		},
		{
			Families: []domain.Family{domain.FamilyRHEL},
			Disabled: !cfg.DisableSecurity,
			Stage: yip.Stage{
				Name: "Disable Firewalld",
				If:   "systemctl list-unit-files firewalld.service --no-legend | grep -q firewalld",
				Commands: []string{
					"systemctl disable --now firewalld",
				},
			},
		},
	}
}

// GetKubePackageStages installs kubelet, kubeadm and kubectl pinned to the
// configured version from the pkgs.k8s.io repository for that minor series,
// one variant per family.
func GetKubePackageStages(cfg domain.ProvisionConfig) []orchestrator.Step {
	minor := utils.MinorVersion(cfg.KubernetesVersion)
	repoURL := fmt.Sprintf("https://pkgs.k8s.io/core:/stable:/v%s", minor)

	yumRepo := fmt.Sprintf(`[kubernetes]
name=Kubernetes
baseurl=%s/rpm/
enabled=1
gpgcheck=1
gpgkey=%s/rpm/repodata/repomd.xml.key
exclude=kubelet kubeadm kubectl cri-tools kubernetes-cni
`, repoURL, repoURL)

	return []orchestrator.Step{
		{
			Families: []domain.Family{domain.FamilyDebian},
			Stage: yip.Stage{
				Name: "Install Kubernetes Packages",
				Commands: []string{
					"apt-get update",
					"apt-get install -y apt-transport-https ca-certificates curl gpg",
					"mkdir -p /etc/apt/keyrings",
					fmt.Sprintf("curl -fsSL %s/deb/Release.key | gpg --dearmor --yes -o /etc/apt/keyrings/kubernetes-apt-keyring.gpg", repoURL),
					// The sources list must not exist before its keyring
					// does, or every apt-get update fails verification.
					fmt.Sprintf("echo 'deb [signed-by=/etc/apt/keyrings/kubernetes-apt-keyring.gpg] %s/deb/ /' > /etc/apt/sources.list.d/kubernetes.list", repoURL),
					"apt-get update",
					fmt.Sprintf("apt-get install -y kubelet=%s-* kubeadm=%s-* kubectl=%s-*", cfg.KubernetesVersion, cfg.KubernetesVersion, cfg.KubernetesVersion),
					"apt-mark hold kubelet kubeadm kubectl",
					"systemctl enable kubelet",
				},
			},
		},
		{
			Families: []domain.Family{domain.FamilyRHEL},
			Stage: yip.Stage{
				Name: "Install Kubernetes Packages",
				Files: []yip.File{
					{
						Path:        "/etc/yum.repos.d/kubernetes.repo",
						Permissions: 0644,
						Content:     yumRepo,
					},
				},
				Commands: []string{
					fmt.Sprintf("yum install -y kubelet-%s kubeadm-%s kubectl-%s --disableexcludes=kubernetes", cfg.KubernetesVersion, cfg.KubernetesVersion, cfg.KubernetesVersion),
					"systemctl enable kubelet",
				},
			},
		},
	}
}
