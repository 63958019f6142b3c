package stages

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/uthrapathy-m/cks-course-environment/domain"
)

func TestGetShellSetupStage(t *testing.T) {
	tests := []struct {
		name             string
		endpoint         domain.RuntimeEndpoint
		expectedEndpoint string
	}{
		{
			name:             "containerd",
			endpoint:         domain.RuntimeEndpoint{Kind: domain.RuntimeContainerd, SocketPath: domain.ContainerdSocket},
			expectedEndpoint: "unix:///run/containerd/containerd.sock",
		},
		{
			name:             "crio",
			endpoint:         domain.RuntimeEndpoint{Kind: domain.RuntimeCRIO, SocketPath: domain.CRIOSocket},
			expectedEndpoint: "unix:///var/run/crio/crio.sock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			step := GetShellSetupStage(tt.endpoint)

			g.Expect(step.Stage.Name).To(Equal("Configure CRI Client And Shell"))
			g.Expect(step.Stage.Files).To(HaveLen(2))
			g.Expect(step.Stage.Files[0].Path).To(Equal(domain.CrictlConfigPath))
			g.Expect(step.Stage.Files[0].Content).To(ContainSubstring("runtime-endpoint: " + tt.expectedEndpoint))
			g.Expect(step.Stage.Files[1].Path).To(Equal(domain.KubectlProfilePath))
			g.Expect(step.Stage.Files[1].Content).To(ContainSubstring("alias k=kubectl"))
		})
	}
}

func TestGetSwapOffStage(t *testing.T) {
	g := NewWithT(t)

	step := GetSwapOffStage()

	g.Expect(step.Stage.Name).To(Equal("Disable Swap"))
	g.Expect(step.Stage.Commands).To(HaveLen(2))
	g.Expect(step.Stage.Commands[0]).To(Equal("sed -i '/ swap / s/^\\(.*\\)$/#\\1/g' /etc/fstab"))
	g.Expect(step.Stage.Commands[1]).To(Equal("swapoff -a"))
	g.Expect(step.Families).To(BeEmpty())
}

func TestGetKernelTuningStage(t *testing.T) {
	g := NewWithT(t)

	step := GetKernelTuningStage()

	g.Expect(step.Stage.Files).To(HaveLen(2))
	g.Expect(step.Stage.Files[0].Path).To(Equal(domain.ModulesConfPath))
	g.Expect(step.Stage.Files[0].Content).To(ContainSubstring("br_netfilter"))
	g.Expect(step.Stage.Files[1].Path).To(Equal(domain.SysctlConfPath))
	g.Expect(step.Stage.Files[1].Content).To(ContainSubstring("net.bridge.bridge-nf-call-iptables = 1"))
	g.Expect(step.Stage.Files[1].Content).To(ContainSubstring("net.ipv4.ip_forward = 1"))
	g.Expect(step.Stage.Commands).To(ContainElement("sysctl --system"))
}

func TestGetSELinuxPermissiveStage(t *testing.T) {
	tests := []struct {
		name             string
		disableSecurity  bool
		expectedDisabled bool
	}{
		{name: "secure_default", disableSecurity: false, expectedDisabled: true},
		{name: "lab_mode", disableSecurity: true, expectedDisabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			step := GetSELinuxPermissiveStage(domain.ProvisionConfig{DisableSecurity: tt.disableSecurity})

			g.Expect(step.Families).To(Equal([]domain.Family{domain.FamilyRHEL}))
			g.Expect(step.Disabled).To(Equal(tt.expectedDisabled))
			g.Expect(step.Stage.Commands).To(ContainElement("setenforce 0 || true"))
		})
	}
}

func TestGetFirewallDisableStages(t *testing.T) {
	g := NewWithT(t)

	steps := GetFirewallDisableStages(domain.ProvisionConfig{DisableSecurity: true})

	g.Expect(steps).To(HaveLen(2))
	g.Expect(steps[0].Families).To(Equal([]domain.Family{domain.FamilyDebian}))
	g.Expect(steps[0].Stage.Commands).To(ContainElement("ufw disable"))
	g.Expect(steps[1].Families).To(Equal([]domain.Family{domain.FamilyRHEL}))
	g.Expect(steps[1].Stage.Commands).To(ContainElement("systemctl disable --now firewalld"))
	for _, step := range steps {
		g.Expect(step.Disabled).To(BeFalse())
	}

	for _, step := range GetFirewallDisableStages(domain.ProvisionConfig{}) {
		g.Expect(step.Disabled).To(BeTrue())
	}
}

func TestGetKubePackageStages(t *testing.T) {
	g := NewWithT(t)

	cfg := domain.ProvisionConfig{KubernetesVersion: "1.32.5"}
	steps := GetKubePackageStages(cfg)

	g.Expect(steps).To(HaveLen(2))

	debian := steps[0]
	g.Expect(debian.Families).To(Equal([]domain.Family{domain.FamilyDebian}))
	g.Expect(strings.Join(debian.Stage.Commands, "\n")).To(ContainSubstring("pkgs.k8s.io/core:/stable:/v1.32/deb/"))
	g.Expect(debian.Stage.Commands).To(ContainElement("apt-get install -y kubelet=1.32.5-* kubeadm=1.32.5-* kubectl=1.32.5-*"))
	g.Expect(debian.Stage.Commands).To(ContainElement("apt-mark hold kubelet kubeadm kubectl"))

	rhel := steps[1]
	g.Expect(rhel.Families).To(Equal([]domain.Family{domain.FamilyRHEL}))
	g.Expect(rhel.Stage.Files[0].Path).To(Equal("/etc/yum.repos.d/kubernetes.repo"))
	g.Expect(rhel.Stage.Files[0].Content).To(ContainSubstring("pkgs.k8s.io/core:/stable:/v1.32/rpm/"))
	g.Expect(rhel.Stage.Commands).To(ContainElement("yum install -y kubelet-1.32.5 kubeadm-1.32.5 kubectl-1.32.5 --disableexcludes=kubernetes"))

	for _, step := range steps {
		g.Expect(step.Stage.Commands).To(ContainElement("systemctl enable kubelet"))
	}
}

// On a fresh Debian host the repo keyring must land before apt ever sees
// the kubernetes sources list, or the first apt-get update fails signature
// verification and the step never recovers.
func TestKubePackagesDebianKeyringBeforeRepoList(t *testing.T) {
	g := NewWithT(t)

	debian := GetKubePackageStages(domain.ProvisionConfig{KubernetesVersion: "1.32.5"})[0]
	commands := debian.Stage.Commands

	g.Expect(debian.Stage.Files).To(BeEmpty())

	keyring := commandIndex(commands, "kubernetes-apt-keyring.gpg")
	repoList := commandIndex(commands, "> /etc/apt/sources.list.d/kubernetes.list")
	install := commandIndex(commands, "apt-get install -y kubelet")

	g.Expect(keyring).To(BeNumerically(">=", 0))
	g.Expect(repoList).To(BeNumerically(">", keyring))
	g.Expect(install).To(BeNumerically(">", repoList))

	// The new repo still needs a cache refresh before the pinned install.
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
