package domain

const (
	DefaultKubernetesVersion = "1.32.5"
	DefaultPodNetworkCidr    = "192.168.0.0/16"

	DefaultAPIAdvertiseAddress = "0.0.0.0"
	APIServerBindPort          = 6443

	ContainerdSocket = "unix:///run/containerd/containerd.sock"
	CRIOSocket       = "unix:///var/run/crio/crio.sock"
	CRIDockerdSocket = "unix:///var/run/cri-dockerd.sock"

	// cri-dockerd is the external CRI shim required for the docker runtime.
	CRIDockerdVersion = "0.3.16"

	AdminKubeconfigPath = "/etc/kubernetes/admin.conf"
	KubeadmConfigPath   = "/etc/kubernetes/kubeadm-config.yaml"
	LocalKubeconfigPath = "/root/.kube/config"

	CrictlConfigPath    = "/etc/crictl.yaml"
	ModulesConfPath     = "/etc/modules-load.d/k8s.conf"
	SysctlConfPath      = "/etc/sysctl.d/k8s.conf"
	KubectlProfilePath  = "/etc/profile.d/kubectl.sh"
	KubeconfigEnvPath   = "/etc/profile.d/kubeconfig.sh"
	OSReleasePath       = "/etc/os-release"
)

// SocketForRuntime maps each runtime kind to its canonical CRI socket.
var SocketForRuntime = map[RuntimeKind]string{
	RuntimeContainerd: ContainerdSocket,
	RuntimeCRIO:       CRIOSocket,
	RuntimeDocker:     CRIDockerdSocket,
}
