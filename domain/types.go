package domain

// Family is a normalized distribution family. Package and service management
// commands branch on it; everything else is family-agnostic.
type Family string

const (
	FamilyDebian Family = "debian"
	FamilyRHEL   Family = "rhel"
)

// Arch is a normalized CPU architecture tag as used by Kubernetes artifact
// downloads.
type Arch string

const (
	ArchAMD64 Arch = "amd64"
	ArchARM64 Arch = "arm64"
	ArchARM   Arch = "arm"
)

// PlatformProfile describes the host the provisioner is running on.
// It is resolved once at startup and never mutated afterwards.
type PlatformProfile struct {
	Family         Family
	DistributionID string
	VersionID      string
	Arch           Arch

	// Untested marks a recognized distribution release that is not on the
	// tested allow-list. Provisioning such a host requires AllowUntested.
	Untested bool
}

// RuntimeKind identifies a supported container runtime.
type RuntimeKind string

const (
	RuntimeContainerd RuntimeKind = "containerd"
	RuntimeCRIO       RuntimeKind = "crio"
	RuntimeDocker     RuntimeKind = "docker"
)

// RuntimeKinds lists every accepted RuntimeKind value.
var RuntimeKinds = []RuntimeKind{RuntimeContainerd, RuntimeCRIO, RuntimeDocker}

// CNIPlugin identifies a supported pod network plugin.
type CNIPlugin string

const (
	CNIWeave   CNIPlugin = "weave"
	CNICalico  CNIPlugin = "calico"
	CNIFlannel CNIPlugin = "flannel"
	CNICilium  CNIPlugin = "cilium"
)

// CNIPlugins lists every accepted CNIPlugin value.
var CNIPlugins = []CNIPlugin{CNIWeave, CNICalico, CNIFlannel, CNICilium}

// NodeRole is the role this host takes in the cluster.
type NodeRole string

const (
	RoleControlPlane NodeRole = "control-plane"
	RoleWorker       NodeRole = "worker"
)

// ProvisionConfig carries every knob for a provisioning run. It is built
// once by the config resolver and passed by value to every component.
type ProvisionConfig struct {
	Role              NodeRole
	KubernetesVersion string
	ContainerRuntime  RuntimeKind
	CNIPlugin         CNIPlugin
	PodNetworkCidr    string

	// AllowUntested permits provisioning a recognized distribution release
	// that is not on the tested allow-list.
	AllowUntested bool

	// DisableSecurity switches SELinux to permissive and stops the host
	// firewall. Off by default; only meant for disposable lab machines.
	DisableSecurity bool

	// ControlPlaneHost and ControlPlaneUser let a worker fetch the admin
	// kubeconfig from the control-plane over SSH. Both optional.
	ControlPlaneHost string
	ControlPlaneUser string

	// KubeadmOptions is optional YAML merged over the rendered kubeadm
	// configuration (InitConfiguration / ClusterConfiguration /
	// KubeletConfiguration documents).
	KubeadmOptions string
}

// Outcome is the recorded result of one provisioning step.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// StepResult is the append-only record of a single step execution.
type StepResult struct {
	StepName string
	Outcome  Outcome
	Detail   string
}

// RuntimeEndpoint is the CRI socket produced by the runtime installer and
// consumed by kubeadm. Exactly one exists per run.
type RuntimeEndpoint struct {
	SocketPath string
	Kind       RuntimeKind
}
