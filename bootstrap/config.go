package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/cli-runtime/pkg/printers"
	bootstraputil "k8s.io/cluster-bootstrap/token/util"
	kubeletv1beta1 "k8s.io/kubelet/config/v1beta1"
	bootstraptokenv1 "k8s.io/kubernetes/cmd/kubeadm/app/apis/bootstraptoken/v1"
	kubeadmapiv4 "k8s.io/kubernetes/cmd/kubeadm/app/apis/kubeadm/v1beta4"
	kyaml "sigs.k8s.io/yaml"

	"github.com/uthrapathy-m/cks-course-environment/domain"
)

var scheme = runtime.NewScheme()

func init() {
	_ = kubeadmapiv4.AddToScheme(scheme)
	_ = kubeletv1beta1.AddToScheme(scheme)
}

// KubeadmConfig is the document set rendered into the kubeadm config file.
// User-supplied KUBEADM_OPTIONS YAML is unmarshalled over it before the
// run's own values are applied.
type KubeadmConfig struct {
	InitConfiguration    kubeadmapiv4.InitConfiguration      `json:"initConfiguration" yaml:"initConfiguration"`
	ClusterConfiguration kubeadmapiv4.ClusterConfiguration   `json:"clusterConfiguration" yaml:"clusterConfiguration"`
	KubeletConfiguration kubeletv1beta1.KubeletConfiguration `json:"kubeletConfiguration" yaml:"kubeletConfiguration"`
}

// RenderInitConfig produces the multi-document kubeadm configuration for
// `kubeadm init --config`, wiring in the bootstrap token, the CRI socket
// and the pod network CIDR.
func RenderInitConfig(cfg domain.ProvisionConfig, endpoint domain.RuntimeEndpoint, token string) (string, error) {
	var kubeadmConfig KubeadmConfig

	if cfg.KubeadmOptions != "" {
		userOptions, err := kyaml.YAMLToJSON([]byte(cfg.KubeadmOptions))
		if err != nil {
			return "", fmt.Errorf("parsing kubeadm options: %w", err)
		}
		if err := json.Unmarshal(userOptions, &kubeadmConfig); err != nil {
			return "", fmt.Errorf("parsing kubeadm options: %w", err)
		}
	}

	substrs := bootstraputil.BootstrapTokenRegexp.FindStringSubmatch(token)
	if len(substrs) != 3 {
		return "", fmt.Errorf("bootstrap token %q is not of the form id.secret", token)
	}

	initCfg := &kubeadmConfig.InitConfiguration
	initCfg.BootstrapTokens = []bootstraptokenv1.BootstrapToken{
		{
			Token: &bootstraptokenv1.BootstrapTokenString{
				ID:     substrs[1],
				Secret: substrs[2],
			},
			// Unlimited so the printed join command keeps working for
			// workers added later.
			TTL: &metav1.Duration{Duration: 0},
		},
	}
	initCfg.NodeRegistration.CRISocket = endpoint.SocketPath

	if initCfg.LocalAPIEndpoint.AdvertiseAddress == "" {
		initCfg.LocalAPIEndpoint.AdvertiseAddress = domain.DefaultAPIAdvertiseAddress
	}
	if initCfg.LocalAPIEndpoint.BindPort == 0 {
		initCfg.LocalAPIEndpoint.BindPort = domain.APIServerBindPort
	}

	clusterCfg := &kubeadmConfig.ClusterConfiguration
	clusterCfg.KubernetesVersion = "v" + cfg.KubernetesVersion
	if clusterCfg.Networking.PodSubnet == "" {
		clusterCfg.Networking.PodSubnet = cfg.PodNetworkCidr
	}
	if clusterCfg.ImageRepository == "" {
		clusterCfg.ImageRepository = kubeadmapiv4.DefaultImageRepository
	}

	mutateKubeletDefaults(&kubeadmConfig.KubeletConfiguration)

	return printObj([]runtime.Object{clusterCfg, initCfg, &kubeadmConfig.KubeletConfiguration})
}

// mutateKubeletDefaults fills the kubelet settings the runtime setup
// depends on, leaving any user-supplied value alone.
func mutateKubeletDefaults(kubeletCfg *kubeletv1beta1.KubeletConfiguration) {
	kubeletCfg.APIVersion = "kubelet.config.k8s.io/v1beta1"
	kubeletCfg.Kind = "KubeletConfiguration"

	// Both containerd and cri-o are configured for the systemd cgroup
	// driver; the kubelet has to match.
	if kubeletCfg.CgroupDriver == "" {
		kubeletCfg.CgroupDriver = "systemd"
	}
}

func printObj(objects []runtime.Object) (string, error) {
	printer := printers.NewTypeSetter(scheme).ToPrinter(&printers.YAMLPrinter{})
	out := bytes.NewBuffer([]byte{})

	for _, obj := range objects {
		if err := printer.PrintObj(obj, out); err != nil {
			return "", err
		}
	}

	return out.String(), nil
}
