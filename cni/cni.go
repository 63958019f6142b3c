// Package cni holds one install recipe per supported pod network plugin.
// The bootstrapper applies exactly one recipe and uses its namespace and
// selector for the readiness wait.
package cni

import (
	"fmt"

	"github.com/uthrapathy-m/cks-course-environment/domain"
)

// Pinned plugin releases. Bumped deliberately, never "latest".
const (
	weaveVersion   = "2.8.8"
	calicoVersion  = "3.29.3"
	flannelVersion = "0.26.7"
	ciliumVersion  = "1.17.4"
)

// Recipe is the install and readiness contract for one plugin.
type Recipe struct {
	Plugin domain.CNIPlugin

	// ApplyCommands are run on the control-plane with KUBECONFIG pointing
	// at the admin kubeconfig.
	ApplyCommands []string

	// Namespace and Selector locate the plugin's node workload for the
	// post-apply readiness poll.
	Namespace string
	Selector  string
}

var recipes = map[domain.CNIPlugin]Recipe{
	domain.CNIWeave: {
		Plugin: domain.CNIWeave,
		ApplyCommands: []string{
			fmt.Sprintf("kubectl apply -f https://github.com/rajch/weave/releases/download/v%s/weave-daemonset-k8s-1.11.yaml", weaveVersion),
		},
		Namespace: "kube-system",
		Selector:  "name=weave-net",
	},
	domain.CNICalico: {
		Plugin: domain.CNICalico,
		ApplyCommands: []string{
			fmt.Sprintf("kubectl apply -f https://raw.githubusercontent.com/projectcalico/calico/v%s/manifests/calico.yaml", calicoVersion),
		},
		Namespace: "kube-system",
		Selector:  "k8s-app=calico-node",
	},
	domain.CNIFlannel: {
		Plugin: domain.CNIFlannel,
		ApplyCommands: []string{
			fmt.Sprintf("kubectl apply -f https://github.com/flannel-io/flannel/releases/download/v%s/kube-flannel.yml", flannelVersion),
		},
		Namespace: "kube-flannel",
		Selector:  "app=flannel",
	},
	domain.CNICilium: {
		Plugin: domain.CNICilium,
		ApplyCommands: []string{
			fmt.Sprintf("cilium install --version %s", ciliumVersion),
		},
		Namespace: "kube-system",
		Selector:  "k8s-app=cilium",
	},
}

// ForPlugin selects the recipe for a plugin.
func ForPlugin(plugin domain.CNIPlugin) (Recipe, error) {
	recipe, ok := recipes[plugin]
	if !ok {
		return Recipe{}, &domain.ConfigError{Key: "cni plugin", Value: string(plugin)}
	}
	return recipe, nil
}
