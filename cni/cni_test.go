package cni

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/uthrapathy-m/cks-course-environment/domain"
)

func TestForPlugin(t *testing.T) {
	tests := []struct {
		name              string
		plugin            domain.CNIPlugin
		expectedNamespace string
		expectedSelector  string
		expectedCommand   string
	}{
		{
			name:              "weave",
			plugin:            domain.CNIWeave,
			expectedNamespace: "kube-system",
			expectedSelector:  "name=weave-net",
			expectedCommand:   "weave-daemonset-k8s-1.11.yaml",
		},
		{
			name:              "calico",
			plugin:            domain.CNICalico,
			expectedNamespace: "kube-system",
			expectedSelector:  "k8s-app=calico-node",
			expectedCommand:   "manifests/calico.yaml",
		},
		{
			name:              "flannel",
			plugin:            domain.CNIFlannel,
			expectedNamespace: "kube-flannel",
			expectedSelector:  "app=flannel",
			expectedCommand:   "kube-flannel.yml",
		},
		{
			name:              "cilium",
			plugin:            domain.CNICilium,
			expectedNamespace: "kube-system",
			expectedSelector:  "k8s-app=cilium",
			expectedCommand:   "cilium install",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			recipe, err := ForPlugin(tt.plugin)

			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(recipe.Plugin).To(Equal(tt.plugin))
			g.Expect(recipe.Namespace).To(Equal(tt.expectedNamespace))
			g.Expect(recipe.Selector).To(Equal(tt.expectedSelector))
			g.Expect(recipe.ApplyCommands).To(HaveLen(1))
			g.Expect(recipe.ApplyCommands[0]).To(ContainSubstring(tt.expectedCommand))
		})
	}
}

func TestForPluginUnknown(t *testing.T) {
	g := NewWithT(t)

	_, err := ForPlugin("antrea")

	var configErr *domain.ConfigError
	g.Expect(errors.As(err, &configErr)).To(BeTrue())
}
