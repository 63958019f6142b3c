// Package bootstrap turns the prepared control-plane host into a running
// Kubernetes control plane: it renders the kubeadm configuration, runs
// kubeadm init behind a sentinel guard, installs the admin kubeconfig,
// applies the chosen pod network and prints a long-lived join command.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	yip "github.com/mudler/yip/pkg/schema"
	"github.com/sirupsen/logrus"
	bootstraputil "k8s.io/cluster-bootstrap/token/util"

	"github.com/uthrapathy-m/cks-course-environment/cni"
	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
	"github.com/uthrapathy-m/cks-course-environment/utils"
)

// DefaultNetworkWait bounds the post-apply readiness poll for the pod
// network workload.
const DefaultNetworkWait = 300 * time.Second

type Bootstrapper struct {
	log      *logrus.Entry
	cfg      domain.ProvisionConfig
	endpoint domain.RuntimeEndpoint
	recipe   cni.Recipe
	runner   orchestrator.CommandRunner

	// networkWait and waitForNetwork are swappable for tests.
	networkWait    time.Duration
	waitForNetwork func(ctx context.Context, recipe cni.Recipe, timeout time.Duration) error
}

func New(log *logrus.Entry, cfg domain.ProvisionConfig, endpoint domain.RuntimeEndpoint) (*Bootstrapper, error) {
	recipe, err := cni.ForPlugin(cfg.CNIPlugin)
	if err != nil {
		return nil, err
	}

	b := &Bootstrapper{
		log:         log.WithField("role", string(domain.RoleControlPlane)),
		cfg:         cfg,
		endpoint:    endpoint,
		recipe:      recipe,
		runner:      orchestrator.ShellRunner{},
		networkWait: DefaultNetworkWait,
	}
	b.waitForNetwork = waitForNetworkReady
	return b, nil
}

// Steps builds the control-plane stages, in this order: config render,
// kubeadm init, kubeconfig install, pod network apply, bounded readiness
// wait (advisory), join command generation. The join command is always
// produced after the network apply, whether or not the wait timed out.
func (b *Bootstrapper) Steps() ([]orchestrator.Step, error) {
	token, err := bootstraputil.GenerateBootstrapToken()
	if err != nil {
		return nil, fmt.Errorf("generating bootstrap token: %w", err)
	}

	kubeadmCfg, err := RenderInitConfig(b.cfg, b.endpoint, token)
	if err != nil {
		return nil, err
	}

	roles := []domain.NodeRole{domain.RoleControlPlane}

	steps := []orchestrator.Step{
		{
			Roles: roles,
			Stage: utils.GetFileStage("Generate Kubeadm Init Config File", domain.KubeadmConfigPath, 0640, kubeadmCfg),
		},
		{
			Roles: roles,
			Stage: yip.Stage{
				Name: "Run Kubeadm Init",
				If:   fmt.Sprintf("[ ! -f %s ]", domain.AdminKubeconfigPath),
				Commands: []string{
					fmt.Sprintf("kubeadm init --config %s --upload-certs", domain.KubeadmConfigPath),
				},
			},
		},
		{
			Roles: roles,
			Stage: yip.Stage{
				Name: "Install Admin Kubeconfig",
				Files: []yip.File{
					{
						Path:        domain.KubeconfigEnvPath,
						Permissions: 0644,
						Content:     fmt.Sprintf("export KUBECONFIG=%s\n", domain.AdminKubeconfigPath),
					},
				},
				Commands: []string{
					"mkdir -p /root/.kube",
					fmt.Sprintf("cp -f %s %s", domain.AdminKubeconfigPath, domain.LocalKubeconfigPath),
					fmt.Sprintf("chmod 600 %s", domain.LocalKubeconfigPath),
				},
			},
		},
		{
			Roles: roles,
			Stage: yip.Stage{
				Name:     fmt.Sprintf("Apply %s Pod Network", b.recipe.Plugin),
				Commands: b.applyCommands(),
			},
		},
		{
			Roles: roles,
			Stage: yip.Stage{Name: "Wait For Pod Network"},
			Run:   b.runNetworkWait,
		},
		{
			Roles: roles,
			Stage: yip.Stage{Name: "Generate Join Command"},
			Run:   b.printJoinCommand,
		},
	}

	return steps, nil
}

func (b *Bootstrapper) applyCommands() []string {
	commands := make([]string, 0, len(b.recipe.ApplyCommands))
	for _, command := range b.recipe.ApplyCommands {
		commands = append(commands, fmt.Sprintf("KUBECONFIG=%s %s", domain.AdminKubeconfigPath, command))
	}
	return commands
}

// runNetworkWait polls the pod network workload for readiness. Convergence
// is asynchronous, so a timeout is a warning rather than a failure.
func (b *Bootstrapper) runNetworkWait(ctx context.Context) error {
	if err := b.waitForNetwork(ctx, b.recipe, b.networkWait); err != nil {
		b.log.Warn(&domain.NetworkPollTimeout{Namespace: b.recipe.Namespace, Err: err})
	}
	return nil
}

func (b *Bootstrapper) printJoinCommand(ctx context.Context) error {
	out, err := b.runner.Run(ctx, fmt.Sprintf("KUBECONFIG=%s kubeadm token create --ttl 0 --print-join-command", domain.AdminKubeconfigPath))
	if err != nil {
		return fmt.Errorf("creating join token: %w", err)
	}

	b.log.Infof("run this on each worker node:\n  %s", out)
	return nil
}
