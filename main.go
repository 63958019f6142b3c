package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/uthrapathy-m/cks-course-environment/bootstrap"
	"github.com/uthrapathy-m/cks-course-environment/config"
	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/join"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
	"github.com/uthrapathy-m/cks-course-environment/platform"
	runtimes "github.com/uthrapathy-m/cks-course-environment/runtime"
	"github.com/uthrapathy-m/cks-course-environment/stages"
)

const long = `cks-env provisions the local Linux host as a kubeadm cluster node.

It detects the distribution and architecture, prepares the host (swap,
kernel modules, sysctls), installs the chosen container runtime and the
Kubernetes packages, then either bootstraps the control plane and applies a
pod network, or prints the instructions for joining as a worker.

Knobs are read from the environment (KUBERNETES_VERSION, CONTAINER_RUNTIME,
CNI_PLUGIN, POD_NETWORK_CIDR, ...) and can be overridden by flags.`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		overrides config.Overrides
		logLevel  string
	)

	root := &cobra.Command{
		Use:           "cks-env",
		Short:         "cks-env provisions the local host as a kubeadm cluster node.",
		Long:          long,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&overrides.KubernetesVersion, "kubernetes-version", "", "Kubernetes version to install (default "+domain.DefaultKubernetesVersion+")")
	pf.StringVar(&overrides.ContainerRuntime, "container-runtime", "", "Container runtime: containerd, crio or docker (default containerd)")
	pf.StringVar(&overrides.PodNetworkCidr, "pod-network-cidr", "", "Pod network CIDR (default "+domain.DefaultPodNetworkCidr+")")
	pf.BoolVar(&overrides.AllowUntested, "allow-untested", false, "Proceed on recognized but untested distribution releases")
	pf.BoolVar(&overrides.DisableSecurity, "insecure-lab", false, "Disable SELinux and the host firewall (lab machines only)")
	pf.StringVar(&overrides.EnvFile, "env-file", "", "Optional dotenv file loaded before resolving configuration")
	pf.StringVarP(&logLevel, "log-level", "v", "info", "Log level: debug, info, warn or error")

	controlPlane := &cobra.Command{
		Use:   "control-plane",
		Short: "Provision this host as the cluster control plane.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), domain.RoleControlPlane, overrides, logLevel)
		},
	}
	controlPlane.Flags().StringVar(&overrides.CNIPlugin, "cni", "", "Pod network plugin: weave, calico, flannel or cilium (default weave)")

	worker := &cobra.Command{
		Use:   "worker",
		Short: "Provision this host as a worker node.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), domain.RoleWorker, overrides, logLevel)
		},
	}
	worker.Flags().StringVar(&overrides.ControlPlaneHost, "control-plane-host", "", "Control-plane address for the admin kubeconfig copy")
	worker.Flags().StringVar(&overrides.ControlPlaneUser, "control-plane-user", "", "SSH user on the control-plane (default root)")

	root.AddCommand(controlPlane, worker)
	return root
}

func run(ctx context.Context, role domain.NodeRole, overrides config.Overrides, logLevel string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parsing --log-level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	log := logrus.NewEntry(logger)

	if os.Geteuid() != 0 {
		return errors.New("cks-env mutates host state and must run as root")
	}

	cfg, err := config.Resolve(role, overrides)
	if err != nil {
		return err
	}

	profile, err := platform.Fingerprint(log, cfg.AllowUntested)
	if err != nil {
		return err
	}
	log.Infof("provisioning %s %s (%s/%s) as %s with %s",
		profile.DistributionID, profile.VersionID, profile.Family, profile.Arch, cfg.Role, cfg.ContainerRuntime)

	steps, err := buildPipeline(log, cfg, profile)
	if err != nil {
		return err
	}

	runner := orchestrator.NewRunner(log, orchestrator.NewShellExecutor(), profile, cfg)
	results, err := runner.Execute(ctx, steps)
	summarize(log, results)
	if err != nil {
		return err
	}

	log.Info("provisioning complete")
	return nil
}

// buildPipeline assembles the full ordered step list for one run: shared
// host preparation, the runtime variant, Kubernetes packages, then the
// role-specific tail.
func buildPipeline(log *logrus.Entry, cfg domain.ProvisionConfig, profile domain.PlatformProfile) ([]orchestrator.Step, error) {
	installer, err := runtimes.ForConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !runtimes.SupportsArch(cfg.ContainerRuntime, profile.Arch) {
		return nil, fmt.Errorf("%s runtime has no cri-dockerd build: %w",
			cfg.ContainerRuntime, &domain.UnsupportedArchitectureError{Machine: string(profile.Arch)})
	}
	endpoint := installer.Endpoint()

	steps := []orchestrator.Step{
		stages.GetHostnameStage(),
		stages.GetShellSetupStage(endpoint),
		stages.GetSwapOffStage(),
		stages.GetKernelTuningStage(),
		stages.GetSELinuxPermissiveStage(cfg),
	}
	steps = append(steps, stages.GetFirewallDisableStages(cfg)...)
	steps = append(steps, installer.Steps(profile)...)
	steps = append(steps, stages.GetKubePackageStages(cfg)...)

	switch cfg.Role {
	case domain.RoleControlPlane:
		bootstrapper, err := bootstrap.New(log, cfg, endpoint)
		if err != nil {
			return nil, err
		}
		roleSteps, err := bootstrapper.Steps()
		if err != nil {
			return nil, err
		}
		steps = append(steps, roleSteps...)
	case domain.RoleWorker:
		steps = append(steps, join.New(log, cfg, endpoint).Steps()...)
	}

	return steps, nil
}

func summarize(log *logrus.Entry, results []domain.StepResult) {
	var succeeded, skipped, failed int
	for _, result := range results {
		switch result.Outcome {
		case domain.OutcomeSuccess:
			succeeded++
		case domain.OutcomeSkipped:
			skipped++
		case domain.OutcomeFailed:
			failed++
		}
	}
	log.Infof("%d steps succeeded, %d skipped, %d failed", succeeded, skipped, failed)
}
