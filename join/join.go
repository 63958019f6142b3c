// Package join prepares a worker for cluster enrollment. The actual join
// is completed by the operator with the command the control-plane printed;
// this package copies the admin kubeconfig over when it can and spells out
// what to run, including the extra CRI socket flag some runtimes need.
package join

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	yip "github.com/mudler/yip/pkg/schema"
	"github.com/sirupsen/logrus"

	"github.com/uthrapathy-m/cks-course-environment/domain"
	"github.com/uthrapathy-m/cks-course-environment/orchestrator"
)

type Advisor struct {
	log      *logrus.Entry
	cfg      domain.ProvisionConfig
	endpoint domain.RuntimeEndpoint

	// fetchAdminConf is swappable for tests; the default goes over SSH.
	fetchAdminConf func() ([]byte, error)

	kubeconfigPath string
}

func New(log *logrus.Entry, cfg domain.ProvisionConfig, endpoint domain.RuntimeEndpoint) *Advisor {
	a := &Advisor{
		log:            log.WithField("role", string(domain.RoleWorker)),
		cfg:            cfg,
		endpoint:       endpoint,
		kubeconfigPath: domain.LocalKubeconfigPath,
	}
	a.fetchAdminConf = func() ([]byte, error) {
		client, err := newSSHClient(cfg.ControlPlaneHost, cfg.ControlPlaneUser)
		if err != nil {
			return nil, err
		}
		return client.fetchFile(domain.AdminKubeconfigPath)
	}
	return a
}

// Steps builds the worker's advisory stages. Both are best-effort: a failed
// credential copy degrades to printed instructions, never a failed run.
func (a *Advisor) Steps() []orchestrator.Step {
	roles := []domain.NodeRole{domain.RoleWorker}

	return []orchestrator.Step{
		{
			Roles: roles,
			Stage: yip.Stage{Name: "Fetch Admin Kubeconfig"},
			Run:   a.runFetch,
		},
		{
			Roles: roles,
			Stage: yip.Stage{Name: "Print Join Instructions"},
			Run:   a.runAdvice,
		},
	}
}

func (a *Advisor) runFetch(context.Context) error {
	if a.cfg.ControlPlaneHost == "" {
		a.log.Info("no control-plane host configured, skipping kubeconfig copy")
		a.printCopyInstructions()
		return nil
	}

	data, err := a.fetchAdminConf()
	if err != nil {
		a.log.Warn(&domain.RemoteCopyError{Host: a.cfg.ControlPlaneHost, Err: err})
		a.printCopyInstructions()
		return nil
	}

	if err := a.installKubeconfig(data); err != nil {
		a.log.Warn(&domain.RemoteCopyError{Host: a.cfg.ControlPlaneHost, Err: err})
		a.printCopyInstructions()
		return nil
	}

	a.log.Infof("admin kubeconfig installed at %s", a.kubeconfigPath)
	return nil
}

func (a *Advisor) installKubeconfig(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(a.kubeconfigPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(a.kubeconfigPath, data, 0o600)
}

func (a *Advisor) runAdvice(context.Context) error {
	command := "kubeadm join <control-plane>:6443 --token <token> --discovery-token-ca-cert-hash <hash>"
	if suffix := JoinCommandSuffix(a.endpoint); suffix != "" {
		command += " " + suffix
	}

	a.log.Infof("to join this node, run the join command printed on the control-plane, e.g.:\n  %s", command)
	return nil
}

// JoinCommandSuffix returns the extra kubeadm join flag required when the
// runtime's socket is not the containerd default kubeadm assumes.
func JoinCommandSuffix(endpoint domain.RuntimeEndpoint) string {
	if endpoint.Kind == domain.RuntimeContainerd {
		return ""
	}
	return fmt.Sprintf("--cri-socket %s", endpoint.SocketPath)
}

func (a *Advisor) printCopyInstructions() {
	a.log.Infof("copy the admin kubeconfig manually:\n  scp %s@<control-plane>:%s %s && chmod 600 %s",
		a.cfg.ControlPlaneUser, domain.AdminKubeconfigPath, a.kubeconfigPath, a.kubeconfigPath)
}
