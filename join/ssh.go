package join

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	sshPort        = 22
	sshDialTimeout = 10 * time.Second
)

// defaultKeyFiles are the private keys tried for authentication, in order.
var defaultKeyFiles = []string{"id_ed25519", "id_rsa"}

// sshClient fetches files from the control-plane over SSH. Host keys are
// not verified: the transport only moves a credential between two machines
// the operator already controls, and the fallback is a manual scp.
type sshClient struct {
	addr   string
	config *ssh.ClientConfig
}

func newSSHClient(host, user string) (*sshClient, error) {
	signer, err := loadSigner()
	if err != nil {
		return nil, err
	}

	return &sshClient{
		addr: net.JoinHostPort(host, fmt.Sprintf("%d", sshPort)),
		config: &ssh.ClientConfig{
			User:            user,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
			Timeout:         sshDialTimeout,
		},
	}, nil
}

func loadSigner() (ssh.Signer, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/root"
	}

	for _, name := range defaultKeyFiles {
		key, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			continue
		}
		return signer, nil
	}

	return nil, fmt.Errorf("no usable private key under %s/.ssh", home)
}

// fetchFile reads a remote file by running cat in a session and returning
// its stdout.
func (c *sshClient) fetchFile(path string) ([]byte, error) {
	client, err := ssh.Dial("tcp", c.addr, c.config)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()

	out, err := session.Output(fmt.Sprintf("cat %s", path))
	if err != nil {
		return nil, err
	}
	return out, nil
}
