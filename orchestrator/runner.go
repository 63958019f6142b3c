package orchestrator

import (
	"context"
	"os/exec"
	"strings"
)

// CommandRunner executes a single shell command and returns its combined
// output. Implementations other than ShellRunner exist only in tests.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ShellRunner runs commands through `sh -c` on the local host.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, command string) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
