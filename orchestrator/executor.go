package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	yip "github.com/mudler/yip/pkg/schema"
)

// ErrConditionNotMet reports that a stage's If guard evaluated false. The
// pipeline records the step as skipped rather than failed.
var ErrConditionNotMet = errors.New("stage condition not met")

// StageExecutor applies one stage payload to the host.
type StageExecutor interface {
	Apply(ctx context.Context, stage yip.Stage) (string, error)
}

// ShellExecutor applies stages directly: the If guard and Commands run
// through the command runner, Files are rendered whole and written
// atomically so re-runs converge on the same content.
type ShellExecutor struct {
	Runner CommandRunner
}

func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{Runner: ShellRunner{}}
}

func (e *ShellExecutor) Apply(ctx context.Context, stage yip.Stage) (string, error) {
	if stage.If != "" {
		if _, err := e.Runner.Run(ctx, stage.If); err != nil {
			return "", ErrConditionNotMet
		}
	}

	var detail strings.Builder

	for _, file := range stage.Files {
		if err := writeFileAtomic(file); err != nil {
			return detail.String(), err
		}
		fmt.Fprintf(&detail, "wrote %s\n", file.Path)
	}

	for _, command := range stage.Commands {
		out, err := e.Runner.Run(ctx, command)
		if out != "" {
			detail.WriteString(out)
			detail.WriteString("\n")
		}
		if err != nil {
			return detail.String(), fmt.Errorf("running %q: %w", command, err)
		}
	}

	return strings.TrimSpace(detail.String()), nil
}

// writeFileAtomic renders the full desired content next to the target and
// renames it into place. Partial writes never land on the real path.
func writeFileAtomic(file yip.File) error {
	dir := filepath.Dir(file.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(file.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(file.Content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(fs.FileMode(file.Permissions)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file.Path)
}
