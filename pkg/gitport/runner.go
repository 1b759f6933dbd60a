package gitport

import (
	"bytes"
	"context"
	"os/exec"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// CommandRunner abstracts process execution so shellGit can be tested
// without a real git binary. The teacher's pkg/git/clone.go constructs a
// CloneManager around exactly this contract (runner.Run / runner.Output)
// but the concrete RealCommandRunner type was not present in the
// retrieval pack; it is reconstructed here from that usage contract
// (documented in DESIGN.md).
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes commands via os/exec.
type RealCommandRunner struct {
	Verbose bool
}

func (r *RealCommandRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return tlerrors.NewGitErrorWithCause(name, stderr.String(), args, err)
	}
	return nil
}

func (r *RealCommandRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, tlerrors.NewGitErrorWithCause(name, stderr.String(), args, err)
	}
	return out, nil
}
