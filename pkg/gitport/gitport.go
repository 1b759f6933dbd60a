// Package gitport implements spec.md §6's GitPort interface by shelling
// out to the git binary, grounded on the teacher's pkg/git/clone.go and
// pkg/git/util.go (which take the same approach rather than pulling in
// go-git).
package gitport

import (
	"context"
	"strconv"
	"strings"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// Status mirrors spec.md §6's status() return shape.
type Status struct {
	Clean     bool
	Modified  []string
	Created   []string
	Deleted   []string
	Untracked []string
}

// BranchStatus mirrors spec.md §6's branchStatus() return shape.
type BranchStatus struct {
	Ahead     int
	Behind    int
	HasRemote bool
	IsClean   bool
}

// GitPort is the abstract interface the orchestrator depends on for all
// local-repository operations.
type GitPort interface {
	CurrentBranch(ctx context.Context) (string, error)
	Status(ctx context.Context) (Status, error)
	BranchStatus(ctx context.Context, branch, remote string) (BranchStatus, error)
	CommitsAhead(ctx context.Context, branch, base string) (int, error)
	HasUncommittedChanges(ctx context.Context) (bool, error)

	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string, noVerify bool) (string, error)

	CreateBranch(ctx context.Context, name, baseRef string) error
	CheckoutBranch(ctx context.Context, name string) error
	DeleteBranch(ctx context.Context, name string, force bool) error
	DeleteRemoteBranch(ctx context.Context, remote, name string) error

	Fetch(ctx context.Context, remote, ref string) error
	Pull(ctx context.Context, remote, ref string) error
	Push(ctx context.Context, remote, branch string, force bool) error

	Merge(ctx context.Context, branch string, squash bool) error

	Stash(ctx context.Context, message string) (string, error)
	StashApply(ctx context.Context, ref string) error
	StashPop(ctx context.Context, ref string) error

	BranchExistsLocal(ctx context.Context, name string) (bool, error)
	BranchExistsRemote(ctx context.Context, remote, name string) (bool, error)

	// ListLocalBranches enumerates local branch names, used by cleanup
	// (spec.md §4.6.6) to find branches with no matching session.
	ListLocalBranches(ctx context.Context) ([]string, error)

	// CommitSubjects lists head's commit subject lines not reachable from
	// base, oldest first. Used only by pkg/aiassist's optional PR
	// description drafting (SPEC_FULL.md §9) — never required for ship
	// to succeed.
	CommitSubjects(ctx context.Context, base, head string) ([]string, error)
}

// shellGit is the concrete GitPort implementation, grounded on the
// teacher's CloneManager: a repo root plus an injected CommandRunner.
type shellGit struct {
	repoRoot string
	runner   CommandRunner
}

// New constructs a GitPort rooted at repoRoot using the real git binary.
func New(repoRoot string) GitPort {
	return &shellGit{repoRoot: repoRoot, runner: &RealCommandRunner{}}
}

// NewWithRunner constructs a GitPort with an injected CommandRunner, for
// tests (mirrors the teacher's NewCloneManagerWithRunner).
func NewWithRunner(repoRoot string, runner CommandRunner) GitPort {
	return &shellGit{repoRoot: repoRoot, runner: runner}
}

func (g *shellGit) git(ctx context.Context, args ...string) ([]byte, error) {
	return g.runner.Output(ctx, g.repoRoot, "git", args...)
}

func (g *shellGit) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *shellGit) Status(ctx context.Context) (Status, error) {
	out, err := g.git(ctx, "status", "--porcelain=v1")
	if err != nil {
		return Status{}, err
	}
	var s Status
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[2:])
		switch {
		case strings.HasPrefix(code, "??"):
			s.Untracked = append(s.Untracked, path)
		case strings.Contains(code, "D"):
			s.Deleted = append(s.Deleted, path)
		case strings.Contains(code, "A"):
			s.Created = append(s.Created, path)
		default:
			s.Modified = append(s.Modified, path)
		}
	}
	s.Clean = len(s.Modified) == 0 && len(s.Created) == 0 && len(s.Deleted) == 0 && len(s.Untracked) == 0
	return s, nil
}

func (g *shellGit) HasUncommittedChanges(ctx context.Context) (bool, error) {
	status, err := g.Status(ctx)
	if err != nil {
		return false, err
	}
	return !status.Clean, nil
}

func (g *shellGit) BranchStatus(ctx context.Context, branch, remote string) (BranchStatus, error) {
	status, err := g.Status(ctx)
	if err != nil {
		return BranchStatus{}, err
	}
	hasRemote, err := g.BranchExistsRemote(ctx, remote, branch)
	if err != nil {
		return BranchStatus{}, err
	}
	bs := BranchStatus{HasRemote: hasRemote, IsClean: status.Clean}
	if !hasRemote {
		return bs, nil
	}
	out, err := g.git(ctx, "rev-list", "--left-right", "--count",
		branch+"..."+remote+"/"+branch)
	if err != nil {
		return bs, err
	}
	parts := strings.Fields(string(out))
	if len(parts) == 2 {
		bs.Ahead, _ = strconv.Atoi(parts[0])
		bs.Behind, _ = strconv.Atoi(parts[1])
	}
	return bs, nil
}

// CommitsAhead counts commits on branch not reachable from base (e.g. how
// far a feature branch has diverged from the main branch). Distinct from
// BranchStatus's ahead/behind, which is always relative to a branch's own
// remote tracking branch.
func (g *shellGit) CommitsAhead(ctx context.Context, branch, base string) (int, error) {
	out, err := g.git(ctx, "rev-list", "--count", base+".."+branch)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(out)))
}

func (g *shellGit) StageAll(ctx context.Context) error {
	_, err := g.git(ctx, "add", "-A")
	return err
}

func (g *shellGit) Commit(ctx context.Context, message string, noVerify bool) (string, error) {
	args := []string{"commit", "-m", message}
	if noVerify {
		args = append(args, "--no-verify")
	}
	if _, err := g.git(ctx, args...); err != nil {
		return "", err
	}
	out, err := g.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *shellGit) CreateBranch(ctx context.Context, name, baseRef string) error {
	_, err := g.git(ctx, "branch", name, baseRef)
	return err
}

func (g *shellGit) CheckoutBranch(ctx context.Context, name string) error {
	_, err := g.git(ctx, "checkout", name)
	return err
}

func (g *shellGit) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.git(ctx, "branch", flag, name)
	return err
}

func (g *shellGit) DeleteRemoteBranch(ctx context.Context, remote, name string) error {
	_, err := g.git(ctx, "push", remote, "--delete", name)
	return err
}

func (g *shellGit) Fetch(ctx context.Context, remote, ref string) error {
	args := []string{"fetch", remote}
	if ref != "" {
		args = append(args, ref)
	}
	_, err := g.git(ctx, args...)
	return err
}

func (g *shellGit) Pull(ctx context.Context, remote, ref string) error {
	args := []string{"pull", "--ff-only", remote}
	if ref != "" {
		args = append(args, ref)
	}
	_, err := g.git(ctx, args...)
	return err
}

func (g *shellGit) Push(ctx context.Context, remote, branch string, force bool) error {
	args := []string{"push", remote, branch}
	if force {
		args = append(args, "--force-with-lease")
	}
	_, err := g.git(ctx, args...)
	return err
}

func (g *shellGit) Merge(ctx context.Context, branch string, squash bool) error {
	args := []string{"merge"}
	if squash {
		args = append(args, "--squash")
	}
	args = append(args, branch)
	_, err := g.git(ctx, args...)
	return err
}

func (g *shellGit) Stash(ctx context.Context, message string) (string, error) {
	args := []string{"stash", "push"}
	if message != "" {
		args = append(args, "-m", message)
	}
	if _, err := g.git(ctx, args...); err != nil {
		return "", err
	}
	out, err := g.git(ctx, "rev-parse", "stash@{0}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *shellGit) StashApply(ctx context.Context, ref string) error {
	_, err := g.git(ctx, "stash", "apply", ref)
	return err
}

func (g *shellGit) StashPop(ctx context.Context, ref string) error {
	_, err := g.git(ctx, "stash", "pop", ref)
	return err
}

func (g *shellGit) BranchExistsLocal(ctx context.Context, name string) (bool, error) {
	err := g.runner.Run(ctx, g.repoRoot, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err == nil {
		return true, nil
	}
	var gitErr *tlerrors.GitError
	if tlerrors.As(err, &gitErr) {
		return false, nil
	}
	return false, err
}

func (g *shellGit) BranchExistsRemote(ctx context.Context, remote, name string) (bool, error) {
	out, err := g.git(ctx, "ls-remote", "--heads", remote, name)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func (g *shellGit) ListLocalBranches(ctx context.Context) ([]string, error) {
	out, err := g.git(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

func (g *shellGit) CommitSubjects(ctx context.Context, base, head string) ([]string, error) {
	out, err := g.git(ctx, "log", "--reverse", "--format=%s", base+".."+head)
	if err != nil {
		return nil, err
	}
	var subjects []string
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" {
			subjects = append(subjects, line)
		}
	}
	return subjects, nil
}
