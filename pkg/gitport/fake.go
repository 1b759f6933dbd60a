package gitport

import (
	"context"
	"fmt"
	"sort"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// Fake is an in-memory GitPort, grounded on the teacher's
// mockGitHubClient pattern (pkg/workflow/workflow_test.go): a
// hand-written, fully controllable test double rather than a mocking
// framework, generalized here from remote PR state to local repository
// state (branches, HEAD, dirty tree, ahead/behind counts).
type Fake struct {
	Current     string
	Local       map[string]bool
	Remote      map[string]bool
	Dirty       bool
	AheadMap    map[string]int
	BehindMap   map[string]int
	AheadOfMain map[string]int
	Commits     []string
	Messages    []string

	commitSeq int

	CommitErr   error
	PushErr     error
	MergeErr    error
	CreateErr   error
	CheckoutErr error
}

// NewFake returns a Fake rooted at "main" with no other branches.
func NewFake() *Fake {
	return &Fake{
		Current:     "main",
		Local:       map[string]bool{"main": true},
		Remote:      map[string]bool{"main": true},
		AheadMap:    map[string]int{},
		BehindMap:   map[string]int{},
		AheadOfMain: map[string]int{},
	}
}

var _ GitPort = (*Fake)(nil)

func (f *Fake) CurrentBranch(ctx context.Context) (string, error) { return f.Current, nil }

func (f *Fake) Status(ctx context.Context) (Status, error) {
	if f.Dirty {
		return Status{Modified: []string{"file.go"}}, nil
	}
	return Status{Clean: true}, nil
}

func (f *Fake) BranchStatus(ctx context.Context, branch, remote string) (BranchStatus, error) {
	return BranchStatus{
		Ahead:     f.AheadMap[branch],
		Behind:    f.BehindMap[branch],
		HasRemote: f.Remote[branch],
		IsClean:   !f.Dirty,
	}, nil
}

func (f *Fake) HasUncommittedChanges(ctx context.Context) (bool, error) { return f.Dirty, nil }

func (f *Fake) StageAll(ctx context.Context) error { return nil }

func (f *Fake) Commit(ctx context.Context, message string, noVerify bool) (string, error) {
	if f.CommitErr != nil {
		return "", f.CommitErr
	}
	f.commitSeq++
	sha := fmt.Sprintf("commit-%d", f.commitSeq)
	f.Commits = append(f.Commits, sha)
	f.Messages = append(f.Messages, message)
	f.Dirty = false
	f.AheadMap[f.Current]++
	f.AheadOfMain[f.Current]++
	return sha, nil
}

// CommitsAhead returns how many commits branch has beyond base,
// independent of whether branch has been pushed — mirrors shellGit's
// rev-list base..branch, never the branch's own remote tracking state.
func (f *Fake) CommitsAhead(ctx context.Context, branch, base string) (int, error) {
	return f.AheadOfMain[branch], nil
}

func (f *Fake) CreateBranch(ctx context.Context, name, baseRef string) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.Local[name] = true
	return nil
}

func (f *Fake) CheckoutBranch(ctx context.Context, name string) error {
	if f.CheckoutErr != nil {
		return f.CheckoutErr
	}
	if !f.Local[name] {
		return tlerrors.NewGitError("checkout", "no such branch: "+name, nil)
	}
	f.Current = name
	return nil
}

func (f *Fake) DeleteBranch(ctx context.Context, name string, force bool) error {
	delete(f.Local, name)
	return nil
}

func (f *Fake) DeleteRemoteBranch(ctx context.Context, remote, name string) error {
	delete(f.Remote, name)
	return nil
}

func (f *Fake) Fetch(ctx context.Context, remote, ref string) error { return nil }

func (f *Fake) Pull(ctx context.Context, remote, ref string) error {
	f.BehindMap[f.Current] = 0
	return nil
}

func (f *Fake) Push(ctx context.Context, remote, branch string, force bool) error {
	if f.PushErr != nil {
		return f.PushErr
	}
	f.Remote[branch] = true
	return nil
}

func (f *Fake) Merge(ctx context.Context, branch string, squash bool) error {
	if f.MergeErr != nil {
		return f.MergeErr
	}
	return nil
}

func (f *Fake) Stash(ctx context.Context, message string) (string, error) {
	f.Dirty = false
	return "stash@{0}", nil
}

func (f *Fake) StashApply(ctx context.Context, ref string) error { return nil }
func (f *Fake) StashPop(ctx context.Context, ref string) error   { return nil }

func (f *Fake) BranchExistsLocal(ctx context.Context, name string) (bool, error) {
	return f.Local[name], nil
}

func (f *Fake) BranchExistsRemote(ctx context.Context, remote, name string) (bool, error) {
	return f.Remote[name], nil
}

func (f *Fake) ListLocalBranches(ctx context.Context) ([]string, error) {
	var out []string
	for b := range f.Local {
		out = append(out, b)
	}
	sort.Strings(out)
	return out, nil
}

// CommitSubjects ignores base/head and returns every commit message
// recorded on this Fake — adequate for a hand-rolled test double that
// tracks one branch of history at a time.
func (f *Fake) CommitSubjects(ctx context.Context, base, head string) ([]string, error) {
	return f.Messages, nil
}
