package gitport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentBranch(t *testing.T) {
	m := newMockRunner()
	m.script("feature/a\n", "rev-parse", "--abbrev-ref", "HEAD")
	g := NewWithRunner("/repo", m)

	branch, err := g.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feature/a", branch)
}

func TestStatusClean(t *testing.T) {
	m := newMockRunner()
	m.script("", "status", "--porcelain=v1")
	g := NewWithRunner("/repo", m)

	status, err := g.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Clean)
}

func TestStatusDirty(t *testing.T) {
	m := newMockRunner()
	m.script(" M foo.go\n?? bar.go\n", "status", "--porcelain=v1")
	g := NewWithRunner("/repo", m)

	status, err := g.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Clean)
	assert.Contains(t, status.Modified, "foo.go")
	assert.Contains(t, status.Untracked, "bar.go")
}

func TestCommitReturnsSHA(t *testing.T) {
	m := newMockRunner()
	m.script("", "commit", "-m", "msg")
	m.script("abc123\n", "rev-parse", "HEAD")
	g := NewWithRunner("/repo", m)

	sha, err := g.Commit(context.Background(), "msg", false)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sha)
}

func TestCommitsAheadOfMain(t *testing.T) {
	m := newMockRunner()
	m.script("3\n", "rev-list", "--count", "main..feature/a")
	g := NewWithRunner("/repo", m)

	ahead, err := g.CommitsAhead(context.Background(), "feature/a", "main")
	require.NoError(t, err)
	assert.Equal(t, 3, ahead)
}

func TestBranchExistsRemote(t *testing.T) {
	m := newMockRunner()
	m.script("abcd\trefs/heads/feature/a\n", "ls-remote", "--heads", "origin", "feature/a")
	g := NewWithRunner("/repo", m)

	exists, err := g.BranchExistsRemote(context.Background(), "origin", "feature/a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBranchExistsRemoteAbsent(t *testing.T) {
	m := newMockRunner()
	m.script("", "ls-remote", "--heads", "origin", "feature/ghost")
	g := NewWithRunner("/repo", m)

	exists, err := g.BranchExistsRemote(context.Background(), "origin", "feature/ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}
