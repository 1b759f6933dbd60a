package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/statemachine"
)

func launchAndCommit(t *testing.T, h *harness, branch string) {
	t.Helper()
	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: branch})
	require.NoError(t, err)
	require.True(t, launch.Success)

	h.Git.Dirty = true
	commit, err := h.Orch.Commit(ctx(), CommitParams{Message: "do the thing"})
	require.NoError(t, err)
	require.True(t, commit.Success)
}

// TestShipHappyPath is spec.md S3: push, PR created, checks pass, squash
// merge, branch gone locally and remotely, COMPLETE, caller on main.
func TestShipHappyPath(t *testing.T) {
	h := newHarness(t)
	launchAndCommit(t, h, "feature/b")
	h.Forge.WaitResult = forgeport.WaitResult{Success: true}

	result, err := h.Orch.Ship(ctx(), ShipParams{})
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.Equal(t, 1, result.PRNumber)
	assert.True(t, result.Merged)
	assert.Equal(t, string(statemachine.StateComplete), result.State)
	assert.Equal(t, "main", h.Git.Current)
	assert.False(t, h.Git.Local["feature/b"])
	assert.False(t, h.Git.Remote["feature/b"])
}

// TestShipFailingCI is spec.md S4: failing checks leave the session at
// PR_CREATED and report the failed check names; a subsequent retry
// (after checks start passing) succeeds.
func TestShipFailingCI(t *testing.T) {
	h := newHarness(t)
	launchAndCommit(t, h, "feature/b")
	h.Forge.WaitResult = forgeport.WaitResult{Success: false, FailedChecks: []string{"lint"}}

	result, err := h.Orch.Ship(ctx(), ShipParams{})
	require.NoError(t, err)

	require.False(t, result.Success)
	require.NotNil(t, result.Checks)
	assert.Equal(t, []string{"lint"}, result.Checks.FailedNames)
	assert.Equal(t, string(statemachine.StatePRCreated), result.State)

	h.Forge.WaitResult = forgeport.WaitResult{Success: true}
	retry, err := h.Orch.Ship(ctx(), ShipParams{})
	require.NoError(t, err)
	assert.True(t, retry.Success)
}

// TestShipMultipleOpenPRs is spec.md S5: two open PRs for the same head
// blocks ship with no side effects.
func TestShipMultipleOpenPRs(t *testing.T) {
	h := newHarness(t)
	launchAndCommit(t, h, "feature/c")
	require.NoError(t, h.Git.Push(ctx(), "origin", "feature/c", false))
	_, err := h.Forge.CreatePullRequest(ctx(), forgeport.CreatePRParams{Title: "one", Base: "main", Head: "feature/c"})
	require.NoError(t, err)
	_, err = h.Forge.CreatePullRequest(ctx(), forgeport.CreatePRParams{Title: "two", Base: "main", Head: "feature/c"})
	require.NoError(t, err)

	result, err := h.Orch.Ship(ctx(), ShipParams{})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
