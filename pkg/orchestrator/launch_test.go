package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/statemachine"
)

// TestLaunchHappyPath is spec.md S1: on main, clean tree, launch a new
// branch and land on BRANCH_READY with every pre-flight check passed.
func TestLaunchHappyPath(t *testing.T) {
	h := newHarness(t)

	result, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/a"})
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.Equal(t, "feature/a", result.BranchName)
	assert.Equal(t, string(statemachine.StateBranchReady), result.State)
	assert.Equal(t, "feature/a", h.Git.Current)
	for _, c := range result.PreFlightChecks {
		assert.Truef(t, c.Passed, "check %q should have passed: %s", c.Name, c.Message)
	}
}

// TestLaunchBranchRetirement is spec.md S2: a previously-merged session
// on the same branch name blocks reuse and suggests -v2.
func TestLaunchBranchRetirement(t *testing.T) {
	h := newHarness(t)

	sess, err := h.Store.Create(ctx(), "feature/x", statemachine.WorkflowShip, 0)
	require.NoError(t, err)
	sess.Metadata.PR.Merged = true
	sess.CurrentState = statemachine.StateComplete
	require.NoError(t, h.Store.Update(ctx(), sess))
	delete(h.Git.Local, "feature/x")
	delete(h.Git.Remote, "feature/x")

	result, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/x"})
	require.NoError(t, err)

	require.False(t, result.Success)
	var found bool
	for _, c := range result.PreFlightChecks {
		if c.Name == "branch name available" {
			found = true
			assert.False(t, c.Passed)
			assert.Equal(t, "feature/x-v2", c.Details.Suggestion)
		}
	}
	assert.True(t, found, "expected a 'branch name available' check result")
}

func TestLaunchRejectsDirtyTree(t *testing.T) {
	h := newHarness(t)
	h.Git.Dirty = true

	result, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/dirty"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestLaunchForcePastDirtyTree(t *testing.T) {
	h := newHarness(t)
	h.Git.Dirty = true

	result, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/dirty", Force: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Warnings)
}
