package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/statemachine"
)

// TestAbortFromPRCreated is spec.md S6: aborting a session sitting at
// PR_CREATED lands the session in ABORTED, the caller back on main, and
// (when requested) the local branch gone — the open forge PR is left
// untouched since that's out of scope.
func TestAbortFromPRCreated(t *testing.T) {
	h := newHarness(t)

	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/abort-me"})
	require.NoError(t, err)
	require.True(t, launch.Success)

	h.Git.Dirty = true
	commit, err := h.Orch.Commit(ctx(), CommitParams{Message: "wip"})
	require.NoError(t, err)
	require.True(t, commit.Success)

	sess, err := h.Store.GetByBranch(ctx(), "feature/abort-me")
	require.NoError(t, err)
	require.NoError(t, h.Orch.transition(ctx(), sess, statemachine.StatePushed, statemachine.TriggerPush, "test", "pushed"))
	require.NoError(t, h.Orch.transition(ctx(), sess, statemachine.StatePRCreated, statemachine.TriggerPRCreated, "test", "PR ready"))

	result, err := h.Orch.Abort(ctx(), AbortParams{BranchName: "feature/abort-me", DeleteBranch: true})
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, string(statemachine.StateAborted), result.State)
	assert.Equal(t, "main", h.Git.Current)
	assert.False(t, h.Git.Local["feature/abort-me"])
}
