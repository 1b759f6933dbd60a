package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/statemachine"
)

func TestCommitPromotesWorkflowType(t *testing.T) {
	h := newHarness(t)

	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/commit-promo"})
	require.NoError(t, err)
	require.True(t, launch.Success)

	h.Git.Dirty = true
	result, err := h.Orch.Commit(ctx(), CommitParams{Message: "add widget"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, string(statemachine.StateChangesCommitted), result.State)

	sess, err := h.Store.GetByBranch(ctx(), "feature/commit-promo")
	require.NoError(t, err)
	assert.Equal(t, statemachine.WorkflowShip, sess.WorkflowType)
}

func TestCommitRejectsCleanTree(t *testing.T) {
	h := newHarness(t)
	_, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/clean"})
	require.NoError(t, err)

	result, err := h.Orch.Commit(ctx(), CommitParams{Message: "nothing to commit"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
