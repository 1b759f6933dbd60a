package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupRemovesOrphanedBranchesAndExpiredSessions(t *testing.T) {
	h := newHarness(t)

	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/orphan"})
	require.NoError(t, err)
	require.True(t, launch.Success)

	abort, err := h.Orch.Abort(ctx(), AbortParams{BranchName: "feature/orphan"})
	require.NoError(t, err)
	require.True(t, abort.Success)
	sess, err := h.Store.GetByBranch(ctx(), "feature/orphan")
	require.NoError(t, err)
	sess.UpdatedAt = sess.UpdatedAt.AddDate(0, 0, -60)
	require.NoError(t, h.Store.Update(ctx(), sess))

	h.Git.Local["feature/orphan"] = true // simulate a branch left behind

	report, err := h.Orch.Cleanup(ctx(), CleanupParams{})
	require.NoError(t, err)
	require.True(t, report.Success)

	cr := report.Data.(CleanupReport)
	assert.Contains(t, cr.DeletedBranches, "feature/orphan")
	assert.Contains(t, cr.DeletedSessions, sess.ID)
	assert.Equal(t, "main", h.Git.Current)
}

func TestCleanupDryRunMakesNoChanges(t *testing.T) {
	h := newHarness(t)
	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/dryrun"})
	require.NoError(t, err)
	require.True(t, launch.Success)
	abort, err := h.Orch.Abort(ctx(), AbortParams{BranchName: "feature/dryrun"})
	require.NoError(t, err)
	require.True(t, abort.Success)

	report, err := h.Orch.Cleanup(ctx(), CleanupParams{DryRun: true})
	require.NoError(t, err)
	require.True(t, report.Success)

	cr := report.Data.(CleanupReport)
	assert.Empty(t, cr.DeletedBranches)
	assert.Empty(t, cr.DeletedSessions)
}
