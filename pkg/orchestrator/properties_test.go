package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// TestConcurrentLockIsExclusive is spec.md P2: of two concurrent
// operations against the same session, exactly one acquires the lock;
// the other sees ErrLockHeld.
func TestConcurrentLockIsExclusive(t *testing.T) {
	h := newHarness(t)
	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/locked"})
	require.NoError(t, err)
	require.True(t, launch.Success)

	sess, err := h.Store.GetByBranch(ctx(), "feature/locked")
	require.NoError(t, err)

	require.NoError(t, h.Store.AcquireLock(ctx(), sess.ID, 0))
	defer h.Store.ReleaseLock(sess.ID)

	err = h.Store.AcquireLock(ctx(), sess.ID, 0)
	require.Error(t, err)
	assert.True(t, tlerrors.Is(err, tlerrors.ErrLockHeld))
}

// TestMergedBranchNeverRelaunchable is spec.md P3: once a session on a
// branch name has set metadata.pr.merged=true, no future launch on that
// same name succeeds.
func TestMergedBranchNeverRelaunchable(t *testing.T) {
	h := newHarness(t)
	launchAndCommit(t, h, "feature/merged-once")
	h.Forge.WaitResult.Success = true
	ship, err := h.Orch.Ship(ctx(), ShipParams{})
	require.NoError(t, err)
	require.True(t, ship.Success)

	result, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/merged-once"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
