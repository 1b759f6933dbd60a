package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapBetweenSessions(t *testing.T) {
	h := newHarness(t)

	launchA, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/swap-a"})
	require.NoError(t, err)
	require.True(t, launchA.Success)

	require.NoError(t, h.Git.CheckoutBranch(ctx(), "main"))
	launchB, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/swap-b"})
	require.NoError(t, err)
	require.True(t, launchB.Success)

	result, err := h.Orch.Swap(ctx(), SwapParams{BranchName: "feature/swap-a"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "feature/swap-a", h.Git.Current)
}

func TestSwapStashesDirtyTree(t *testing.T) {
	h := newHarness(t)
	launchA, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/swap-dirty"})
	require.NoError(t, err)
	require.True(t, launchA.Success)

	require.NoError(t, h.Git.CheckoutBranch(ctx(), "main"))
	launchB, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/swap-target"})
	require.NoError(t, err)
	require.True(t, launchB.Success)

	h.Git.Dirty = true
	result, err := h.Orch.Swap(ctx(), SwapParams{BranchName: "feature/swap-dirty", Stash: true})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "feature/swap-dirty", h.Git.Current)
}

func TestSwapRejectsDirtyTreeWithoutStash(t *testing.T) {
	h := newHarness(t)
	launchA, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/swap-a2"})
	require.NoError(t, err)
	require.True(t, launchA.Success)
	require.NoError(t, h.Git.CheckoutBranch(ctx(), "main"))
	launchB, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/swap-b2"})
	require.NoError(t, err)
	require.True(t, launchB.Success)

	h.Git.Dirty = true
	_, err = h.Orch.Swap(ctx(), SwapParams{BranchName: "feature/swap-a2"})
	require.Error(t, err)
}
