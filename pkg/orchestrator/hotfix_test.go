package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/statemachine"
)

func TestHotfixHappyPath(t *testing.T) {
	h := newHarness(t)
	h.Forge.WaitResult = forgeport.WaitResult{Success: true}

	result, err := h.Orch.Hotfix(ctx(), HotfixParams{BranchName: "hotfix/urgent", Description: "patch the leak"})
	require.NoError(t, err)

	require.True(t, result.Success)
	assert.Equal(t, string(statemachine.StateHotfixComplete), result.State)
	assert.True(t, result.Merged)
	assert.Equal(t, "main", h.Git.Current)
	assert.False(t, h.Git.Local["hotfix/urgent"])
}

func TestHotfixFailingCIStopsAtValidation(t *testing.T) {
	h := newHarness(t)
	h.Forge.WaitResult = forgeport.WaitResult{Success: false, FailedChecks: []string{"e2e"}}

	result, err := h.Orch.Hotfix(ctx(), HotfixParams{BranchName: "hotfix/broken", Description: "oops"})
	require.NoError(t, err)

	require.False(t, result.Success)
	assert.Equal(t, string(statemachine.StateHotfixPushed), result.State)
}
