package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/session"
)

func TestStatusReturnsCurrentBranchSession(t *testing.T) {
	h := newHarness(t)
	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/status"})
	require.NoError(t, err)
	require.True(t, launch.Success)

	result, err := h.Orch.Status(ctx(), StatusParams{})
	require.NoError(t, err)
	require.True(t, result.Success)

	report := result.Data.(StatusReport)
	assert.Equal(t, "feature/status", report.Session.BranchName)
}

func TestListSessionsFiltersTerminal(t *testing.T) {
	h := newHarness(t)
	launch, err := h.Orch.Launch(ctx(), LaunchParams{BranchName: "feature/list-me"})
	require.NoError(t, err)
	require.True(t, launch.Success)

	abort, err := h.Orch.Abort(ctx(), AbortParams{BranchName: "feature/list-me"})
	require.NoError(t, err)
	require.True(t, abort.Success)

	active, err := h.Orch.ListSessions(ctx(), SessionsParams{IncludeTerminal: false})
	require.NoError(t, err)
	assert.Empty(t, active.Data.([]*session.WorkflowSession))

	all, err := h.Orch.ListSessions(ctx(), SessionsParams{IncludeTerminal: true})
	require.NoError(t, err)
	assert.Len(t, all.Data.([]*session.WorkflowSession), 1)
}
