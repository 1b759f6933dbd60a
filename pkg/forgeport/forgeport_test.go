package forgeport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeCreateAndList(t *testing.T) {
	f := NewFake()
	created, err := f.CreatePullRequest(context.Background(), CreatePRParams{
		Title: "add widget", Base: "main", Head: "feature/a",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Number)

	prs, err := f.ListPullRequests(context.Background(), ListPRsParams{Head: "feature/a", State: "open"})
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, PRStateOpen, prs[0].State)
}

func TestFakeMerge(t *testing.T) {
	f := NewFake()
	created, _ := f.CreatePullRequest(context.Background(), CreatePRParams{Head: "feature/a", Base: "main"})
	merged, err := f.MergePullRequest(context.Background(), created.Number, MergeSquash)
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, PRStateMerged, f.PRs[created.Number].State)
}

func TestHeadFilter(t *testing.T) {
	assert.Equal(t, "", headFilter("acme", ""))
	assert.Equal(t, "acme:feature/a", headFilter("acme", "feature/a"))
	assert.Equal(t, "other:feature/a", headFilter("acme", "other:feature/a"))
}

func TestWaitForChecksReportsFailure(t *testing.T) {
	f := NewFake()
	f.WaitResult = WaitResult{Success: false, FailedChecks: []string{"lint"}}
	result, err := f.WaitForChecks(context.Background(), 1, WaitForChecksParams{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{"lint"}, result.FailedChecks)
}
