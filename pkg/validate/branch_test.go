package validate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/gitport"
	"trunkline.dev/trunkline/pkg/session"
	"trunkline.dev/trunkline/pkg/statemachine"
	"trunkline.dev/trunkline/pkg/validate"
)

func newStore(t *testing.T) session.Store {
	t.Helper()
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestBranchValidator_NeverUsed(t *testing.T) {
	ctx := context.Background()
	v := &validate.BranchValidator{Sessions: newStore(t), Git: gitport.NewFake(), Remote: "origin"}

	decision, err := v.Classify(ctx, "feature/brand-new", true)
	require.NoError(t, err)
	require.Equal(t, validate.ScenarioNeverUsed, decision.Scenario)
	require.True(t, decision.Allow)
	require.NoError(t, decision.Err)
}

func TestBranchValidator_ActiveAbortedAllowsRelaunch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	sess, err := store.Create(ctx, "feature/aborted-once", statemachine.WorkflowLaunch, 30*24*time.Hour)
	require.NoError(t, err)
	sess.CurrentState = statemachine.StateAborted
	require.NoError(t, store.Update(ctx, sess))

	v := &validate.BranchValidator{Sessions: store, Git: gitport.NewFake(), Remote: "origin"}
	decision, err := v.Classify(ctx, "feature/aborted-once", true)
	require.NoError(t, err)
	require.Equal(t, validate.ScenarioActiveAborted, decision.Scenario)
	require.True(t, decision.Allow)
}

func TestBranchValidator_MergedDeletedBlocksRelaunch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	sess, err := store.Create(ctx, "feature/shipped", statemachine.WorkflowShip, 30*24*time.Hour)
	require.NoError(t, err)
	sess.Metadata.PR.Merged = true
	sess.CurrentState = statemachine.StateComplete
	require.NoError(t, store.Update(ctx, sess))

	fake := gitport.NewFake()
	// branch absent locally and remotely: a prior session merged it and
	// ship's cleanup step already deleted both copies (S2).
	delete(fake.Local, "feature/shipped")
	delete(fake.Remote, "feature/shipped")

	v := &validate.BranchValidator{Sessions: store, Git: fake, Remote: "origin"}
	decision, err := v.Classify(ctx, "feature/shipped", true)
	require.NoError(t, err)
	require.Equal(t, validate.ScenarioMergedDeleted, decision.Scenario)
	require.False(t, decision.Allow)
	require.Error(t, decision.Err)
	require.Equal(t, "feature/shipped-v2", decision.Suggestion)
}

func TestBranchValidator_MergedRecreatedIsCritical(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	sess, err := store.Create(ctx, "feature/shipped", statemachine.WorkflowShip, 30*24*time.Hour)
	require.NoError(t, err)
	sess.Metadata.PR.Merged = true
	sess.CurrentState = statemachine.StateComplete
	require.NoError(t, store.Update(ctx, sess))

	fake := gitport.NewFake()
	fake.Local["feature/shipped"] = true // someone recreated it locally

	v := &validate.BranchValidator{Sessions: store, Git: fake, Remote: "origin"}
	decision, err := v.Classify(ctx, "feature/shipped", true)
	require.NoError(t, err)
	require.Equal(t, validate.ScenarioMergedRecreated, decision.Scenario)
	require.False(t, decision.Allow)
	require.Error(t, decision.Err)
}

// TestBranchValidator_ForgeHistorySurvivesSessionArchival covers I4/P3:
// Cleanup can delete the terminal session that recorded a merge (spec.md
// §4.6.6), but the branch name must still never be relaunchable, so
// Classify must fall back to the forge's own closed-PR history.
func TestBranchValidator_ForgeHistorySurvivesSessionArchival(t *testing.T) {
	ctx := context.Background()
	store := newStore(t) // no session at all: Cleanup already archived it

	fake := forgeport.NewFake()
	created, err := fake.CreatePullRequest(ctx, forgeport.CreatePRParams{Head: "feature/long-gone", Base: "main"})
	require.NoError(t, err)
	_, err = fake.MergePullRequest(ctx, created.Number, forgeport.MergeSquash)
	require.NoError(t, err)

	v := &validate.BranchValidator{Sessions: store, Git: gitport.NewFake(), Forge: fake, Remote: "origin"}
	decision, err := v.Classify(ctx, "feature/long-gone", true)
	require.NoError(t, err)
	require.Equal(t, validate.ScenarioMergedDeleted, decision.Scenario)
	require.False(t, decision.Allow)
	require.Error(t, decision.Err)
}

func TestBranchValidator_ContinuedWorkAlwaysAllowedForNonLaunch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	sess, err := store.Create(ctx, "feature/shipped", statemachine.WorkflowShip, 30*24*time.Hour)
	require.NoError(t, err)
	sess.Metadata.PR.Merged = true
	sess.CurrentState = statemachine.StateComplete
	require.NoError(t, store.Update(ctx, sess))

	v := &validate.BranchValidator{Sessions: store, Git: gitport.NewFake(), Remote: "origin"}
	decision, err := v.Classify(ctx, "feature/shipped", false)
	require.NoError(t, err)
	require.Equal(t, validate.ScenarioContinuedWork, decision.Scenario)
	require.True(t, decision.Allow)
}

func TestSuggestName(t *testing.T) {
	require.Equal(t, "feature/x-v2", validate.SuggestName("feature/x"))
	require.Equal(t, "feature/x-v3", validate.NextSuggestion("feature/x", 3))
}
