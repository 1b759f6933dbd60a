package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/statemachine"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "feature/a", statemachine.WorkflowLaunch, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, statemachine.StateInit, sess.CurrentState)

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.BranchName, loaded.BranchName)
}

func TestCreateRejectsDuplicateActiveBranch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "feature/a", statemachine.WorkflowLaunch, time.Hour)
	require.NoError(t, err)

	_, err = store.Create(ctx, "feature/a", statemachine.WorkflowLaunch, time.Hour)
	require.Error(t, err)
	assert.True(t, tlerrors.Is(err, tlerrors.ErrSessionExists))
}

func TestCreateAllowsReuseAfterTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "feature/a", statemachine.WorkflowLaunch, time.Hour)
	require.NoError(t, err)
	sess.Transition(statemachine.StateAborted, statemachine.TriggerAbortCommand, time.Now(), nil)
	require.NoError(t, store.Update(ctx, sess))

	_, err = store.Create(ctx, "feature/a", statemachine.WorkflowLaunch, time.Hour)
	assert.NoError(t, err)
}

func TestGetByBranchFallsBackToScanWhenIndexMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "feature/scan", statemachine.WorkflowLaunch, time.Hour)
	require.NoError(t, err)

	// Simulate an unflushed/missing index.
	require.NoError(t, store.removeFromIndex(sess.ID))

	found, err := store.GetByBranch(ctx, "feature/scan")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
}

func TestListExcludesTerminalByDefault(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	active, err := store.Create(ctx, "feature/active", statemachine.WorkflowLaunch, time.Hour)
	require.NoError(t, err)
	done, err := store.Create(ctx, "feature/done", statemachine.WorkflowLaunch, time.Hour)
	require.NoError(t, err)
	done.Transition(statemachine.StateAborted, statemachine.TriggerAbortCommand, time.Now(), nil)
	require.NoError(t, store.Update(ctx, done))

	nonTerminal, err := store.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, nonTerminal, 1)
	assert.Equal(t, active.ID, nonTerminal[0].ID)

	all, err := store.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLockMutualExclusion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess, err := store.Create(ctx, "feature/lock", statemachine.WorkflowLaunch, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.AcquireLock(ctx, sess.ID, 50*time.Millisecond))

	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err = store.AcquireLock(shortCtx, sess.ID, 50*time.Millisecond)
	assert.Error(t, err) // P2: the other caller fails with ErrLockHeld (or deadline)

	require.NoError(t, store.ReleaseLock(sess.ID))
	require.NoError(t, store.AcquireLock(ctx, sess.ID, 50*time.Millisecond))
	require.NoError(t, store.ReleaseLock(sess.ID))
}

func TestTransitionRecordsHistory(t *testing.T) {
	now := time.Now()
	sess := &WorkflowSession{CurrentState: statemachine.StateInit}
	sess.Transition(statemachine.StateBranchReady, statemachine.TriggerBranchCreated, now, nil)

	require.Len(t, sess.StateHistory, 1)
	// P1: stateHistory.last.to == currentState
	assert.Equal(t, sess.CurrentState, sess.StateHistory[len(sess.StateHistory)-1].To)
}

func TestRoundTripPreservesFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess, err := store.Create(ctx, "feature/roundtrip", statemachine.WorkflowShip, time.Hour)
	require.NoError(t, err)
	sess.Metadata.PR = PRMetadata{Number: 7, Title: "widget"}
	sess.Transition(statemachine.StateChangesCommitted, statemachine.TriggerCommit, time.Now(), map[string]string{"sha": "abc"})
	require.NoError(t, store.Update(ctx, sess))

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Metadata, loaded.Metadata)
	assert.Equal(t, sess.CurrentState, loaded.CurrentState)
	assert.Equal(t, sess.StateHistory, loaded.StateHistory)
}
