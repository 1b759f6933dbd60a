package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(dir)
	require.NoError(t, err)
	defer log.Close()

	ok := true
	require.NoError(t, log.Append(context.Background(), Entry{
		SessionID: "sess-1",
		Operation: "launch",
		Message:   "session created",
		Success:   &ok,
	}))
	require.NoError(t, log.Append(context.Background(), Entry{
		SessionID: "sess-2",
		Operation: "ship",
		Message:   "pushed",
	}))

	all, err := log.Replay("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyOne, err := log.Replay("sess-1")
	require.NoError(t, err)
	require.Len(t, onlyOne, 1)
	assert.Equal(t, "launch", onlyOne[0].Operation)
	assert.True(t, *onlyOne[0].Success)
}

func TestSQLiteMirror(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(dir)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(context.Background(), Entry{
		SessionID: "sess-1",
		Operation: "commit",
		Message:   "committed",
	}))

	entries, err := log.ForSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "commit", entries[0].Operation)
}
