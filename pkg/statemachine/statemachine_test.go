package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialState(t *testing.T) {
	assert.Equal(t, StateInit, InitialState(WorkflowLaunch))
	assert.Equal(t, StateHotfixInit, InitialState(WorkflowHotfix))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		typ  WorkflowType
		from State
		to   State
		want bool
	}{
		{"launch init to branch ready", WorkflowLaunch, StateInit, StateBranchReady, true},
		{"launch branch ready has no further edge", WorkflowLaunch, StateBranchReady, StateChangesCommitted, false},
		{"ship branch ready to committed", WorkflowShip, StateBranchReady, StateChangesCommitted, true},
		{"ship pr created to merged", WorkflowShip, StatePRCreated, StateMerged, true},
		{"ship merged to complete", WorkflowShip, StateMerged, StateComplete, true},
		{"ship complete is terminal, no edges", WorkflowShip, StateComplete, StateAborted, false},
		{"any non-terminal state reaches aborted", WorkflowShip, StatePushed, StateAborted, true},
		{"hotfix validated can roll back", WorkflowHotfix, StateHotfixValidated, StateHotfixRollback, true},
		{"undefined transition rejected", WorkflowShip, StateInit, StateComplete, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// P4: canTransition(T, s, s') == true iff the table contains (T, s) -> (s', _)
			assert.Equal(t, tc.want, CanTransition(tc.typ, tc.from, tc.to))
		})
	}
}

func TestApply(t *testing.T) {
	to, ok := Apply(WorkflowShip, StatePRCreated, TriggerMerged)
	require.True(t, ok)
	assert.Equal(t, StateMerged, to)

	_, ok = Apply(WorkflowShip, StatePRCreated, TriggerHotfixDeployed)
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(WorkflowShip, StateComplete))
	assert.True(t, IsTerminal(WorkflowHotfix, StateHotfixComplete))
	assert.True(t, IsTerminal(WorkflowShip, StateAborted))
	assert.False(t, IsTerminal(WorkflowShip, StatePRCreated))
}

func TestAbortReachableFromEveryNonTerminalState(t *testing.T) {
	for typ, states := range table {
		for from := range states {
			if terminal[from] {
				continue
			}
			assert.Truef(t, CanTransition(typ, from, StateAborted),
				"expected %s/%s to allow abort_command", typ, from)
		}
	}
}
