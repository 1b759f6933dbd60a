// Package statemachine implements the pure per-workflow-type transition
// table that governs legal WorkflowSession state changes. It holds no
// state of its own and performs no I/O; the teacher's equivalent is the
// Step enum in pkg/workflow/types.go, generalized here from one linear
// sequence into a full graph covering both the standard and hotfix
// workflows plus their side states.
package statemachine

// WorkflowType names one of the workflow families a session can belong to.
type WorkflowType string

const (
	WorkflowLaunch WorkflowType = "launch"
	WorkflowShip   WorkflowType = "ship"
	WorkflowHotfix WorkflowType = "hotfix"
)

// State is a member of the state enumeration for some WorkflowType.
type State string

// Standard workflow states (spec.md §3).
const (
	StateInit              State = "INIT"
	StateBranchReady       State = "BRANCH_READY"
	StateChangesCommitted  State = "CHANGES_COMMITTED"
	StatePushed            State = "PUSHED"
	StatePRCreated         State = "PR_CREATED"
	StateWaitingApproval   State = "WAITING_APPROVAL"
	StateMerged            State = "MERGED"
	StateComplete          State = "COMPLETE"
	StateConflictResolution State = "CONFLICT_RESOLUTION"
	StateRebasing          State = "REBASING"
	StateAborted           State = "ABORTED"
)

// Hotfix workflow states.
const (
	StateHotfixInit      State = "HOTFIX_INIT"
	StateHotfixReady     State = "HOTFIX_READY"
	StateHotfixCommitted State = "HOTFIX_COMMITTED"
	StateHotfixPushed    State = "HOTFIX_PUSHED"
	StateHotfixValidated State = "HOTFIX_VALIDATED"
	StateHotfixDeployed  State = "HOTFIX_DEPLOYED"
	StateHotfixCleanup   State = "HOTFIX_CLEANUP"
	StateHotfixComplete  State = "HOTFIX_COMPLETE"
	StateHotfixRollback  State = "ROLLBACK"
)

// Trigger names the event that causes a transition.
type Trigger string

const (
	TriggerCreate          Trigger = "create"
	TriggerBranchCreated   Trigger = "branch_created"
	TriggerCommit          Trigger = "commit"
	TriggerPush            Trigger = "push"
	TriggerPRCreated       Trigger = "pr_created"
	TriggerReviewRequested Trigger = "review_requested"
	TriggerCIPassed        Trigger = "ci_passed"
	TriggerMerged          Trigger = "merged"
	TriggerCleanupDone     Trigger = "cleanup_done"
	TriggerConflict        Trigger = "conflict_detected"
	TriggerResolved        Trigger = "conflict_resolved"
	TriggerAbortCommand    Trigger = "abort_command"

	TriggerHotfixBranchCreated Trigger = "hotfix_branch_created"
	TriggerHotfixCommit       Trigger = "hotfix_commit"
	TriggerHotfixPush         Trigger = "hotfix_push"
	TriggerHotfixValidated    Trigger = "hotfix_validated"
	TriggerHotfixDeployed     Trigger = "hotfix_deployed"
	TriggerHotfixCleanupDone  Trigger = "hotfix_cleanup_done"
	TriggerRollback           Trigger = "rollback"
)

// Edge is one allowed (toState, trigger) pair from some fromState.
type Edge struct {
	To      State
	Trigger Trigger
}

// table is the static transition graph. Every non-terminal state in every
// workflow type also implicitly allows abort_command -> ABORTED; that is
// added programmatically in init rather than repeated on every row.
var table = map[WorkflowType]map[State][]Edge{
	WorkflowLaunch: {
		StateInit:        {{StateBranchReady, TriggerBranchCreated}},
		StateBranchReady: {},
	},
	WorkflowShip: {
		StateBranchReady:      {{StateChangesCommitted, TriggerCommit}},
		StateChangesCommitted: {{StatePushed, TriggerPush}},
		StatePushed:           {{StatePRCreated, TriggerPRCreated}},
		StatePRCreated: {
			{StateWaitingApproval, TriggerReviewRequested},
			{StateMerged, TriggerMerged},
			{StateConflictResolution, TriggerConflict},
		},
		StateWaitingApproval: {
			{StateMerged, TriggerMerged},
			{StateConflictResolution, TriggerConflict},
		},
		StateConflictResolution: {{StateRebasing, TriggerResolved}},
		StateRebasing: {
			{StatePushed, TriggerPush},
			{StateConflictResolution, TriggerConflict},
		},
		StateMerged: {{StateComplete, TriggerCleanupDone}},
		StateComplete: {},
	},
	WorkflowHotfix: {
		StateHotfixInit:      {{StateHotfixReady, TriggerHotfixBranchCreated}},
		StateHotfixReady:     {{StateHotfixCommitted, TriggerHotfixCommit}},
		StateHotfixCommitted: {{StateHotfixPushed, TriggerHotfixPush}},
		StateHotfixPushed:    {{StateHotfixValidated, TriggerHotfixValidated}},
		StateHotfixValidated: {
			{StateHotfixDeployed, TriggerHotfixDeployed},
			{StateHotfixRollback, TriggerRollback},
		},
		StateHotfixRollback:  {{StateHotfixValidated, TriggerHotfixValidated}},
		StateHotfixDeployed:  {{StateHotfixCleanup, TriggerHotfixCleanupDone}},
		StateHotfixCleanup:   {{StateHotfixComplete, TriggerHotfixCleanupDone}},
		StateHotfixComplete:  {},
	},
}

var terminal = map[State]bool{
	StateComplete:       true,
	StateHotfixComplete: true,
	StateAborted:        true,
}

func init() {
	// ABORTED is reachable from every non-terminal state, for every
	// workflow type, via abort_command (spec.md §4.1).
	for _, states := range table {
		for from, edges := range states {
			if terminal[from] {
				continue
			}
			states[from] = append(edges, Edge{StateAborted, TriggerAbortCommand})
		}
	}
}

// InitialState returns the entry state for a workflow type.
func InitialState(t WorkflowType) State {
	switch t {
	case WorkflowLaunch:
		return StateInit
	case WorkflowHotfix:
		return StateHotfixInit
	default:
		return StateBranchReady
	}
}

// IsTerminal reports whether state has no outgoing transitions for any
// workflow type.
func IsTerminal(t WorkflowType, s State) bool {
	return terminal[s]
}

// CanTransition reports whether (from, to) is reachable via some trigger
// for the given workflow type.
func CanTransition(t WorkflowType, from, to State) bool {
	for _, edge := range table[t][from] {
		if edge.To == to {
			return true
		}
	}
	return false
}

// Apply returns the resulting state after firing trigger from from, or
// ("", false) if the transition is not in the table.
func Apply(t WorkflowType, from State, trigger Trigger) (State, bool) {
	for _, edge := range table[t][from] {
		if edge.Trigger == trigger {
			return edge.To, true
		}
	}
	return "", false
}

// AllowedEdges lists every (to, trigger) pair reachable from from, for
// introspection and testing.
func AllowedEdges(t WorkflowType, from State) []Edge {
	edges := table[t][from]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}
