// Package session implements spec.md §3's WorkflowSession data model and
// §4.2's SessionStore, grounded on the teacher's
// pkg/workflow/checkpoint.go (atomic persistence) generalized from one
// checkpoint per worktree into a store of many sessions, plus the
// forensic append-only record idiom in
// other_examples/.../internal-session-session.go.go for locking and
// state-history bookkeeping.
package session

import (
	"time"

	"trunkline.dev/trunkline/pkg/statemachine"
)

// PRMetadata is the nested PR record inside a session's metadata.
type PRMetadata struct {
	Number   int        `json:"number,omitempty"`
	URL      string     `json:"url,omitempty"`
	Title    string     `json:"title,omitempty"`
	Body     string     `json:"body,omitempty"`
	Base     string     `json:"base,omitempty"`
	Head     string     `json:"head,omitempty"`
	Merged   bool       `json:"merged"`
	MergedAt *time.Time `json:"mergedAt,omitempty"`
}

// BranchMetadata is the nested branch-lifecycle record BranchValidator
// consults.
type BranchMetadata struct {
	RemoteDeleted bool       `json:"remoteDeleted"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	Recreated     bool       `json:"recreated"`
	RecreatedAt   *time.Time `json:"recreatedAt,omitempty"`
	StashRef      string     `json:"stashRef,omitempty"`
}

// Metadata is the recognized-fields bag spec.md §3 describes.
type Metadata struct {
	ProjectPath string         `json:"projectPath,omitempty"`
	RemoteURL   string         `json:"remoteUrl,omitempty"`
	ForgeKind   string         `json:"forgeKind,omitempty"`
	UserName    string         `json:"userName,omitempty"`
	UserEmail   string         `json:"userEmail,omitempty"`
	PR          PRMetadata     `json:"pr"`
	Branch      BranchMetadata `json:"branch"`
}

// StateTransition is one entry in a session's append-only state history.
type StateTransition struct {
	From        statemachine.State   `json:"from"`
	To          statemachine.State   `json:"to"`
	Trigger     statemachine.Trigger `json:"trigger"`
	TimestampUTC time.Time           `json:"timestampUtc"`
	Metadata    map[string]string    `json:"metadata,omitempty"`
}

// WorkflowSession is the primary entity, serialized to
// sessions/<id>.json.
type WorkflowSession struct {
	ID           string                  `json:"id"`
	BranchName   string                  `json:"branchName"`
	WorkflowType statemachine.WorkflowType `json:"workflowType"`
	CurrentState statemachine.State      `json:"currentState"`
	StateHistory []StateTransition       `json:"stateHistory"`
	Metadata     Metadata                `json:"metadata"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
	ExpiresAt    time.Time               `json:"expiresAt"`
}

// IsTerminal reports whether the session has reached a terminal state.
func (s *WorkflowSession) IsTerminal() bool {
	return statemachine.IsTerminal(s.WorkflowType, s.CurrentState)
}

// IsExpired reports whether now is past the session's expiresAt.
func (s *WorkflowSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Transition advances the session to `to` via `trigger`, recording the
// move in stateHistory and bumping updatedAt. It does not validate the
// transition against the state machine table — callers (the
// orchestrator) are expected to have already called
// statemachine.CanTransition.
func (s *WorkflowSession) Transition(to statemachine.State, trigger statemachine.Trigger, now time.Time, meta map[string]string) {
	s.StateHistory = append(s.StateHistory, StateTransition{
		From:         s.CurrentState,
		To:           to,
		Trigger:      trigger,
		TimestampUTC: now.UTC(),
		Metadata:     meta,
	})
	s.CurrentState = to
	s.UpdatedAt = now.UTC()
}

// IndexEntry is one row of session-index.json.
type IndexEntry struct {
	ID           string                    `json:"id"`
	BranchName   string                    `json:"branchName"`
	WorkflowType statemachine.WorkflowType `json:"workflowType"`
	CurrentState statemachine.State        `json:"currentState"`
	StartedAt    time.Time                 `json:"startedAt"`
	LastModified time.Time                 `json:"lastModified"`
}

// Index is the persisted shape of session-index.json.
type Index struct {
	Version  int          `json:"version"`
	Sessions []IndexEntry `json:"sessions"`
}

const indexVersion = 1
