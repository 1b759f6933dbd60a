package orchestrator

import (
	"context"

	"trunkline.dev/trunkline/pkg/audit"
	"trunkline.dev/trunkline/pkg/session"
)

// StatusParams is the input to Status (spec.md §4.6.8).
type StatusParams struct {
	BranchName string // empty means "current branch"
}

// StatusReport is the read-only view of one session Status returns.
type StatusReport struct {
	Session *session.WorkflowSession `json:"session"`
	History []audit.Entry            `json:"history,omitempty"`
}

// Status reports the full state of a single session, read-only: no
// lock is taken and no checks run, grounded on the teacher's
// cmd/pr_view.go (a single-item read with no side effects).
func (o *Orchestrator) Status(ctx context.Context, p StatusParams) (*QueryToolResult, error) {
	branchName := p.BranchName
	if branchName == "" {
		current, err := o.Git.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
		branchName = current
	}

	sess, err := o.Sessions.GetByBranch(ctx, branchName)
	if err != nil {
		return &QueryToolResult{Success: false, Errors: []string{"no session for branch " + branchName}}, nil
	}

	report := StatusReport{Session: sess}
	if o.Audit != nil {
		entries, err := o.Audit.ForSession(ctx, sess.ID)
		if err != nil {
			o.Logger.Warn("status: failed to load audit history", "session", sess.ID, "error", err)
		} else {
			report.History = entries
		}
	}
	return &QueryToolResult{Success: true, Data: report}, nil
}

// SessionsParams is the input to the Sessions query (spec.md §4.6.9).
type SessionsParams struct {
	IncludeTerminal bool
}

// ListSessions lists every known session, read-only, grounded on the
// teacher's cmd/pr_list.go (a filtered multi-item read). Named
// ListSessions rather than Sessions to avoid colliding with the
// Orchestrator.Sessions store field.
func (o *Orchestrator) ListSessions(ctx context.Context, p SessionsParams) (*QueryToolResult, error) {
	sessions, err := o.Sessions.List(ctx, p.IncludeTerminal)
	if err != nil {
		return nil, err
	}
	return &QueryToolResult{Success: true, Data: sessions}, nil
}
