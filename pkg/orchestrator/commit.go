package orchestrator

import (
	"context"

	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/statemachine"
)

// CommitParams is the input to Commit (spec.md §4.6.2).
type CommitParams struct {
	Message    string
	StagedOnly bool
}

func defaultCommitMessage() string { return "wip" }

// Commit stages and commits the working tree onto the session's active
// branch, advancing its state to CHANGES_COMMITTED.
func (o *Orchestrator) Commit(ctx context.Context, p CommitParams) (*SessionToolResult, error) {
	branch, err := o.Git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := o.Sessions.GetByBranch(ctx, branch)
	if err != nil {
		pre := checks.CheckSet{checks.NoExistingSession(false)}.Run(ctx, false)
		return sessionResultFailed(pre, branch), nil
	}

	dirty, err := o.Git.HasUncommittedChanges(ctx)
	if err != nil {
		return nil, err
	}

	pre := checks.CheckSet{
		checks.SessionNonTerminal(sess.IsTerminal()),
		{Name: "uncommitted changes exist", Run: func(context.Context) checks.Result {
			if !dirty {
				return checks.Result{Severity: checks.SeverityError, Message: "no uncommitted changes to commit"}
			}
			return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "dirty"}
		}},
	}.Run(ctx, false)
	if !pre.OK() {
		return sessionResultFailed(pre, branch), nil
	}

	message := p.Message
	if message == "" {
		message = defaultCommitMessage()
	}

	var post checks.Outcome
	err = o.withSessionLock(ctx, sess, func() error {
		if !p.StagedOnly {
			if err := o.Git.StageAll(ctx); err != nil {
				return err
			}
		}
		commitID, err := o.Git.Commit(ctx, message, false)
		if err != nil {
			return err
		}

		// A launch-phase session promotes into the ship workflow type on
		// its first commit — the state machine has no edge out of
		// BRANCH_READY under WorkflowLaunch by design (spec.md §4.1:
		// "static structure; no runtime registration"), so the session's
		// type itself advances here rather than the table growing an
		// edge that would let launch skip straight past commit.
		if sess.WorkflowType == statemachine.WorkflowLaunch {
			sess.WorkflowType = statemachine.WorkflowShip
		}
		if err := o.transition(ctx, sess, statemachine.StateChangesCommitted, statemachine.TriggerCommit, "commit", "committed "+commitID); err != nil {
			return err
		}

		stillDirty, err := o.Git.HasUncommittedChanges(ctx)
		if err != nil {
			return err
		}
		post = checks.CheckSet{
			{Name: "commit recorded", Run: func(context.Context) checks.Result {
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: commitID}
			}},
			{Name: "session state advanced", Run: func(context.Context) checks.Result {
				if sess.CurrentState != statemachine.StateChangesCommitted {
					return checks.Result{Severity: checks.SeverityError, Message: "state is " + string(sess.CurrentState)}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "CHANGES_COMMITTED"}
			}},
			{Name: "working tree clean", Run: func(context.Context) checks.Result {
				if stillDirty {
					return checks.Result{Severity: checks.SeverityWarning, Message: "working tree still has unstaged changes"}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "clean"}
			}},
		}.Run(ctx, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessionResult(true, sess, pre, post, nil, nil, []string{"ship when ready"}), nil
}
