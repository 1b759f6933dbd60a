package orchestrator

import (
	"context"

	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/statemachine"
)

// AbortParams is the input to Abort (spec.md §4.6.4).
type AbortParams struct {
	BranchName   string
	DeleteBranch bool
	Force        bool
	Yes          bool
}

// Abort terminates a session's workflow without merging (S6).
func (o *Orchestrator) Abort(ctx context.Context, p AbortParams) (*SessionToolResult, error) {
	branch := p.BranchName
	if branch == "" {
		current, err := o.Git.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
		branch = current
	}

	sess, err := o.Sessions.GetByBranch(ctx, branch)
	if err != nil {
		pre := checks.CheckSet{checks.NoExistingSession(false)}.Run(ctx, false)
		return sessionResultFailed(pre, branch), nil
	}

	pre := checks.CheckSet{checks.SessionNonTerminal(sess.IsTerminal())}.Run(ctx, false)
	if !pre.OK() {
		return sessionResultFailed(pre, branch), nil
	}

	mainBranch := o.Config.Git.MainBranch
	var post checks.Outcome
	err = o.withSessionLock(ctx, sess, func() error {
		dirty, err := o.Git.HasUncommittedChanges(ctx)
		if err != nil {
			return err
		}
		if dirty && !p.Force {
			if _, err := o.Git.Stash(ctx, "trunkline abort: "+branch); err != nil {
				return err
			}
		}

		if err := o.transition(ctx, sess, statemachine.StateAborted, statemachine.TriggerAbortCommand, "abort", "aborted"); err != nil {
			return err
		}
		if err := o.Git.CheckoutBranch(ctx, mainBranch); err != nil {
			return err
		}

		if p.DeleteBranch {
			if err := o.Git.DeleteBranch(ctx, branch, true); err != nil {
				o.Logger.Warn("failed to delete local branch on abort", "branch", branch, "error", err)
			}
			hasRemote, err := o.Git.BranchExistsRemote(ctx, o.Config.Git.Remote, branch)
			if err == nil && hasRemote {
				if err := o.Git.DeleteRemoteBranch(ctx, o.Config.Git.Remote, branch); err != nil {
					o.Logger.Warn("failed to delete remote branch on abort", "branch", branch, "error", err)
				}
			}
		}

		current, err := o.Git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		localExists, _ := o.Git.BranchExistsLocal(ctx, branch)
		post = checks.CheckSet{
			{Name: "session is ABORTED", Run: func(context.Context) checks.Result {
				if sess.CurrentState != statemachine.StateAborted {
					return checks.Result{Severity: checks.SeverityError, Message: "state is " + string(sess.CurrentState)}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "ABORTED"}
			}},
			{Name: "on main", Run: func(context.Context) checks.Result {
				if current != mainBranch {
					return checks.Result{Severity: checks.SeverityError, Message: "still on " + current}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "on " + mainBranch}
			}},
			{Name: "branch deletion as requested", Run: func(context.Context) checks.Result {
				if p.DeleteBranch && localExists {
					return checks.Result{Severity: checks.SeverityWarning, Message: "local branch still present"}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "ok"}
			}},
		}.Run(ctx, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessionResult(true, sess, pre, post, nil, nil, nil), nil
}
