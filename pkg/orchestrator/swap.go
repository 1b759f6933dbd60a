package orchestrator

import (
	"context"

	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

// SwapParams is the input to Swap (spec.md §4.6.5).
type SwapParams struct {
	BranchName string
	Force      bool
	Stash      bool
}

// Swap switches the working tree to another session's branch.
func (o *Orchestrator) Swap(ctx context.Context, p SwapParams) (*SessionToolResult, error) {
	sess, err := o.Sessions.GetByBranch(ctx, p.BranchName)
	if err != nil {
		pre := checks.CheckSet{checks.NoExistingSession(false)}.Run(ctx, false)
		return sessionResultFailed(pre, p.BranchName), nil
	}

	current, err := o.Git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}

	pre := checks.CheckSet{
		checks.SessionNonTerminal(sess.IsTerminal()),
		{Name: "not already on target branch", Run: func(context.Context) checks.Result {
			if current == p.BranchName {
				return checks.Result{Severity: checks.SeverityError, Message: "already on " + p.BranchName}
			}
			return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "on " + current}
		}},
	}.Run(ctx, p.Force)
	if !pre.OK() {
		return sessionResultFailed(pre, p.BranchName), nil
	}

	var post checks.Outcome
	var stashRef string
	err = o.withSessionLock(ctx, sess, func() error {
		dirty, err := o.Git.HasUncommittedChanges(ctx)
		if err != nil {
			return err
		}
		if dirty {
			if !p.Stash && !p.Force {
				return tlerrors.ErrDirtyWorkingTree
			}
			if p.Stash {
				ref, err := o.Git.Stash(ctx, "trunkline swap: "+current+" -> "+p.BranchName)
				if err != nil {
					return err
				}
				stashRef = ref
			}
		}
		if err := o.Git.CheckoutBranch(ctx, p.BranchName); err != nil {
			return err
		}

		if stashRef != "" {
			sess.Metadata.Branch.StashRef = stashRef
			if err := o.Sessions.Update(ctx, sess); err != nil {
				return err
			}
		}
		o.appendAudit(ctx, sess.ID, "swap", string(sess.CurrentState), "", "swapped onto "+p.BranchName, true)

		nowOn, err := o.Git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		post = checks.CheckSet{
			{Name: "on target branch", Run: func(context.Context) checks.Result {
				if nowOn != p.BranchName {
					return checks.Result{Severity: checks.SeverityError, Message: "expected " + p.BranchName + ", got " + nowOn}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "on " + p.BranchName}
			}},
			{Name: "target session loadable", Run: func(context.Context) checks.Result {
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: sess.ID}
			}},
		}.Run(ctx, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessionResult(true, sess, pre, post, nil, nil, nil), nil
}
