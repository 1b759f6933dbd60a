package orchestrator

import (
	"context"
	"time"

	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/session"
	"trunkline.dev/trunkline/pkg/statemachine"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

// ShipParams is the input to Ship (spec.md §4.6.3).
type ShipParams struct {
	PRDescription string
	Force         bool
	Yes           bool
	OnProgress    func(forgeport.CheckStatus)
}

// Ship runs the seven-step pipeline that takes a feature branch from its
// last commit to merged and cleaned up (S3, S4, S5).
func (o *Orchestrator) Ship(ctx context.Context, p ShipParams) (*ForgeToolResult, error) {
	branch, err := o.Git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := o.Sessions.GetByBranch(ctx, branch)
	if err != nil {
		pre := checks.CheckSet{checks.NoExistingSession(false)}.Run(ctx, false)
		return &ForgeToolResult{SessionToolResult: *sessionResultFailed(pre, branch)}, nil
	}

	mainBranch := o.Config.Git.MainBranch
	remote := o.Config.Git.Remote

	pre := checks.CheckSet{
		checks.SessionNonTerminal(sess.IsTerminal()),
		{Name: "not on main", Run: func(context.Context) checks.Result {
			if branch == mainBranch {
				return checks.Result{Severity: checks.SeverityError, Message: "cannot ship from " + mainBranch}
			}
			return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "on " + branch}
		}},
		checks.BranchNameAvailable(func(ctx context.Context) (bool, string, error) {
			decision, err := o.branchValidator.Classify(ctx, branch, false)
			if err != nil {
				return false, "", err
			}
			return decision.Allow, decision.Suggestion, nil
		}),
		checks.PRValidatorAllows(func(ctx context.Context) (bool, string, error) {
			return o.prValidator.Decide(ctx, branch)
		}),
		checks.HasCommitsAheadOfMain(o.Git, branch, mainBranch),
	}.Run(ctx, p.Force)

	if !pre.OK() {
		return &ForgeToolResult{SessionToolResult: *sessionResultFailed(pre, branch)}, nil
	}

	result := &ForgeToolResult{SessionToolResult: SessionToolResult{BranchName: branch}}

	err = o.withSessionLock(ctx, sess, func() error {
		// Step 1: internal commit if dirty.
		dirty, err := o.Git.HasUncommittedChanges(ctx)
		if err != nil {
			return err
		}
		if dirty {
			if err := o.Git.StageAll(ctx); err != nil {
				return err
			}
			if _, err := o.Git.Commit(ctx, "ship: commit pending changes", false); err != nil {
				return err
			}
			if sess.CurrentState == statemachine.StateBranchReady {
				if sess.WorkflowType == statemachine.WorkflowLaunch {
					sess.WorkflowType = statemachine.WorkflowShip
				}
				if err := o.transition(ctx, sess, statemachine.StateChangesCommitted, statemachine.TriggerCommit, "ship", "internal commit"); err != nil {
					return err
				}
			}
		}

		// Step 2: push.
		if err := o.Git.Push(ctx, remote, branch, false); err != nil {
			return tlerrors.NewShipError("push", "failed to push branch", tlerrors.IsRetryable(err), err)
		}
		// A session left at PR_CREATED by an earlier failed CI run retries
		// from here; it keeps its state through steps 2 and 3.
		retrying := sess.CurrentState == statemachine.StatePRCreated
		if !retrying {
			if err := o.transition(ctx, sess, statemachine.StatePushed, statemachine.TriggerPush, "ship", "pushed "+branch); err != nil {
				return err
			}
		}

		// Step 3: create or update PR.
		decision, err := o.prValidator.Classify(ctx, branch)
		if err != nil {
			return err
		}
		switch decision.Scenario {
		case "block":
			return decision.Err
		case "update":
			if err := o.Forge.UpdatePullRequest(ctx, decision.Existing.Number, forgeport.UpdatePRParams{Body: p.PRDescription}); err != nil {
				return tlerrors.NewShipError("pr_update", "failed to update PR", tlerrors.IsRetryable(err), err)
			}
			sess.Metadata.PR.Number = decision.Existing.Number
			sess.Metadata.PR.Head = branch
			sess.Metadata.PR.Base = mainBranch
			result.PRNumber = decision.Existing.Number
		default: // create
			title := branch
			body := p.PRDescription
			if body == "" && o.AI != nil && o.AI.IsAvailable() {
				if subjects, err := o.Git.CommitSubjects(ctx, mainBranch, branch); err == nil && len(subjects) > 0 {
					if drafted, err := o.AI.Draft(ctx, branch, subjects); err == nil {
						body = drafted
					} else {
						o.Logger.Warn("ship: PR description draft failed, shipping with an empty body", "error", err)
					}
				}
			}
			created, err := o.Forge.CreatePullRequest(ctx, forgeport.CreatePRParams{
				Title: title,
				Body:  body,
				Base:  mainBranch,
				Head:  branch,
			})
			if err != nil {
				return tlerrors.NewShipError("pr_create", "failed to create PR", tlerrors.IsRetryable(err), err)
			}
			sess.Metadata.PR.Number = created.Number
			sess.Metadata.PR.URL = created.URL
			sess.Metadata.PR.Title = title
			sess.Metadata.PR.Body = body
			sess.Metadata.PR.Head = branch
			sess.Metadata.PR.Base = mainBranch
			result.PRNumber = created.Number
			result.PRURL = created.URL
		}
		if !retrying {
			if err := o.transition(ctx, sess, statemachine.StatePRCreated, statemachine.TriggerPRCreated, "ship", "PR ready"); err != nil {
				return err
			}
		} else if err := o.Sessions.Update(ctx, sess); err != nil {
			return err
		}

		// Step 4: wait for CI.
		waitResult, err := o.Forge.WaitForChecks(ctx, sess.Metadata.PR.Number, forgeport.WaitForChecksParams{
			Timeout:      o.Config.Ship.CITimeout,
			PollInterval: o.Config.Ship.PollInterval,
			OnProgress:   p.OnProgress,
		})
		if err != nil {
			if tlerrors.Is(err, context.Canceled) || tlerrors.Is(err, context.DeadlineExceeded) {
				return tlerrors.ErrCancelled
			}
			return tlerrors.NewShipError("ci_wait", "failed waiting for checks", true, err)
		}
		if waitResult.TimedOut {
			return tlerrors.ErrCITimeout
		}
		if !waitResult.Success {
			result.Checks = &forgeport.CheckStatus{Failed: len(waitResult.FailedChecks), FailedNames: waitResult.FailedChecks}
			return tlerrors.ErrCIFailed
		}

		// Step 5: squash-merge.
		strategy := forgeport.MergeStrategy(o.Config.Forge.DefaultMergeMethod)
		merged, err := o.Forge.MergePullRequest(ctx, sess.Metadata.PR.Number, strategy)
		if err != nil || !merged {
			return tlerrors.NewShipError("merge", "failed to merge PR", false, err)
		}
		now := time.Now().UTC()
		sess.Metadata.PR.Merged = true
		sess.Metadata.PR.MergedAt = &now
		result.Merged = true
		if err := o.transition(ctx, sess, statemachine.StateMerged, statemachine.TriggerMerged, "ship", "merged"); err != nil {
			return err
		}

		// Step 6: sync + cleanup (best-effort: failures become warnings,
		// not errors — the merge is authoritative, spec.md §4.6.3).
		o.shipCleanup(ctx, sess, branch, mainBranch, remote, &result.Warnings)

		// Step 7: complete. The merge already happened, so COMPLETE is
		// reached even if cleanup above only partially succeeded
		// (spec.md I3: merged sessions reach a terminal state within the
		// same call).
		return o.transition(ctx, sess, statemachine.StateComplete, statemachine.TriggerCleanupDone, "ship", "complete")
	})

	if err != nil {
		result.Success = false
		result.State = string(sess.CurrentState)
		result.Errors = errStrings(err)
		return result, nil
	}

	result.Success = true
	result.State = string(sess.CurrentState)
	return result, nil
}

func (o *Orchestrator) shipCleanup(ctx context.Context, sess *session.WorkflowSession, branch, mainBranch, remote string, warnings *[]string) {
	warn := func(step string, err error) {
		*warnings = append(*warnings, step+": "+err.Error())
		o.Logger.Warn("ship cleanup step failed", "step", step, "error", err)
	}
	if err := o.Git.CheckoutBranch(ctx, mainBranch); err != nil {
		warn("checkout main", err)
		return
	}
	if err := o.Git.Pull(ctx, remote, mainBranch); err != nil {
		warn("pull main", err)
	}
	if err := o.Git.DeleteBranch(ctx, branch, true); err != nil {
		warn("delete local branch", err)
	}
	if o.Config.Forge.DeleteBranchOnMerge {
		if err := o.Git.DeleteRemoteBranch(ctx, remote, branch); err != nil {
			warn("delete remote branch", err)
		}
	}
	now := time.Now().UTC()
	sess.Metadata.Branch.RemoteDeleted = true
	sess.Metadata.Branch.DeletedAt = &now
	if err := o.Sessions.Update(ctx, sess); err != nil {
		warn("persist branch cleanup metadata", err)
	}
}
