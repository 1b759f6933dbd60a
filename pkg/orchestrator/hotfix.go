package orchestrator

import (
	"context"
	"time"

	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/statemachine"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

// HotfixParams is the input to Hotfix (spec.md §4.6.7): analogous to
// launch+ship but over the hotfix state set, with "validation" and
// "deployment" represented purely as state transitions — external
// deployment stays out of the core (spec.md §9 Open Question).
type HotfixParams struct {
	BranchName    string
	Description   string
	Force         bool
	PRDescription string
}

// Hotfix drives a branch from creation through HOTFIX_COMPLETE in one
// call: branch, commit, push, wait-for-checks ("validated"), a
// transition-only "deploy" step, then sync and cleanup.
func (o *Orchestrator) Hotfix(ctx context.Context, p HotfixParams) (*ForgeToolResult, error) {
	branchName := p.BranchName
	if branchName == "" {
		branchName = slugify(p.Description)
	}
	if branchName == "" {
		return &ForgeToolResult{SessionToolResult: SessionToolResult{Errors: []string{"branchName or description is required"}}}, nil
	}

	mainBranch := o.Config.Git.MainBranch
	remote := o.Config.Git.Remote

	existing, _ := o.Sessions.GetByBranch(ctx, branchName)
	hasActiveSession := existing != nil && !existing.IsTerminal()
	pre := checks.CheckSet{
		checks.OnMainBranch(o.Git, mainBranch),
		checks.WorkingTreeClean(o.Git),
		checks.NoExistingSession(hasActiveSession),
		checks.BranchNameAvailable(func(ctx context.Context) (bool, string, error) {
			return o.branchValidator.Decide(ctx, branchName)
		}),
	}.Run(ctx, p.Force)
	if !pre.OK() {
		return &ForgeToolResult{SessionToolResult: *sessionResultFailed(pre, branchName)}, nil
	}

	sess, err := o.Sessions.Create(ctx, branchName, statemachine.WorkflowHotfix, time.Duration(o.Config.Session.TTLDays)*24*time.Hour)
	if err != nil {
		return nil, err
	}

	result := &ForgeToolResult{SessionToolResult: SessionToolResult{BranchName: branchName}}
	err = o.withSessionLock(ctx, sess, func() error {
		if err := o.Git.CreateBranch(ctx, branchName, mainBranch); err != nil {
			return err
		}
		if err := o.Git.CheckoutBranch(ctx, branchName); err != nil {
			return err
		}
		if err := o.transition(ctx, sess, statemachine.StateHotfixReady, statemachine.TriggerHotfixBranchCreated, "hotfix", "branch ready"); err != nil {
			return err
		}

		dirty, err := o.Git.HasUncommittedChanges(ctx)
		if err != nil {
			return err
		}
		if dirty {
			if err := o.Git.StageAll(ctx); err != nil {
				return err
			}
			if _, err := o.Git.Commit(ctx, "hotfix: "+p.Description, false); err != nil {
				return err
			}
		}
		if err := o.transition(ctx, sess, statemachine.StateHotfixCommitted, statemachine.TriggerHotfixCommit, "hotfix", "committed"); err != nil {
			return err
		}

		if err := o.Git.Push(ctx, remote, branchName, false); err != nil {
			return tlerrors.NewShipError("push", "failed to push hotfix branch", tlerrors.IsRetryable(err), err)
		}
		if err := o.transition(ctx, sess, statemachine.StateHotfixPushed, statemachine.TriggerHotfixPush, "hotfix", "pushed"); err != nil {
			return err
		}

		created, err := o.Forge.CreatePullRequest(ctx, forgeport.CreatePRParams{
			Title: branchName,
			Body:  p.PRDescription,
			Base:  mainBranch,
			Head:  branchName,
		})
		if err != nil {
			return tlerrors.NewShipError("pr_create", "failed to create hotfix PR", tlerrors.IsRetryable(err), err)
		}
		sess.Metadata.PR.Number = created.Number
		sess.Metadata.PR.URL = created.URL
		result.PRNumber = created.Number
		result.PRURL = created.URL

		waitResult, err := o.Forge.WaitForChecks(ctx, created.Number, forgeport.WaitForChecksParams{
			Timeout:      o.Config.Ship.CITimeout,
			PollInterval: o.Config.Ship.PollInterval,
		})
		if err != nil {
			return tlerrors.NewShipError("ci_wait", "failed waiting for hotfix checks", true, err)
		}
		if waitResult.TimedOut {
			return tlerrors.ErrCITimeout
		}
		if !waitResult.Success {
			result.Checks = &forgeport.CheckStatus{Failed: len(waitResult.FailedChecks), FailedNames: waitResult.FailedChecks}
			return tlerrors.ErrCIFailed
		}
		if err := o.transition(ctx, sess, statemachine.StateHotfixValidated, statemachine.TriggerHotfixValidated, "hotfix", "validated"); err != nil {
			return err
		}

		merged, err := o.Forge.MergePullRequest(ctx, created.Number, forgeport.MergeStrategy(o.Config.Forge.DefaultMergeMethod))
		if err != nil || !merged {
			return tlerrors.NewShipError("merge", "failed to merge hotfix PR", false, err)
		}
		now := time.Now().UTC()
		sess.Metadata.PR.Merged = true
		sess.Metadata.PR.MergedAt = &now
		result.Merged = true
		// Deployment is out of core scope (spec.md §9): this transition
		// records that the merge is authoritative for "deployed" without
		// shelling out to any deployment tool.
		if err := o.transition(ctx, sess, statemachine.StateHotfixDeployed, statemachine.TriggerHotfixDeployed, "hotfix", "deployed"); err != nil {
			return err
		}

		var warnings []string
		o.shipCleanup(ctx, sess, branchName, mainBranch, remote, &warnings)
		result.Warnings = append(result.Warnings, warnings...)

		if err := o.transition(ctx, sess, statemachine.StateHotfixCleanup, statemachine.TriggerHotfixCleanupDone, "hotfix", "cleanup done"); err != nil {
			return err
		}
		return o.transition(ctx, sess, statemachine.StateHotfixComplete, statemachine.TriggerHotfixCleanupDone, "hotfix", "complete")
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
