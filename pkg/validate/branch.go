// Package validate implements spec.md §4.4's BranchValidator and §4.5's
// PRValidator, grounded on the teacher's TicketRouter
// (pkg/workflow/router.go): a small, pure, table-driven classifier —
// exactly the shape needed to generalize into the branch-reuse and
// PR-conflict classifiers below.
package validate

import (
	"context"
	"fmt"

	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/gitport"
	"trunkline.dev/trunkline/pkg/session"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

// BranchScenario names one of spec.md §4.4's classification rows.
type BranchScenario string

const (
	ScenarioNeverUsed      BranchScenario = "never_used"
	ScenarioActiveAborted  BranchScenario = "active_aborted"
	ScenarioMergedDeleted  BranchScenario = "merged_deleted"
	ScenarioMergedRecreated BranchScenario = "merged_recreated"
	ScenarioContinuedWork  BranchScenario = "continued_work"
)

// BranchDecision is the result of classifying a proposed branch name.
type BranchDecision struct {
	Scenario   BranchScenario
	Allow      bool
	Err        error // non-nil for BLOCK scenarios (ErrBranchRetired / ErrBranchRecreated)
	Suggestion string
}

// BranchValidator classifies a proposed branch name per spec.md §4.4.
type BranchValidator struct {
	Sessions session.Store
	Git      gitport.GitPort
	Forge    forgeport.ForgePort
	Remote   string
}

// Classify consults SessionStore, Forge, and Git to classify branchName.
// isLaunch distinguishes "launch" callers (who must never reuse a merged
// branch) from "commit/ship" callers continuing an already-open session
// (for whom merged=true on a *different*, earlier session on the same
// name is irrelevant since their own session is the active one).
func (v *BranchValidator) Classify(ctx context.Context, branchName string, isLaunch bool) (BranchDecision, error) {
	sessions, err := v.Sessions.List(ctx, true)
	if err != nil {
		return BranchDecision{}, err
	}

	var priorMerged bool
	var priorAborted bool
	for _, s := range sessions {
		if s.BranchName != branchName {
			continue
		}
		if s.Metadata.PR.Merged {
			priorMerged = true
		}
		if s.CurrentState == "ABORTED" {
			priorAborted = true
		}
	}

	if !isLaunch {
		// commit/push on an existing session: continued work is always
		// allowed, even if an earlier incarnation of this branch merged.
		return BranchDecision{Scenario: ScenarioContinuedWork, Allow: true}, nil
	}

	// The session store only remembers merged history until Cleanup
	// archives the terminal session (spec.md §4.6.6); retirement itself
	// must outlive that, so fall back to the forge's own closed-PR
	// history (I4 / P3: a merged branch name is never relaunchable).
	if !priorMerged && v.Forge != nil {
		closed, err := v.Forge.ListPullRequests(ctx, forgeport.ListPRsParams{Head: branchName, State: "closed"})
		if err != nil {
			return BranchDecision{}, err
		}
		for _, pr := range closed {
			if pr.State == forgeport.PRStateMerged {
				priorMerged = true
				break
			}
		}
	}

	if priorMerged {
		localExists, err := v.Git.BranchExistsLocal(ctx, branchName)
		if err != nil {
			return BranchDecision{}, err
		}
		remoteExists, err := v.Git.BranchExistsRemote(ctx, v.Remote, branchName)
		if err != nil {
			return BranchDecision{}, err
		}
		if localExists || remoteExists {
			return BranchDecision{
				Scenario:   ScenarioMergedRecreated,
				Allow:      false,
				Err:        tlerrors.NewValidationError("branch_recreated", branchName, "branch was merged and has been recreated", SuggestName(branchName)),
				Suggestion: SuggestName(branchName),
			}, nil
		}
		return BranchDecision{
			Scenario:   ScenarioMergedDeleted,
			Allow:      false,
			Err:        tlerrors.NewValidationError("branch_retired", branchName, "branch was merged previously and may not be reused", SuggestName(branchName)),
			Suggestion: SuggestName(branchName),
		}, nil
	}

	if priorAborted {
		return BranchDecision{Scenario: ScenarioActiveAborted, Allow: true}, nil
	}

	return BranchDecision{Scenario: ScenarioNeverUsed, Allow: true}, nil
}

// Decide adapts Classify (isLaunch=true) to the (allowed bool, suggestion
// string, error) shape checks.BranchNameAvailable expects.
func (v *BranchValidator) Decide(ctx context.Context, branchName string) (bool, string, error) {
	decision, err := v.Classify(ctx, branchName, true)
	if err != nil {
		return false, "", err
	}
	return decision.Allow, decision.Suggestion, nil
}

// SuggestName appends -v2, -v3, ... to branchName. The caller is
// responsible for checking each candidate against availability; this
// function only produces the first fallback suggestion, matching
// spec.md §4.4's "Suggestion generator: append -v2, -v3, ... until a name
// passes" contract at the single-step granularity the CheckResult
// surfaces to a caller.
func SuggestName(branchName string) string {
	return fmt.Sprintf("%s-v2", branchName)
}

// NextSuggestion produces the n-th fallback name (n starting at 2), for
// callers that need to probe multiple candidates.
func NextSuggestion(branchName string, n int) string {
	return fmt.Sprintf("%s-v%d", branchName, n)
}
