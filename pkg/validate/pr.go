package validate

import (
	"context"

	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

// PRScenario names one of spec.md §4.5's classification rows.
type PRScenario string

const (
	PRScenarioCreate PRScenario = "create"
	PRScenarioUpdate PRScenario = "update"
	PRScenarioBlock  PRScenario = "block"
)

// PRDecision is the result of classifying a branch's PR state.
type PRDecision struct {
	Scenario PRScenario
	Action   string // "CREATE", "UPDATE", "BLOCK"
	Existing *forgeport.PRSummary
	Err      error // non-nil when Scenario == PRScenarioBlock (ErrMultiplePRs)
}

// PRValidator classifies the open/merged PR state for a branch per
// spec.md §4.5.
type PRValidator struct {
	Forge forgeport.ForgePort
}

// Classify queries ForgePort for the open PRs whose head equals branchName
// and returns the action the ship pipeline should take. Merged PRs are not
// queried.
func (v *PRValidator) Classify(ctx context.Context, branchName string) (PRDecision, error) {
	open, err := v.Forge.ListPullRequests(ctx, forgeport.ListPRsParams{Head: branchName, State: "open"})
	if err != nil {
		return PRDecision{}, err
	}

	switch len(open) {
	case 0:
		// open == 0: either never opened or a prior one merged — both
		// cases CREATE a new PR (spec.md §4.5 table, rows 1 and 3).
		return PRDecision{Scenario: PRScenarioCreate, Action: "CREATE"}, nil
	case 1:
		pr := open[0]
		return PRDecision{Scenario: PRScenarioUpdate, Action: "UPDATE", Existing: &pr}, nil
	default:
		return PRDecision{
			Scenario: PRScenarioBlock,
			Action:   "BLOCK",
			Err: tlerrors.NewValidationError("multiple_open_prs", branchName,
				"multiple open PRs exist for this branch; close the extras before shipping", ""),
		}, nil
	}
}

// Decide adapts Classify to the (allowed bool, reason string, error)
// shape checks.PRValidatorAllows expects.
func (v *PRValidator) Decide(ctx context.Context, branchName string) (bool, string, error) {
	decision, err := v.Classify(ctx, branchName)
	if err != nil {
		return false, "", err
	}
	if decision.Scenario == PRScenarioBlock {
		return false, decision.Err.Error(), nil
	}
	return true, "", nil
}
