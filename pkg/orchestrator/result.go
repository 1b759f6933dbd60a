package orchestrator

import (
	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/forgeport"
)

// SessionToolResult is spec.md §3's ToolResult shape for operations whose
// primary effect is a WorkflowSession mutation (launch, commit, abort,
// swap).
type SessionToolResult struct {
	Success                 bool            `json:"success"`
	BranchName              string          `json:"branchName,omitempty"`
	State                   string          `json:"state,omitempty"`
	PreFlightChecks         []checks.Result `json:"preFlightChecks"`
	PostFlightVerifications []checks.Result `json:"postFlightVerifications"`
	Errors                  []string        `json:"errors,omitempty"`
	Warnings                []string        `json:"warnings,omitempty"`
	NextSteps               []string        `json:"nextSteps,omitempty"`
}

// ForgeToolResult is spec.md §3's ToolResult shape for operations whose
// primary effect is visible on the forge (the PR/CI/merge sequence of ship
// and hotfix). It embeds SessionToolResult since both mutate the session too.
type ForgeToolResult struct {
	SessionToolResult
	PRNumber int                    `json:"prNumber,omitempty"`
	PRURL    string                 `json:"prUrl,omitempty"`
	Merged   bool                   `json:"merged,omitempty"`
	Checks   *forgeport.CheckStatus `json:"checks,omitempty"`
}

// QueryToolResult is spec.md §3's ToolResult shape for the read-only
// status/sessions operations (no pre/post-flight checks, since queries
// take no lock and mutate nothing); cleanup also reports through it.
type QueryToolResult struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data,omitempty"`
	Message  string   `json:"message,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func errStrings(errs ...error) []string {
	var out []string
	for _, e := range errs {
		if e != nil {
			out = append(out, e.Error())
		}
	}
	return out
}

func suggestionsFrom(outcome checks.Outcome) []string {
	return outcome.Suggestions
}
