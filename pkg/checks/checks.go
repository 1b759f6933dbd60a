// Package checks implements spec.md §4.3's CheckEngine: composable named
// checks executed in sequence, grounded on the teacher's
// Engine.Preflight/PreflightResult.IsReady (pkg/workflow/merge.go,
// types.go) and the CheckRunner lifecycle in
// other_examples/.../apps-cli-internal-runner-check.go.go, generalized
// from one fixed bundle into a reusable ordered CheckSet usable for both
// pre-flight and post-flight verification across every operation.
package checks

import "context"

// Severity classifies a CheckResult.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Details carries the optional expected/actual/suggestion fields spec.md
// §3 names for a CheckResult.
type Details struct {
	Expected   string
	Actual     string
	Suggestion string
}

// Result is spec.md §3's CheckResult shape.
type Result struct {
	Name     string
	Passed   bool
	Severity Severity
	Message  string
	Details  Details
}

// Check is a named, side-effect-free function returning a Result. Checks
// may read Git/forge state but must never mutate it, and must never
// retry internally — retries are the caller's responsibility
// (spec.md §4.3).
type Check struct {
	Name string
	Run  func(ctx context.Context) Result
}

// Outcome is the aggregated result of running a CheckSet.
type Outcome struct {
	Results    []Result
	Passed     int
	Failed     int
	Warnings   int
	Suggestions []string
	// Forced is true when a caller-supplied force flag demoted one or
	// more error-severity failures to warnings in this outcome.
	Forced bool
}

// OK reports whether the outcome permits the caller to proceed: no
// remaining error-severity failures.
func (o Outcome) OK() bool {
	return o.Failed == 0
}

// CheckSet is an ordered list of checks executed sequentially. Execution
// stops after the first error-severity failure unless force is true, in
// which case errors are demoted to warnings in the aggregate outcome but
// still reported and all remaining checks still run.
type CheckSet []Check

// Run executes every check in order, short-circuiting on the first
// error-severity failure unless force is set.
func (cs CheckSet) Run(ctx context.Context, force bool) Outcome {
	var out Outcome
	for _, c := range cs {
		result := c.Run(ctx)
		result.Name = c.Name
		out.Results = append(out.Results, result)

		if result.Passed {
			out.Passed++
			continue
		}

		switch result.Severity {
		case SeverityError:
			if force {
				out.Warnings++
				out.Forced = true
			} else {
				out.Failed++
			}
		case SeverityWarning:
			out.Warnings++
		default:
			out.Passed++ // info-severity non-pass is advisory only
		}

		if result.Details.Suggestion != "" {
			out.Suggestions = append(out.Suggestions, result.Details.Suggestion)
		}

		if result.Severity == SeverityError && !force {
			break
		}
	}
	return out
}
