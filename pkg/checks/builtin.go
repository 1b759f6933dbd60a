package checks

import (
	"context"
	"fmt"

	"trunkline.dev/trunkline/pkg/gitport"
)

// OnMainBranch checks that the working tree is on the configured main
// branch, the first of launch's five pre-flight checks (S1).
func OnMainBranch(git gitport.GitPort, mainBranch string) Check {
	return Check{
		Name: "on main branch",
		Run: func(ctx context.Context) Result {
			branch, err := git.CurrentBranch(ctx)
			if err != nil {
				return Result{Severity: SeverityError, Message: err.Error()}
			}
			if branch != mainBranch {
				return Result{
					Severity: SeverityError,
					Message:  fmt.Sprintf("currently on %q, expected %q", branch, mainBranch),
					Details:  Details{Expected: mainBranch, Actual: branch, Suggestion: "checkout " + mainBranch + " first"},
				}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: "on " + mainBranch}
		},
	}
}

// WorkingTreeClean checks for uncommitted changes, demotable via force.
func WorkingTreeClean(git gitport.GitPort) Check {
	return Check{
		Name: "working tree clean",
		Run: func(ctx context.Context) Result {
			dirty, err := git.HasUncommittedChanges(ctx)
			if err != nil {
				return Result{Severity: SeverityError, Message: err.Error()}
			}
			if dirty {
				return Result{
					Severity: SeverityError,
					Message:  "working tree has uncommitted changes",
					Details:  Details{Suggestion: "commit, stash, or pass force=true"},
				}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: "clean"}
		},
	}
}

// MainUpToDate checks that main has no unpulled remote commits.
func MainUpToDate(git gitport.GitPort, mainBranch, remote string) Check {
	return Check{
		Name: "main up to date",
		Run: func(ctx context.Context) Result {
			status, err := git.BranchStatus(ctx, mainBranch, remote)
			if err != nil {
				return Result{Severity: SeverityError, Message: err.Error()}
			}
			if status.Behind > 0 {
				return Result{
					Severity: SeverityError,
					Message:  fmt.Sprintf("%s is %d commits behind %s/%s", mainBranch, status.Behind, remote, mainBranch),
					Details:  Details{Suggestion: "pull " + remote + " " + mainBranch},
				}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: "up to date"}
		},
	}
}

// NoExistingSession checks that no non-terminal session already exists,
// used both for the current branch (commit/ship) and elsewhere.
func NoExistingSession(exists bool) Check {
	return Check{
		Name: "no existing active session",
		Run: func(ctx context.Context) Result {
			if exists {
				return Result{
					Severity: SeverityError,
					Message:  "an active session already exists",
					Details:  Details{Suggestion: "use swap or abort the existing session first"},
				}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: "no conflicting session"}
		},
	}
}

// BranchNameAvailable wraps a BranchValidator decision (pkg/validate) as
// a check named "branch name available" (the check S2 refers to).
func BranchNameAvailable(decide func(ctx context.Context) (bool, string, error)) Check {
	return Check{
		Name: "branch name available",
		Run: func(ctx context.Context) Result {
			allowed, suggestion, err := decide(ctx)
			if err != nil {
				return Result{Severity: SeverityError, Message: err.Error()}
			}
			if !allowed {
				return Result{
					Severity: SeverityError,
					Message:  "branch name is not available",
					Details:  Details{Suggestion: suggestion},
				}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: "available"}
		},
	}
}

// HasCommitsAheadOfMain checks ship's precondition that the branch has at
// least one commit main does not.
func HasCommitsAheadOfMain(git gitport.GitPort, branch, mainBranch string) Check {
	return Check{
		Name: "commits ahead of main",
		Run: func(ctx context.Context) Result {
			ahead, err := git.CommitsAhead(ctx, branch, mainBranch)
			if err != nil {
				return Result{Severity: SeverityError, Message: err.Error()}
			}
			if ahead == 0 {
				return Result{
					Severity: SeverityError,
					Message:  "no commits ahead of " + mainBranch,
					Details:  Details{Suggestion: "commit your changes before shipping"},
				}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: fmt.Sprintf("%d commits ahead", ahead)}
		},
	}
}

// PRValidatorAllows wraps a PRValidator decision as a check.
func PRValidatorAllows(decide func(ctx context.Context) (bool, string, error)) Check {
	return Check{
		Name: "PR state permits ship",
		Run: func(ctx context.Context) Result {
			ok, reason, err := decide(ctx)
			if err != nil {
				return Result{Severity: SeverityError, Message: err.Error()}
			}
			if !ok {
				return Result{Severity: SeverityError, Message: reason}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: "ok"}
		},
	}
}

// SessionNonTerminal checks that a loaded session has not already
// reached a terminal state.
func SessionNonTerminal(isTerminal bool) Check {
	return Check{
		Name: "session is active",
		Run: func(ctx context.Context) Result {
			if isTerminal {
				return Result{Severity: SeverityError, Message: "session has already reached a terminal state"}
			}
			return Result{Passed: true, Severity: SeverityInfo, Message: "active"}
		},
	}
}
