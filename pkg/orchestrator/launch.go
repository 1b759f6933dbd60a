package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"time"

	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/statemachine"
)

// LaunchParams is the input to Launch (spec.md §4.6.1).
type LaunchParams struct {
	BranchName  string
	Description string
	Force       bool
	StashRef    string
}

// Launch creates a new feature branch and its backing session (S1).
func (o *Orchestrator) Launch(ctx context.Context, p LaunchParams) (*SessionToolResult, error) {
	branchName := p.BranchName
	if branchName == "" {
		branchName = slugify(p.Description)
	}
	if branchName == "" {
		return &SessionToolResult{Success: false, Errors: []string{"branchName or description is required"}}, nil
	}

	existing, _ := o.Sessions.GetByBranch(ctx, branchName)
	hasActiveSession := existing != nil && !existing.IsTerminal()

	pre := checks.CheckSet{
		checks.OnMainBranch(o.Git, o.Config.Git.MainBranch),
		checks.WorkingTreeClean(o.Git),
		checks.MainUpToDate(o.Git, o.Config.Git.MainBranch, o.Config.Git.Remote),
		checks.NoExistingSession(hasActiveSession),
		checks.BranchNameAvailable(func(ctx context.Context) (bool, string, error) {
			return o.branchValidator.Decide(ctx, branchName)
		}),
	}.Run(ctx, p.Force)

	if !pre.OK() {
		return sessionResultFailed(pre, branchName), nil
	}

	sess, err := o.Sessions.Create(ctx, branchName, statemachine.WorkflowLaunch, time.Duration(o.Config.Session.TTLDays)*24*time.Hour)
	if err != nil {
		return nil, err
	}
	o.appendAudit(ctx, sess.ID, "launch", string(sess.CurrentState), "create", "session created for "+branchName, true)

	var post checks.Outcome
	err = o.withSessionLock(ctx, sess, func() error {
		mainBranch := o.Config.Git.MainBranch
		if err := o.Git.CreateBranch(ctx, branchName, mainBranch); err != nil {
			return err
		}
		if err := o.Git.CheckoutBranch(ctx, branchName); err != nil {
			return err
		}
		if err := o.transition(ctx, sess, statemachine.StateBranchReady, statemachine.TriggerBranchCreated, "launch", "branch ready"); err != nil {
			return err
		}
		if p.StashRef != "" {
			if err := o.Git.StashApply(ctx, p.StashRef); err != nil {
				return err
			}
			sess.Metadata.Branch.StashRef = p.StashRef
			if err := o.Sessions.Update(ctx, sess); err != nil {
				return err
			}
		}

		current, err := o.Git.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		dirty, err := o.Git.HasUncommittedChanges(ctx)
		if err != nil {
			return err
		}
		post = checks.CheckSet{
			{Name: "session created", Run: func(context.Context) checks.Result {
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "session " + sess.ID}
			}},
			{Name: "branch is current", Run: func(context.Context) checks.Result {
				if current != branchName {
					return checks.Result{Severity: checks.SeverityError, Message: "expected to be on " + branchName + ", got " + current}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "on " + branchName}
			}},
			{Name: "state is BRANCH_READY", Run: func(context.Context) checks.Result {
				if sess.CurrentState != statemachine.StateBranchReady {
					return checks.Result{Severity: checks.SeverityError, Message: "state is " + string(sess.CurrentState)}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "BRANCH_READY"}
			}},
			{Name: "working tree matches expectation", Run: func(context.Context) checks.Result {
				if p.StashRef == "" && dirty {
					return checks.Result{Severity: checks.SeverityWarning, Message: "working tree is dirty after launch"}
				}
				return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "as expected"}
			}},
		}.Run(ctx, false)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessionResult(true, sess, pre, post, nil, nil, []string{"commit your changes, then ship when ready"}), nil
}

func sessionResultFailed(pre checks.Outcome, branchName string) *SessionToolResult {
	r := &SessionToolResult{
		Success:         false,
		BranchName:      branchName,
		PreFlightChecks: pre.Results,
		Warnings:        outcomeWarnings(pre),
	}
	for _, name := range failedCheckNames(pre) {
		r.Errors = append(r.Errors, name+" failed")
	}
	r.NextSteps = suggestionsFrom(pre)
	return r
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a free-text description into a branch-name-safe slug,
// grounded on the teacher's parseTicket normalization posture (lowercase,
// alphanumeric segments joined by dashes).
func slugify(description string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return ""
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return "feature/" + strings.Trim(s, "-")
}
