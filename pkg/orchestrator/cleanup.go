package orchestrator

import (
	"context"
	"time"

	"trunkline.dev/trunkline/pkg/checks"
)

// CleanupParams is the input to Cleanup (spec.md §4.6.6).
type CleanupParams struct {
	DryRun bool
	Yes    bool
	Days   int
}

// CleanupReport summarizes what Cleanup did or would do.
type CleanupReport struct {
	OrphanedBranches []string
	DeletedBranches  []string
	ExpiredSessions  []string
	DeletedSessions  []string
	ReclaimedLocks   int
}

// Cleanup fast-forwards main, then removes local branches with no
// matching non-terminal session, sessions older than Days that are
// terminal or expired, and stale locks.
func (o *Orchestrator) Cleanup(ctx context.Context, p CleanupParams) (*QueryToolResult, error) {
	days := p.Days
	if days <= 0 {
		days = o.Config.Session.TTLDays
	}

	mainBranch := o.Config.Git.MainBranch
	remote := o.Config.Git.Remote
	if err := o.Git.Fetch(ctx, remote, ""); err != nil {
		o.Logger.Warn("cleanup: fetch failed", "error", err)
	}
	current, err := o.Git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if current != mainBranch {
		if err := o.Git.CheckoutBranch(ctx, mainBranch); err != nil {
			return nil, err
		}
	}
	if err := o.Git.Pull(ctx, remote, mainBranch); err != nil {
		o.Logger.Warn("cleanup: pull failed", "error", err)
	}

	allSessions, err := o.Sessions.List(ctx, true)
	if err != nil {
		return nil, err
	}
	activeBranch := map[string]bool{}
	for _, s := range allSessions {
		if !s.IsTerminal() {
			activeBranch[s.BranchName] = true
		}
	}

	localBranches, err := o.Git.ListLocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	var report CleanupReport
	for _, b := range localBranches {
		if b == mainBranch || activeBranch[b] {
			continue
		}
		report.OrphanedBranches = append(report.OrphanedBranches, b)
	}

	now := time.Now()
	cutoff := now.AddDate(0, 0, -days)
	for _, s := range allSessions {
		if !s.IsTerminal() && !s.IsExpired(now) {
			continue
		}
		if s.UpdatedAt.Before(cutoff) {
			report.ExpiredSessions = append(report.ExpiredSessions, s.ID)
		}
	}

	if p.DryRun {
		return &QueryToolResult{Success: true, Data: report, Message: "dry run: no changes made"}, nil
	}

	for _, b := range report.OrphanedBranches {
		if err := o.Git.DeleteBranch(ctx, b, true); err != nil {
			o.Logger.Warn("cleanup: failed to delete orphaned branch", "branch", b, "error", err)
			continue
		}
		report.DeletedBranches = append(report.DeletedBranches, b)
	}
	for _, id := range report.ExpiredSessions {
		if err := o.Sessions.Delete(ctx, id); err != nil {
			o.Logger.Warn("cleanup: failed to delete session", "session", id, "error", err)
			continue
		}
		report.DeletedSessions = append(report.DeletedSessions, id)
	}

	reclaimed, err := o.Sessions.ReclaimStaleLocks()
	if err != nil {
		o.Logger.Warn("cleanup: failed to reclaim stale locks", "error", err)
	}
	report.ReclaimedLocks = reclaimed

	finalBranch, _ := o.Git.CurrentBranch(ctx)
	post := checks.CheckSet{
		{Name: "on main", Run: func(context.Context) checks.Result {
			if finalBranch != mainBranch {
				return checks.Result{Severity: checks.SeverityError, Message: "on " + finalBranch}
			}
			return checks.Result{Passed: true, Severity: checks.SeverityInfo, Message: "on " + mainBranch}
		}},
	}.Run(ctx, false)

	return &QueryToolResult{
		Success:  post.OK(),
		Data:     report,
		Warnings: outcomeWarnings(post),
	}, nil
}
