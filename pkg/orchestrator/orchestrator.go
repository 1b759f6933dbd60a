// Package orchestrator implements spec.md §4.6's Orchestrator: the seven
// workflow operations (launch, commit, ship, abort, swap, cleanup,
// hotfix) plus the status/sessions queries, composed from GitPort,
// ForgePort, SessionStore, CheckEngine, the branch/PR validators, and
// AuditLog. Grounded on the teacher's workflow.Engine
// (pkg/workflow/merge.go, steps.go): a struct holding injected
// collaborators, one method per operation, each executing an ordered
// step sequence that checkpoints (persists the session) after every
// successful step so a later operation can resume from the last legal
// resting state.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"trunkline.dev/trunkline/pkg/aiassist"
	"trunkline.dev/trunkline/pkg/audit"
	"trunkline.dev/trunkline/pkg/checks"
	"trunkline.dev/trunkline/pkg/config"
	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/gitport"
	"trunkline.dev/trunkline/pkg/session"
	"trunkline.dev/trunkline/pkg/statemachine"
	"trunkline.dev/trunkline/pkg/tlerrors"
	"trunkline.dev/trunkline/pkg/validate"
)

// Orchestrator composes every subsystem into the invocation surface
// spec.md §6 names. All fields are constructor-injected so tests can
// supply in-memory fakes (spec.md §9: "Singleton repositories ->
// injected collaborators").
type Orchestrator struct {
	Git      gitport.GitPort
	Forge    forgeport.ForgePort
	Sessions session.Store
	Audit    *audit.Log
	Config   *config.Config
	Logger   *slog.Logger

	// AI drafts a PR description when Ship is called with none; nil
	// means drafting is skipped entirely (SPEC_FULL.md §9: optional,
	// never load-bearing).
	AI *aiassist.Drafter

	branchValidator *validate.BranchValidator
	prValidator     *validate.PRValidator
}

// New constructs an Orchestrator from its collaborators. An AI drafter
// is constructed from cfg.AI only when a provider is configured.
func New(git gitport.GitPort, forge forgeport.ForgePort, sessions session.Store, auditLog *audit.Log, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	var drafter *aiassist.Drafter
	if cfg.AI.Provider == "anthropic" {
		drafter = aiassist.New(cfg.AI.APIKey, cfg.AI.Model, logger)
	}
	return &Orchestrator{
		Git:      git,
		Forge:    forge,
		Sessions: sessions,
		Audit:    auditLog,
		Config:   cfg,
		Logger:   logger,
		AI:       drafter,
		branchValidator: &validate.BranchValidator{
			Sessions: sessions,
			Git:      git,
			Forge:    forge,
			Remote:   cfg.Git.Remote,
		},
		prValidator: &validate.PRValidator{Forge: forge},
	}
}

// withSessionLock acquires sess's advisory lock for the duration of fn,
// releasing it on every exit path (spec.md §5: "every exit path").
func (o *Orchestrator) withSessionLock(ctx context.Context, sess *session.WorkflowSession, fn func() error) error {
	if err := o.Sessions.AcquireLock(ctx, sess.ID, o.Config.Session.LockAcquireWait); err != nil {
		return err
	}
	defer func() {
		if err := o.Sessions.ReleaseLock(sess.ID); err != nil {
			o.Logger.Warn("failed to release session lock", "session", sess.ID, "error", err)
		}
	}()
	return fn()
}

// transition advances sess's state, persists it, and appends an audit
// entry — the unit of durable mutation every orchestrator step performs.
func (o *Orchestrator) transition(ctx context.Context, sess *session.WorkflowSession, to statemachine.State, trigger statemachine.Trigger, operation, message string) error {
	if !statemachine.CanTransition(sess.WorkflowType, sess.CurrentState, to) {
		return tlerrors.NewTransitionError(string(sess.WorkflowType), string(sess.CurrentState), string(trigger),
			"no such edge in the transition table")
	}
	sess.Transition(to, trigger, time.Now(), nil)
	if err := o.Sessions.Update(ctx, sess); err != nil {
		return err
	}
	o.appendAudit(ctx, sess.ID, operation, string(to), string(trigger), message, true)
	return nil
}

// appendAudit writes a best-effort audit entry; failures are logged, not
// propagated, since the audit log is forensic, not load-bearing.
func (o *Orchestrator) appendAudit(ctx context.Context, sessionID, operation, step, trigger, message string, success bool) {
	if o.Audit == nil {
		return
	}
	if err := o.Audit.Append(ctx, audit.Entry{
		SessionID: sessionID,
		Operation: operation,
		Step:      step,
		Trigger:   trigger,
		Message:   message,
		Success:   &success,
	}); err != nil {
		o.Logger.Warn("failed to append audit entry", "session", sessionID, "error", err)
	}
}

// sessionResult renders a Outcome pair plus session state into a
// SessionToolResult.
func sessionResult(success bool, sess *session.WorkflowSession, pre, post checks.Outcome, errs []string, warnings []string, nextSteps []string) *SessionToolResult {
	r := &SessionToolResult{
		Success:                 success,
		PreFlightChecks:         pre.Results,
		PostFlightVerifications: post.Results,
		Errors:                  errs,
		Warnings:                warnings,
		NextSteps:               nextSteps,
	}
	if sess != nil {
		r.BranchName = sess.BranchName
		r.State = string(sess.CurrentState)
	}
	r.Warnings = append(r.Warnings, outcomeWarnings(pre)...)
	r.Warnings = append(r.Warnings, outcomeWarnings(post)...)
	return r
}

func outcomeWarnings(o checks.Outcome) []string {
	var out []string
	for _, r := range o.Results {
		if !r.Passed && r.Severity == checks.SeverityWarning {
			out = append(out, r.Name+": "+r.Message)
		}
		if !r.Passed && r.Severity == checks.SeverityError && o.Forced {
			out = append(out, "forced past: "+r.Name+": "+r.Message)
		}
	}
	return out
}

func failedCheckNames(o checks.Outcome) []string {
	var out []string
	for _, r := range o.Results {
		if !r.Passed && r.Severity == checks.SeverityError {
			out = append(out, r.Name)
		}
	}
	return out
}
