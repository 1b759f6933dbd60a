// Package tlerrors defines the typed error kinds used across trunkline's
// core components, each wrapping github.com/cockroachdb/errors for stack
// traces and errors.Is/errors.As interop.
package tlerrors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Re-exported helpers so callers never need to import cockroachdb/errors
// directly.
var (
	New   = errors.New
	Newf  = errors.Newf
	Wrap  = errors.Wrap
	Wrapf = errors.Wrapf
	Is    = errors.Is
	As    = errors.As
	Cause = errors.Cause
)

// SessionError reports a failure in SessionStore operations: creation,
// lookup, locking, or persistence.
type SessionError struct {
	Operation string
	SessionID string
	Message   string
	Cause     error
}

func (e *SessionError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("session %s: %s: %s", e.SessionID, e.Operation, e.Message)
	}
	return fmt.Sprintf("session: %s: %s", e.Operation, e.Message)
}

func (e *SessionError) Unwrap() error { return e.Cause }

func NewSessionError(operation, sessionID, message string) *SessionError {
	return &SessionError{Operation: operation, SessionID: sessionID, Message: message}
}

func NewSessionErrorWithCause(operation, sessionID, message string, cause error) *SessionError {
	return &SessionError{Operation: operation, SessionID: sessionID, Message: message, Cause: cause}
}

// ErrSessionNotFound indicates no session exists for the given id or branch.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists indicates a session already exists for the branch.
var ErrSessionExists = errors.New("session already exists for branch")

// ErrLockHeld indicates another process holds the session's advisory lock.
var ErrLockHeld = errors.New("session lock held by another process")

// TransitionError reports an illegal state machine transition.
type TransitionError struct {
	WorkflowType string
	From         string
	Trigger      string
	Message      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: workflow=%s from=%s trigger=%s: %s",
		e.WorkflowType, e.From, e.Trigger, e.Message)
}

func NewTransitionError(workflowType, from, trigger, message string) *TransitionError {
	return &TransitionError{WorkflowType: workflowType, From: from, Trigger: trigger, Message: message}
}

// GitError reports a failure invoking the underlying git binary.
type GitError struct {
	Operation string
	Args      []string
	Message   string
	Cause     error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s: %s", e.Operation, e.Message)
}

func (e *GitError) Unwrap() error { return e.Cause }

func NewGitError(operation, message string, args []string) *GitError {
	return &GitError{Operation: operation, Args: args, Message: message}
}

func NewGitErrorWithCause(operation, message string, args []string, cause error) *GitError {
	return &GitError{Operation: operation, Args: args, Message: message, Cause: cause}
}

// ForgeError reports a failure calling the forge (GitHub) API or CLI.
type ForgeError struct {
	Operation  string
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

func (e *ForgeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("forge %s: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("forge %s: %s", e.Operation, e.Message)
}

func (e *ForgeError) Unwrap() error { return e.Cause }

func NewForgeError(operation, message string) *ForgeError {
	return &ForgeError{Operation: operation, Message: message}
}

func NewForgeErrorWithCause(operation, message string, cause error) *ForgeError {
	return &ForgeError{Operation: operation, Message: message, Cause: cause}
}

func NewForgeErrorWithStatus(operation string, statusCode int, message string) *ForgeError {
	return &ForgeError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  isRetryableHTTPStatus(statusCode),
	}
}

// ValidationError reports a branch or PR validator refusing an operation.
type ValidationError struct {
	Kind       string // e.g. "branch_retired", "multiple_open_prs"
	BranchName string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation %s: branch=%s: %s", e.Kind, e.BranchName, e.Message)
}

func NewValidationError(kind, branchName, message, suggestion string) *ValidationError {
	return &ValidationError{Kind: kind, BranchName: branchName, Message: message, Suggestion: suggestion}
}

// ShipError reports a failure during a ship pipeline step, carrying the
// name of the step that failed.
type ShipError struct {
	Step      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *ShipError) Error() string {
	return fmt.Sprintf("ship step %s: %s", e.Step, e.Message)
}

func (e *ShipError) Unwrap() error { return e.Cause }

func NewShipError(step, message string, retryable bool, cause error) *ShipError {
	return &ShipError{Step: step, Message: message, Retryable: retryable, Cause: cause}
}

// CheckError wraps a failing CheckEngine check that the caller chose not to
// force past.
type CheckError struct {
	CheckName string
	Severity  string
	Message   string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check %q failed (%s): %s", e.CheckName, e.Severity, e.Message)
}

func NewCheckError(checkName, severity, message string) *CheckError {
	return &CheckError{CheckName: checkName, Severity: severity, Message: message}
}

// ConfigError reports a failure loading or validating configuration.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// AIError reports a failure calling an optional PR-description drafting
// provider (pkg/aiassist). Never required for ship to succeed.
type AIError struct {
	Provider   string
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *AIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai %s %s: HTTP %d: %s", e.Provider, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ai %s %s: %s", e.Provider, e.Operation, e.Message)
}

func (e *AIError) Unwrap() error { return e.Cause }

func NewAIError(provider, operation, message string) *AIError {
	return &AIError{Provider: provider, Operation: operation, Message: message}
}

func NewAIErrorWithCause(provider, operation, message string, cause error) *AIError {
	return &AIError{Provider: provider, Operation: operation, Message: message, Cause: cause}
}

func NewAIErrorWithStatus(provider, operation string, statusCode int, message string) *AIError {
	return &AIError{Provider: provider, Operation: operation, StatusCode: statusCode, Message: message}
}

// Sentinel errors for the remaining spec-named kinds that don't need
// structured fields.
var (
	ErrNotInitialized     = errors.New("trunkline: project not initialized")
	ErrDirtyWorkingTree   = errors.New("working tree has uncommitted changes")
	ErrCIFailed           = errors.New("CI checks failed")
	ErrCITimeout          = errors.New("timed out waiting for CI checks")
	ErrCancelled          = errors.New("operation cancelled")
	ErrTimeout            = errors.New("operation timed out")
	ErrPersistence        = errors.New("failed to persist state")
)

// IsRetryable reports whether err carries a Retryable=true typed error.
// Context errors such as context.DeadlineExceeded are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var forgeErr *ForgeError
	if errors.As(err, &forgeErr) {
		return forgeErr.Retryable
	}
	var shipErr *ShipError
	if errors.As(err, &shipErr) {
		return shipErr.Retryable
	}
	return false
}

func isRetryableHTTPStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
