package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func passCheck(name string) Check {
	return Check{Name: name, Run: func(ctx context.Context) Result {
		return Result{Passed: true, Severity: SeverityInfo}
	}}
}

func failCheck(name string, sev Severity, suggestion string) Check {
	return Check{Name: name, Run: func(ctx context.Context) Result {
		return Result{Severity: sev, Message: "failed", Details: Details{Suggestion: suggestion}}
	}}
}

func TestRunStopsAtFirstErrorWithoutForce(t *testing.T) {
	set := CheckSet{passCheck("a"), failCheck("b", SeverityError, "fix b"), passCheck("c")}
	outcome := set.Run(context.Background(), false)

	assert.Len(t, outcome.Results, 2) // c never runs
	assert.Equal(t, 1, outcome.Passed)
	assert.Equal(t, 1, outcome.Failed)
	assert.False(t, outcome.OK())
	assert.Equal(t, []string{"fix b"}, outcome.Suggestions)
}

func TestForceDemotesErrorsAndContinues(t *testing.T) {
	set := CheckSet{passCheck("a"), failCheck("b", SeverityError, "fix b"), passCheck("c")}
	outcome := set.Run(context.Background(), true)

	assert.Len(t, outcome.Results, 3) // all run under force
	assert.Equal(t, 0, outcome.Failed)
	assert.Equal(t, 1, outcome.Warnings)
	assert.True(t, outcome.Forced)
	assert.True(t, outcome.OK())
}

func TestWarningsDoNotStopExecution(t *testing.T) {
	set := CheckSet{failCheck("a", SeverityWarning, ""), passCheck("b")}
	outcome := set.Run(context.Background(), false)

	assert.Len(t, outcome.Results, 2)
	assert.Equal(t, 1, outcome.Warnings)
	assert.True(t, outcome.OK())
}
