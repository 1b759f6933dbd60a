package validate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/validate"
)

func TestPRValidator_NoExistingPRCreates(t *testing.T) {
	ctx := context.Background()
	v := &validate.PRValidator{Forge: forgeport.NewFake()}

	decision, err := v.Classify(ctx, "feature/new")
	require.NoError(t, err)
	require.Equal(t, validate.PRScenarioCreate, decision.Scenario)
	require.Equal(t, "CREATE", decision.Action)
	require.Nil(t, decision.Err)
}

func TestPRValidator_OneOpenPRUpdates(t *testing.T) {
	ctx := context.Background()
	fake := forgeport.NewFake()
	_, err := fake.CreatePullRequest(ctx, forgeport.CreatePRParams{Head: "feature/x", Base: "main"})
	require.NoError(t, err)

	v := &validate.PRValidator{Forge: fake}
	decision, err := v.Classify(ctx, "feature/x")
	require.NoError(t, err)
	require.Equal(t, validate.PRScenarioUpdate, decision.Scenario)
	require.Equal(t, "UPDATE", decision.Action)
	require.NotNil(t, decision.Existing)
	require.Equal(t, "feature/x", decision.Existing.HeadRef)
}

func TestPRValidator_MergedPriorCreatesNew(t *testing.T) {
	ctx := context.Background()
	fake := forgeport.NewFake()
	created, err := fake.CreatePullRequest(ctx, forgeport.CreatePRParams{Head: "feature/shipped", Base: "main"})
	require.NoError(t, err)
	_, err = fake.MergePullRequest(ctx, created.Number, forgeport.MergeStrategy(""))
	require.NoError(t, err)

	v := &validate.PRValidator{Forge: fake}
	decision, err := v.Classify(ctx, "feature/shipped")
	require.NoError(t, err)
	require.Equal(t, validate.PRScenarioCreate, decision.Scenario)
	require.Equal(t, "CREATE", decision.Action)
}

func TestPRValidator_MultipleOpenPRsBlocks(t *testing.T) {
	ctx := context.Background()
	fake := forgeport.NewFake()
	_, err := fake.CreatePullRequest(ctx, forgeport.CreatePRParams{Head: "feature/dup", Base: "main"})
	require.NoError(t, err)
	_, err = fake.CreatePullRequest(ctx, forgeport.CreatePRParams{Head: "feature/dup", Base: "main"})
	require.NoError(t, err)

	v := &validate.PRValidator{Forge: fake}
	decision, err := v.Classify(ctx, "feature/dup")
	require.NoError(t, err)
	require.Equal(t, validate.PRScenarioBlock, decision.Scenario)
	require.Equal(t, "BLOCK", decision.Action)
	require.Error(t, decision.Err)

	allow, reason, err := v.Decide(ctx, "feature/dup")
	require.NoError(t, err)
	require.False(t, allow)
	require.NotEmpty(t, reason)
}
