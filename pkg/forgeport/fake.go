package forgeport

import (
	"context"
	"fmt"
)

// Fake is an in-memory ForgePort, grounded on the teacher's
// mockGitHubClient (pkg/workflow/workflow_test.go): a hand-written test
// double with controllable fields rather than a mocking framework.
type Fake struct {
	PRs        map[int]*PRSummary
	nextNumber int

	CreateErr error
	UpdateErr error
	ListErr   error
	CheckErr  error
	WaitErr   error
	MergeErr  error

	CheckStatus CheckStatus
	WaitResult  WaitResult
	Merged      bool
}

// NewFake returns an empty Fake ForgePort ready for test setup.
func NewFake() *Fake {
	return &Fake{PRs: map[int]*PRSummary{}, nextNumber: 1}
}

var _ ForgePort = (*Fake)(nil)

func (f *Fake) CreatePullRequest(ctx context.Context, params CreatePRParams) (CreatedPR, error) {
	if f.CreateErr != nil {
		return CreatedPR{}, f.CreateErr
	}
	n := f.nextNumber
	f.nextNumber++
	f.PRs[n] = &PRSummary{Number: n, State: PRStateOpen, HeadRef: params.Head, BaseRef: params.Base}
	return CreatedPR{Number: n, URL: fmt.Sprintf("https://example.invalid/pr/%d", n)}, nil
}

func (f *Fake) UpdatePullRequest(ctx context.Context, number int, params UpdatePRParams) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if _, ok := f.PRs[number]; !ok {
		return fmt.Errorf("no such PR: %d", number)
	}
	return nil
}

func (f *Fake) ListPullRequests(ctx context.Context, params ListPRsParams) ([]PRSummary, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []PRSummary
	for _, pr := range f.PRs {
		if params.Head != "" && pr.HeadRef != params.Head {
			continue
		}
		if !matchesStateFilter(pr.State, params.State) {
			continue
		}
		out = append(out, *pr)
	}
	return out, nil
}

// matchesStateFilter mirrors GitHub's real state semantics: the API only
// knows "open"/"closed"/"all" and toPRSummary (api_forge.go, cli_forge.go)
// relabels a closed PR "merged" once it lands, so a "closed" query must
// still surface merged PRs.
func matchesStateFilter(state PRState, filter string) bool {
	if filter == "" || filter == "all" {
		return true
	}
	if filter == "closed" {
		return state == PRStateClosed || state == PRStateMerged
	}
	return string(state) == filter
}

func (f *Fake) GetCheckStatus(ctx context.Context, ref string) (CheckStatus, error) {
	if f.CheckErr != nil {
		return CheckStatus{}, f.CheckErr
	}
	return f.CheckStatus, nil
}

func (f *Fake) WaitForChecks(ctx context.Context, prNumber int, params WaitForChecksParams) (WaitResult, error) {
	if f.WaitErr != nil {
		return WaitResult{}, f.WaitErr
	}
	if params.OnProgress != nil {
		params.OnProgress(f.CheckStatus)
	}
	return f.WaitResult, nil
}

func (f *Fake) MergePullRequest(ctx context.Context, number int, strategy MergeStrategy) (bool, error) {
	if f.MergeErr != nil {
		return false, f.MergeErr
	}
	if pr, ok := f.PRs[number]; ok {
		pr.State = PRStateMerged
	}
	f.Merged = true
	return true, nil
}
