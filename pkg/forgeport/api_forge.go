package forgeport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// APIForge implements ForgePort over the GitHub REST API, grounded on the
// teacher's pkg/github/api_client.go.
type APIForge struct {
	client *gh.Client
	owner  string
	repo   string
	logger *slog.Logger
}

// NewAPIForge builds an APIForge authenticated with a static token,
// mirroring the teacher's oauth2.StaticTokenSource usage in
// pkg/github/api_client.go.
func NewAPIForge(token, owner, repo string, logger *slog.Logger) *APIForge {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &APIForge{
		client: gh.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
		logger: logger,
	}
}

var _ ForgePort = (*APIForge)(nil)

func (f *APIForge) CreatePullRequest(ctx context.Context, params CreatePRParams) (CreatedPR, error) {
	pr, _, err := f.client.PullRequests.Create(ctx, f.owner, f.repo, &gh.NewPullRequest{
		Title: &params.Title,
		Body:  &params.Body,
		Base:  &params.Base,
		Head:  &params.Head,
	})
	if err != nil {
		return CreatedPR{}, toForgeError("CreatePullRequest", err)
	}
	return CreatedPR{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

func (f *APIForge) UpdatePullRequest(ctx context.Context, number int, params UpdatePRParams) error {
	update := &gh.PullRequest{}
	if params.Title != "" {
		update.Title = &params.Title
	}
	if params.Body != "" {
		update.Body = &params.Body
	}
	_, _, err := f.client.PullRequests.Edit(ctx, f.owner, f.repo, number, update)
	if err != nil {
		return toForgeError("UpdatePullRequest", err)
	}
	return nil
}

func (f *APIForge) ListPullRequests(ctx context.Context, params ListPRsParams) ([]PRSummary, error) {
	state := params.State
	if state == "" {
		state = "open"
	}
	opts := &gh.PullRequestListOptions{
		State:       state,
		Head:        headFilter(f.owner, params.Head),
		ListOptions: gh.ListOptions{PerPage: 50},
	}
	prs, _, err := f.client.PullRequests.List(ctx, f.owner, f.repo, opts)
	if err != nil {
		return nil, toForgeError("ListPullRequests", err)
	}
	out := make([]PRSummary, 0, len(prs))
	for _, pr := range prs {
		out = append(out, toPRSummary(pr))
	}
	return out, nil
}

// headFilter matches the teacher's convention of the "owner:branch"
// filter syntax the GitHub API requires for the head query parameter.
func headFilter(owner, head string) string {
	if head == "" {
		return ""
	}
	if strings.Contains(head, ":") {
		return head
	}
	return owner + ":" + head
}

func toPRSummary(pr *gh.PullRequest) PRSummary {
	summary := PRSummary{
		Number:  pr.GetNumber(),
		State:   PRState(pr.GetState()),
		HeadRef: pr.GetHead().GetRef(),
		BaseRef: pr.GetBase().GetRef(),
	}
	if pr.GetMerged() {
		summary.State = PRStateMerged
		if t := pr.GetMergedAt(); !t.IsZero() {
			mt := t.Time
			summary.MergedAt = &mt
		}
	}
	return summary
}

func (f *APIForge) GetCheckStatus(ctx context.Context, ref string) (CheckStatus, error) {
	status, _, err := f.client.Repositories.GetCombinedStatus(ctx, f.owner, f.repo, ref, nil)
	if err != nil {
		return CheckStatus{}, toForgeError("GetCheckStatus", err)
	}
	checkRuns, _, err := f.client.Checks.ListCheckRunsForRef(ctx, f.owner, f.repo, ref, nil)
	if err != nil {
		return CheckStatus{}, toForgeError("GetCheckStatus", err)
	}

	var result CheckStatus
	for _, s := range status.Statuses {
		switch s.GetState() {
		case "pending":
			result.Pending++
		case "failure", "error":
			result.Failed++
			result.FailedNames = append(result.FailedNames, s.GetContext())
		}
	}
	if checkRuns != nil {
		for _, run := range checkRuns.CheckRuns {
			if run.GetStatus() != "completed" {
				result.Pending++
				continue
			}
			concl := run.GetConclusion()
			if concl == "failure" || concl == "timed_out" || concl == "cancelled" {
				result.Failed++
				result.FailedNames = append(result.FailedNames, run.GetName())
			}
		}
	}
	result.Passed = result.Failed == 0 && result.Pending == 0
	return result, nil
}

// WaitForChecks is the cooperative polling loop spec.md §4.6.3 step 4
// requires: a plain loop that checks ctx.Done() between polls, grounded
// on the retry-loop shape in pkg/errors/retry.go adapted from
// retry-on-error to poll-until-condition.
func (f *APIForge) WaitForChecks(ctx context.Context, prNumber int, params WaitForChecksParams) (WaitResult, error) {
	pr, _, err := f.client.PullRequests.Get(ctx, f.owner, f.repo, prNumber)
	if err != nil {
		return WaitResult{}, toForgeError("WaitForChecks", err)
	}
	ref := pr.GetHead().GetSHA()

	deadline := time.Now().Add(params.Timeout)
	ticker := time.NewTicker(params.PollInterval)
	defer ticker.Stop()

	for {
		status, err := f.GetCheckStatus(ctx, ref)
		if err != nil {
			return WaitResult{}, err
		}
		if params.OnProgress != nil {
			params.OnProgress(status)
		}
		if status.Failed > 0 {
			return WaitResult{Success: false, FailedChecks: status.FailedNames}, nil
		}
		if status.Passed {
			return WaitResult{Success: true}, nil
		}
		if time.Now().After(deadline) {
			return WaitResult{Success: false, TimedOut: true}, nil
		}

		select {
		case <-ctx.Done():
			return WaitResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *APIForge) MergePullRequest(ctx context.Context, number int, strategy MergeStrategy) (bool, error) {
	result, _, err := f.client.PullRequests.Merge(ctx, f.owner, f.repo, number, "", &gh.PullRequestOptions{
		MergeMethod: string(strategy),
	})
	if err != nil {
		return false, toForgeError("MergePullRequest", err)
	}
	return result.GetMerged(), nil
}

func toForgeError(operation string, err error) error {
	if ghErr, ok := err.(*gh.ErrorResponse); ok {
		return tlerrors.NewForgeErrorWithStatus(operation, ghErr.Response.StatusCode,
			fmt.Sprintf("%s: %s", ghErr.Message, ghErr.DocumentationURL))
	}
	return tlerrors.NewForgeErrorWithCause(operation, err.Error(), err)
}
