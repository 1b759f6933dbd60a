package forgeport

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// CLIForge implements ForgePort by shelling out to the gh CLI, grounded on
// the teacher's pkg/github/cli_client.go — used when no forge token is
// configured and the operator has already run `gh auth login`.
type CLIForge struct {
	repoRoot string
}

// NewCLIForge builds a CLIForge rooted at repoRoot. It does not verify gh
// is installed at construction time; the first call surfaces that as a
// ForgeError instead, matching the orchestrator's "fail at the operation
// boundary" posture (spec.md §7).
func NewCLIForge(repoRoot string) *CLIForge {
	return &CLIForge{repoRoot: repoRoot}
}

var _ ForgePort = (*CLIForge)(nil)

func (f *CLIForge) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	cmd.Dir = f.repoRoot
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, tlerrors.NewForgeErrorWithCause("gh "+strings.Join(args, " "), stderr.String(), err)
	}
	return out, nil
}

func (f *CLIForge) CreatePullRequest(ctx context.Context, params CreatePRParams) (CreatedPR, error) {
	args := []string{"pr", "create", "--title", params.Title, "--body", params.Body,
		"--head", params.Head, "--base", params.Base, "--json", "number,url"}
	out, err := f.run(ctx, args...)
	if err != nil {
		return CreatedPR{}, err
	}
	var parsed struct {
		Number int    `json:"number"`
		URL    string `json:"url"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return CreatedPR{}, tlerrors.NewForgeErrorWithCause("CreatePullRequest", "failed to parse gh output", err)
	}
	return CreatedPR{Number: parsed.Number, URL: parsed.URL}, nil
}

func (f *CLIForge) UpdatePullRequest(ctx context.Context, number int, params UpdatePRParams) error {
	args := []string{"pr", "edit", strconv.Itoa(number)}
	if params.Title != "" {
		args = append(args, "--title", params.Title)
	}
	if params.Body != "" {
		args = append(args, "--body", params.Body)
	}
	_, err := f.run(ctx, args...)
	return err
}

func (f *CLIForge) ListPullRequests(ctx context.Context, params ListPRsParams) ([]PRSummary, error) {
	state := params.State
	if state == "" {
		state = "open"
	}
	args := []string{"pr", "list", "--state", state, "--json", "number,state,headRefName,baseRefName,mergedAt"}
	if params.Head != "" {
		args = append(args, "--head", params.Head)
	}
	out, err := f.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var parsed []struct {
		Number      int    `json:"number"`
		State       string `json:"state"`
		HeadRefName string `json:"headRefName"`
		BaseRefName string `json:"baseRefName"`
		MergedAt    string `json:"mergedAt"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, tlerrors.NewForgeErrorWithCause("ListPullRequests", "failed to parse gh output", err)
	}
	summaries := make([]PRSummary, 0, len(parsed))
	for _, p := range parsed {
		s := PRSummary{
			Number:  p.Number,
			State:   PRState(strings.ToLower(p.State)),
			HeadRef: p.HeadRefName,
			BaseRef: p.BaseRefName,
		}
		if p.MergedAt != "" {
			if t, err := time.Parse(time.RFC3339, p.MergedAt); err == nil {
				s.State = PRStateMerged
				s.MergedAt = &t
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (f *CLIForge) GetCheckStatus(ctx context.Context, ref string) (CheckStatus, error) {
	out, err := f.run(ctx, "api", "commits/"+ref+"/check-runs")
	if err != nil {
		return CheckStatus{}, err
	}
	var parsed struct {
		CheckRuns []struct {
			Name       string `json:"name"`
			Status     string `json:"status"`
			Conclusion string `json:"conclusion"`
		} `json:"check_runs"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return CheckStatus{}, tlerrors.NewForgeErrorWithCause("GetCheckStatus", "failed to parse gh output", err)
	}
	var result CheckStatus
	for _, run := range parsed.CheckRuns {
		if run.Status != "completed" {
			result.Pending++
			continue
		}
		if run.Conclusion == "failure" || run.Conclusion == "timed_out" || run.Conclusion == "cancelled" {
			result.Failed++
			result.FailedNames = append(result.FailedNames, run.Name)
		}
	}
	result.Passed = result.Failed == 0 && result.Pending == 0
	return result, nil
}

func (f *CLIForge) WaitForChecks(ctx context.Context, prNumber int, params WaitForChecksParams) (WaitResult, error) {
	deadline := time.Now().Add(params.Timeout)
	ticker := time.NewTicker(params.PollInterval)
	defer ticker.Stop()

	out, err := f.run(ctx, "pr", "view", strconv.Itoa(prNumber), "--json", "headRefOid")
	if err != nil {
		return WaitResult{}, err
	}
	var parsed struct {
		HeadRefOid string `json:"headRefOid"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return WaitResult{}, tlerrors.NewForgeErrorWithCause("WaitForChecks", "failed to parse gh output", err)
	}

	for {
		status, err := f.GetCheckStatus(ctx, parsed.HeadRefOid)
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

func (f *CLIForge) MergePullRequest(ctx context.Context, number int, strategy MergeStrategy) (bool, error) {
	flag := "--squash"
	switch strategy {
	case MergeMerge:
		flag = "--merge"
	case MergeRebase:
		flag = "--rebase"
	}
	_, err := f.run(ctx, "pr", "merge", strconv.Itoa(number), flag)
	if err != nil {
		return false, err
	}
	return true, nil
}
