// Package aiassist implements SPEC_FULL.md §9's optional PR-description
// drafting: a single-shot call to Anthropic's Messages API, trimmed from
// the teacher's pkg/ai down to the one provider and one-shot Chat call
// Ship actually needs, dropping the multi-provider abstraction
// (gemini/groq/ollama/plugin) and the streaming/conversation machinery
// none of that has a SPEC_FULL.md caller.
package aiassist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

const (
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-sonnet-4-20250514"
	maxTokens    = 1024
	providerName = "anthropic"
)

// Drafter drafts a pull request description from a branch's commit log,
// never load-bearing: every caller treats a Draft failure as a warning
// and falls back to an empty or user-supplied description.
type Drafter struct {
	apiKey string
	model  string
	logger *slog.Logger
	client *http.Client
}

// New constructs a Drafter. An empty apiKey is valid; IsAvailable then
// reports false and Draft always fails fast.
func New(apiKey, model string, logger *slog.Logger) *Drafter {
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Drafter{apiKey: apiKey, model: model, logger: logger, client: &http.Client{}}
}

// IsAvailable reports whether a draft call can be attempted.
func (d *Drafter) IsAvailable() bool {
	return d.apiKey != ""
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
	System    string    `json:"system,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = `You write concise, factual pull request descriptions from a list of
commit subjects. Output only the description body: a one-paragraph
summary followed by a bulleted list of the notable changes. Never
invent changes not implied by the commit subjects.`

// Draft produces a PR description body from branchName and its commit
// subjects (oldest first), the only input Ship has on hand at PR-create
// time.
func (d *Drafter) Draft(ctx context.Context, branchName string, commitSubjects []string) (string, error) {
	if !d.IsAvailable() {
		return "", tlerrors.NewAIError(providerName, "Draft", "provider not configured")
	}
	if len(commitSubjects) == 0 {
		return "", tlerrors.NewAIError(providerName, "Draft", "no commits to summarize")
	}

	prompt := fmt.Sprintf("Branch: %s\nCommits:\n- %s", branchName, strings.Join(commitSubjects, "\n- "))
	reqBody := request{
		Model:     d.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", tlerrors.NewAIErrorWithCause(providerName, "Draft", "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", tlerrors.NewAIErrorWithCause(providerName, "Draft", "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", d.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	d.logger.Debug("aiassist: drafting PR description", "branch", branchName, "commits", len(commitSubjects))

	resp, err := d.client.Do(req)
	if err != nil {
		return "", tlerrors.NewAIErrorWithCause(providerName, "Draft", "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", tlerrors.NewAIErrorWithCause(providerName, "Draft", "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", tlerrors.NewAIErrorWithStatus(providerName, "Draft", resp.StatusCode, apiErr.Error.Message)
		}
		return "", tlerrors.NewAIErrorWithStatus(providerName, "Draft", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", tlerrors.NewAIErrorWithCause(providerName, "Draft", "failed to parse response", err)
	}

	var out strings.Builder
	for _, c := range parsed.Content {
		if c.Type == "text" {
			out.WriteString(c.Text)
		}
	}
	return out.String(), nil
}
