package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"trunkline.dev/trunkline/pkg/audit"
	"trunkline.dev/trunkline/pkg/config"
	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/gitport"
	"trunkline.dev/trunkline/pkg/orchestrator"
	"trunkline.dev/trunkline/pkg/session"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

// findRepoRoot walks up from the current directory looking for .git,
// mirroring the teacher's cmd/root.go findGitRoot.
func findRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	dir := cwd
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			if info.IsDir() || info.Mode().IsRegular() {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", tlerrors.New("not inside a git repository")
		}
		dir = parent
	}
}

// resolveStateDir honors --state-dir, else defaults to
// <repoRoot>/.trunkline (spec.md §6, config.StateDirName).
func resolveStateDir(repoRoot string) (string, error) {
	if cfgStateDir != "" {
		return config.ExpandStateDir(cfgStateDir)
	}
	return filepath.Join(repoRoot, config.StateDirName), nil
}

// harness bundles every collaborator an Orchestrator needs, closed over
// a single repo root + state dir resolution so each command only does
// this once.
type harness struct {
	Orch     *orchestrator.Orchestrator
	RepoRoot string
	StateDir string
}

// buildHarness loads config and constructs the GitPort, ForgePort,
// SessionStore, and AuditLog collaborators the teacher's cmd/pr_create.go
// equivalent does inline per-command; centralized here since every
// trunkline subcommand needs the same set.
func buildHarness(ctx context.Context) (*harness, error) {
	repoRoot, err := findRepoRoot()
	if err != nil {
		return nil, err
	}
	stateDir, err := resolveStateDir(repoRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(stateDir)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.CheckSecurityWarnings() {
		printVerbose("warning: %s", w)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	git := gitport.New(repoRoot)

	forge, err := forgeport.NewForge(ctx, forgeport.ForgeAuthConfig{
		Token:            cfg.Forge.Token,
		ClientID:         cfg.Forge.ClientID,
		Owner:            cfg.Forge.Owner,
		Repo:             cfg.Forge.Repo,
		RepoRoot:         repoRoot,
		AllowCLIFallback: true,
	}, logger)
	if err != nil {
		return nil, err
	}

	store, err := session.NewFileStore(stateDir)
	if err != nil {
		return nil, err
	}

	auditLog, err := audit.Open(stateDir)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(git, forge, store, auditLog, cfg, logger)
	return &harness{Orch: orch, RepoRoot: repoRoot, StateDir: stateDir}, nil
}

// summary is the subset of a ToolResult printResult renders in
// human-readable mode; each command file extracts it from its own
// concrete result type.
type summary struct {
	Success    bool
	BranchName string
	State      string
	Errors     []string
	Warnings   []string
}

// printResult renders any ToolResult either as JSON (--json) or a short
// human-readable summary, and returns an error (for Cobra's RunE, hence
// a nonzero process exit) when the result reports failure.
func printResult(v any, s summary) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else {
		printHuman(s)
	}
	if !s.Success {
		if len(s.Errors) > 0 {
			return tlerrors.New(s.Errors[0])
		}
		return tlerrors.New("operation failed")
	}
	return nil
}

func printHuman(s summary) {
	status := "ok"
	if !s.Success {
		status = "failed"
	}
	fmt.Printf("%s\n", status)
	if s.BranchName != "" {
		fmt.Printf("  branch: %s\n", s.BranchName)
	}
	if s.State != "" {
		fmt.Printf("  state:  %s\n", s.State)
	}
	for _, w := range s.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range s.Errors {
		fmt.Printf("  error: %s\n", e)
	}
}

// exitCodeFor maps an error to spec.md §6's outcome codes: 0=success,
// 1=operation error, 2=pre-flight error, 3=cancellation,
// 4=not initialized.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case tlerrors.Is(err, tlerrors.ErrNotInitialized):
		return 4
	case tlerrors.Is(err, tlerrors.ErrCancelled), tlerrors.Is(err, tlerrors.ErrTimeout):
		return 3
	}
	var checkErr *tlerrors.CheckError
	if tlerrors.As(err, &checkErr) {
		return 2
	}
	var valErr *tlerrors.ValidationError
	if tlerrors.As(err, &valErr) {
		return 2
	}
	return 1
}
