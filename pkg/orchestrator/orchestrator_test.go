package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trunkline.dev/trunkline/pkg/audit"
	"trunkline.dev/trunkline/pkg/config"
	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/gitport"
	"trunkline.dev/trunkline/pkg/session"
)

// harness bundles everything an orchestrator test needs: fakes for every
// collaborator plus a temp-dir-backed FileStore and audit log, grounded
// on the teacher's workflow_test.go setup pattern (construct real
// collaborators, not mocks of the orchestrator itself).
type harness struct {
	Git   *gitport.Fake
	Forge *forgeport.Fake
	Store *session.FileStore
	Audit *audit.Log
	Cfg   *config.Config
	Orch  *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	store, err := session.NewFileStore(dir)
	require.NoError(t, err)

	auditLog, err := audit.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = auditLog.Close() })

	cfg := &config.Config{
		StateDir: dir,
		Git:      config.GitConfig{MainBranch: "main", Remote: "origin"},
		Forge: config.ForgeConfig{
			Kind: config.ForgeGitHub, Owner: "acme", Repo: "widgets",
			DefaultMergeMethod: "squash", DeleteBranchOnMerge: true,
		},
		Ship:    config.ShipConfig{CITimeout: time.Minute, PollInterval: time.Second},
		Session: config.SessionConfig{TTLDays: 30, StaleLockAfter: 24 * time.Hour, LockAcquireWait: time.Second},
	}

	git := gitport.NewFake()
	forge := forgeport.NewFake()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &harness{
		Git: git, Forge: forge, Store: store, Audit: auditLog, Cfg: cfg,
		Orch: New(git, forge, store, auditLog, cfg, logger),
	}
}

func ctx() context.Context { return context.Background() }
