package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"trunkline.dev/trunkline/pkg/statemachine"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

const (
	sessionsDir  = "sessions"
	locksDir     = "locks"
	indexFile    = "session-index.json"
	staleLockAge = 24 * time.Hour
)

// Store is spec.md §4.2's SessionStore: create/get/getByBranch/list/
// update/delete plus acquireLock/releaseLock, durable under a
// project-local state directory.
type Store interface {
	Create(ctx context.Context, branchName string, workflowType statemachine.WorkflowType, ttl time.Duration) (*WorkflowSession, error)
	Get(ctx context.Context, id string) (*WorkflowSession, error)
	GetByBranch(ctx context.Context, branchName string) (*WorkflowSession, error)
	List(ctx context.Context, includeTerminal bool) ([]*WorkflowSession, error)
	Update(ctx context.Context, s *WorkflowSession) error
	Delete(ctx context.Context, id string) error

	AcquireLock(ctx context.Context, id string, wait time.Duration) error
	ReleaseLock(id string) error

	// ReclaimStaleLocks removes lock files older than the stale-lock
	// threshold, as cleanup(§4.6.6) requires.
	ReclaimStaleLocks() (int, error)
}

// FileStore is the on-disk Store implementation, grounded on the
// teacher's checkpoint.go persistence discipline, upgraded from a plain
// os.WriteFile to temp-write + fsync + rename per spec.md §4.2.
type FileStore struct {
	stateDir string
	mu       sync.Mutex // serializes index updates within this process
}

// NewFileStore constructs a FileStore rooted at stateDir, creating the
// sessions/ and locks/ subdirectories if absent.
func NewFileStore(stateDir string) (*FileStore, error) {
	for _, d := range []string{sessionsDir, locksDir} {
		if err := os.MkdirAll(filepath.Join(stateDir, d), 0700); err != nil {
			return nil, tlerrors.NewSessionErrorWithCause("init", "", "failed to create state directories", err)
		}
	}
	return &FileStore{stateDir: stateDir}, nil
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) sessionPath(id string) string {
	return filepath.Join(s.stateDir, sessionsDir, id+".json")
}

func (s *FileStore) lockPath(id string) string {
	return filepath.Join(s.stateDir, locksDir, id+".lock")
}

func (s *FileStore) indexPath() string {
	return filepath.Join(s.stateDir, indexFile)
}

// atomicWrite writes data to a sibling temp file, fsyncs it, then renames
// it into place — the discipline spec.md §4.2 requires and the teacher's
// SaveCheckpoint approximates with a plain WriteFile.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return tlerrors.NewSessionErrorWithCause("persist", "", "failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return tlerrors.NewSessionErrorWithCause("persist", "", "failed to write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return tlerrors.NewSessionErrorWithCause("persist", "", "failed to fsync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return tlerrors.NewSessionErrorWithCause("persist", "", "failed to close temp file", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return tlerrors.NewSessionErrorWithCause("persist", "", "failed to set file permissions", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return tlerrors.NewSessionErrorWithCause("persist", "", "failed to rename into place", err)
	}
	return nil
}

func (s *FileStore) Create(ctx context.Context, branchName string, workflowType statemachine.WorkflowType, ttl time.Duration) (*WorkflowSession, error) {
	existing, err := s.GetByBranch(ctx, branchName)
	if err != nil && !tlerrors.Is(err, tlerrors.ErrSessionNotFound) {
		return nil, err
	}
	if existing != nil && !existing.IsTerminal() {
		return nil, tlerrors.NewSessionErrorWithCause("create", "", "active session already exists for branch "+branchName, tlerrors.ErrSessionExists)
	}

	now := time.Now().UTC()
	sess := &WorkflowSession{
		ID:           uuid.NewString(),
		BranchName:   branchName,
		WorkflowType: workflowType,
		CurrentState: statemachine.InitialState(workflowType),
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.persist(sess); err != nil {
		return nil, err
	}
	if err := s.updateIndex(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *FileStore) persist(sess *WorkflowSession) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return tlerrors.NewSessionErrorWithCause("persist", sess.ID, "failed to marshal session", err)
	}
	return atomicWrite(s.sessionPath(sess.ID), data)
}

func (s *FileStore) Get(ctx context.Context, id string) (*WorkflowSession, error) {
	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tlerrors.NewSessionErrorWithCause("get", id, "session not found", tlerrors.ErrSessionNotFound)
		}
		return nil, tlerrors.NewSessionErrorWithCause("get", id, "failed to read session file", err)
	}
	var sess WorkflowSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, tlerrors.NewSessionErrorWithCause("get", id, "failed to parse session file", err)
	}
	return &sess, nil
}

// GetByBranch consults the index first and falls back to a directory
// scan if the index is missing or stale, per spec.md §4.2's "readers
// tolerate an unflushed index" contract.
func (s *FileStore) GetByBranch(ctx context.Context, branchName string) (*WorkflowSession, error) {
	idx, err := s.readIndex()
	if err == nil {
		for _, entry := range idx.Sessions {
			if entry.BranchName == branchName {
				return s.Get(ctx, entry.ID)
			}
		}
	}

	// Index miss: fall back to a full directory scan.
	all, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, sess := range all {
		if sess.BranchName == branchName {
			return sess, nil
		}
	}
	return nil, tlerrors.NewSessionErrorWithCause("getByBranch", "", "no session for branch "+branchName, tlerrors.ErrSessionNotFound)
}

func (s *FileStore) List(ctx context.Context, includeTerminal bool) ([]*WorkflowSession, error) {
	entries, err := os.ReadDir(filepath.Join(s.stateDir, sessionsDir))
	if err != nil {
		return nil, tlerrors.NewSessionErrorWithCause("list", "", "failed to read sessions directory", err)
	}
	var out []*WorkflowSession
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id := e.Name()
		if filepath.Ext(id) == ".json" {
			id = id[:len(id)-len(".json")]
		}
		sess, err := s.Get(ctx, id)
		if err != nil {
			continue // skip unreadable/partial files rather than fail the whole listing
		}
		if !includeTerminal && sess.IsTerminal() {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *FileStore) Update(ctx context.Context, sess *WorkflowSession) error {
	if err := s.persist(sess); err != nil {
		return err
	}
	return s.updateIndex(sess)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.sessionPath(id)); err != nil && !os.IsNotExist(err) {
		return tlerrors.NewSessionErrorWithCause("delete", id, "failed to remove session file", err)
	}
	return s.removeFromIndex(id)
}

func (s *FileStore) readIndex() (*Index, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func (s *FileStore) updateIndex(sess *WorkflowSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		idx = &Index{Version: indexVersion}
	}
	entry := IndexEntry{
		ID:           sess.ID,
		BranchName:   sess.BranchName,
		WorkflowType: sess.WorkflowType,
		CurrentState: sess.CurrentState,
		StartedAt:    sess.CreatedAt,
		LastModified: sess.UpdatedAt,
	}
	found := false
	for i, e := range idx.Sessions {
		if e.ID == sess.ID {
			idx.Sessions[i] = entry
			found = true
			break
		}
	}
	if !found {
		idx.Sessions = append(idx.Sessions, entry)
	}
	return s.writeIndex(idx)
}

func (s *FileStore) removeFromIndex(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.readIndex()
	if err != nil {
		return nil // nothing to remove
	}
	filtered := idx.Sessions[:0]
	for _, e := range idx.Sessions {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	idx.Sessions = filtered
	return s.writeIndex(idx)
}

func (s *FileStore) writeIndex(idx *Index) error {
	idx.Version = indexVersion
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return tlerrors.NewSessionErrorWithCause("index", "", "failed to marshal index", err)
	}
	return atomicWrite(s.indexPath(), data)
}

// AcquireLock creates a lock file for id, retrying until wait elapses.
// The store MUST refuse concurrent writes to the same session
// (spec.md §4.2); O_EXCL gives that refusal for free.
func (s *FileStore) AcquireLock(ctx context.Context, id string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		err := s.tryLock(id)
		if err == nil {
			return nil
		}
		if !tlerrors.Is(err, tlerrors.ErrLockHeld) {
			return err
		}
		if time.Now().After(deadline) {
			return tlerrors.NewSessionErrorWithCause("acquireLock", id, "timed out waiting for session lock", tlerrors.ErrLockHeld)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (s *FileStore) tryLock(id string) error {
	path := s.lockPath(id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err == nil {
		fmt.Fprintf(f, "%d\n%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
		f.Close()
		return nil
	}
	if !os.IsExist(err) {
		return tlerrors.NewSessionErrorWithCause("acquireLock", id, "failed to create lock file", err)
	}
	// Lock exists: reclaim if stale, otherwise report held.
	info, statErr := os.Stat(path)
	if statErr == nil && time.Since(info.ModTime()) > staleLockAge {
		if rmErr := os.Remove(path); rmErr == nil {
			return s.tryLock(id)
		}
	}
	return tlerrors.NewSessionErrorWithCause("acquireLock", id, "lock held by another process", tlerrors.ErrLockHeld)
}

func (s *FileStore) ReleaseLock(id string) error {
	if err := os.Remove(s.lockPath(id)); err != nil && !os.IsNotExist(err) {
		return tlerrors.NewSessionErrorWithCause("releaseLock", id, "failed to remove lock file", err)
	}
	return nil
}

func (s *FileStore) ReclaimStaleLocks() (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.stateDir, locksDir))
	if err != nil {
		return 0, tlerrors.NewSessionErrorWithCause("reclaimStaleLocks", "", "failed to read locks directory", err)
	}
	reclaimed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > staleLockAge {
			if err := os.Remove(filepath.Join(s.stateDir, locksDir, e.Name())); err == nil {
				reclaimed++
			}
		}
	}
	return reclaimed, nil
}
