// Package audit implements spec.md §2's AuditLog: an append-only
// per-session forensic record, grounded on the unified event-log design
// in other_examples/.../internal-session-session.go.go — a monotonic,
// JSON-lines event stream that every analysis tool reads from. Here the
// authoritative store is a daily JSON-lines file (spec.md §6:
// audit/<YYYY-MM-DD>.log); a best-effort SQLite mirror (audit/audit.db)
// is layered on top for queryability, grounded on the teacher's
// pkg/history package (modernc.org/sqlite + database/sql).
package audit

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// Entry is one append-only AuditEntry record (spec.md §6).
type Entry struct {
	SeqID     int64             `json:"seq"`
	SessionID string            `json:"sessionId"`
	Operation string            `json:"operation"` // launch, commit, ship, abort, swap, cleanup, hotfix
	Step      string            `json:"step,omitempty"`
	Trigger   string            `json:"trigger,omitempty"`
	Message   string            `json:"message"`
	Success   *bool             `json:"success,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

const logDir = "audit"
const dbFile = "audit.db"

// Log is the append-only forensic record. It holds the daily JSON-lines
// writer plus an optional SQLite mirror; callers construct one per
// project-local state directory.
type Log struct {
	stateDir string
	db       *sql.DB // nil if the mirror could not be opened; JSONL is still authoritative
	seq      int64
}

// Open prepares audit/<YYYY-MM-DD>.log for appending and opens (creating
// if absent) the SQLite mirror at audit/audit.db. A failure to open the
// mirror is non-fatal and not reported: the JSON-lines file remains
// authoritative, Open logs nothing since there is no logger injected
// here, and the Log simply runs without a mirror.
func Open(stateDir string) (*Log, error) {
	dir := filepath.Join(stateDir, logDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, tlerrors.NewSessionErrorWithCause("audit_open", "", "failed to create audit directory", err)
	}
	l := &Log{stateDir: stateDir}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFile))
	if err == nil {
		if mErr := migrate(db); mErr == nil {
			l.db = db
		} else {
			db.Close()
		}
	}
	return l, nil
}

// Close releases the SQLite mirror handle, if open.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			seq INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			step TEXT,
			trigger_name TEXT,
			message TEXT,
			success INTEGER,
			metadata TEXT,
			timestamp TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_events(session_id);
	`)
	return err
}

// Append writes entry to today's JSON-lines file and, best-effort, mirrors
// it into SQLite. JSONL failures are returned (ErrPersistence-worthy);
// SQLite mirror failures are swallowed since the mirror is explicitly
// rebuildable from the JSONL record.
func (l *Log) Append(ctx context.Context, e Entry) error {
	l.seq++
	e.SeqID = l.seq
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return tlerrors.NewSessionErrorWithCause("audit_append", e.SessionID, "failed to marshal audit entry", err)
	}

	path := filepath.Join(l.stateDir, logDir, e.Timestamp.Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return tlerrors.NewSessionErrorWithCause("audit_append", e.SessionID, "failed to open audit log", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return tlerrors.NewSessionErrorWithCause("audit_append", e.SessionID, "failed to write audit entry", err)
	}

	if l.db != nil {
		l.mirror(ctx, e)
	}
	return nil
}

func (l *Log) mirror(ctx context.Context, e Entry) {
	var metaJSON string
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			metaJSON = string(b)
		}
	}
	var success sql.NullBool
	if e.Success != nil {
		success = sql.NullBool{Bool: *e.Success, Valid: true}
	}
	// Best-effort: errors here never surface. The JSONL file already has
	// the record.
	_, _ = l.db.ExecContext(ctx, `
		INSERT INTO audit_events (seq, session_id, operation, step, trigger_name, message, success, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SeqID, e.SessionID, e.Operation, e.Step, e.Trigger, e.Message, success, metaJSON, e.Timestamp.Format(time.RFC3339))
}

// ForSession queries the SQLite mirror for every entry recorded against
// sessionID, ordered by sequence. Returns an empty slice (not an error)
// if the mirror is unavailable — callers needing the authoritative
// record should read the JSONL files directly via Replay.
func (l *Log) ForSession(ctx context.Context, sessionID string) ([]Entry, error) {
	if l.db == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, session_id, operation, step, trigger_name, message, success, metadata, timestamp
		FROM audit_events WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, tlerrors.NewSessionErrorWithCause("audit_query", sessionID, "failed to query audit mirror", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var step, trig, metaJSON sql.NullString
		var success sql.NullBool
		var ts string
		if err := rows.Scan(&e.SeqID, &e.SessionID, &e.Operation, &step, &trig, &e.Message, &success, &metaJSON, &ts); err != nil {
			return nil, tlerrors.NewSessionErrorWithCause("audit_query", sessionID, "failed to scan audit row", err)
		}
		e.Step = step.String
		e.Trigger = trig.String
		if success.Valid {
			b := success.Bool
			e.Success = &b
		}
		if metaJSON.Valid && metaJSON.String != "" {
			_ = json.Unmarshal([]byte(metaJSON.String), &e.Metadata)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Replay reads every JSON-lines entry across all daily files under
// audit/, in file-name (hence chronological) order, optionally filtered
// to one session. This is the authoritative forensic-replay path spec.md
// §2 describes, independent of whether the SQLite mirror exists.
func (l *Log) Replay(sessionID string) ([]Entry, error) {
	dir := filepath.Join(l.stateDir, logDir)
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, tlerrors.NewSessionErrorWithCause("audit_replay", sessionID, "failed to list audit directory", err)
	}

	var names []string
	for _, f := range files {
		if !f.IsDir() && filepath.Ext(f.Name()) == ".log" {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	var out []Entry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		for {
			var e Entry
			if err := dec.Decode(&e); err != nil {
				break
			}
			if sessionID == "" || e.SessionID == sessionID {
				out = append(out, e)
			}
		}
	}
	return out, nil
}
