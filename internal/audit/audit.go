// Package audit persists one immutable, human-readable record per session
// when it reaches a terminal state, plus a sqlite index for listing.
// Persistence is best-effort: failures are logged and never surface to the
// application flow.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"applypilot/internal/domain"
	"applypilot/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	platform     TEXT NOT NULL,
	job_id       TEXT NOT NULL,
	job_title    TEXT,
	company      TEXT,
	status       TEXT NOT NULL,
	error        TEXT,
	confidence   INTEGER,
	started_at   TIMESTAMP,
	completed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sessions_platform ON sessions(platform);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
`

// Logger writes terminal session records. Safe for concurrent use.
type Logger struct {
	dir string
	db  *sql.DB

	mu      sync.Mutex
	written map[string]bool
}

// NewLogger opens the audit store under <workspace>/.applypilot/.
func NewLogger(workspace string) (*Logger, error) {
	base := filepath.Join(workspace, ".applypilot")
	dir := filepath.Join(base, "records")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create records dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(base, "audit.db"))
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}

	return &Logger{dir: dir, db: db, written: make(map[string]bool)}, nil
}

// Close releases the index database.
func (l *Logger) Close() error {
	return l.db.Close()
}

// Record persists the session exactly once. A second call for the same
// session, and any write failure, is logged and ignored.
func (l *Logger) Record(session *domain.Session) {
	if session == nil {
		return
	}
	if !session.Status.IsTerminal() {
		logging.AuditWarn("refusing to record non-terminal session %s (%s)", session.ID, session.Status)
		return
	}

	l.mu.Lock()
	if l.written[session.ID] {
		l.mu.Unlock()
		logging.AuditWarn("duplicate audit write suppressed for %s", session.ID)
		return
	}
	l.written[session.ID] = true
	l.mu.Unlock()

	if err := l.writeRecord(session); err != nil {
		logging.AuditWarn("record write failed for %s: %v", session.ID, err)
	}
	if err := l.indexSession(session); err != nil {
		logging.AuditWarn("index write failed for %s: %v", session.ID, err)
	}
	logging.AuditInfo("session %s recorded (%s)", session.ID, session.Status)
}

// writeRecord emits the full session as indented JSON, write-once via
// O_EXCL.
func (l *Logger) writeRecord(session *domain.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(l.dir, session.ID+".json")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

func (l *Logger) indexSession(session *domain.Session) error {
	var completed any
	if !session.CompletedAt.IsZero() {
		completed = session.CompletedAt
	}
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO sessions
		 (id, platform, job_id, job_title, company, status, error, confidence, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, string(session.Platform), session.JobID, session.JobTitle,
		session.Company, string(session.Status), session.ErrorMessage,
		session.ConfidenceScore, session.StartedAt, completed,
	)
	return err
}

// Summary is one row of the audit index.
type Summary struct {
	ID          string
	Platform    string
	JobID       string
	JobTitle    string
	Company     string
	Status      string
	Error       string
	Confidence  int
	StartedAt   time.Time
	CompletedAt time.Time
}

// List returns the most recent terminal sessions, newest first.
func (l *Logger) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(
		`SELECT id, platform, job_id, job_title, company, status,
		        COALESCE(error, ''), COALESCE(confidence, 0),
		        started_at, COALESCE(completed_at, started_at)
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Platform, &s.JobID, &s.JobTitle, &s.Company,
			&s.Status, &s.Error, &s.Confidence, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecordPath returns where the JSON record for a session lives.
func (l *Logger) RecordPath(sessionID string) string {
	return filepath.Join(l.dir, sessionID+".json")
}
