// Package store persists sessions, messages, and tool calls in a
// single-file SQLite database with two FTS5 indexes: one over message
// content and one over session-level searchable text (summaries,
// project name, tags). Writers are expected to be single-process; every
// write operation is one transaction.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ailog-cli/ailog/internal/model"
)

var (
	// ErrStorageUnavailable means the backing file could not be
	// created or opened. Fatal, never retried here.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrQueryFailed means a filter or query was malformed. Valid but
	// empty results are not an error.
	ErrQueryFailed = errors.New("query failed")
	// ErrSessionNotFound is reported by mutations whose contract
	// requires the session to exist.
	ErrSessionNotFound = errors.New("session not found")
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sessions (
    id             TEXT PRIMARY KEY,
    agent          TEXT NOT NULL,
    project_path   TEXT,
    project_name   TEXT,
    summary        TEXT,
    work_summary   TEXT,
    llm_summary    TEXT,
    started_at     TEXT,
    ended_at       TEXT,
    message_count  INTEGER DEFAULT 0,
    files_created  INTEGER DEFAULT 0,
    files_modified INTEGER DEFAULT 0,
    files_deleted  INTEGER DEFAULT 0,
    tags           TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role          TEXT NOT NULL,
    content       TEXT NOT NULL,
    timestamp     TEXT,
    files_changed TEXT DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS tool_calls (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    tool_name  TEXT NOT NULL,
    file_path  TEXT,
    timestamp  TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    session_id UNINDEXED,
    role UNINDEXED,
    content,
    tokenize='unicode61'
);

CREATE VIRTUAL TABLE IF NOT EXISTS sessions_fts USING fts5(
    session_id UNINDEXED,
    summary,
    work_summary,
    project_name,
    tags,
    tokenize='unicode61'
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_calls(session_id);
CREATE INDEX IF NOT EXISTS idx_tool_calls_file ON tool_calls(file_path);
CREATE INDEX IF NOT EXISTS idx_sessions_agent ON sessions(agent);
CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_path);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
`

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create dir: %v", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrStorageUnavailable, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Raw exposes the underlying handle for diagnostics.
func (s *Store) Raw() *sql.DB {
	return s.db
}

// Insert writes a session that does not exist yet: the session row,
// all messages and tool calls, and both FTS entries, in one
// transaction. Callers route existing ids to Update instead.
func (s *Store) Insert(sess *model.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, agent, project_path, project_name, summary, work_summary,
		                       started_at, ended_at, message_count, files_created,
		                       files_modified, files_deleted, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.Agent.String(),
		nullStr(sess.ProjectPath),
		nullStr(sess.ProjectName),
		nullStr(sess.Summary),
		nullStr(sess.WorkSummary),
		nullTime(sess.StartedAt),
		nullTime(sess.EndedAt),
		sess.MessageCount(),
		sess.FilesCreated(),
		sess.FilesModified(),
		sess.FilesDeleted(),
		joinTags(sess.Tags),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}

	if _, err := tx.Exec(
		`INSERT INTO sessions_fts (session_id, summary, work_summary, project_name, tags)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Summary, sess.WorkSummary, sess.ProjectName, joinTagsFts(sess.Tags),
	); err != nil {
		return fmt.Errorf("insert session fts %s: %w", sess.ID, err)
	}

	if err := insertMessages(tx, sess); err != nil {
		return err
	}
	if err := insertToolCalls(tx, sess); err != nil {
		return err
	}

	return tx.Commit()
}

// Update replaces an existing session's metadata and its entire message
// and tool-call set, refreshing both FTS indexes. Atomic: readers see
// either the old or the fully new message set.
func (s *Store) Update(sess *model.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE sessions SET summary = ?, work_summary = ?, started_at = ?, ended_at = ?,
		                     message_count = ?, files_created = ?, files_modified = ?, files_deleted = ?
		 WHERE id = ?`,
		nullStr(sess.Summary),
		nullStr(sess.WorkSummary),
		nullTime(sess.StartedAt),
		nullTime(sess.EndedAt),
		sess.MessageCount(),
		sess.FilesCreated(),
		sess.FilesModified(),
		sess.FilesDeleted(),
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sess.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update session %s: %w", sess.ID, ErrSessionNotFound)
	}

	for _, stmt := range []string{
		"DELETE FROM messages_fts WHERE session_id = ?",
		"DELETE FROM messages WHERE session_id = ?",
		"DELETE FROM tool_calls WHERE session_id = ?",
	} {
		if _, err := tx.Exec(stmt, sess.ID); err != nil {
			return fmt.Errorf("update session %s: %w", sess.ID, err)
		}
	}

	if err := insertMessages(tx, sess); err != nil {
		return err
	}
	if err := insertToolCalls(tx, sess); err != nil {
		return err
	}

	if _, err := tx.Exec(
		`UPDATE sessions_fts SET summary = ?, work_summary = ? WHERE session_id = ?`,
		sess.Summary, sess.WorkSummary, sess.ID,
	); err != nil {
		return fmt.Errorf("update session fts %s: %w", sess.ID, err)
	}

	return tx.Commit()
}

func insertMessages(tx *sql.Tx, sess *model.Session) error {
	stmt, err := tx.Prepare(
		`INSERT INTO messages (session_id, role, content, timestamp, files_changed)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare messages: %w", err)
	}
	defer stmt.Close()

	ftsStmt, err := tx.Prepare(
		`INSERT INTO messages_fts (session_id, role, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare messages fts: %w", err)
	}
	defer ftsStmt.Close()

	for _, m := range sess.Messages {
		files, _ := json.Marshal(m.FilesChanged)
		if m.FilesChanged == nil {
			files = []byte("[]")
		}
		if _, err := stmt.Exec(sess.ID, m.Role.String(), m.Content, nullTime(m.Timestamp), string(files)); err != nil {
			return fmt.Errorf("insert message for %s: %w", sess.ID, err)
		}
		if _, err := ftsStmt.Exec(sess.ID, m.Role.String(), m.Content); err != nil {
			return fmt.Errorf("insert message fts for %s: %w", sess.ID, err)
		}
	}
	return nil
}

func insertToolCalls(tx *sql.Tx, sess *model.Session) error {
	stmt, err := tx.Prepare(
		`INSERT INTO tool_calls (session_id, tool_name, file_path, timestamp)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tool calls: %w", err)
	}
	defer stmt.Close()

	for _, tc := range sess.ToolCalls {
		if _, err := stmt.Exec(sess.ID, tc.ToolName, nullStr(tc.FilePath), nullTime(tc.Timestamp)); err != nil {
			return fmt.Errorf("insert tool call for %s: %w", sess.ID, err)
		}
	}
	return nil
}

// Delete removes one session and every dependent row and FTS entry.
// Deleting an absent id succeeds silently.
func (s *Store) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	defer tx.Rollback()

	if err := deleteInTx(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteInTx(tx *sql.Tx, id string) error {
	for _, stmt := range []string{
		"DELETE FROM messages_fts WHERE session_id = ?",
		"DELETE FROM sessions_fts WHERE session_id = ?",
		"DELETE FROM tool_calls WHERE session_id = ?",
		"DELETE FROM messages WHERE session_id = ?",
		"DELETE FROM sessions WHERE id = ?",
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	return nil
}

// Clear empties every table. Used only for full rebuilds.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`
		DELETE FROM messages_fts;
		DELETE FROM sessions_fts;
		DELETE FROM tool_calls;
		DELETE FROM messages;
		DELETE FROM sessions;`)
	if err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

// UpdateLLMSummary stores an externally generated summary for one
// session. The engine never derives this field itself.
func (s *Store) UpdateLLMSummary(id, text string) error {
	res, err := s.db.Exec("UPDATE sessions SET llm_summary = ? WHERE id = ?", text, id)
	if err != nil {
		return fmt.Errorf("update llm summary %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update llm summary %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// SetTags replaces the tag set and refreshes the session FTS row so tag
// search stays consistent. Reports ErrSessionNotFound rather than
// creating a stub row.
func (s *Store) SetTags(id string, tags []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set tags: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE sessions SET tags = ? WHERE id = ?", joinTags(tags), id)
	if err != nil {
		return fmt.Errorf("set tags %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set tags %s: %w", id, ErrSessionNotFound)
	}
	if _, err := tx.Exec("UPDATE sessions_fts SET tags = ? WHERE session_id = ?", joinTagsFts(tags), id); err != nil {
		return fmt.Errorf("set tags fts %s: %w", id, err)
	}
	return tx.Commit()
}

// ── value helpers ──

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// The FTS row joins tags with spaces so each tag tokenizes separately.
func joinTagsFts(tags []string) string {
	return strings.Join(tags, " ")
}

func queryErr(err error) error {
	return fmt.Errorf("%w: %v", ErrQueryFailed, err)
}
