package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ailog-cli/ailog/internal/model"
)

const defaultLimit = 100

// SessionRow is the relational view of a session: scalar attributes and
// denormalized counts, without the message bodies.
type SessionRow struct {
	ID            string
	Agent         model.AgentKind
	ProjectPath   string
	ProjectName   string
	Summary       string
	WorkSummary   string
	LLMSummary    string
	StartedAt     *time.Time
	EndedAt       *time.Time
	MessageCount  int64
	FilesCreated  int64
	FilesModified int64
	FilesDeleted  int64
	Tags          []string
}

// MessageRow is one stored conversation turn. ID is the auto-increment
// row id and mirrors conversation order.
type MessageRow struct {
	ID           int64
	SessionID    string
	Role         model.Role
	Content      string
	Timestamp    *time.Time
	FilesChanged []string
}

type ToolCallRow struct {
	ID        int64
	SessionID string
	ToolName  string
	FilePath  string
	Timestamp *time.Time
}

// SearchHit is one full-text match joined back to its session.
type SearchHit struct {
	SessionID   string
	Agent       model.AgentKind
	ProjectName string
	ProjectPath string
	Role        model.Role
	Content     string
	Summary     string
	StartedAt   *time.Time
}

// Stats is an aggregation over the filtered session set. Counts are
// always derived by aggregation, never cached.
type Stats struct {
	TotalSessions     int64
	SessionsByAgent   []CountRow
	SessionsByProject []CountRow
	FilesCreated      int64
	FilesModified     int64
	FilesDeleted      int64
	TopFiles          []CountRow
}

type CountRow struct {
	Key   string
	Count int64
}

// Filter bounds a listing or search. Project paths are canonicalized
// before comparison so relative and absolute forms of the same
// directory match.
type Filter struct {
	Agent   model.AgentKind
	Project string
	From    *time.Time
	To      *time.Time
	Limit   int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return defaultLimit
	}
	return f.Limit
}

// canonicalProject resolves a project filter to the absolute, symlink-
// free form adapters store. Unresolvable paths fall back unchanged.
func canonicalProject(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func (f Filter) where(prefix string) (string, []any) {
	var conds []string
	var args []any
	if f.Agent != "" {
		conds = append(conds, prefix+"agent = ?")
		args = append(args, f.Agent.String())
	}
	if f.Project != "" {
		conds = append(conds, prefix+"project_path = ?")
		args = append(args, canonicalProject(f.Project))
	}
	if f.From != nil {
		conds = append(conds, prefix+"started_at >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		conds = append(conds, prefix+"started_at <= ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conds, " AND "), args
}

const sessionCols = `id, agent, project_path, project_name, summary, work_summary,
	llm_summary, started_at, ended_at, message_count, files_created,
	files_modified, files_deleted, tags`

func scanSessionRow(scan func(...any) error) (SessionRow, error) {
	var r SessionRow
	var agent string
	var projectPath, projectName, summary, workSummary, llmSummary sql.NullString
	var startedAt, endedAt sql.NullString
	var tags string

	err := scan(
		&r.ID, &agent, &projectPath, &projectName, &summary, &workSummary,
		&llmSummary, &startedAt, &endedAt, &r.MessageCount, &r.FilesCreated,
		&r.FilesModified, &r.FilesDeleted, &tags,
	)
	if err != nil {
		return r, err
	}

	r.Agent = model.AgentKind(agent)
	r.ProjectPath = projectPath.String
	r.ProjectName = projectName.String
	r.Summary = summary.String
	r.WorkSummary = workSummary.String
	r.LLMSummary = llmSummary.String
	r.StartedAt = parseStoredTime(startedAt)
	r.EndedAt = parseStoredTime(endedAt)
	r.Tags = splitTags(tags)
	return r, nil
}

func parseStoredTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Get returns one session row, or nil when the id is unknown.
func (s *Store) Get(id string) (*SessionRow, error) {
	row := s.db.QueryRow("SELECT "+sessionCols+" FROM sessions WHERE id = ?", id)
	r, err := scanSessionRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &r, nil
}

// Exists reports whether a session row with this id is stored.
func (s *Store) Exists(id string) (bool, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("session exists %s: %w", id, err)
	}
	return n > 0, nil
}

// MessageCount returns the stored denormalized message count, used by
// the indexer's growth heuristic.
func (s *Store) MessageCount(id string) (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT message_count FROM sessions WHERE id = ?", id).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("message count %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("message count %s: %w", id, err)
	}
	return n, nil
}

// List returns sessions newest first. Sessions without a start time
// sort last.
func (s *Store) List(f Filter) ([]SessionRow, error) {
	where, args := f.where("")
	query := "SELECT " + sessionCols + " FROM sessions WHERE 1=1" + where +
		" ORDER BY started_at DESC LIMIT ?"
	args = append(args, f.limit())

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		r, err := scanSessionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Search runs a full-text query over message content and filters the
// joined session metadata. An empty keyword returns no rows: keyword
// search is opt-in, not a fallback to listing.
func (s *Store) Search(keyword string, f Filter) ([]SearchHit, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, nil
	}

	where, args := f.where("s.")
	query := `
		SELECT mf.session_id, s.agent, s.project_name, s.project_path,
		       mf.role, mf.content, s.summary, s.started_at
		FROM messages_fts mf
		JOIN sessions s ON s.id = mf.session_id
		WHERE messages_fts MATCH ?` + where + " LIMIT ?"
	args = append([]any{keyword}, args...)
	args = append(args, f.limit())

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		var agent, role string
		var projectName, projectPath, summary, startedAt sql.NullString
		if err := rows.Scan(&h.SessionID, &agent, &projectName, &projectPath,
			&role, &h.Content, &summary, &startedAt); err != nil {
			return nil, fmt.Errorf("search messages: %w", err)
		}
		h.Agent = model.AgentKind(agent)
		h.Role = model.Role(role)
		h.ProjectName = projectName.String
		h.ProjectPath = projectPath.String
		h.Summary = summary.String
		h.StartedAt = parseStoredTime(startedAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

// SearchByFile returns distinct sessions whose tool calls touched a
// file path containing the substring, most recent first.
func (s *Store) SearchByFile(pathSubstring string, limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.Query(`
		SELECT DISTINCT s.id, s.agent, s.project_path, s.project_name, s.summary,
		       s.work_summary, s.llm_summary, s.started_at, s.ended_at,
		       s.message_count, s.files_created, s.files_modified, s.files_deleted, s.tags
		FROM sessions s
		JOIN tool_calls tc ON tc.session_id = s.id
		WHERE tc.file_path LIKE ?
		ORDER BY s.started_at DESC
		LIMIT ?`,
		"%"+pathSubstring+"%", limit)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		r, err := scanSessionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("search by file: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Messages returns a session's turns in conversation order.
func (s *Store) Messages(id string) ([]MessageRow, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, timestamp, files_changed
		 FROM messages WHERE session_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var m MessageRow
		var role string
		var ts sql.NullString
		var files string
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &ts, &files); err != nil {
			return nil, fmt.Errorf("get messages %s: %w", id, err)
		}
		m.Role = model.Role(role)
		m.Timestamp = parseStoredTime(ts)
		json.Unmarshal([]byte(files), &m.FilesChanged)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ToolCalls returns a session's tool invocations in stored order.
func (s *Store) ToolCalls(id string) ([]ToolCallRow, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, tool_name, file_path, timestamp
		 FROM tool_calls WHERE session_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	var out []ToolCallRow
	for rows.Next() {
		var tc ToolCallRow
		var fp, ts sql.NullString
		if err := rows.Scan(&tc.ID, &tc.SessionID, &tc.ToolName, &fp, &ts); err != nil {
			return nil, fmt.Errorf("get tool calls %s: %w", id, err)
		}
		tc.FilePath = fp.String
		tc.Timestamp = parseStoredTime(ts)
		out = append(out, tc)
	}
	return out, rows.Err()
}

// Tags returns the tag set for one session. Unknown ids yield nil, not
// an error.
func (s *Store) Tags(id string) ([]string, error) {
	var tags string
	err := s.db.QueryRow("SELECT tags FROM sessions WHERE id = ?", id).Scan(&tags)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tags %s: %w", id, err)
	}
	return splitTags(tags), nil
}

// SessionCount returns the total number of stored sessions.
func (s *Store) SessionCount() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("session count: %w", err)
	}
	return n, nil
}

// Stats aggregates the filtered session set. The top-10 touched files
// use their own time window over tool_calls timestamps, independent of
// the session start-time filter.
func (s *Store) Stats(from, to *time.Time, project string) (*Stats, error) {
	f := Filter{Project: project, From: from, To: to}
	where, args := f.where("")
	base := " FROM sessions WHERE 1=1" + where

	st := &Stats{}
	if err := s.db.QueryRow("SELECT COUNT(*)"+base, args...).Scan(&st.TotalSessions); err != nil {
		return nil, queryErr(err)
	}

	byAgent, err := s.countRows(
		"SELECT agent, COUNT(*)"+base+" GROUP BY agent ORDER BY COUNT(*) DESC", args)
	if err != nil {
		return nil, err
	}
	st.SessionsByAgent = byAgent

	byProject, err := s.countRows(
		"SELECT COALESCE(project_name, 'unknown'), COUNT(*)"+base+
			" GROUP BY project_name ORDER BY COUNT(*) DESC", args)
	if err != nil {
		return nil, err
	}
	st.SessionsByProject = byProject

	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(files_created),0), COALESCE(SUM(files_modified),0),
		        COALESCE(SUM(files_deleted),0)`+base, args...,
	).Scan(&st.FilesCreated, &st.FilesModified, &st.FilesDeleted)
	if err != nil {
		return nil, queryErr(err)
	}

	fileWhere := "WHERE file_path IS NOT NULL"
	var fileArgs []any
	if from != nil {
		fileWhere += " AND timestamp >= ?"
		fileArgs = append(fileArgs, from.UTC().Format(time.RFC3339))
	}
	if to != nil {
		fileWhere += " AND timestamp <= ?"
		fileArgs = append(fileArgs, to.UTC().Format(time.RFC3339))
	}
	topFiles, err := s.countRows(
		"SELECT file_path, COUNT(*) AS cnt FROM tool_calls "+fileWhere+
			" GROUP BY file_path ORDER BY cnt DESC LIMIT 10", fileArgs)
	if err != nil {
		return nil, err
	}
	st.TopFiles = topFiles

	return st, nil
}

func (s *Store) countRows(query string, args []any) ([]CountRow, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()

	var out []CountRow
	for rows.Next() {
		var c CountRow
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Clean deletes every session started strictly before the cutoff,
// optionally restricted to one agent, using the same per-session
// cascade as Delete. Returns the number removed.
func (s *Store) Clean(before time.Time, agent model.AgentKind) (int, error) {
	query := "SELECT id FROM sessions WHERE started_at < ?"
	args := []any{before.UTC().Format(time.RFC3339)}
	if agent != "" {
		query += " AND agent = ?"
		args = append(args, agent.String())
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return 0, queryErr(err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("clean sessions: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("clean sessions: %w", err)
	}

	for i, id := range ids {
		if err := s.Delete(id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
