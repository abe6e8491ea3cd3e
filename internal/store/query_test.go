package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ailog-cli/ailog/internal/model"
)

func insertSimple(t *testing.T, s *Store, id string, agent model.AgentKind, project string, started *time.Time) {
	t.Helper()
	sess := &model.Session{
		ID:          id,
		Agent:       agent,
		ProjectPath: project,
		ProjectName: model.BaseName(project),
		Summary:     "work on " + id,
		StartedAt:   started,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "please help with " + id},
		},
	}
	if err := s.Insert(sess); err != nil {
		t.Fatalf("Insert(%s): %v", id, err)
	}
}

func TestListNewestFirstNilsLast(t *testing.T) {
	s := testStore(t)
	insertSimple(t, s, "old", model.AgentCodex, "/p/a", ts(t, "2025-06-01T10:00:00Z"))
	insertSimple(t, s, "new", model.AgentCodex, "/p/a", ts(t, "2025-06-03T10:00:00Z"))
	insertSimple(t, s, "undated", model.AgentCodex, "/p/a", nil)

	rows, err := s.List(Filter{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("List() returned %d rows, want 3", len(rows))
	}
	got := []string{rows[0].ID, rows[1].ID, rows[2].ID}
	want := []string{"new", "old", "undated"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() order = %v, want %v", got, want)
		}
	}
}

func TestListAgentAndTimeFilter(t *testing.T) {
	s := testStore(t)
	insertSimple(t, s, "c1", model.AgentClaudeCode, "/p/a", ts(t, "2025-06-01T10:00:00Z"))
	insertSimple(t, s, "x1", model.AgentCodex, "/p/a", ts(t, "2025-06-02T10:00:00Z"))
	insertSimple(t, s, "x2", model.AgentCodex, "/p/a", ts(t, "2025-06-05T10:00:00Z"))

	rows, err := s.List(Filter{Agent: model.AgentCodex, From: ts(t, "2025-06-03T00:00:00Z")})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "x2" {
		t.Errorf("List() = %v rows, want just x2", len(rows))
	}
}

func TestListLimit(t *testing.T) {
	s := testStore(t)
	for i, id := range []string{"a", "b", "c"} {
		started := time.Date(2025, 6, 1+i, 0, 0, 0, 0, time.UTC)
		insertSimple(t, s, id, model.AgentCursor, "/p/a", &started)
	}
	rows, err := s.List(Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("List() returned %d rows, want 2", len(rows))
	}
}

func TestProjectFilterCanonicalizesPath(t *testing.T) {
	s := testStore(t)
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	insertSimple(t, s, "s1", model.AgentClaudeCode, dir, ts(t, "2025-06-01T10:00:00Z"))

	// a relative spelling of the same directory must match
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	rel, err := filepath.Rel(cwd, dir)
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}

	rows, err := s.List(Filter{Project: rel})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "s1" {
		t.Errorf("List() with relative project path found %d rows, want 1", len(rows))
	}
}

func TestSearchMatchesMessageContent(t *testing.T) {
	s := testStore(t)
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	sess := &model.Session{
		ID:    "s1",
		Agent: model.AgentClaudeCode,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "the websocket handler drops frames"},
			{Role: model.RoleAssistant, Content: "rewrote the reconnect loop"},
		},
		StartedAt: &started,
	}
	if err := s.Insert(sess); err != nil {
		t.Fatalf("Insert(): %v", err)
	}

	hits, err := s.Search("websocket", Filter{})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	if hits[0].SessionID != "s1" || hits[0].Role != model.RoleUser {
		t.Errorf("hit = %+v", hits[0])
	}
}

func TestSearchKoreanContent(t *testing.T) {
	s := testStore(t)
	sess := &model.Session{
		ID:    "s1",
		Agent: model.AgentClaudeCode,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "로그인 페이지를 만들어줘"},
		},
	}
	if err := s.Insert(sess); err != nil {
		t.Fatalf("Insert(): %v", err)
	}

	hits, err := s.Search("로그인", Filter{})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Search() returned %d hits, want 1", len(hits))
	}
}

func TestSearchEmptyKeyword(t *testing.T) {
	s := testStore(t)
	insertSimple(t, s, "s1", model.AgentCodex, "/p/a", nil)

	hits, err := s.Search("   ", Filter{})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if hits != nil {
		t.Errorf("Search(blank) = %v, want nil", hits)
	}
}

func TestSearchMalformedQuery(t *testing.T) {
	s := testStore(t)
	insertSimple(t, s, "s1", model.AgentCodex, "/p/a", nil)

	_, err := s.Search(`"unbalanced`, Filter{})
	if !errors.Is(err, ErrQueryFailed) {
		t.Errorf("Search(malformed) error = %v, want ErrQueryFailed", err)
	}
}

func TestSearchByFile(t *testing.T) {
	s := testStore(t)
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	sess := &model.Session{
		ID:        "s1",
		Agent:     model.AgentClaudeCode,
		StartedAt: &started,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "tweak the auth flow"},
		},
		ToolCalls: []model.ToolCall{
			{ToolName: "Edit", FilePath: "/home/me/proj/internal/auth/login.go"},
			{ToolName: "Edit", FilePath: "/home/me/proj/internal/auth/login.go"},
		},
	}
	if err := s.Insert(sess); err != nil {
		t.Fatalf("Insert(): %v", err)
	}
	insertSimple(t, s, "s2", model.AgentCodex, "/p/b", &started)

	rows, err := s.SearchByFile("auth/login", 0)
	if err != nil {
		t.Fatalf("SearchByFile() error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "s1" {
		t.Errorf("SearchByFile() = %d rows, want only s1 once", len(rows))
	}
}

func TestMessageCountMissingSession(t *testing.T) {
	s := testStore(t)
	_, err := s.MessageCount("ghost")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("MessageCount() error = %v, want ErrSessionNotFound", err)
	}
}

func TestStatsAggregates(t *testing.T) {
	s := testStore(t)
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a := &model.Session{
		ID: "a", Agent: model.AgentClaudeCode, ProjectPath: "/p/one", ProjectName: "one",
		StartedAt: &started,
		Messages:  []model.Message{{Role: model.RoleUser, Content: "x"}},
		ToolCalls: []model.ToolCall{
			{ToolName: "Write", FilePath: "/p/one/main.go", Timestamp: &started},
			{ToolName: "Edit", FilePath: "/p/one/main.go", Timestamp: &started},
		},
	}
	b := &model.Session{
		ID: "b", Agent: model.AgentCodex, ProjectPath: "/p/one", ProjectName: "one",
		StartedAt: &started,
		Messages:  []model.Message{{Role: model.RoleUser, Content: "y"}},
		ToolCalls: []model.ToolCall{
			{ToolName: "Edit", FilePath: "/p/one/main.go", Timestamp: &started},
		},
	}
	for _, sess := range []*model.Session{a, b} {
		if err := s.Insert(sess); err != nil {
			t.Fatalf("Insert(%s): %v", sess.ID, err)
		}
	}

	stats, err := s.Stats(nil, nil, "")
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d", stats.TotalSessions)
	}
	if len(stats.SessionsByAgent) != 2 {
		t.Errorf("SessionsByAgent = %v", stats.SessionsByAgent)
	}
	if stats.FilesCreated != 1 || stats.FilesModified != 2 {
		t.Errorf("file totals = %d created, %d modified", stats.FilesCreated, stats.FilesModified)
	}
	if len(stats.TopFiles) != 1 || stats.TopFiles[0].Count != 3 {
		t.Errorf("TopFiles = %v", stats.TopFiles)
	}
	if len(stats.SessionsByProject) != 1 || stats.SessionsByProject[0].Key != "one" {
		t.Errorf("SessionsByProject = %v", stats.SessionsByProject)
	}
}

func TestCleanRemovesOnlyOldSessions(t *testing.T) {
	s := testStore(t)
	for i := 0; i < 5; i++ {
		started := time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC)
		insertSimple(t, s, string(rune('a'+i)), model.AgentCodex, "/p/x", &started)
	}
	for i := 0; i < 3; i++ {
		started := time.Date(2025, 7, 1+i, 0, 0, 0, 0, time.UTC)
		insertSimple(t, s, string(rune('v'+i)), model.AgentCodex, "/p/x", &started)
	}

	removed, err := s.Clean(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "")
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if removed != 5 {
		t.Errorf("Clean() removed %d, want 5", removed)
	}
	n, err := s.SessionCount()
	if err != nil {
		t.Fatalf("SessionCount() error: %v", err)
	}
	if n != 3 {
		t.Errorf("SessionCount() = %d after clean, want 3", n)
	}
}

func TestCleanAgentScoped(t *testing.T) {
	s := testStore(t)
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	insertSimple(t, s, "claude-old", model.AgentClaudeCode, "/p/x", &old)
	insertSimple(t, s, "codex-old", model.AgentCodex, "/p/x", &old)

	removed, err := s.Clean(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), model.AgentCodex)
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("Clean() removed %d, want 1", removed)
	}
	row, err := s.Get("claude-old")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row == nil {
		t.Error("agent-scoped clean removed another agent's session")
	}
}
