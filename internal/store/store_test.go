package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ailog-cli/ailog/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ailog_test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return &parsed
}

func sampleSession(id string) *model.Session {
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ended := time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC)
	return &model.Session{
		ID:          id,
		Agent:       model.AgentClaudeCode,
		ProjectPath: "/home/me/proj",
		ProjectName: "proj",
		Summary:     "Build a login page",
		WorkSummary: "Implemented JWT login",
		StartedAt:   &started,
		EndedAt:     &ended,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "build a login page", Timestamp: &started},
			{Role: model.RoleAssistant, Content: "implemented JWT login", Timestamp: &ended,
				FilesChanged: []string{"/home/me/proj/login.go"}},
		},
		ToolCalls: []model.ToolCall{
			{ToolName: "Write", FilePath: "/home/me/proj/login.go", Timestamp: &ended},
		},
		Tags: []string{"auth", "web"},
	}
}

func TestInsertAndGet(t *testing.T) {
	s := testStore(t)
	sess := sampleSession("s1")
	if err := s.Insert(sess); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	row, err := s.Get("s1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row == nil {
		t.Fatal("Get() = nil, want row")
	}
	if row.Agent != model.AgentClaudeCode {
		t.Errorf("Agent = %q", row.Agent)
	}
	if row.Summary != "Build a login page" || row.WorkSummary != "Implemented JWT login" {
		t.Errorf("summaries = %q / %q", row.Summary, row.WorkSummary)
	}
	if row.MessageCount != 2 || row.FilesCreated != 1 {
		t.Errorf("counts = %d messages, %d created", row.MessageCount, row.FilesCreated)
	}
	if row.StartedAt == nil || !row.StartedAt.Equal(*sess.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", row.StartedAt, sess.StartedAt)
	}
	if len(row.Tags) != 2 || row.Tags[0] != "auth" {
		t.Errorf("Tags = %v", row.Tags)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)
	row, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row != nil {
		t.Errorf("Get() = %+v, want nil for missing id", row)
	}
}

func TestMessagesRoundTrip(t *testing.T) {
	s := testStore(t)
	if err := s.Insert(sampleSession("s1")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	msgs, err := s.Messages("s1")
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Messages() returned %d rows, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		t.Errorf("roles out of order: %q, %q", msgs[0].Role, msgs[1].Role)
	}
	if len(msgs[1].FilesChanged) != 1 || msgs[1].FilesChanged[0] != "/home/me/proj/login.go" {
		t.Errorf("FilesChanged = %v", msgs[1].FilesChanged)
	}
	if msgs[0].Timestamp == nil {
		t.Error("message timestamp lost in round trip")
	}
}

func TestUpdateReplacesMessagesAndKeepsTags(t *testing.T) {
	s := testStore(t)
	sess := sampleSession("s1")
	if err := s.Insert(sess); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := s.UpdateLLMSummary("s1", "external note"); err != nil {
		t.Fatalf("UpdateLLMSummary() error: %v", err)
	}

	grown := sampleSession("s1")
	grown.Messages = append(grown.Messages, model.Message{
		Role: model.RoleAssistant, Content: "also added tests",
	})
	grown.WorkSummary = "Implemented JWT login and tests"
	if err := s.Update(grown); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	row, err := s.Get("s1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", row.MessageCount)
	}
	if row.WorkSummary != "Implemented JWT login and tests" {
		t.Errorf("WorkSummary = %q", row.WorkSummary)
	}
	// user curation survives re-index
	if len(row.Tags) != 2 {
		t.Errorf("Tags = %v, want preserved tags", row.Tags)
	}
	if row.LLMSummary != "external note" {
		t.Errorf("LLMSummary = %q, want preserved", row.LLMSummary)
	}

	msgs, err := s.Messages("s1")
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(msgs) != 3 {
		t.Errorf("Messages() returned %d rows after update, want 3 (no duplicates)", len(msgs))
	}
}

func TestUpdateMissingSession(t *testing.T) {
	s := testStore(t)
	err := s.Update(sampleSession("ghost"))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Update() error = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	s := testStore(t)
	if err := s.Insert(sampleSession("s1")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := s.Delete("s1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	row, err := s.Get("s1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row != nil {
		t.Error("session row survived delete")
	}
	msgs, err := s.Messages("s1")
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("%d message rows survived delete", len(msgs))
	}
	hits, err := s.Search("login", Filter{})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("%d FTS hits survived delete", len(hits))
	}
}

func TestDeleteMissingIsSilent(t *testing.T) {
	s := testStore(t)
	if err := s.Delete("nope"); err != nil {
		t.Errorf("Delete() on missing id error: %v", err)
	}
}

func TestClear(t *testing.T) {
	s := testStore(t)
	if err := s.Insert(sampleSession("s1")); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	n, err := s.SessionCount()
	if err != nil {
		t.Fatalf("SessionCount() error: %v", err)
	}
	if n != 0 {
		t.Errorf("SessionCount() = %d after clear", n)
	}
}

func TestSetTagsRefreshesSearch(t *testing.T) {
	s := testStore(t)
	sess := sampleSession("s1")
	sess.Tags = nil
	if err := s.Insert(sess); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	if err := s.SetTags("s1", []string{"auth", "urgent"}); err != nil {
		t.Fatalf("SetTags() error: %v", err)
	}
	tags, err := s.Tags("s1")
	if err != nil {
		t.Fatalf("Tags() error: %v", err)
	}
	if len(tags) != 2 || tags[1] != "urgent" {
		t.Errorf("Tags() = %v", tags)
	}
}

func TestSetTagsMissingSession(t *testing.T) {
	s := testStore(t)
	err := s.SetTags("ghost", []string{"x"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("SetTags() error = %v, want ErrSessionNotFound", err)
	}
}

func TestTagsMissingSessionIsNil(t *testing.T) {
	s := testStore(t)
	tags, err := s.Tags("ghost")
	if err != nil {
		t.Fatalf("Tags() error: %v", err)
	}
	if tags != nil {
		t.Errorf("Tags() = %v, want nil", tags)
	}
}

func TestUpdateLLMSummaryMissingSession(t *testing.T) {
	s := testStore(t)
	err := s.UpdateLLMSummary("ghost", "text")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("UpdateLLMSummary() error = %v, want ErrSessionNotFound", err)
	}
}
