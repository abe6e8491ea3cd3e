package adapter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ailog-cli/ailog/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const claudeTranscript = `{"type":"user","timestamp":"2025-06-01T10:00:00Z","cwd":"/home/me/webapp","message":{"role":"user","content":"Fix the login redirect bug"}}
{"type":"assistant","timestamp":"2025-06-01T10:01:00Z","message":{"role":"assistant","content":[{"type":"text","text":"Fixed the redirect in the auth handler"},{"type":"tool_use","name":"Edit","input":{"file_path":"/home/me/webapp/auth.go"}}]}}
{"type":"user","isMeta":true,"timestamp":"2025-06-01T10:02:00Z","message":{"role":"user","content":"meta noise"}}
not json at all
`

func TestClaudeParseSessionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abc123.jsonl")
	writeFile(t, path, claudeTranscript)

	a := NewClaudeCode(dir)
	sess, err := a.parseSessionFile(path, "/decoded/fallback")
	if err != nil {
		t.Fatalf("parseSessionFile() error: %v", err)
	}
	if sess == nil {
		t.Fatal("parseSessionFile() = nil")
	}

	if sess.ID != "abc123" || sess.Agent != model.AgentClaudeCode {
		t.Errorf("identity = %s/%s", sess.ID, sess.Agent)
	}
	if sess.ProjectPath != "/home/me/webapp" {
		t.Errorf("ProjectPath = %q, cwd should beat the decoded dir name", sess.ProjectPath)
	}
	if sess.ProjectName != "webapp" {
		t.Errorf("ProjectName = %q", sess.ProjectName)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 (meta and junk lines skipped)", len(sess.Messages))
	}
	if sess.Messages[0].Role != model.RoleUser || sess.Messages[1].Role != model.RoleAssistant {
		t.Errorf("roles = %q, %q", sess.Messages[0].Role, sess.Messages[1].Role)
	}
	if len(sess.ToolCalls) != 1 || sess.ToolCalls[0].ToolName != "Edit" {
		t.Fatalf("ToolCalls = %+v", sess.ToolCalls)
	}
	if sess.ToolCalls[0].FilePath != "/home/me/webapp/auth.go" {
		t.Errorf("tool FilePath = %q", sess.ToolCalls[0].FilePath)
	}
	if sess.Summary != "Fix the login redirect bug" {
		t.Errorf("Summary = %q", sess.Summary)
	}
	if sess.StartedAt == nil || sess.EndedAt == nil {
		t.Fatal("timestamps not derived from messages")
	}
	if !sess.EndedAt.After(*sess.StartedAt) {
		t.Errorf("range = %v ~ %v", sess.StartedAt, sess.EndedAt)
	}
}

func TestClaudeScanSkipsSubagentFiles(t *testing.T) {
	dataDir := t.TempDir()
	projDir := filepath.Join(dataDir, "projects", "-home-me-webapp")
	writeFile(t, filepath.Join(projDir, "main.jsonl"), claudeTranscript)
	writeFile(t, filepath.Join(projDir, "main-subagent.jsonl"), claudeTranscript)
	writeFile(t, filepath.Join(projDir, "notes.txt"), "not a session")

	a := NewClaudeCode(dataDir)
	if !a.Installed() {
		t.Fatal("Installed() = false with projects dir present")
	}
	sessions, err := a.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Scan() found %d sessions, want 1", len(sessions))
	}
	if sessions[0].ID != "main" {
		t.Errorf("session ID = %q", sessions[0].ID)
	}
}

func TestClaudeScanEmptySessionsDropped(t *testing.T) {
	dataDir := t.TempDir()
	projDir := filepath.Join(dataDir, "projects", "-home-me-webapp")
	writeFile(t, filepath.Join(projDir, "empty.jsonl"),
		`{"type":"user","isMeta":true,"message":{"role":"user","content":"x"}}`+"\n")

	sessions, err := NewClaudeCode(dataDir).Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Scan() found %d sessions, want 0", len(sessions))
	}
}

func TestClaudeGetByID(t *testing.T) {
	dataDir := t.TempDir()
	projDir := filepath.Join(dataDir, "projects", "-home-me-webapp")
	writeFile(t, filepath.Join(projDir, "abc.jsonl"), claudeTranscript)

	a := NewClaudeCode(dataDir)
	sess, err := a.Get("abc")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if sess == nil || sess.ID != "abc" {
		t.Fatalf("Get() = %+v", sess)
	}

	missing, err := a.Get("nope")
	if err != nil {
		t.Fatalf("Get(missing) error: %v", err)
	}
	if missing != nil {
		t.Errorf("Get(missing) = %+v, want nil", missing)
	}
}

func TestDecodeProjectDirGreedy(t *testing.T) {
	// build /<tmp>/my-app so the hyphen inside the segment resolves
	root := t.TempDir()
	appDir := filepath.Join(root, "my-app")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	encoded := strings.ReplaceAll(appDir, "/", "-")
	if got := decodeProjectDir(encoded); got != appDir {
		t.Errorf("decodeProjectDir(%q) = %q, want %q", encoded, got, appDir)
	}
}

func TestDecodeProjectDirUnknownPath(t *testing.T) {
	// nothing on disk matches; the whole tail collapses into one segment
	got := decodeProjectDir("-no-such-dir-anywhere")
	if got != "/no-such-dir-anywhere" {
		t.Errorf("decodeProjectDir() = %q", got)
	}
	if got := decodeProjectDir("badprefix"); got != "" {
		t.Errorf("decodeProjectDir(badprefix) = %q, want empty", got)
	}
}

func TestMutatingToolVocabulary(t *testing.T) {
	for _, name := range []string{"Write", "Edit", "create_file", "edit_file", "delete_file"} {
		if !mutatingTool(name) {
			t.Errorf("mutatingTool(%q) = false", name)
		}
	}
	for _, name := range []string{"Read", "Bash", "Grep"} {
		if mutatingTool(name) {
			t.Errorf("mutatingTool(%q) = true", name)
		}
	}
}

func TestParseTimestampFormats(t *testing.T) {
	for _, in := range []string{
		"2025-06-01T10:00:00Z",
		"2025-06-01T10:00:00.123456Z",
		"2025-06-01T10:00:00",
	} {
		if got := parseTimestamp(in); got == nil {
			t.Errorf("parseTimestamp(%q) = nil", in)
		}
	}
	if got := parseTimestamp(""); got != nil {
		t.Errorf("parseTimestamp(empty) = %v", got)
	}
	if got := parseTimestamp("yesterday"); got != nil {
		t.Errorf("parseTimestamp(garbage) = %v", got)
	}
}
