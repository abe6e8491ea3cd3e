package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ailog-cli/ailog/internal/model"
)

// Cursor reads exported chat files from ~/.cursor/projects and
// ~/.cursor/sessions. Files are either a JSON array of messages or
// JSONL, and usually carry no timestamps.
type Cursor struct {
	dataDir string
}

func NewCursor(dataDir string) *Cursor {
	return &Cursor{dataDir: dataDir}
}

func (a *Cursor) Kind() model.AgentKind { return model.AgentCursor }
func (a *Cursor) DataDir() string       { return a.dataDir }

func (a *Cursor) Installed() bool {
	for _, dir := range a.chatDirs() {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func (a *Cursor) chatDirs() []string {
	return []string{
		filepath.Join(a.dataDir, "projects"),
		filepath.Join(a.dataDir, "sessions"),
	}
}

func (a *Cursor) Scan() ([]model.Session, error) {
	var sessions []model.Session
	for _, dir := range a.chatDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			ext := filepath.Ext(path)
			if ext != ".json" && ext != ".jsonl" {
				continue
			}
			if info, err := entry.Info(); err == nil && info.Size() > maxFileSize {
				continue
			}
			sess, err := a.parseSessionFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  WARN: parse %s: %v\n", path, err)
				continue
			}
			if sess != nil && len(sess.Messages) > 0 {
				sessions = append(sessions, *sess)
			}
		}
	}
	return sessions, nil
}

func (a *Cursor) Get(id string) (*model.Session, error) {
	for _, dir := range a.chatDirs() {
		for _, ext := range []string{".json", ".jsonl"} {
			path := filepath.Join(dir, id+ext)
			if _, err := os.Stat(path); err == nil {
				return a.parseSessionFile(path)
			}
		}
	}
	return nil, nil
}

func (a *Cursor) ResumeHint(id, projectPath string) string {
	if projectPath != "" {
		return "cursor " + projectPath
	}
	return "cursor ."
}

type cursorMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Cwd       string `json:"cwd"`
	Project   string `json:"project"`
}

func (a *Cursor) parseSessionFile(path string) (*model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(path)
	sess := &model.Session{
		ID:    strings.TrimSuffix(filepath.Base(path), ext),
		Agent: model.AgentCursor,
	}

	var msgs []cursorMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		// fall back to JSONL
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var m cursorMessage
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				continue
			}
			msgs = append(msgs, m)
		}
	}

	for _, m := range msgs {
		if m.Cwd != "" && sess.ProjectPath == "" {
			sess.ProjectPath = m.Cwd
		}
		if m.Project != "" && sess.ProjectPath == "" {
			sess.ProjectPath = m.Project
		}
		content := m.Content
		if content == "" {
			content = m.Text
		}
		content = strings.TrimSpace(content)
		if m.Role == "" || content == "" {
			continue
		}
		sess.Messages = append(sess.Messages, model.Message{
			Role:      model.ParseRole(m.Role),
			Content:   content,
			Timestamp: parseTimestamp(m.Timestamp),
		})
	}

	if len(sess.Messages) == 0 {
		return nil, nil
	}
	finalize(sess)
	return sess, nil
}
