package adapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ailog-cli/ailog/internal/model"
)

// Codex reads ~/.codex/sessions/ rollout files. Sessions are nested in
// date directories (sessions/YYYY/MM/DD/rollout-*.jsonl) in recent
// versions and flat in older ones, so the scan walks the whole tree.
type Codex struct {
	dataDir string
}

func NewCodex(dataDir string) *Codex {
	return &Codex{dataDir: dataDir}
}

func (a *Codex) Kind() model.AgentKind { return model.AgentCodex }
func (a *Codex) DataDir() string       { return a.dataDir }

func (a *Codex) sessionsDir() string {
	return filepath.Join(a.dataDir, "sessions")
}

func (a *Codex) Installed() bool {
	info, err := os.Stat(a.sessionsDir())
	return err == nil && info.IsDir()
}

func (a *Codex) Scan() ([]model.Session, error) {
	var sessions []model.Session
	err := filepath.WalkDir(a.sessionsDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".jsonl" && ext != ".json" {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > maxFileSize {
			return nil
		}
		sess, err := a.parseSessionFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  WARN: parse %s: %v\n", path, err)
			return nil
		}
		if sess != nil && len(sess.Messages) > 0 {
			sessions = append(sessions, *sess)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk sessions dir: %w", err)
	}
	return sessions, nil
}

func (a *Codex) Get(id string) (*model.Session, error) {
	var found string
	err := filepath.WalkDir(a.sessionsDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if codexSessionID(name) == id || strings.Contains(name, id) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == "" {
		return nil, nil
	}
	return a.parseSessionFile(found)
}

func (a *Codex) ResumeHint(id, projectPath string) string {
	cmd := "codex resume " + id
	if projectPath != "" {
		cmd = "cd " + projectPath + " && " + cmd
	}
	return cmd
}

// codexSessionID strips the rollout prefix and timestamp from a file
// name like rollout-2025-06-01T10-00-00-<uuid>.jsonl, leaving the uuid.
func codexSessionID(name string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(name, ".jsonl"), ".json")
	parts := strings.Split(base, "-")
	if parts[0] == "rollout" && len(parts) >= 6 {
		// uuid is the last five hyphen groups
		return strings.Join(parts[len(parts)-5:], "-")
	}
	return base
}

type codexRecord struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Payload   json.RawMessage `json:"payload"`
	Cwd       string          `json:"cwd"`
}

type codexPayload struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Cwd     string          `json:"cwd"`
}

type codexContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (a *Codex) parseSessionFile(path string) (*model.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sess := &model.Session{
		ID:    codexSessionID(filepath.Base(path)),
		Agent: model.AgentCodex,
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec codexRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		ts := parseTimestamp(rec.Timestamp)

		role, content := rec.Role, rec.Content
		cwd := rec.Cwd
		if len(rec.Payload) > 0 {
			var p codexPayload
			if err := json.Unmarshal(rec.Payload, &p); err == nil {
				if p.Cwd != "" {
					cwd = p.Cwd
				}
				if p.Type == "message" || p.Role != "" {
					role, content = p.Role, p.Content
				}
			}
		}
		if cwd != "" && sess.ProjectPath == "" {
			sess.ProjectPath = cwd
		}
		if role != "" && len(content) > 0 {
			text := codexContent(content)
			if text == "" || strings.HasPrefix(text, "<environment_context>") {
				continue
			}
			sess.Messages = append(sess.Messages, model.Message{
				Role:      model.ParseRole(role),
				Content:   text,
				Timestamp: ts,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(sess.Messages) == 0 {
		return nil, nil
	}
	finalize(sess)
	return sess, nil
}

func codexContent(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var blocks []codexContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
