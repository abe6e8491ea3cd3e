package adapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ailog-cli/ailog/internal/model"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB
const maxFileSize = 10 * 1024 * 1024 // skip larger session files

// ClaudeCode reads ~/.claude/projects/<encoded-path>/*.jsonl session
// logs. Project directories encode the absolute project path with '/'
// replaced by '-', which is ambiguous when directory names themselves
// contain hyphens; decodeProjectDir resolves greedily against the
// filesystem.
type ClaudeCode struct {
	dataDir string
}

func NewClaudeCode(dataDir string) *ClaudeCode {
	return &ClaudeCode{dataDir: dataDir}
}

func (a *ClaudeCode) Kind() model.AgentKind { return model.AgentClaudeCode }
func (a *ClaudeCode) DataDir() string       { return a.dataDir }

func (a *ClaudeCode) projectsDir() string {
	return filepath.Join(a.dataDir, "projects")
}

func (a *ClaudeCode) Installed() bool {
	info, err := os.Stat(a.projectsDir())
	return err == nil && info.IsDir()
}

func (a *ClaudeCode) Scan() ([]model.Session, error) {
	projects, err := os.ReadDir(a.projectsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects dir: %w", err)
	}

	var sessions []model.Session
	for _, projectEntry := range projects {
		if !projectEntry.IsDir() {
			continue
		}
		projectDir := filepath.Join(a.projectsDir(), projectEntry.Name())
		projectPath := decodeProjectDir(projectEntry.Name())

		for _, dir := range []string{projectDir, filepath.Join(projectDir, "sessions")} {
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				path := filepath.Join(dir, entry.Name())
				if !sessionFile(path, entry) {
					continue
				}
				sess, err := a.parseSessionFile(path, projectPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "  WARN: parse %s: %v\n", path, err)
					continue
				}
				if sess != nil && len(sess.Messages) > 0 {
					sessions = append(sessions, *sess)
				}
			}
		}
	}
	return sessions, nil
}

func sessionFile(path string, entry os.DirEntry) bool {
	if filepath.Ext(path) != ".jsonl" {
		return false
	}
	name := filepath.Base(path)
	if strings.Contains(name, "subagent") || strings.Contains(name, "sessions-index") {
		return false
	}
	if info, err := entry.Info(); err == nil && info.Size() > maxFileSize {
		return false
	}
	return true
}

func (a *ClaudeCode) Get(id string) (*model.Session, error) {
	projects, err := os.ReadDir(a.projectsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects dir: %w", err)
	}

	for _, projectEntry := range projects {
		if !projectEntry.IsDir() {
			continue
		}
		projectDir := filepath.Join(a.projectsDir(), projectEntry.Name())
		projectPath := decodeProjectDir(projectEntry.Name())

		for _, candidate := range []string{
			filepath.Join(projectDir, id+".jsonl"),
			filepath.Join(projectDir, "sessions", id+".jsonl"),
		} {
			if _, err := os.Stat(candidate); err == nil {
				return a.parseSessionFile(candidate, projectPath)
			}
		}
	}
	return nil, nil
}

func (a *ClaudeCode) ResumeHint(id, projectPath string) string {
	cmd := "claude --resume " + id
	if projectPath != "" {
		cmd = "cd " + projectPath + " && " + cmd
	}
	return cmd
}

type claudeRecord struct {
	Type      string          `json:"type"`
	IsMeta    bool            `json:"isMeta"`
	Timestamp string          `json:"timestamp"`
	Cwd       string          `json:"cwd"`
	Message   json.RawMessage `json:"message"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type claudeBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type claudeToolInput struct {
	FilePath string `json:"file_path"`
	Path     string `json:"path"`
}

func (a *ClaudeCode) parseSessionFile(path, projectPath string) (*model.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	id := strings.TrimSuffix(filepath.Base(path), ".jsonl")
	sess := &model.Session{
		ID:          id,
		Agent:       model.AgentClaudeCode,
		ProjectPath: projectPath,
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec claudeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.IsMeta {
			continue
		}

		// cwd beats the decoded directory name for the project path
		if rec.Cwd != "" && sess.ProjectPath == projectPath {
			sess.ProjectPath = rec.Cwd
		}

		ts := parseTimestamp(rec.Timestamp)

		switch rec.Type {
		case "user":
			var msg claudeMessage
			if err := json.Unmarshal(rec.Message, &msg); err != nil {
				continue
			}
			text, _, _ := claudeContent(msg.Content)
			if text == "" {
				continue
			}
			sess.Messages = append(sess.Messages, model.Message{
				Role:      model.RoleUser,
				Content:   text,
				Timestamp: ts,
			})
		case "assistant":
			var msg claudeMessage
			if err := json.Unmarshal(rec.Message, &msg); err != nil {
				continue
			}
			text, tools, changed := claudeContent(msg.Content)
			for i := range tools {
				tools[i].Timestamp = ts
			}
			sess.ToolCalls = append(sess.ToolCalls, tools...)
			if text == "" {
				continue
			}
			sess.Messages = append(sess.Messages, model.Message{
				Role:         model.RoleAssistant,
				Content:      text,
				Timestamp:    ts,
				FilesChanged: changed,
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

// claudeContent flattens a message content value (string or block
// array) into text, tool calls, and the file paths mutated by those
// tool calls.
func claudeContent(raw json.RawMessage) (text string, tools []model.ToolCall, changed []string) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil, nil
	}

	var blocks []claudeBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", nil, nil
	}

	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		case "tool_use":
			var input claudeToolInput
			json.Unmarshal(b.Input, &input)
			filePath := input.FilePath
			if filePath == "" {
				filePath = input.Path
			}
			if filePath != "" && mutatingTool(b.Name) {
				changed = append(changed, filePath)
			}
			tools = append(tools, model.ToolCall{
				ToolName: b.Name,
				FilePath: filePath,
			})
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), tools, changed
}

func mutatingTool(name string) bool {
	switch name {
	case "Write", "Edit", "create_file", "edit_file", "delete_file":
		return true
	}
	return false
}

// decodeProjectDir turns "-Users-a-my-app" back into "/Users/a/my-app"
// by greedily matching existing directories left to right; the last
// segment absorbs whatever remains.
func decodeProjectDir(dirName string) string {
	if !strings.HasPrefix(dirName, "-") {
		return ""
	}
	segments := strings.Split(dirName[1:], "-")
	if len(segments) == 0 {
		return ""
	}

	result := "/"
	current := ""
	for i, seg := range segments {
		if current == "" {
			current = seg
		} else {
			current += "-" + seg
		}
		test := filepath.Join(result, current)
		if i == len(segments)-1 {
			result = test
			current = ""
			break
		}
		if info, err := os.Stat(test); err == nil && info.IsDir() {
			result = test
			current = ""
		}
	}
	if current != "" {
		result = filepath.Join(result, current)
	}
	return result
}
