// Package export renders stored sessions as markdown context blocks
// and injects them into a project's CLAUDE.md.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ailog-cli/ailog/internal/model"
	"github.com/ailog-cli/ailog/internal/store"
)

type DetailLevel int

const (
	DetailMinimal DetailLevel = iota
	DetailSummary
	DetailFull
)

// ParseDetailLevel defaults to summary for unknown values.
func ParseDetailLevel(s string) DetailLevel {
	switch strings.ToLower(s) {
	case "full":
		return DetailFull
	case "minimal":
		return DetailMinimal
	default:
		return DetailSummary
	}
}

const (
	startMarker = "<!-- ailog:context:start -->"
	endMarker   = "<!-- ailog:context:end -->"
)

const summaryTailMessages = 6
const summaryTruncateRunes = 500

// Context renders a session as a markdown block suitable for pasting
// into a new agent conversation.
func Context(s *store.Store, sessionID string, detail DetailLevel) (string, error) {
	sess, err := s.Get(sessionID)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", fmt.Errorf("session not found: %s", sessionID)
	}
	messages, err := s.Messages(sessionID)
	if err != nil {
		return "", err
	}
	toolCalls, err := s.ToolCalls(sessionID)
	if err != nil {
		return "", err
	}
	return render(sess, messages, toolCalls, detail), nil
}

func render(sess *store.SessionRow, messages []store.MessageRow, toolCalls []store.ToolCallRow, detail DetailLevel) string {
	var b strings.Builder

	b.WriteString("# Session Context\n")
	fmt.Fprintf(&b, "- **Agent**: %s\n", sess.Agent.DisplayName())
	if sess.ProjectPath != "" {
		fmt.Fprintf(&b, "- **Project**: %s\n", sess.ProjectPath)
	}
	if sess.StartedAt != nil {
		fmt.Fprintf(&b, "- **Date**: %s\n", sess.StartedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "- **Session ID**: %s\n\n", sess.ID)

	b.WriteString("## Work Summary\n")
	if sess.Summary != "" {
		fmt.Fprintf(&b, "**Request**: %s\n", sess.Summary)
	}
	if sess.WorkSummary != "" {
		fmt.Fprintf(&b, "**Result**: %s\n", sess.WorkSummary)
	}
	b.WriteString("\n")

	if changes := fileChanges(toolCalls); len(changes) > 0 {
		b.WriteString("## Changed Files\n")
		for _, fc := range changes {
			fmt.Fprintf(&b, "- `%s` (%s)\n", fc.path, fc.kind)
		}
		b.WriteString("\n")
	}

	switch detail {
	case DetailMinimal:
	case DetailSummary:
		tail := conversationTail(messages, summaryTailMessages)
		if len(tail) > 0 {
			b.WriteString("## Recent Conversation\n")
			for _, m := range tail {
				fmt.Fprintf(&b, "**%s**: %s\n\n", roleLabel(m.Role), truncateRunes(m.Content, summaryTruncateRunes))
			}
		}
	case DetailFull:
		b.WriteString("## Full Conversation\n")
		for _, m := range messages {
			if m.Role == model.RoleTool {
				continue
			}
			ts := ""
			if m.Timestamp != nil {
				ts = m.Timestamp.Format("15:04")
			}
			fmt.Fprintf(&b, "### %s %s\n%s\n\n", roleLabel(m.Role), ts, m.Content)
		}
	}
	return b.String()
}

type fileChange struct {
	path string
	kind string
}

func fileChanges(toolCalls []store.ToolCallRow) []fileChange {
	seen := make(map[string]bool)
	var changes []fileChange
	for _, tc := range toolCalls {
		if tc.FilePath == "" || seen[tc.FilePath] {
			continue
		}
		seen[tc.FilePath] = true
		kind := "modified"
		switch tc.ToolName {
		case "Write", "create_file":
			kind = "created"
		case "delete_file":
			kind = "deleted"
		}
		changes = append(changes, fileChange{path: tc.FilePath, kind: kind})
	}
	return changes
}

func conversationTail(messages []store.MessageRow, n int) []store.MessageRow {
	var conv []store.MessageRow
	for _, m := range messages {
		if m.Role == model.RoleUser || m.Role == model.RoleAssistant {
			conv = append(conv, m)
		}
	}
	if len(conv) > n {
		conv = conv[len(conv)-n:]
	}
	return conv
}

func roleLabel(r model.Role) string {
	if r == model.RoleUser {
		return "You"
	}
	return "AI"
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Inject writes a session's summary-level context into the project's
// CLAUDE.md, replacing any previously injected block.
func Inject(s *store.Store, sessionID, projectPath string) error {
	context, err := Context(s, sessionID, DetailSummary)
	if err != nil {
		return err
	}

	claudeMD := filepath.Join(projectPath, "CLAUDE.md")
	var content string
	if data, err := os.ReadFile(claudeMD); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", claudeMD, err)
	}

	content = stripBlock(content)
	content += "\n" + startMarker + "\n" + context + "\n" + endMarker + "\n"

	if err := os.WriteFile(claudeMD, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", claudeMD, err)
	}
	return nil
}

func stripBlock(content string) string {
	start := strings.Index(content, startMarker)
	if start < 0 {
		return content
	}
	end := strings.Index(content, endMarker)
	if end < 0 {
		return content
	}
	return content[:start] + content[end+len(endMarker):]
}

// AutoInject injects the most recent session recorded for projectPath
// and returns its id.
func AutoInject(s *store.Store, projectPath string) (string, error) {
	sessions, err := s.List(store.Filter{Project: projectPath, Limit: 1})
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions found for project: %s", projectPath)
	}
	if err := Inject(s, sessions[0].ID, projectPath); err != nil {
		return "", err
	}
	return sessions[0].ID, nil
}
