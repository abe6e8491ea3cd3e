// Package model defines the normalized session representation every
// adapter produces and the store persists.
package model

import (
	"strings"
	"time"
)

// AgentKind is the closed set of supported coding assistants.
type AgentKind string

const (
	AgentClaudeCode AgentKind = "claude-code"
	AgentCodex      AgentKind = "codex"
	AgentCursor     AgentKind = "cursor"
)

// AllAgents lists every known agent kind in display order.
func AllAgents() []AgentKind {
	return []AgentKind{AgentClaudeCode, AgentCodex, AgentCursor}
}

// ParseAgentKind resolves user-supplied agent names, accepting common
// aliases. Returns "" for unknown names.
func ParseAgentKind(s string) AgentKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "claude-code", "claude_code", "claude":
		return AgentClaudeCode
	case "codex":
		return AgentCodex
	case "cursor":
		return AgentCursor
	default:
		return ""
	}
}

func (a AgentKind) String() string { return string(a) }

// DisplayName returns the human-readable agent name.
func (a AgentKind) DisplayName() string {
	switch a {
	case AgentClaudeCode:
		return "Claude Code"
	case AgentCodex:
		return "Codex"
	case AgentCursor:
		return "Cursor"
	default:
		return string(a)
	}
}

// Role is a message author role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ParseRole maps arbitrary role strings onto the closed set; anything
// that is not a user or assistant turn counts as a tool turn.
func ParseRole(s string) Role {
	switch strings.ToLower(s) {
	case "user":
		return RoleUser
	case "assistant":
		return RoleAssistant
	default:
		return RoleTool
	}
}

func (r Role) String() string { return string(r) }

// Session is one continuous interaction with one coding assistant.
type Session struct {
	ID          string
	Agent       AgentKind
	ProjectPath string // absolute path, "" if unknown
	ProjectName string // last path segment of ProjectPath
	Summary     string // rule-based request summary, <=120 chars
	WorkSummary string // rule-based work summary, <=120 chars
	LLMSummary  string // externally generated, never derived here
	StartedAt   *time.Time
	EndedAt     *time.Time
	Messages    []Message
	ToolCalls   []ToolCall
	Tags        []string
}

// Message is one conversation turn. Order within Session.Messages is
// conversation order and must survive storage round-trips.
type Message struct {
	Role         Role
	Content      string
	Timestamp    *time.Time
	FilesChanged []string
}

// ToolCall is one tool invocation extracted from an assistant turn.
type ToolCall struct {
	ToolName  string
	FilePath  string
	Timestamp *time.Time
}

// Tool name vocabulary for file mutations.
func isCreateTool(name string) bool { return name == "Write" || name == "create_file" }
func isEditTool(name string) bool   { return name == "Edit" || name == "edit_file" }
func isDeleteTool(name string) bool { return name == "delete_file" }

func (s *Session) MessageCount() int { return len(s.Messages) }

// FilesCreated counts tool calls that create files.
func (s *Session) FilesCreated() int {
	n := 0
	for _, tc := range s.ToolCalls {
		if isCreateTool(tc.ToolName) {
			n++
		}
	}
	return n
}

// FilesModified counts tool calls that edit existing files.
func (s *Session) FilesModified() int {
	n := 0
	for _, tc := range s.ToolCalls {
		if isEditTool(tc.ToolName) {
			n++
		}
	}
	return n
}

// FilesDeleted counts tool calls that delete files.
func (s *Session) FilesDeleted() int {
	n := 0
	for _, tc := range s.ToolCalls {
		if isDeleteTool(tc.ToolName) {
			n++
		}
	}
	return n
}

// FirstUserMessage returns the content of the first user turn, or "".
func (s *Session) FirstUserMessage() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// FileChange is one distinct touched file with its change marker:
// "+" created, "~" modified, "-" deleted.
type FileChange struct {
	Path   string
	Marker string
}

// ChangedFilePaths returns the distinct files touched by tool calls, in
// first-touched order, with paths shortened to their last two segments.
func (s *Session) ChangedFilePaths() []FileChange {
	var out []FileChange
	seen := make(map[string]struct{})
	for _, tc := range s.ToolCalls {
		if tc.FilePath == "" {
			continue
		}
		short := ShortPath(tc.FilePath)
		if _, ok := seen[short]; ok {
			continue
		}
		seen[short] = struct{}{}
		marker := "~"
		switch {
		case isCreateTool(tc.ToolName):
			marker = "+"
		case isDeleteTool(tc.ToolName):
			marker = "-"
		}
		out = append(out, FileChange{Path: short, Marker: marker})
	}
	return out
}

// ShortPath keeps at most the last two path segments.
func ShortPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

// BaseName returns the last path segment.
func BaseName(path string) string {
	parts := strings.Split(strings.TrimRight(path, "/"), "/")
	return parts[len(parts)-1]
}

// ObservedRange computes the min and max message timestamps. Log order
// is not assumed monotonic, so both bounds come from a full scan.
func (s *Session) ObservedRange() (start, end *time.Time) {
	for i := range s.Messages {
		ts := s.Messages[i].Timestamp
		if ts == nil {
			continue
		}
		if start == nil || ts.Before(*start) {
			t := *ts
			start = &t
		}
		if end == nil || ts.After(*end) {
			t := *ts
			end = &t
		}
	}
	return start, end
}
