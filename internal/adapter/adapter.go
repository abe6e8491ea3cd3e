// Package adapter translates per-tool on-disk log formats into the
// normalized session model. Agent kinds are a closed set; adapters are
// resolved here at the boundary, never inside the engine.
package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ailog-cli/ailog/internal/model"
	"github.com/ailog-cli/ailog/internal/summary"
)

// Adapter reads one tool's session logs. Scan tolerates individual
// unparsable files: they are reported on stderr and skipped, partial
// results are valid results.
type Adapter interface {
	Kind() model.AgentKind
	DataDir() string
	Installed() bool
	Scan() ([]model.Session, error)
	Get(id string) (*model.Session, error)
	ResumeHint(id, projectPath string) string
}

// DataDirs maps each agent kind to its log root.
type DataDirs struct {
	ClaudeCode string
	Codex      string
	Cursor     string
}

// DefaultDataDirs fills in the conventional dot-directories.
func DefaultDataDirs() DataDirs {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return DataDirs{
		ClaudeCode: filepath.Join(home, ".claude"),
		Codex:      filepath.Join(home, ".codex"),
		Cursor:     filepath.Join(home, ".cursor"),
	}
}

// All returns one adapter per known agent kind.
func All(dirs DataDirs) []Adapter {
	return []Adapter{
		NewClaudeCode(dirs.ClaudeCode),
		NewCodex(dirs.Codex),
		NewCursor(dirs.Cursor),
	}
}

// Installed returns the adapters whose data directories exist.
func Installed(dirs DataDirs) []Adapter {
	var out []Adapter
	for _, a := range All(dirs) {
		if a.Installed() {
			out = append(out, a)
		}
	}
	return out
}

// For resolves one adapter by kind.
func For(kind model.AgentKind, dirs DataDirs) (Adapter, error) {
	for _, a := range All(dirs) {
		if a.Kind() == kind {
			return a, nil
		}
	}
	return nil, fmt.Errorf("unknown agent kind: %s", kind)
}

// finalize fills derived fields shared by every adapter: observed time
// range, project name, and both rule-based summaries.
func finalize(s *model.Session) {
	if s.StartedAt == nil && s.EndedAt == nil {
		s.StartedAt, s.EndedAt = s.ObservedRange()
	}
	if s.ProjectName == "" && s.ProjectPath != "" {
		s.ProjectName = model.BaseName(s.ProjectPath)
	}
	s.Summary = summary.Request(s)
	s.WorkSummary = summary.Work(s)
}

// parseTimestamp accepts the timestamp shapes seen in the wild and
// normalizes to UTC.
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
