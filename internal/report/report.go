// Package report aggregates indexed sessions into periodic work
// reports in markdown, slack, or json form.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ailog-cli/ailog/internal/model"
	"github.com/ailog-cli/ailog/internal/store"
)

type Format int

const (
	FormatMarkdown Format = iota
	FormatSlack
	FormatJSON
)

// ParseFormat defaults to markdown for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "slack":
		return FormatSlack
	case "json":
		return FormatJSON
	default:
		return FormatMarkdown
	}
}

// Period is a closed time range with a human label.
type Period struct {
	Label string
	From  time.Time
	To    time.Time
}

// PeriodOptions mirrors the report command's flags. Precedence:
// from/to range, then quarter, month, week, day. Default is the
// current week (Monday through Sunday).
type PeriodOptions struct {
	Day     bool
	Date    string
	Week    bool
	Month   bool
	Quarter string
	From    string
	To      string
}

func ResolvePeriod(opts PeriodOptions, now time.Time) (Period, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if opts.From != "" && opts.To != "" {
		from, err := parseDate(opts.From)
		if err != nil {
			return Period{}, fmt.Errorf("invalid --from date: %s", opts.From)
		}
		to, err := parseDate(opts.To)
		if err != nil {
			return Period{}, fmt.Errorf("invalid --to date: %s", opts.To)
		}
		to = endOfDay(to)
		return Period{
			Label: from.Format("2006.01.02") + " ~ " + to.Format("01.02"),
			From:  from,
			To:    to,
		}, nil
	}

	if opts.Quarter != "" {
		q := quarterNumber(opts.Quarter)
		startMonth := time.Month((q-1)*3 + 1)
		from := time.Date(today.Year(), startMonth, 1, 0, 0, 0, 0, today.Location())
		to := from.AddDate(0, 3, 0).Add(-time.Second)
		return Period{
			Label: fmt.Sprintf("%d Q%d", today.Year(), q),
			From:  from,
			To:    to,
		}, nil
	}

	if opts.Month {
		from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		to := from.AddDate(0, 1, 0).Add(-time.Second)
		return Period{
			Label: from.Format("2006-01"),
			From:  from,
			To:    to,
		}, nil
	}

	if opts.Day || opts.Date != "" {
		d := today
		if opts.Date != "" {
			parsed, err := parseDate(opts.Date)
			if err != nil {
				return Period{}, fmt.Errorf("invalid date format: %s", opts.Date)
			}
			d = parsed
		}
		return Period{
			Label: d.Format("2006-01-02"),
			From:  d,
			To:    endOfDay(d),
		}, nil
	}

	// default: current week, Monday through Sunday
	weekday := (int(today.Weekday()) + 6) % 7
	from := today.AddDate(0, 0, -weekday)
	to := endOfDay(from.AddDate(0, 0, 6))
	return Period{
		Label: from.Format("2006.01.02") + " ~ " + to.Format("01.02"),
		From:  from,
		To:    to,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func endOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
}

func quarterNumber(s string) int {
	s = strings.TrimLeft(strings.ToUpper(s), "Q")
	switch s {
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	}
	return 1
}

const reportSessionLimit = 1000

// Generate builds a report for the period, optionally filtered to a
// single project.
func Generate(s *store.Store, period Period, project string, format Format) (string, error) {
	filter := store.Filter{
		Project: project,
		From:    &period.From,
		To:      &period.To,
		Limit:   reportSessionLimit,
	}
	sessions, err := s.List(filter)
	if err != nil {
		return "", err
	}
	stats, err := s.Stats(&period.From, &period.To, project)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatSlack:
		return renderSlack(sessions, stats, period), nil
	case FormatJSON:
		return renderJSON(sessions, stats, period)
	default:
		return renderMarkdown(s, sessions, stats, period), nil
	}
}

type projectGroup struct {
	name     string
	sessions []store.SessionRow
}

func groupByProject(sessions []store.SessionRow) []projectGroup {
	index := make(map[string]int)
	var groups []projectGroup
	for _, sess := range sessions {
		name := sess.ProjectName
		if name == "" {
			name = "unknown"
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, projectGroup{name: name})
		}
		groups[i].sessions = append(groups[i].sessions, sess)
	}
	sort.Slice(groups, func(i, j int) bool {
		return len(groups[i].sessions) > len(groups[j].sessions)
	})
	return groups
}

func renderMarkdown(s *store.Store, sessions []store.SessionRow, stats *store.Stats, period Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# AI Work Report (%s)\n\n", period.Label)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total: %d sessions, %d projects\n", stats.TotalSessions, len(stats.SessionsByProject))
	for _, row := range stats.SessionsByAgent {
		fmt.Fprintf(&b, "- %s: %d sessions\n", model.AgentKind(row.Key).DisplayName(), row.Count)
	}
	fmt.Fprintf(&b, "- Files: %d created, %d modified, %d deleted\n\n",
		stats.FilesCreated, stats.FilesModified, stats.FilesDeleted)

	b.WriteString("## Activity by Project\n\n")
	for _, group := range groupByProject(sessions) {
		fmt.Fprintf(&b, "### %s (%d sessions)\n\n", group.name, len(group.sessions))
		b.WriteString("| Request | AI Work Summary | Changes |\n")
		b.WriteString("|---------|----------------|---------|\n")

		var created, modified int64
		for _, sess := range group.sessions {
			changes := sessionChanges(s, sess.ID)
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				cell(sess.Summary, 60), cell(sess.WorkSummary, 80), changes)
			created += sess.FilesCreated
			modified += sess.FilesModified
		}
		fmt.Fprintf(&b, "\nSession total: %d created, %d modified\n\n", created, modified)
	}
	return b.String()
}

func renderSlack(sessions []store.SessionRow, stats *store.Stats, period Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*AI Work Report (%s)*\n\n", period.Label)
	fmt.Fprintf(&b, "> %d sessions across %d projects\n", stats.TotalSessions, len(stats.SessionsByProject))
	for _, row := range stats.SessionsByAgent {
		fmt.Fprintf(&b, "> %s %d sessions\n", model.AgentKind(row.Key).DisplayName(), row.Count)
	}
	b.WriteString("\n")

	for _, group := range groupByProject(sessions) {
		fmt.Fprintf(&b, "*%s* (%d sessions)\n", group.name, len(group.sessions))
		for _, sess := range group.sessions {
			fmt.Fprintf(&b, "  - %s -> %s\n", orDash(sess.Summary), orDash(sess.WorkSummary))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderJSON(sessions []store.SessionRow, stats *store.Stats, period Period) (string, error) {
	type jsonSession struct {
		ID            string   `json:"id"`
		Agent         string   `json:"agent"`
		Project       string   `json:"project"`
		Summary       string   `json:"summary"`
		WorkSummary   string   `json:"work_summary"`
		StartedAt     string   `json:"started_at,omitempty"`
		FilesCreated  int64    `json:"files_created"`
		FilesModified int64    `json:"files_modified"`
		FilesDeleted  int64    `json:"files_deleted"`
		Tags          []string `json:"tags,omitempty"`
	}

	byAgent := make(map[string]int64)
	for _, row := range stats.SessionsByAgent {
		byAgent[row.Key] = row.Count
	}
	byProject := make(map[string]int64)
	for _, row := range stats.SessionsByProject {
		byProject[row.Key] = row.Count
	}

	out := map[string]any{
		"period": map[string]string{
			"label": period.Label,
			"from":  period.From.UTC().Format(time.RFC3339),
			"to":    period.To.UTC().Format(time.RFC3339),
		},
		"stats": map[string]any{
			"total_sessions":      stats.TotalSessions,
			"sessions_by_agent":   byAgent,
			"sessions_by_project": byProject,
			"files_created":       stats.FilesCreated,
			"files_modified":      stats.FilesModified,
			"files_deleted":       stats.FilesDeleted,
		},
	}

	js := make([]jsonSession, 0, len(sessions))
	for _, sess := range sessions {
		started := ""
		if sess.StartedAt != nil {
			started = sess.StartedAt.UTC().Format(time.RFC3339)
		}
		js = append(js, jsonSession{
			ID:            sess.ID,
			Agent:         string(sess.Agent),
			Project:       sess.ProjectName,
			Summary:       sess.Summary,
			WorkSummary:   sess.WorkSummary,
			StartedAt:     started,
			FilesCreated:  sess.FilesCreated,
			FilesModified: sess.FilesModified,
			FilesDeleted:  sess.FilesDeleted,
			Tags:          sess.Tags,
		})
	}
	out["sessions"] = js

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// sessionChanges renders a compact "+a.go ~b.go" list for a session's
// touched files. Query errors just leave the cell empty.
func sessionChanges(s *store.Store, sessionID string) string {
	toolCalls, err := s.ToolCalls(sessionID)
	if err != nil {
		return ""
	}
	seen := make(map[string]bool)
	var parts []string
	for _, tc := range toolCalls {
		if tc.FilePath == "" || seen[tc.FilePath] {
			continue
		}
		seen[tc.FilePath] = true
		marker := "~"
		switch tc.ToolName {
		case "Write", "create_file":
			marker = "+"
		case "delete_file":
			marker = "-"
		}
		parts = append(parts, marker+baseName(tc.FilePath))
	}
	return strings.Join(parts, " ")
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func cell(s string, max int) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
