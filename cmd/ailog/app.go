package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/ailog-cli/ailog/internal/config"
	"github.com/ailog-cli/ailog/internal/model"
	"github.com/ailog-cli/ailog/internal/store"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleDim     = lipgloss.NewStyle().Faint(true)
	styleClaude  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleCodex   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleCursor  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleTag     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleCreated = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDeleted = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// agentCell pads before styling so ANSI escapes don't skew column
// widths.
func agentCell(kind model.AgentKind, width int) string {
	name := pad(kind.DisplayName(), width)
	if !isTTY() {
		return name
	}
	switch kind {
	case model.AgentClaudeCode:
		return styleClaude.Render(name)
	case model.AgentCodex:
		return styleCodex.Render(name)
	case model.AgentCursor:
		return styleCursor.Render(name)
	}
	return name
}

// openStore loads config and opens the session store; callers must
// Close the returned store.
func openStore() (*store.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return s, cfg, nil
}

// parseAgentFlag turns an optional --agent value into a kind; empty
// means no filter.
func parseAgentFlag(s string) (model.AgentKind, error) {
	if s == "" {
		return "", nil
	}
	kind := model.ParseAgentKind(s)
	if kind == "" {
		return "", fmt.Errorf("unknown agent %q (claude-code, codex, cursor)", s)
	}
	return kind, nil
}

// parseDuration understands compact ages like 7d, 2w, 1m, 12h.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	switch s[len(s)-1] {
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid duration unit in %q (use h, d, w, m)", s)
	}
}

// sinceFilter converts a --last value into a from-time filter.
func sinceFilter(last string) (*time.Time, error) {
	if last == "" {
		return nil, nil
	}
	d, err := parseDuration(last)
	if err != nil {
		return nil, err
	}
	t := time.Now().Add(-d)
	return &t, nil
}

// pad truncates or right-pads a cell to width, counting display cells
// so CJK text aligns.
func pad(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}
