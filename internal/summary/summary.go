// Package summary derives one-line request and work descriptions from a
// session's raw conversation text. Extraction is rule-based, layered,
// and deterministic: each stage either produces a candidate or falls
// through to the next, and the final candidate is truncated to 120
// characters without splitting a code span.
package summary

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ailog-cli/ailog/internal/model"
)

const maxChars = 120

var (
	commitLineRe = regexp.MustCompile(
		`^(` + strings.Join(commitTypes, "|") + `)(\([^)]*\))?!?:\s+\S`)
	commitFlagRe = regexp.MustCompile(
		`commit\s+(?:-[a-zA-Z]+\s+)*-m\s+(?:"([^"]+)"|'([^']+)')`)
)

// Request extracts a request summary from the session's first user
// message, falling back to file-mutation statistics. Returns "" when
// nothing usable exists.
func Request(s *model.Session) string {
	if first := s.FirstUserMessage(); first != "" {
		lines := meaningfulLines(first)
		if r := requestFromHeading(lines); r != "" {
			return finish(r)
		}
		if r := requestFromLines(lines, true); r != "" {
			return finish(r)
		}
		if r := requestFromLines(lines, false); r != "" {
			return finish(r)
		}
	}
	return finish(requestFromFiles(s))
}

// Work extracts a work summary from the session's assistant messages,
// falling back to aggregate file-mutation counts. Returns "" when
// nothing usable exists.
func Work(s *model.Session) string {
	type assistantMsg struct {
		index int // position within s.Messages
		lines []string
	}
	var msgs []assistantMsg
	for i := range s.Messages {
		m := &s.Messages[i]
		if m.Role == model.RoleAssistant && m.Content != "" {
			msgs = append(msgs, assistantMsg{i, meaningfulLines(m.Content)})
		}
	}

	// Stage 1: commit messages, newest message first.
	for i := len(msgs) - 1; i >= 0; i-- {
		lines := msgs[i].lines
		for j, line := range lines {
			if m := commitFlagRe.FindStringSubmatch(line); m != nil {
				if m[1] != "" {
					return finish(m[1])
				}
				return finish(m[2])
			}
			if commitLineRe.MatchString(line) && j > 0 && hasCommitHint(lines[j-1]) {
				return finish(line)
			}
		}
	}

	// Stage 2: summary/result headings, newest message first.
	for i := len(msgs) - 1; i >= 0; i-- {
		if w := afterSummaryHeading(msgs[i].lines); w != "" {
			return finish(w)
		}
	}

	// Stage 3: keyword-scored line across all assistant messages.
	// Later messages get a higher position weight; ties keep the first
	// line encountered in scan order.
	var bestLine string
	bestScore := 0.0
	total := len(s.Messages)
	for _, am := range msgs {
		weight := float64(am.index+1) / float64(total)
		for _, line := range am.lines {
			if !scorable(line) {
				continue
			}
			matches := keywordMatches(line)
			if matches == 0 {
				continue
			}
			score := float64(matches) * (1 + weight)
			if score > bestScore {
				bestScore = score
				bestLine = line
			}
		}
	}
	if bestLine != "" {
		return finish(stripMarkdown(bestLine))
	}

	// Stage 4: last non-trivial line of the last assistant message.
	if len(msgs) > 0 {
		lines := msgs[len(msgs)-1].lines
		for i := len(lines) - 1; i >= 0; i-- {
			cleaned := stripMarkdown(lines[i])
			if utf8.RuneCountInString(cleaned) > 10 {
				return finish(cleaned)
			}
		}
	}

	// Stage 5: aggregate file-mutation counts.
	return finish(workFromCounts(s))
}

// ── request stages ──

func requestFromHeading(lines []string) string {
	for _, line := range lines {
		if !isHeading(line) {
			continue
		}
		title := stripLabel(stripHeadingMarks(line))
		if utf8.RuneCountInString(title) > 3 {
			return stripMarkdown(title)
		}
	}
	return ""
}

// requestFromLines scans body lines in order. In strict mode generic
// instruction lines are skipped; the relaxed pass keeps them and may
// borrow the following line when a candidate ends with a colon.
func requestFromLines(lines []string, strict bool) string {
	var candidates []string
	for _, line := range lines {
		if isHeading(line) || isSeparator(line) || isTagLine(line) || isPathLine(line) {
			continue
		}
		if strict && isGenericInstruction(line) {
			continue
		}
		candidates = append(candidates, line)
	}

	for i, cand := range candidates {
		if !strict && strings.HasSuffix(cand, ":") && i+1 < len(candidates) {
			cand = candidates[i+1]
		}
		sentence := stripMarkdown(firstSentence(cand))
		if utf8.RuneCountInString(sentence) > 3 {
			return sentence
		}
	}
	return ""
}

func requestFromFiles(s *model.Session) string {
	var created, modified []string
	for _, fc := range s.ChangedFilePaths() {
		switch fc.Marker {
		case "+":
			if len(created) < 3 {
				created = append(created, model.BaseName(fc.Path))
			}
		case "~":
			if len(modified) < 3 {
				modified = append(modified, model.BaseName(fc.Path))
			}
		}
	}
	if len(created) > 0 {
		return "Created " + strings.Join(created, ", ")
	}
	if len(modified) > 0 {
		return "Modified " + strings.Join(modified, ", ")
	}
	return ""
}

// ── work stages ──

func hasCommitHint(line string) bool {
	lower := strings.ToLower(line)
	for _, h := range commitHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func afterSummaryHeading(lines []string) string {
	for i, line := range lines {
		if !isHeading(line) || !isSummaryHeading(line) {
			continue
		}
		var parts []string
		for _, next := range lines[i+1:] {
			if isHeading(next) {
				break
			}
			cleaned := stripMarkdown(next)
			if utf8.RuneCountInString(cleaned) > 3 {
				parts = append(parts, cleaned)
				if len(parts) == 3 {
					break
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return ""
}

func isSummaryHeading(line string) bool {
	title := strings.ToLower(stripHeadingMarks(line))
	for _, h := range summaryHeadings {
		if strings.HasPrefix(title, h) {
			return true
		}
	}
	return false
}

func scorable(line string) bool {
	if utf8.RuneCountInString(line) <= 5 || isHeading(line) {
		return false
	}
	lower := strings.ToLower(stripMarkdown(line))
	for _, p := range planningPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	for _, sub := range explorationSubstrings {
		if strings.Contains(lower, sub) {
			return false
		}
	}
	return true
}

func keywordMatches(line string) int {
	lower := strings.ToLower(line)
	n := 0
	for _, kw := range workKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

func workFromCounts(s *model.Session) string {
	var parts []string
	if n := s.FilesCreated(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d files created", n))
	}
	if n := s.FilesModified(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d files modified", n))
	}
	if n := s.FilesDeleted(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d files deleted", n))
	}
	return strings.Join(parts, ", ")
}

// ── shared line filter ──

// meaningfulLines splits text into trimmed lines, dropping fenced code
// blocks, table rows, HTML comments, and blank lines. Every extraction
// stage works on this view.
func meaningfulLines(text string) []string {
	var out []string
	inFence := false
	inComment := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if inComment {
			if strings.Contains(line, "-->") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(line, "<!--") {
			if !strings.Contains(line, "-->") {
				inComment = true
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "|") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ── line predicates and cleanup ──

func isHeading(line string) bool {
	return strings.HasPrefix(line, "#")
}

func isSeparator(line string) bool {
	if utf8.RuneCountInString(line) < 3 {
		return false
	}
	for _, r := range line {
		switch r {
		case '-', '_', '*', '=', ' ':
		default:
			return false
		}
	}
	return true
}

func isTagLine(line string) bool {
	return strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">")
}

func isPathLine(line string) bool {
	if strings.ContainsAny(line, " \t") {
		return false
	}
	return strings.HasPrefix(line, "/") || strings.HasPrefix(line, "~/")
}

func isGenericInstruction(line string) bool {
	lower := strings.ToLower(strings.TrimRight(line, ".!?~ "))
	for _, g := range genericInstructions {
		if lower == g {
			return true
		}
	}
	return false
}

func stripHeadingMarks(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "# "))
}

func stripLabel(title string) string {
	lower := strings.ToLower(title)
	for _, label := range requestLabels {
		if strings.HasPrefix(lower, label) {
			return strings.TrimSpace(title[len(label):])
		}
	}
	return title
}

// firstSentence cuts at the first sentence terminator, keeping the
// punctuation. Terminators inside backtick code spans do not count.
func firstSentence(line string) string {
	ticks := 0
	for i, r := range line {
		if r == '`' {
			ticks++
			continue
		}
		if ticks%2 == 1 {
			continue
		}
		if r == '.' || r == '!' || r == '?' {
			return line[:i+utf8.RuneLen(r)]
		}
	}
	return line
}

// stripMarkdown removes emphasis markers, heading marks, and a leading
// list marker. Backticks are kept; truncation accounts for them.
func stripMarkdown(line string) string {
	s := strings.ReplaceAll(line, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "# ")
	switch {
	case strings.HasPrefix(s, "- "), strings.HasPrefix(s, "* "):
		s = s[2:]
	default:
		if i := strings.IndexByte(s, '.'); i > 0 && i <= 3 && allDigits(s[:i]) && strings.HasPrefix(s[i:], ". ") {
			s = s[i+2:]
		}
	}
	return strings.TrimSpace(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// finish applies the shared tail treatment: truncate to maxChars
// without splitting a backtick span, drop a dangling unmatched span
// opener, then trim trailing separators. Truncation runs before the
// punctuation trim; the trim never removes backticks so span balance
// is preserved.
func finish(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	runes := []rune(s)
	if len(runes) > maxChars {
		cut := maxChars
		ticks := 0
		for _, r := range runes[:cut] {
			if r == '`' {
				ticks++
			}
		}
		if ticks%2 == 1 {
			// back up past the span opener rather than splitting
			for cut > 0 && runes[cut-1] != '`' {
				cut--
			}
			if cut > 0 {
				cut--
			}
		}
		runes = runes[:cut]
	}

	// Input text itself may carry an unterminated code span; drop it.
	ticks := 0
	for _, r := range runes {
		if r == '`' {
			ticks++
		}
	}
	if ticks%2 == 1 {
		for i := len(runes) - 1; i >= 0; i-- {
			if runes[i] == '`' {
				runes = runes[:i]
				break
			}
		}
	}

	return strings.TrimRight(string(runes), ";, ")
}
