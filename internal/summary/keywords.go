package summary

// Language-specific word lists used by the extraction stages. They are
// plain data so adding a language or phrase never touches the control
// flow in summary.go. English and Korean are covered today.

// requestLabels are heading prefixes stripped before using a heading as
// the request summary ("# Plan: Build X" -> "Build X").
var requestLabels = []string{
	"plan:", "task:", "fix:", "feature:", "bug:", "request:", "goal:",
	"계획:", "작업:", "수정:", "기능:", "요청:", "목표:",
}

// genericInstructions are throwaway user lines that carry no request
// content on their own. Compared against the whole line, lowercased,
// with trailing punctuation removed.
var genericInstructions = []string{
	"continue", "please continue", "go ahead", "go on", "proceed",
	"do it", "yes", "ok", "okay", "sounds good", "keep going",
	"try again", "thanks", "thank you",
	"계속", "계속해", "계속해줘", "계속 진행해", "진행해", "진행해줘",
	"해줘", "좋아", "네", "응", "고마워", "다시 해줘",
}

// workKeywords score assistant lines that describe finished work.
var workKeywords = []string{
	"complete", "completed", "implement", "implemented", "added",
	"modified", "created", "fixed", "updated", "refactored", "removed",
	"resolved", "finished",
	"완료", "구현", "추가", "수정", "생성", "삭제", "변경", "반영",
}

// planningPrefixes disqualify a line from keyword scoring: it announces
// future work rather than describing finished work.
var planningPrefixes = []string{
	"i will", "i'll", "let me", "i'm going to", "i am going to",
	"going to", "next i", "now i'll", "first i",
	"이제", "먼저", "다음으로", "지금부터",
}

// explorationSubstrings disqualify a line from keyword scoring: it
// narrates reading or searching, not a result.
var explorationSubstrings = []string{
	"looking at", "looking into", "checking", "searching", "exploring",
	"investigating", "reading the", "let's look", "let's see",
	"확인해", "살펴보", "찾아보", "읽어보",
}

// summaryHeadings mark a results section; compared against a heading
// line with its '#' markers stripped, lowercased.
var summaryHeadings = []string{
	"summary", "result", "results", "done", "changes", "what changed",
	"요약", "결과", "완료", "변경 사항", "변경사항", "정리",
}

// commitHints mark a line that introduces a commit message on the next
// line.
var commitHints = []string{"commit", "커밋"}

// commitTypes are the conventional-commit type prefixes recognized by
// work stage 1.
var commitTypes = []string{
	"feat", "fix", "docs", "style", "refactor", "perf", "test",
	"build", "ci", "chore", "revert",
}
