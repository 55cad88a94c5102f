package refs

import (
	"fmt"
	"strings"
	"time"

	"github.com/sfried/daybook/internal/models"
)

// Checkmark prefixes the title of a closed issue reference.
const Checkmark = "✅"

// markdownSpecials are the characters EscapeMarkdown prefixes with a
// backslash. The backslash itself is included so escaping is a single
// left-to-right pass; applying it twice to the same text doubles the
// backslashes, which is why formatted output always escapes the freshly
// fetched title and never re-escapes existing note text.
const markdownSpecials = "*_`[]()#+-!|{}\\"

// EscapeMarkdown escapes Markdown-special characters in text so that
// fetched titles render literally inside a formatted reference.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x80 && strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatIssueRef renders an issue as "[owner/repo#N](url) -- Title",
// prefixing the title with a checkmark when the issue is closed. The
// repository prefix is derived from the record's own URL so the printed
// label always matches the link target.
func FormatIssueRef(issue models.Reference) string {
	repo := RepoFromURL(issue.URL)
	title := EscapeMarkdown(issue.Title)
	if issue.Closed() {
		title = Checkmark + " " + title
	}
	return fmt.Sprintf("[%s#%d](%s) -- %s", repo, issue.Number, issue.URL, title)
}

// FormatPRRef renders a pull request like FormatIssueRef and appends its
// timestamps: "(opened YYYY-MM-DD HH:MM)" or, when the PR was merged,
// "(opened ..., merged ...)". Timestamps are rendered in UTC. A missing or
// unparseable createdAt drops the suffix rather than failing the record.
func FormatPRRef(pr models.Reference) string {
	repo := RepoFromURL(pr.URL)
	title := EscapeMarkdown(pr.Title)
	result := fmt.Sprintf("[%s#%d](%s) -- %s", repo, pr.Number, pr.URL, title)

	created, ok := formatTimestamp(pr.CreatedAt)
	if !ok {
		return result
	}
	if merged, mergedOK := formatTimestamp(pr.MergedAt); mergedOK {
		return result + fmt.Sprintf(" (opened %s, merged %s)", created, merged)
	}
	return result + fmt.Sprintf(" (opened %s)", created)
}

// formatTimestamp converts an ISO-8601 timestamp ('Z' suffix means UTC)
// to "YYYY-MM-DD HH:MM" in UTC.
func formatTimestamp(iso string) (string, bool) {
	if iso == "" {
		return "", false
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return "", false
	}
	return t.UTC().Format("2006-01-02 15:04"), true
}
