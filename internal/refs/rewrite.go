package refs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sfried/daybook/internal/models"
)

var (
	// A reference already in link form: "[Issue #N](url) -- title" or
	// "[owner/repo#N](url) -- title", pointing at a tracker issue URL.
	// Groups: 1 legacy number, 2 repo-qualified number, 3 URL, 4 title.
	linkedIssueRe = regexp.MustCompile(`\[(?:Issue #(\d{1,10})|[A-Za-z0-9_-]{1,100}/[A-Za-z0-9_-]{1,100}#(\d{1,10}))\]\((https://(?:www\.)?github\.com/[A-Za-z0-9_-]{1,100}/[A-Za-z0-9_-]{1,100}/issues/\d{1,10})\) -- ([^\n]+)`)

	// A bare textual reference. Link-boundary checks happen in code since
	// RE2 has no lookaround: a match preceded by '[' or followed by "]("
	// is part of an existing link and is left alone.
	bareRefRe = regexp.MustCompile(`(Issue|PR) #(\d{1,10})`)
)

// Fetcher resolves a single reference to its current tracker state.
// A nil Reference with a nil error means the tracker had no data.
type Fetcher interface {
	ViewRef(ctx context.Context, kind models.RefKind, number int, repo string) (*models.Reference, error)
}

// Rewriter rewrites reference spans in note text against live tracker
// state. Both passes return a new string; input text is never mutated.
type Rewriter struct {
	fetcher     Fetcher
	defaultRepo string
	logger      *slog.Logger
	out         io.Writer // dry-run reports
}

// NewRewriter creates a Rewriter. Dry-run reports are written to out.
func NewRewriter(fetcher Fetcher, defaultRepo string, logger *slog.Logger, out io.Writer) *Rewriter {
	return &Rewriter{fetcher: fetcher, defaultRepo: defaultRepo, logger: logger, out: out}
}

// span is one matched reference with its location in the source text.
type span struct {
	start, end int
	kind       models.RefKind
	number     int
	title      string
}

// AddCheckmarks finds issue references already in link form and refreshes
// them against the tracker: closed issues gain a checkmark prefix, open
// ones are normalised to the repo-qualified shape. Spans whose title is
// already checkmark-prefixed are excluded up front, which is what makes
// the pass idempotent. A failed fetch leaves the span untouched.
func (r *Rewriter) AddCheckmarks(ctx context.Context, content, repo string, dryRun bool) string {
	spans := r.linkedSpans(content)
	if len(spans) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, s := range spans {
		b.WriteString(content[last:s.start])
		b.WriteString(r.refreshLinked(ctx, content[s.start:s.end], s, repo, dryRun))
		last = s.end
	}
	b.WriteString(content[last:])
	return b.String()
}

// linkedSpans tokenizes content into linked-reference spans, skipping any
// whose title already carries a checkmark.
func (r *Rewriter) linkedSpans(content string) []span {
	matches := linkedIssueRe.FindAllStringSubmatchIndex(content, -1)
	var out []span
	for _, m := range matches {
		title := content[m[8]:m[9]]
		if strings.HasPrefix(title, Checkmark) {
			continue
		}
		numGroup := m[2]
		if numGroup < 0 {
			numGroup = m[4]
		}
		var numEnd int
		if m[2] >= 0 {
			numEnd = m[3]
		} else {
			numEnd = m[5]
		}
		number, err := strconv.Atoi(content[numGroup:numEnd])
		if err != nil {
			continue
		}
		out = append(out, span{start: m[0], end: m[1], kind: models.KindIssue, number: number, title: title})
	}
	return out
}

// refreshLinked resolves one linked span and returns its replacement text,
// or the original text when the span is left alone. The matched title text
// is kept verbatim (only the checkmark is prepended) because the span may
// run past the actual title into trailing prose; replacing it with the
// fetched title would lose that text and break idempotence. The link head
// is rebuilt from the record's URL so the label is repo-qualified.
func (r *Rewriter) refreshLinked(ctx context.Context, original string, s span, repo string, dryRun bool) string {
	if dryRun {
		fmt.Fprintf(r.out, "Would check if Issue #%d is closed and add %s if needed\n", s.number, Checkmark)
		return original
	}
	ref, err := r.fetcher.ViewRef(ctx, models.KindIssue, s.number, repo)
	if err != nil || ref == nil {
		r.logger.Debug("reference refresh skipped",
			slog.Int("number", s.number),
			slog.String("repo", repo))
		return original
	}
	title := s.title
	if ref.Closed() {
		title = Checkmark + " " + title
	}
	return fmt.Sprintf("[%s#%d](%s) -- %s", RepoFromURL(ref.URL), ref.Number, ref.URL, title)
}

// FormatBareRefs finds bare "Issue #N" / "PR #N" tokens outside existing
// links and expands each into a fully formatted reference. A failed fetch
// warns and leaves the token unchanged so one bad reference never aborts
// the pass.
func (r *Rewriter) FormatBareRefs(ctx context.Context, content, repo string, dryRun bool) string {
	matches := bareRefRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		// Inside an existing link label or immediately followed by a link
		// target: leave alone.
		if start > 0 && content[start-1] == '[' {
			continue
		}
		if strings.HasPrefix(content[end:], "](") {
			continue
		}

		kindWord := content[m[2]:m[3]]
		number, err := strconv.Atoi(content[m[4]:m[5]])
		if err != nil {
			continue
		}
		kind := models.KindIssue
		if kindWord == "PR" {
			kind = models.KindPR
		}

		b.WriteString(content[last:start])
		b.WriteString(r.expandBare(ctx, content[start:end], kind, number, repo, dryRun))
		last = end
	}
	b.WriteString(content[last:])
	return b.String()
}

// expandBare resolves one bare token and returns its replacement text.
func (r *Rewriter) expandBare(ctx context.Context, original string, kind models.RefKind, number int, repo string, dryRun bool) string {
	if dryRun {
		section := "issues"
		if kind == models.KindPR {
			section = "pull"
		}
		fmt.Fprintf(r.out, "Would format: %s -> [%s#%d](https://github.com/%s/%s/%d) -- <title>\n",
			original, repo, number, repo, section, number)
		return original
	}
	ref, err := r.fetcher.ViewRef(ctx, kind, number, repo)
	if err != nil || ref == nil || ref.Title == "" {
		r.logger.Warn("could not fetch reference",
			slog.String("kind", string(kind)),
			slog.Int("number", number),
			slog.String("repo", repo))
		return original
	}
	if kind == models.KindPR {
		return FormatPRRef(*ref)
	}
	return FormatIssueRef(*ref)
}

// FormatAll applies the checkmark pass and then the bare-reference pass.
// When repo is empty it is detected from the content, falling back to the
// configured default. Running FormatAll on its own output is a no-op for
// fixed tracker state: pass one excludes checkmark-prefixed spans and pass
// two excludes anything inside a link.
func (r *Rewriter) FormatAll(ctx context.Context, content, repo string, dryRun bool) string {
	if repo == "" {
		repo = DetectRepo(content, r.defaultRepo)
	}
	content = r.AddCheckmarks(ctx, content, repo, dryRun)
	return r.FormatBareRefs(ctx, content, repo, dryRun)
}
