// Package review aggregates a day's tracker activity into the Daily
// Review section of a daily note.
package review

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sfried/daybook/internal/models"
	"github.com/sfried/daybook/internal/refs"
)

// Bucket keys, in render order.
const (
	BucketIssuesCreated  = "issues_created"
	BucketPRsCreated     = "prs_created"
	BucketIssuesClosed   = "issues_closed"
	BucketIssuesWorkedOn = "issues_worked_on"
	BucketPRsMerged      = "prs_merged"
)

// SectionHeading opens the rendered block in the daily note.
const SectionHeading = "## Daily Review"

// noneLine is rendered when a bucket is empty.
const noneLine = "NONE"

// meSentinel is the tracker's "authenticated user" placeholder.
const meSentinel = "@me"

// Searcher issues one tracker search query and returns the matches.
type Searcher interface {
	Search(ctx context.Context, kind models.RefKind, query string, extraFields ...string) ([]models.Reference, error)
}

// bucketDef describes one activity bucket: its search predicates, the
// date field scoping the query, and how its items render. All five
// buckets share a single fetch path parameterised by this struct.
type bucketDef struct {
	key         string
	header      string
	kind        models.RefKind
	predicates  []string // e.g. "author:@me"; org/date scoping is appended
	dateField   string   // created, updated, closed, merged
	extraFields []string // JSON fields beyond the kind's defaults
	userScope   bool     // also query the user's personal namespace
	closedOnly  bool     // post-filter by author/assignee, force closed state
	appendState bool     // render lines with a trailing " (state)"
}

// buckets is the fixed render order: created issues, created PRs, closed
// issues, worked-on issues, merged PRs.
var buckets = []bucketDef{
	{
		key:        BucketIssuesCreated,
		header:     "**Heute erstellte Issues:**",
		kind:       models.KindIssue,
		predicates: []string{"author:" + meSentinel},
		dateField:  "created",
		userScope:  true,
	},
	{
		key:        BucketPRsCreated,
		header:     "**Heute erstellte PRs:**",
		kind:       models.KindPR,
		predicates: []string{"author:" + meSentinel, "assignee:" + meSentinel},
		dateField:  "created",
	},
	{
		key:         BucketIssuesClosed,
		header:      "**Heute geschlossene Issues:**",
		kind:        models.KindIssue,
		dateField:   "closed",
		extraFields: []string{"assignees", "author"},
		closedOnly:  true,
	},
	{
		key:         BucketIssuesWorkedOn,
		header:      "**Heute bearbeitet:**",
		kind:        models.KindIssue,
		predicates:  []string{"involves:" + meSentinel},
		dateField:   "updated",
		appendState: true,
	},
	{
		key:        BucketPRsMerged,
		header:     "**Heute gemergte PRs:**",
		kind:       models.KindPR,
		predicates: []string{"author:" + meSentinel, "assignee:" + meSentinel},
		dateField:  "merged",
	},
}

// Aggregator fetches the five activity buckets across the configured
// organizations. Queries run sequentially; a failed query contributes an
// empty result rather than aborting the run.
type Aggregator struct {
	searcher Searcher
	orgs     []string
	user     string
}

// NewAggregator creates an Aggregator. user is the login used for the
// personal-namespace query and the closed-issue post-filter; the @me
// sentinel disables both (there is no login to compare against).
func NewAggregator(searcher Searcher, orgs []string, user string) *Aggregator {
	return &Aggregator{searcher: searcher, orgs: orgs, user: user}
}

// DateRange resolves a period specification to a search date. A value
// already in YYYY-MM-DD form is returned verbatim; "today" and the period
// keywords all collapse to today's date.
func DateRange(period string, now time.Time) string {
	if _, err := time.Parse("2006-01-02", period); err == nil {
		return period
	}
	today := now.Format("2006-01-02")
	switch period {
	case "today":
		return today
	case "this-week":
		// TODO: expand to a created:>=monday range
		return today
	case "this-month":
		// TODO: expand to a month range
		return today
	case "this-quarter":
		// TODO: expand to a quarter range
		return today
	default:
		return today
	}
}

// FetchAll gathers all five buckets for the given date.
func (a *Aggregator) FetchAll(ctx context.Context, date string) (map[string][]models.Reference, error) {
	out := make(map[string][]models.Reference, len(buckets))
	for _, def := range buckets {
		items, err := a.fetchBucket(ctx, def, date)
		if err != nil {
			return nil, err
		}
		out[def.key] = items
	}
	return out, nil
}

// fetchBucket runs one org-scoped query per configured organization (plus
// the optional personal-namespace query) and applies the bucket's
// post-filter.
func (a *Aggregator) fetchBucket(ctx context.Context, def bucketDef, date string) ([]models.Reference, error) {
	var all []models.Reference
	for _, org := range a.orgs {
		query := buildQuery(def.predicates, "org:"+org, def.dateField, date)
		items, err := a.searcher.Search(ctx, def.kind, query, def.extraFields...)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	if def.userScope && a.user != meSentinel && a.user != "" {
		query := buildQuery(def.predicates, "user:"+a.user, def.dateField, date)
		items, err := a.searcher.Search(ctx, def.kind, query, def.extraFields...)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	if def.closedOnly {
		all = a.filterClosedByUser(all)
	}
	return all, nil
}

// buildQuery assembles a tracker search string from fixed predicates, one
// scope term, and the date restriction.
func buildQuery(predicates []string, scope, dateField, date string) string {
	terms := append(append([]string{}, predicates...), scope, dateField+":"+date)
	return strings.Join(terms, " ")
}

// filterClosedByUser keeps only items authored by or assigned to the
// configured user and forces their state to closed: the search already
// scopes to closed items, but the server-side involvement filter is
// loose. The login compare uses the current tracker identity, not the
// identity at closure time.
func (a *Aggregator) filterClosedByUser(items []models.Reference) []models.Reference {
	var out []models.Reference
	for _, item := range items {
		if !a.involvesUser(item) {
			continue
		}
		item.State = "closed"
		out = append(out, item)
	}
	return out
}

func (a *Aggregator) involvesUser(item models.Reference) bool {
	if a.user == "" || a.user == meSentinel {
		return false
	}
	if item.Author.Login == a.user {
		return true
	}
	for _, assignee := range item.Assignees {
		if assignee.Login == a.user {
			return true
		}
	}
	return false
}

// Deduplicate drops items whose URL was already seen (first occurrence
// wins) and sorts the remainder ascending by (repository, number).
func Deduplicate(items []models.Reference) []models.Reference {
	seen := make(map[string]struct{}, len(items))
	var out []models.Reference
	for _, item := range items {
		if _, dup := seen[item.URL]; dup {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := refs.RepoFromURL(out[i].URL), refs.RepoFromURL(out[j].URL)
		if ri != rj {
			return ri < rj
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// Render produces the full Daily Review block from the five buckets.
// Each bucket is deduplicated and sorted before rendering; empty buckets
// render the literal NONE line.
func Render(data map[string][]models.Reference) string {
	var b strings.Builder
	b.WriteString(SectionHeading + "\n\n")
	for i, def := range buckets {
		b.WriteString(def.header + "\n")
		items := Deduplicate(data[def.key])
		if len(items) == 0 {
			b.WriteString(noneLine + "\n")
		} else {
			for _, item := range items {
				b.WriteString("- " + formatItem(def, item) + "\n")
			}
		}
		if i < len(buckets)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatItem(def bucketDef, item models.Reference) string {
	var line string
	if def.kind == models.KindPR {
		line = refs.FormatPRRef(item)
	} else {
		line = refs.FormatIssueRef(item)
	}
	if def.appendState {
		line = fmt.Sprintf("%s (%s)", line, item.State)
	}
	return line
}

// UpdateSection splices the rendered Daily Review block into content. An
// existing section (from the heading to the next ##/### heading or end of
// text) is replaced in place; otherwise the block is appended after a
// blank line.
func UpdateSection(content string, data map[string][]models.Reference) string {
	section := Render(data)

	start := headingIndex(content)
	if start < 0 {
		if content == "" {
			return section
		}
		return content + "\n\n" + section
	}

	end := sectionEnd(content, start+len(SectionHeading))
	return content[:start] + section + content[end:]
}

// headingIndex locates the Daily Review heading at the start of a line,
// followed by a blank line.
func headingIndex(content string) int {
	marker := SectionHeading + "\n\n"
	idx := strings.Index(content, marker)
	for idx > 0 && content[idx-1] != '\n' {
		next := strings.Index(content[idx+1:], marker)
		if next < 0 {
			return -1
		}
		idx += 1 + next
	}
	return idx
}

// sectionEnd finds the offset where the existing section stops: the
// newline preceding the next ##/### heading, or the end of content.
func sectionEnd(content string, from int) int {
	rest := content[from:]
	candidates := []string{"\n## ", "\n###"}
	end := len(content)
	for _, c := range candidates {
		if i := strings.Index(rest, c); i >= 0 && from+i < end {
			end = from + i
		}
	}
	return end
}
