package review

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sfried/daybook/internal/models"
)

// stubSearcher records queries and returns canned results keyed by a
// substring of the query.
type stubSearcher struct {
	results map[string][]models.Reference
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, _ models.RefKind, query string, _ ...string) ([]models.Reference, error) {
	s.queries = append(s.queries, query)
	for key, refs := range s.results {
		if strings.Contains(query, key) {
			return refs, nil
		}
	}
	return nil, nil
}

func TestDateRange_ExplicitDate(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := DateRange("2023-12-15", now); got != "2023-12-15" {
		t.Errorf("got %q", got)
	}
}

func TestDateRange_PeriodsCollapseToToday(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, period := range []string{"today", "this-week", "this-month", "this-quarter", "junk"} {
		if got := DateRange(period, now); got != "2024-03-01" {
			t.Errorf("DateRange(%q) = %q, want 2024-03-01", period, got)
		}
	}
}

func TestDeduplicate(t *testing.T) {
	items := []models.Reference{
		{Number: 5, URL: "https://github.com/b/x/issues/5"},
		{Number: 3, URL: "https://github.com/a/x/issues/3"},
		{Number: 5, URL: "https://github.com/b/x/issues/5", Title: "dup"},
		{Number: 1, URL: "https://github.com/b/x/issues/1"},
	}
	out := Deduplicate(items)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	// Sorted by (repo, number): a/x#3, b/x#1, b/x#5.
	if out[0].Number != 3 || out[1].Number != 1 || out[2].Number != 5 {
		t.Errorf("order = %v %v %v", out[0].Number, out[1].Number, out[2].Number)
	}
	seen := map[string]bool{}
	for _, item := range out {
		if seen[item.URL] {
			t.Errorf("duplicate url survived: %s", item.URL)
		}
		seen[item.URL] = true
	}
}

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	items := []models.Reference{
		{Number: 5, URL: "https://github.com/a/x/issues/5", Title: "first"},
		{Number: 5, URL: "https://github.com/a/x/issues/5", Title: "second"},
	}
	out := Deduplicate(items)
	if len(out) != 1 || out[0].Title != "first" {
		t.Errorf("out = %+v", out)
	}
}

func TestFetchAll_QueriesPerOrgAndBucket(t *testing.T) {
	s := &stubSearcher{}
	agg := NewAggregator(s, []string{"acme", "globex"}, "alice")

	if _, err := agg.FetchAll(context.Background(), "2024-03-01"); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	// 5 buckets x 2 orgs + 1 personal-namespace query for issues created.
	if len(s.queries) != 11 {
		t.Fatalf("query count = %d, want 11: %v", len(s.queries), s.queries)
	}
	var sawUserScope, sawClosed bool
	for _, q := range s.queries {
		if strings.Contains(q, "user:alice") {
			sawUserScope = true
		}
		if strings.Contains(q, "closed:2024-03-01") {
			sawClosed = true
		}
		if !strings.Contains(q, ":2024-03-01") {
			t.Errorf("query without date scope: %q", q)
		}
	}
	if !sawUserScope {
		t.Error("missing personal-namespace query")
	}
	if !sawClosed {
		t.Error("missing closed-date query")
	}
}

func TestFetchAll_MeSentinelSkipsUserScope(t *testing.T) {
	s := &stubSearcher{}
	agg := NewAggregator(s, []string{"acme"}, "@me")

	if _, err := agg.FetchAll(context.Background(), "2024-03-01"); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	for _, q := range s.queries {
		if strings.Contains(q, "user:") {
			t.Errorf("unexpected personal-namespace query: %q", q)
		}
	}
}

func TestFetchBucket_ClosedFilter(t *testing.T) {
	s := &stubSearcher{results: map[string][]models.Reference{
		"closed:": {
			{Number: 1, URL: "https://github.com/acme/x/issues/1", State: "OPEN", Author: models.Actor{Login: "alice"}},
			{Number: 2, URL: "https://github.com/acme/x/issues/2", State: "OPEN", Author: models.Actor{Login: "bob"}},
			{Number: 3, URL: "https://github.com/acme/x/issues/3", State: "OPEN",
				Assignees: []models.Actor{{Login: "alice"}}},
		},
	}}
	agg := NewAggregator(s, []string{"acme"}, "alice")

	data, err := agg.FetchAll(context.Background(), "2024-03-01")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	closed := data[BucketIssuesClosed]
	if len(closed) != 2 {
		t.Fatalf("closed = %+v, want 2 items", closed)
	}
	for _, item := range closed {
		if item.State != "closed" {
			t.Errorf("state not forced closed: %+v", item)
		}
		if item.Number == 2 {
			t.Error("item by another author survived the filter")
		}
	}
}

func TestRender_EmptyBuckets(t *testing.T) {
	out := Render(map[string][]models.Reference{})
	if !strings.HasPrefix(out, "## Daily Review\n\n") {
		t.Errorf("missing heading: %q", out)
	}
	if got := strings.Count(out, "NONE"); got != 5 {
		t.Errorf("NONE count = %d, want 5", got)
	}
	// Fixed header order.
	order := []string{
		"**Heute erstellte Issues:**",
		"**Heute erstellte PRs:**",
		"**Heute geschlossene Issues:**",
		"**Heute bearbeitet:**",
		"**Heute gemergte PRs:**",
	}
	last := -1
	for _, h := range order {
		idx := strings.Index(out, h)
		if idx < 0 || idx < last {
			t.Errorf("header %q missing or out of order", h)
		}
		last = idx
	}
}

func TestRender_WorkedOnAppendsState(t *testing.T) {
	data := map[string][]models.Reference{
		BucketIssuesWorkedOn: {
			{Number: 4, Title: "busy", URL: "https://github.com/o/r/issues/4", State: "OPEN"},
		},
	}
	out := Render(data)
	if !strings.Contains(out, "-- busy (OPEN)") {
		t.Errorf("worked-on state suffix missing: %q", out)
	}
}

func TestUpdateSection_AppendsWhenMissing(t *testing.T) {
	content := "# 2024-03-01\n\nSome notes.\n"
	out := UpdateSection(content, map[string][]models.Reference{})
	if !strings.HasPrefix(out, content) {
		t.Errorf("existing content modified: %q", out)
	}
	if !strings.Contains(out, "\n\n## Daily Review\n\n") {
		t.Errorf("section not appended: %q", out)
	}
	if got := strings.Count(out, "NONE"); got != 5 {
		t.Errorf("NONE count = %d, want 5", got)
	}
}

func TestUpdateSection_ReplacesExisting(t *testing.T) {
	content := "# 2024-03-01\n\n## Daily Review\n\n**Heute erstellte Issues:**\n- old line\n\n## Other\n\nkeep me\n"
	data := map[string][]models.Reference{
		BucketIssuesCreated: {
			{Number: 8, Title: "fresh", URL: "https://github.com/o/r/issues/8", State: "open"},
		},
	}
	out := UpdateSection(content, data)
	if strings.Contains(out, "old line") {
		t.Errorf("stale section content kept: %q", out)
	}
	if !strings.Contains(out, "[o/r#8](https://github.com/o/r/issues/8) -- fresh") {
		t.Errorf("new item missing: %q", out)
	}
	if !strings.Contains(out, "## Other\n\nkeep me") {
		t.Errorf("following section lost: %q", out)
	}
}

func TestUpdateSection_Stable(t *testing.T) {
	data := map[string][]models.Reference{
		BucketPRsMerged: {
			{Number: 2, Title: "done", URL: "https://github.com/o/r/pull/2",
				State: "merged", CreatedAt: "2024-03-01T08:00:00Z", MergedAt: "2024-03-01T09:00:00Z"},
		},
	}
	once := UpdateSection("# Note\n", data)
	twice := UpdateSection(once, data)
	if once != twice {
		t.Errorf("UpdateSection not stable:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestUpdateSection_EmptyContent(t *testing.T) {
	out := UpdateSection("", map[string][]models.Reference{})
	if !strings.HasPrefix(out, "## Daily Review\n\n") {
		t.Errorf("got %q", out)
	}
}
