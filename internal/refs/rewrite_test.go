package refs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sfried/daybook/internal/models"
)

// stubFetcher serves references from a fixed map keyed by kind#number.
type stubFetcher struct {
	refs  map[string]models.Reference
	calls int
}

func (s *stubFetcher) ViewRef(_ context.Context, kind models.RefKind, number int, _ string) (*models.Reference, error) {
	s.calls++
	key := fmt.Sprintf("%s#%d", kind, number)
	if ref, ok := s.refs[key]; ok {
		return &ref, nil
	}
	return nil, nil
}

func testRewriter(f Fetcher) *Rewriter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRewriter(f, "owner/repo", logger, io.Discard)
}

func TestAddCheckmarks_ClosedIssue(t *testing.T) {
	fetcher := &stubFetcher{refs: map[string]models.Reference{
		"issue#123": {
			Number: 123,
			Title:  "Test Issue",
			URL:    "https://github.com/owner/repo/issues/123",
			State:  "closed",
		},
	}}
	rw := testRewriter(fetcher)

	content := "[Issue #123](https://github.com/owner/repo/issues/123) -- Test Issue"
	want := "[owner/repo#123](https://github.com/owner/repo/issues/123) -- ✅ Test Issue"
	if got := rw.AddCheckmarks(context.Background(), content, "owner/repo", false); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestAddCheckmarks_OpenIssueNormalised(t *testing.T) {
	fetcher := &stubFetcher{refs: map[string]models.Reference{
		"issue#9": {
			Number: 9,
			Title:  "Still open",
			URL:    "https://github.com/owner/repo/issues/9",
			State:  "open",
		},
	}}
	rw := testRewriter(fetcher)

	content := "[Issue #9](https://github.com/owner/repo/issues/9) -- Still open"
	got := rw.AddCheckmarks(context.Background(), content, "owner/repo", false)
	want := "[owner/repo#9](https://github.com/owner/repo/issues/9) -- Still open"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestAddCheckmarks_AlreadyCheckedSkipped(t *testing.T) {
	fetcher := &stubFetcher{}
	rw := testRewriter(fetcher)

	content := "[owner/repo#5](https://github.com/owner/repo/issues/5) -- ✅ Done already"
	if got := rw.AddCheckmarks(context.Background(), content, "owner/repo", false); got != content {
		t.Errorf("checked span modified: %q", got)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch called %d times for checked span", fetcher.calls)
	}
}

func TestAddCheckmarks_FetchFailureLeavesSpan(t *testing.T) {
	rw := testRewriter(&stubFetcher{}) // empty map: every fetch misses
	content := "[Issue #404](https://github.com/owner/repo/issues/404) -- Gone"
	if got := rw.AddCheckmarks(context.Background(), content, "owner/repo", false); got != content {
		t.Errorf("failed fetch mutated text: %q", got)
	}
}

func TestAddCheckmarks_DryRunNoFetchNoChange(t *testing.T) {
	fetcher := &stubFetcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var report bytes.Buffer
	rw := NewRewriter(fetcher, "owner/repo", logger, &report)

	content := "[Issue #1](https://github.com/owner/repo/issues/1) -- Pending"
	got := rw.AddCheckmarks(context.Background(), content, "owner/repo", true)
	if got != content {
		t.Errorf("dry run mutated text: %q", got)
	}
	if fetcher.calls != 0 {
		t.Errorf("dry run issued %d fetches", fetcher.calls)
	}
	if !strings.Contains(report.String(), "Issue #1") {
		t.Errorf("dry run report missing: %q", report.String())
	}
}

func TestFormatBareRefs_IssueAndPR(t *testing.T) {
	fetcher := &stubFetcher{refs: map[string]models.Reference{
		"issue#10": {
			Number: 10,
			Title:  "Bare issue",
			URL:    "https://github.com/owner/repo/issues/10",
			State:  "closed",
		},
		"pr#11": {
			Number:    11,
			Title:     "Bare PR",
			URL:       "https://github.com/owner/repo/pull/11",
			State:     "open",
			CreatedAt: "2023-12-15T09:30:00Z",
		},
	}}
	rw := testRewriter(fetcher)

	content := "Worked on Issue #10 and PR #11 today."
	got := rw.FormatBareRefs(context.Background(), content, "owner/repo", false)
	want := "Worked on [owner/repo#10](https://github.com/owner/repo/issues/10) -- ✅ Bare issue" +
		" and [owner/repo#11](https://github.com/owner/repo/pull/11) -- Bare PR (opened 2023-12-15 09:30) today."
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestFormatBareRefs_SkipsExistingLinks(t *testing.T) {
	fetcher := &stubFetcher{}
	rw := testRewriter(fetcher)

	content := "[Issue #123](https://github.com/owner/repo/issues/123) -- ✅ Done"
	if got := rw.FormatBareRefs(context.Background(), content, "owner/repo", false); got != content {
		t.Errorf("link label rewritten: %q", got)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch called for linked reference")
	}
}

func TestFormatBareRefs_FetchFailureWarnsAndKeeps(t *testing.T) {
	rw := testRewriter(&stubFetcher{})
	content := "See Issue #77 for details."
	if got := rw.FormatBareRefs(context.Background(), content, "owner/repo", false); got != content {
		t.Errorf("failed fetch mutated text: %q", got)
	}
}

func TestFormatBareRefs_DryRunReportsOnly(t *testing.T) {
	fetcher := &stubFetcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var report bytes.Buffer
	rw := NewRewriter(fetcher, "owner/repo", logger, &report)

	content := "Check PR #3."
	got := rw.FormatBareRefs(context.Background(), content, "owner/repo", true)
	if got != content {
		t.Errorf("dry run mutated text: %q", got)
	}
	if fetcher.calls != 0 {
		t.Errorf("dry run issued fetches")
	}
	if !strings.Contains(report.String(), "PR #3") {
		t.Errorf("dry run report missing: %q", report.String())
	}
}

func TestFormatAll_Idempotent(t *testing.T) {
	fetcher := &stubFetcher{refs: map[string]models.Reference{
		"issue#123": {
			Number: 123,
			Title:  "Closed [one]",
			URL:    "https://github.com/owner/repo/issues/123",
			State:  "closed",
		},
		"issue#9": {
			Number: 9,
			Title:  "Open one",
			URL:    "https://github.com/owner/repo/issues/9",
			State:  "open",
		},
		"pr#4": {
			Number:    4,
			Title:     "A change",
			URL:       "https://github.com/owner/repo/pull/4",
			State:     "open",
			CreatedAt: "2023-12-15T09:30:00Z",
		},
	}}
	rw := testRewriter(fetcher)

	content := "Today: Issue #123 done, Issue #9 pending, reviewed PR #4.\n" +
		"[Issue #123](https://github.com/owner/repo/issues/123) -- Closed [one]\n"

	once := rw.FormatAll(context.Background(), content, "", false)
	twice := rw.FormatAll(context.Background(), once, "", false)
	if once != twice {
		t.Errorf("FormatAll not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
	if !strings.Contains(once, `✅ Closed \[one\]`) {
		t.Errorf("closed issue not checkmarked/escaped: %q", once)
	}
}

func TestFormatAll_DetectsRepoFromContent(t *testing.T) {
	fetcher := &stubFetcher{refs: map[string]models.Reference{
		"issue#2": {
			Number: 2,
			Title:  "In other repo",
			URL:    "https://github.com/acme/widgets/issues/2",
			State:  "open",
		},
	}}
	rw := testRewriter(fetcher)

	content := "[acme/widgets#1](https://github.com/acme/widgets/issues/1) -- ✅ old\nAlso Issue #2."
	got := rw.FormatAll(context.Background(), content, "", false)
	if !strings.Contains(got, "[acme/widgets#2](https://github.com/acme/widgets/issues/2)") {
		t.Errorf("repo not detected from content: %q", got)
	}
}
