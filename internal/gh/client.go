package gh

import (
	"context"
	"strconv"
	"strings"

	"github.com/sfried/daybook/internal/models"
)

// Field sets requested from the gh CLI. PR queries include timestamps so
// the formatter can render opened/merged times.
var (
	issueFields = []string{"number", "title", "url", "state"}
	prFields    = []string{"number", "title", "url", "state", "createdAt", "mergedAt"}
)

// Client issues tracker queries through a Runner.
type Client struct {
	runner *Runner
}

// NewClient creates a Client on top of runner.
func NewClient(runner *Runner) *Client {
	return &Client{runner: runner}
}

// Search runs a search-scoped list query for the given kind and returns
// the matching references. Failures degrade to an empty slice inside the
// runner; the error reports argument validation problems only.
func (c *Client) Search(ctx context.Context, kind models.RefKind, query string, extraFields ...string) ([]models.Reference, error) {
	fields := issueFields
	if kind == models.KindPR {
		fields = prFields
	}
	if len(extraFields) > 0 {
		fields = append(append([]string{}, fields...), extraFields...)
	}
	args := []string{
		c.runner.tool, subcommand(kind), "list",
		"--search", query,
		"--json", strings.Join(fields, ","),
	}
	var refs []models.Reference
	if err := c.runner.List(ctx, args, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// ViewRef fetches the current state of a single issue or PR. A nil
// Reference with nil error means the tracker had no data (the caller
// leaves the corresponding span unchanged).
func (c *Client) ViewRef(ctx context.Context, kind models.RefKind, number int, repo string) (*models.Reference, error) {
	fields := issueFields
	if kind == models.KindPR {
		fields = prFields
	}
	args := []string{
		c.runner.tool, subcommand(kind), "view", strconv.Itoa(number),
		"--repo", repo,
		"--json", strings.Join(fields, ","),
	}
	var ref models.Reference
	ok, err := c.runner.Single(ctx, args, &ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &ref, nil
}

func subcommand(kind models.RefKind) string {
	if kind == models.KindPR {
		return "pr"
	}
	return "issue"
}
