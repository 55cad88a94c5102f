package mcpserver

// ReviewFormatContract describes the reference link shape and the Daily
// Review section layout that Daybook writes into daily notes.
const ReviewFormatContract = `# Daybook Review Format

Daily notes live at ` + "`" + `daily/YYYY-MM-DD.md` + "`" + ` under the notes root.

## Reference links

Every GitHub reference Daybook writes uses this shape:

` + "```" + `markdown
[owner/repo#123](https://github.com/owner/repo/issues/123) -- Issue title
` + "```" + `

Rules:

1. The link label is the repository-qualified number, never a bare "Issue #N".
2. Title text follows the link after a literal ` + "`" + ` -- ` + "`" + ` separator.
3. Closed issues carry a leading checkmark in the title: ` + "`" + `-- ✅ Issue title` + "`" + `.
4. Markdown special characters in fetched titles are backslash-escaped.
5. Pull request lines append opened/merged timestamps in UTC:
   ` + "`" + `(opened 2025-01-20 09:30)` + "`" + ` or ` + "`" + `(opened 2025-01-20 09:30, merged 2025-01-20 17:05)` + "`" + `.

Rewriting is idempotent: running the formatter over already formatted
text changes nothing while the tracker state is unchanged.

## Daily Review section

The ` + "`" + `daily_review` + "`" + ` tool maintains one section per note, replacing it in
place on rerun:

` + "```" + `markdown
## Daily Review

**Heute erstellte Issues:**
- [owner/repo#12](https://github.com/owner/repo/issues/12) -- New issue

**Heute erstellte PRs:**
NONE

**Heute geschlossene Issues:**
- [owner/repo#9](https://github.com/owner/repo/issues/9) -- ✅ Done issue

**Heute bearbeitet:**
- [owner/repo#7](https://github.com/owner/repo/issues/7) -- In progress (open)

**Heute gemergte PRs:**
- [owner/repo#31](https://github.com/owner/repo/pull/31) -- Merged PR (opened 2025-01-20 09:30, merged 2025-01-20 17:05)
` + "```" + `

1. The five buckets always appear, in this order.
2. Empty buckets render the literal ` + "`" + `NONE` + "`" + ` line.
3. Items are deduplicated by URL and sorted by repository, then number.
4. The "bearbeitet" bucket appends the item state in parentheses.
`
