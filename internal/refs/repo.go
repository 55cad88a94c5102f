// Package refs parses, formats, and rewrites GitHub issue and PR
// references embedded in Markdown note text.
package refs

import (
	"net/url"
	"regexp"
	"strings"
)

// UnknownRepo is returned when a URL does not resolve to a GitHub repository.
const UnknownRepo = "unknown/repo"

// trackerHost is the only host references may point at.
const trackerHost = "github.com"

// Segment and digit lengths are bounded so every pattern in this package
// matches in linear time regardless of input. Do not relax the bounds.
var (
	segmentRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

	// A Markdown link in either reference shape (legacy "Issue #N"/"PR #N"
	// label or repo-qualified "owner/repo#N" label) pointing at a tracker
	// issue or PR URL. Capture group 1 is the owner/repo path segment.
	repoLinkRe = regexp.MustCompile(`\[(?:(?:Issue|PR) #\d{1,10}|[A-Za-z0-9_-]{1,100}/[A-Za-z0-9_-]{1,100}#\d{1,10})\]\(https://(?:www\.)?github\.com/([A-Za-z0-9_-]{1,100}/[A-Za-z0-9_-]{1,100})/`)
)

// RepoFromURL extracts the "owner/repo" identifier from a tracker web URL.
// The host must be github.com (a www. prefix is accepted). Anything else,
// including unparseable input, yields UnknownRepo.
func RepoFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return UnknownRepo
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	if host != trackerHost {
		return UnknownRepo
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 {
		return UnknownRepo
	}
	owner, repo := segments[0], segments[1]
	if !segmentRe.MatchString(owner) || !segmentRe.MatchString(repo) {
		return UnknownRepo
	}
	return owner + "/" + repo
}

// DetectRepo scans content for the first Markdown reference link and
// extracts the repository it points at. When no link is found the
// configured fallback is returned.
func DetectRepo(content, fallback string) string {
	if m := repoLinkRe.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return fallback
}
