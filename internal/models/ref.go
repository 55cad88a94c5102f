// Package models defines the domain types for Daybook.
package models

import "strings"

// RefKind distinguishes issues from pull requests.
type RefKind string

const (
	KindIssue RefKind = "issue"
	KindPR    RefKind = "pr"
)

// Actor is a GitHub account as returned by the gh CLI.
type Actor struct {
	Login string `json:"login"`
}

// Reference is a single issue or pull request record fetched from the
// tracker. The URL is the source of truth for repository identity; the
// repository segment printed in front of a reference is always re-derived
// from it, never taken from caller context.
type Reference struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	State     string  `json:"state"`
	CreatedAt string  `json:"createdAt,omitempty"`
	MergedAt  string  `json:"mergedAt,omitempty"`
	Author    Actor   `json:"author,omitempty"`
	Assignees []Actor `json:"assignees,omitempty"`
}

// Closed reports whether the reference is in closed state. The gh CLI
// reports state in varying case ("CLOSED", "closed") depending on the
// endpoint, so the compare is case-insensitive.
func (r Reference) Closed() bool {
	return strings.EqualFold(r.State, "closed")
}
