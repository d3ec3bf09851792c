// Package types contains shared data structures used across the review grouping system.
//
//nolint:revive // "types" is a standard Go package name for shared data structures
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pull request states as reported by the GitHub REST API.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// ReviewerKind tags a requested reviewer.
type ReviewerKind string

// Reviewer kinds. Only ReviewerUser participates in reviewer selection.
const (
	ReviewerUser ReviewerKind = "User"
	ReviewerTeam ReviewerKind = "Team"
	ReviewerBot  ReviewerKind = "Bot"
)

// Reviewer is a requested reviewer on a pull request.
type Reviewer struct {
	Login string // username, or team slug for ReviewerTeam
	Kind  ReviewerKind
}

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// String returns the owner/name form.
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository parses an "owner/name" string.
func ParseRepository(s string) (Repository, error) {
	if s == "" {
		return Repository{}, errors.New("repository is empty")
	}
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q (expected owner/name)", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// PullRequest is a snapshot of a GitHub pull request taken at the start of a run.
type PullRequest struct {
	CreatedAt          time.Time
	MergedAt           time.Time // zero if not merged
	Title              string
	State              string
	Author             string
	Labels             []string // label names in the order GitHub returns them
	RequestedReviewers []Reviewer
	Number             int
}

// IsOpen reports whether the pull request is open.
func (pr *PullRequest) IsOpen() bool {
	return pr.State == StateOpen
}

// IsMerged reports whether the pull request has been merged.
func (pr *PullRequest) IsMerged() bool {
	return !pr.MergedAt.IsZero()
}

// UserReviewers returns the logins of requested reviewers that are individual users,
// preserving their order.
func (pr *PullRequest) UserReviewers() []string {
	var users []string
	for _, r := range pr.RequestedReviewers {
		if r.Kind == ReviewerUser {
			users = append(users, r.Login)
		}
	}
	return users
}

// Comment is an issue or pull request comment.
type Comment struct {
	Body    string
	HTMLURL string
	ID      int64
}

// Issue is a GitHub issue.
type Issue struct {
	Title   string
	Body    string
	HTMLURL string
	Number  int
}
