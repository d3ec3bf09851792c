// Package upsert converges a single comment or issue toward new content, locating
// the record written by a previous run instead of creating a duplicate.
package upsert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// CommentStore is the subset of the GitHub API needed to upsert a comment.
type CommentStore interface {
	Comments(ctx context.Context, repo types.Repository, number int) ([]types.Comment, error)
	CreateComment(ctx context.Context, repo types.Repository, number int, body string) (*types.Comment, error)
	EditComment(ctx context.Context, repo types.Repository, id int64, body string) (*types.Comment, error)
}

// IssueStore is the subset of the GitHub API needed to upsert an issue.
type IssueStore interface {
	IssuesWithLabel(ctx context.Context, repo types.Repository, label string) ([]types.Issue, error)
	CreateIssue(ctx context.Context, repo types.Repository, title, body string, labels []string) (*types.Issue, error)
	EditIssue(ctx context.Context, repo types.Repository, number int, title, body string) (*types.Issue, error)
}

// Result describes what an upsert did.
type Result struct {
	URL     string
	ID      int64 // comment ID or issue number
	Created bool
}

// Comment writes body followed by marker to the most recent comment on number that
// already contains marker, or creates one if none does.
func Comment(ctx context.Context, store CommentStore, repo types.Repository, number int, body, marker string) (*Result, error) {
	content := body + "\n" + marker

	slog.InfoContext(ctx, "Finding managed comment", "component", "upsert", "number", number, "marker", marker)
	comments, err := store.Comments(ctx, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment on #%d: %w", number, err)
	}
	slog.DebugContext(ctx, "Scanned comments", "component", "upsert", "number", number, "count", len(comments))

	// Comments arrive newest first, so the first match is the authoritative one.
	for _, c := range comments {
		if !strings.Contains(c.Body, marker) {
			continue
		}
		slog.InfoContext(ctx, "Updating comment", "component", "upsert", "number", number, "url", c.HTMLURL)
		updated, err := store.EditComment(ctx, repo, c.ID, content)
		if err != nil {
			return nil, fmt.Errorf("failed to update comment on #%d: %w", number, err)
		}
		return &Result{ID: c.ID, URL: updated.HTMLURL}, nil
	}

	slog.InfoContext(ctx, "Creating comment", "component", "upsert", "number", number)
	created, err := store.CreateComment(ctx, repo, number, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment on #%d: %w", number, err)
	}
	slog.InfoContext(ctx, "Created comment", "component", "upsert", "number", number, "url", created.HTMLURL)
	return &Result{ID: created.ID, URL: created.HTMLURL, Created: true}, nil
}

// Issue replaces the title and body of the oldest open issue carrying label, or
// creates a new issue with that label if there is none. Newer duplicates are left alone.
func Issue(ctx context.Context, store IssueStore, repo types.Repository, label, title, body string) (*Result, error) {
	issues, err := store.IssuesWithLabel(ctx, repo, label)
	if err != nil {
		return nil, fmt.Errorf("failed to find issue labeled %q: %w", label, err)
	}

	if len(issues) > 0 {
		oldest := issues[0]
		if len(issues) > 1 {
			slog.WarnContext(ctx, "Multiple issues carry the dashboard label; updating the oldest",
				"component", "upsert", "label", label, "count", len(issues), "number", oldest.Number)
		}
		slog.InfoContext(ctx, "Updating issue", "component", "upsert", "number", oldest.Number)
		updated, err := store.EditIssue(ctx, repo, oldest.Number, title, body)
		if err != nil {
			return nil, fmt.Errorf("failed to update issue #%d: %w", oldest.Number, err)
		}
		return &Result{ID: int64(oldest.Number), URL: updated.HTMLURL}, nil
	}

	slog.InfoContext(ctx, "Creating issue", "component", "upsert", "label", label)
	created, err := store.CreateIssue(ctx, repo, title, body, []string{label})
	if err != nil {
		return nil, fmt.Errorf("failed to create issue labeled %q: %w", label, err)
	}
	slog.InfoContext(ctx, "Created issue", "component", "upsert", "number", created.Number, "url", created.HTMLURL)
	return &Result{ID: int64(created.Number), URL: created.HTMLURL, Created: true}, nil
}
