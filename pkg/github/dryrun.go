package github

import (
	"context"
	"log/slog"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// DryRun wraps an API, passing reads through and logging writes instead of performing them.
type DryRun struct {
	API
}

// NewDryRun returns an API that never mutates the repository.
func NewDryRun(api API) *DryRun {
	return &DryRun{API: api}
}

// RequestReviewers logs the reviewers that would be requested.
func (*DryRun) RequestReviewers(ctx context.Context, repo types.Repository, number int, reviewers []string) error {
	slog.InfoContext(ctx, "Would request reviewers (dry-run)", "repo", repo.String(), "pr", number, "reviewers", reviewers)
	return nil
}

// CreateComment logs the comment that would be created.
func (*DryRun) CreateComment(ctx context.Context, repo types.Repository, number int, body string) (*types.Comment, error) {
	slog.InfoContext(ctx, "Would create comment (dry-run)", "repo", repo.String(), "number", number, "bytes", len(body))
	slog.DebugContext(ctx, "Comment body (dry-run)", "body", body)
	return &types.Comment{Body: body}, nil
}

// EditComment logs the comment that would be updated.
func (*DryRun) EditComment(ctx context.Context, repo types.Repository, id int64, body string) (*types.Comment, error) {
	slog.InfoContext(ctx, "Would update comment (dry-run)", "repo", repo.String(), "comment_id", id, "bytes", len(body))
	slog.DebugContext(ctx, "Comment body (dry-run)", "body", body)
	return &types.Comment{ID: id, Body: body}, nil
}

// CreateIssue logs the issue that would be created.
func (*DryRun) CreateIssue(ctx context.Context, repo types.Repository, title, body string, labels []string) (*types.Issue, error) {
	slog.InfoContext(ctx, "Would create issue (dry-run)", "repo", repo.String(), "title", title, "labels", labels)
	slog.DebugContext(ctx, "Issue body (dry-run)", "body", body)
	return &types.Issue{Title: title, Body: body}, nil
}

// EditIssue logs the issue that would be updated.
func (*DryRun) EditIssue(ctx context.Context, repo types.Repository, number int, title, body string) (*types.Issue, error) {
	slog.InfoContext(ctx, "Would update issue (dry-run)", "repo", repo.String(), "number", number, "title", title)
	slog.DebugContext(ctx, "Issue body (dry-run)", "body", body)
	return &types.Issue{Number: number, Title: title, Body: body}, nil
}
