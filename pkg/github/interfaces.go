package github

import (
	"context"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// API defines the GitHub operations needed to group pull requests and reconcile reviewers.
type API interface {
	// Pull request operations
	PullRequests(ctx context.Context, repo types.Repository) ([]*types.PullRequest, error)
	RequestReviewers(ctx context.Context, repo types.Repository, number int, reviewers []string) error

	// Comment operations (pull requests and issues share the issue comments API)
	Comments(ctx context.Context, repo types.Repository, number int) ([]types.Comment, error)
	CreateComment(ctx context.Context, repo types.Repository, number int, body string) (*types.Comment, error)
	EditComment(ctx context.Context, repo types.Repository, id int64, body string) (*types.Comment, error)

	// Issue operations
	IssuesWithLabel(ctx context.Context, repo types.Repository, label string) ([]types.Issue, error)
	CreateIssue(ctx context.Context, repo types.Repository, title, body string, labels []string) (*types.Issue, error)
	EditIssue(ctx context.Context, repo types.Repository, number int, title, body string) (*types.Issue, error)
}

var (
	_ API = (*Client)(nil)
	_ API = (*DryRun)(nil)
)
