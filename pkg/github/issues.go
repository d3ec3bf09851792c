package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v66/github"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// Comments returns every comment on an issue or pull request, most recently created first.
func (c *Client) Comments(ctx context.Context, repo types.Repository, number int) ([]types.Comment, error) {
	opts := &github.IssueListCommentsOptions{
		Sort:        github.String("created"),
		Direction:   github.String("desc"),
		ListOptions: github.ListOptions{PerPage: perPageLimit},
	}

	var all []types.Comment
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments on #%d: %w", number, err)
		}
		for _, comment := range comments {
			all = append(all, convertComment(comment))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	slog.DebugContext(ctx, "Fetched comments", "component", "api", "repo", repo.String(), "number", number, "count", len(all))
	return all, nil
}

// CreateComment creates a comment on an issue or pull request.
func (c *Client) CreateComment(ctx context.Context, repo types.Repository, number int, body string) (*types.Comment, error) {
	created, _, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comment on #%d: %w", number, err)
	}
	comment := convertComment(created)
	return &comment, nil
}

// EditComment replaces the body of an existing comment.
func (c *Client) EditComment(ctx context.Context, repo types.Repository, id int64, body string) (*types.Comment, error) {
	updated, _, err := c.gh.Issues.EditComment(ctx, repo.Owner, repo.Name, id, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update comment %d: %w", id, err)
	}
	comment := convertComment(updated)
	return &comment, nil
}

// IssuesWithLabel returns open issues carrying label, oldest first.
// Pull requests returned by the issues endpoint are skipped.
func (c *Client) IssuesWithLabel(ctx context.Context, repo types.Repository, label string) ([]types.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		Labels:      []string{label},
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: perPageLimit},
	}

	var all []types.Issue
	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues with label %q: %w", label, err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			all = append(all, convertIssue(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, repo types.Repository, title, body string, labels []string) (*types.Issue, error) {
	created, _, err := c.gh.Issues.Create(ctx, repo.Owner, repo.Name, &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	issue := convertIssue(created)
	return &issue, nil
}

// EditIssue replaces the title and body of an existing issue.
func (c *Client) EditIssue(ctx context.Context, repo types.Repository, number int, title, body string) (*types.Issue, error) {
	updated, _, err := c.gh.Issues.Edit(ctx, repo.Owner, repo.Name, number, &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update issue #%d: %w", number, err)
	}
	issue := convertIssue(updated)
	return &issue, nil
}

func convertComment(c *github.IssueComment) types.Comment {
	return types.Comment{
		ID:      c.GetID(),
		Body:    c.GetBody(),
		HTMLURL: c.GetHTMLURL(),
	}
}

func convertIssue(i *github.Issue) types.Issue {
	return types.Issue{
		Number:  i.GetNumber(),
		Title:   i.GetTitle(),
		Body:    i.GetBody(),
		HTMLURL: i.GetHTMLURL(),
	}
}
