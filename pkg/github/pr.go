package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v66/github"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// PR-related constants.
const (
	perPageLimit = 100 // GitHub API per_page limit
)

// PullRequests fetches every pull request in the repository, in all states, newest first.
func (c *Client) PullRequests(ctx context.Context, repo types.Repository) ([]*types.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPageLimit},
	}

	var all []*types.PullRequest
	for {
		slog.InfoContext(ctx, "Requesting page of pull requests", "component", "api", "repo", repo.String(), "page", max(opts.Page, 1))
		prs, resp, err := c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		for _, pr := range prs {
			all = append(all, convertPullRequest(pr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	slog.InfoContext(ctx, "Fetched pull requests", "component", "api", "repo", repo.String(), "count", len(all))
	return all, nil
}

// RequestReviewers requests reviews from the given users on a pull request.
func (c *Client) RequestReviewers(ctx context.Context, repo types.Repository, number int, reviewers []string) error {
	_, _, err := c.gh.PullRequests.RequestReviewers(ctx, repo.Owner, repo.Name, number, github.ReviewersRequest{
		Reviewers: reviewers,
	})
	if err != nil {
		return fmt.Errorf("failed to request reviewers on #%d: %w", number, err)
	}
	slog.InfoContext(ctx, "Requested reviewers", "component", "api", "repo", repo.String(), "pr", number, "reviewers", reviewers)
	return nil
}

// convertPullRequest resolves the API representation into the snapshot used by grouping.
// Labels without a name are malformed and dropped here so grouping only sees names.
func convertPullRequest(pr *github.PullRequest) *types.PullRequest {
	out := &types.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		Author:    pr.GetUser().GetLogin(),
		CreatedAt: pr.GetCreatedAt().Time,
		MergedAt:  pr.GetMergedAt().Time,
	}

	for _, label := range pr.Labels {
		if label.GetName() == "" {
			slog.Debug("Skipping malformed label", "pr", out.Number)
			continue
		}
		out.Labels = append(out.Labels, label.GetName())
	}

	for _, u := range pr.RequestedReviewers {
		if u.GetLogin() == "" {
			continue
		}
		// GitHub reports "User" or "Bot"; anything else never counts as a user reviewer.
		out.RequestedReviewers = append(out.RequestedReviewers, types.Reviewer{Login: u.GetLogin(), Kind: types.ReviewerKind(u.GetType())})
	}
	for _, t := range pr.RequestedTeams {
		if t.GetSlug() == "" {
			continue
		}
		out.RequestedReviewers = append(out.RequestedReviewers, types.Reviewer{Login: t.GetSlug(), Kind: types.ReviewerTeam})
	}

	return out
}
