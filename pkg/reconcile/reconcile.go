// Package reconcile requests reviews so that every open pull request in a review
// group has at least the group's desired reviewers.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/group"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// Requester requests reviewers on a pull request.
type Requester interface {
	RequestReviewers(ctx context.Context, repo types.Repository, number int, reviewers []string) error
}

// Result counts the pull requests a reconciliation touched or skipped.
type Result struct {
	Requested int
	Skipped   int
}

// Reviewers walks groups in order and, for each open member whose user reviewers do not
// already include every desired reviewer, requests the full desired list.
// Reviewers are only ever added. The first failed request aborts the walk.
func Reviewers(ctx context.Context, requester Requester, repo types.Repository, groups []group.ReviewGroup) (Result, error) {
	var res Result
	for _, g := range groups {
		for _, pr := range g.Pulls {
			if !pr.IsOpen() {
				slog.DebugContext(ctx, "Pull request is not open, skipping", "component", "reconcile", "pr", pr.Number, "state", pr.State)
				continue
			}

			if AlreadyRequested(pr, g.Reviewers) {
				slog.InfoContext(ctx, "Reviewers already requested, skipping", "component", "reconcile", "pr", pr.Number, "reviewers", g.Reviewers)
				res.Skipped++
				continue
			}

			slog.InfoContext(ctx, "Requesting review", "component", "reconcile", "pr", pr.Number, "reviewers", g.Reviewers)
			if err := requester.RequestReviewers(ctx, repo, pr.Number, g.Reviewers); err != nil {
				return res, fmt.Errorf("failed to request reviewers on #%d: %w", pr.Number, err)
			}
			res.Requested++
		}
	}
	return res, nil
}

// AlreadyRequested reports whether every desired reviewer is among the pull request's
// requested user reviewers. Extra reviewers on the pull request do not matter.
func AlreadyRequested(pr *types.PullRequest, desired []string) bool {
	current := pr.UserReviewers()
	for _, r := range desired {
		if !slices.Contains(current, r) {
			return false
		}
	}
	return true
}
