// Package runner performs one pass of grouping, dashboard publishing and reviewer
// reconciliation for a repository.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/format"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/github"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/group"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/reconcile"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/upsert"
)

// Options configures a Runner.
type Options struct {
	Repository     types.Repository
	LabelPrefix    string
	DashboardLabel string
	DashboardTitle string
	Marker         string
	CommentPulls   bool
}

// Summary reports what a run did.
type Summary struct {
	DashboardURL     string
	Duration         time.Duration
	PullRequests     int
	Groups           int
	ReviewGroups     int
	CommentsWritten  int
	ReviewsRequested int
	ReviewsSkipped   int
}

// Runner runs the grouping pipeline against one repository.
type Runner struct {
	api  github.API
	opts Options
}

// New creates a Runner.
func New(api github.API, opts Options) (*Runner, error) {
	if api == nil {
		return nil, errors.New("github API is required")
	}
	if opts.LabelPrefix == "" {
		return nil, errors.New("label prefix is required")
	}
	if opts.Repository.Owner == "" || opts.Repository.Name == "" {
		return nil, errors.New("repository is required")
	}
	if opts.DashboardLabel == "" || opts.DashboardTitle == "" || opts.Marker == "" {
		return nil, errors.New("dashboard label, title and comment marker are required")
	}
	return &Runner{api: api, opts: opts}, nil
}

// Run fetches pull requests, publishes the dashboard, optionally comments on open group
// members, then requests missing reviewers. The first API failure aborts the run and
// leaves earlier writes in place.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	repo := r.opts.Repository
	sum := &Summary{}

	pulls, err := r.api.PullRequests(ctx, repo)
	if err != nil {
		return sum, fmt.Errorf("fetching pull requests: %w", err)
	}
	// GitHub lists newest first; grouping relies on oldest-first order.
	slices.Reverse(pulls)
	sum.PullRequests = len(pulls)
	slog.InfoContext(ctx, "Found pull requests", "component", "runner", "repo", repo.String(), "count", len(pulls))

	groups := group.Compute(pulls, r.opts.LabelPrefix)
	reviewGroups := group.Resolve(groups)
	sum.Groups = len(groups)
	sum.ReviewGroups = len(reviewGroups)
	for _, g := range groups {
		slog.DebugContext(ctx, "Computed group", "component", "runner", "labels", g.Labels, "pulls", g.Numbers(),
			"has_open", g.HasOpen(), "reviewers", g.OldestReviewers())
	}
	for _, g := range reviewGroups {
		slog.InfoContext(ctx, "Review group", "component", "runner", "labels", g.Labels, "pulls", g.Numbers(), "reviewers", g.Reviewers)
	}

	slog.InfoContext(ctx, "Writing dashboard", "component", "runner", "label", r.opts.DashboardLabel)
	dash, err := upsert.Issue(ctx, r.api, repo, r.opts.DashboardLabel, r.opts.DashboardTitle, format.Dashboard(reviewGroups))
	if err != nil {
		return sum, fmt.Errorf("writing dashboard: %w", err)
	}
	sum.DashboardURL = dash.URL

	if r.opts.CommentPulls {
		n, err := r.commentPulls(ctx, reviewGroups)
		sum.CommentsWritten = n
		if err != nil {
			return sum, fmt.Errorf("writing pull request comments: %w", err)
		}
	}

	slog.InfoContext(ctx, "Reconciling reviewers", "component", "runner")
	res, err := reconcile.Reviewers(ctx, r.api, repo, reviewGroups)
	sum.ReviewsRequested = res.Requested
	sum.ReviewsSkipped = res.Skipped
	if err != nil {
		return sum, fmt.Errorf("reconciling reviewers: %w", err)
	}

	sum.Duration = time.Since(start)
	return sum, nil
}

// commentPulls upserts the group comment on every open member of every review group.
func (r *Runner) commentPulls(ctx context.Context, groups []group.ReviewGroup) (int, error) {
	written := 0
	for _, g := range groups {
		body := format.Comment(g)
		for _, pr := range g.Pulls {
			if !pr.IsOpen() {
				continue
			}
			if _, err := upsert.Comment(ctx, r.api, r.opts.Repository, pr.Number, body, r.opts.Marker); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}
