// Package main implements a CLI that groups related pull requests by label, publishes a
// review dashboard issue and requests the group's reviewers on every open member.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gh "github.com/google/go-github/v66/github"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/config"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/github"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/runner"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type options struct {
	configPath     string
	labelPrefix    string
	repository     string
	dashboardLabel string
	dashboardTitle string
	apiURL         string
	appID          string
	appKeyPath     string
	logFormat      string
	httpTimeout    time.Duration
	retries        int
	dryRun         bool
	commentPulls   bool
	verbose        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&options{})
}

// buildRootCmd binds the command's flags to opts.
func buildRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group-reviewers",
		Short: "Keep reviewers consistent across pull requests that share a label",
		Long: `group-reviewers groups a repository's pull requests by their labels under a prefix.
It publishes a dashboard issue listing every group and its reviewers, and requests
the group's reviewers on each open pull request that does not have them yet.
The reviewers of the oldest pull request in a group with requested reviewers win.`,
		Version:       fmt.Sprintf("%s (built: %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd.ErrOrStderr(), opts)
			cfg, err := resolveConfig(cmd, opts, os.Getenv)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	f.StringVar(&opts.labelPrefix, "label-prefix", "", "Only labels starting with this prefix form groups (env INPUT_LABEL-PREFIX)")
	f.StringVar(&opts.repository, "repo", "", "Repository as owner/name (env GITHUB_REPOSITORY)")
	f.StringVar(&opts.dashboardLabel, "dashboard-label", config.DefaultDashboardLabel, "Label identifying the dashboard issue")
	f.StringVar(&opts.dashboardTitle, "dashboard-title", config.DefaultDashboardTitle, "Title of the dashboard issue")
	f.StringVar(&opts.apiURL, "api-url", "", "GitHub API base URL for GitHub Enterprise (env GITHUB_API_URL)")
	f.StringVar(&opts.appID, "app-id", "", "GitHub App ID for authentication (env GITHUB_APP_ID)")
	f.StringVar(&opts.appKeyPath, "app-key-path", "", "Path to GitHub App private key file (env GITHUB_APP_KEY_PATH)")
	f.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	f.DurationVar(&opts.httpTimeout, "http-timeout", 30*time.Second, "Timeout for each GitHub API request")
	f.IntVar(&opts.retries, "retries", 0, "Retry rate limited and 5xx responses this many times (0 disables)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Log writes instead of performing them")
	f.BoolVar(&opts.commentPulls, "comment-pulls", false, "Also keep a group comment on each open pull request")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output with detailed diagnostics")

	return cmd
}

// setupLogging installs the default logger. Every record carries the run ID.
func setupLogging(w io.Writer, opts *options) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(opts.logFormat, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	slog.SetDefault(slog.New(handler).With("run_id", uuid.NewString()))
}

// resolveConfig layers defaults, the config file, the environment and explicitly set flags.
func resolveConfig(cmd *cobra.Command, opts *options, getenv func(string) string) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(getenv)

	f := cmd.Flags()
	if f.Changed("label-prefix") {
		cfg.LabelPrefix = opts.labelPrefix
	}
	if f.Changed("repo") {
		cfg.Repository = opts.repository
	}
	if f.Changed("dashboard-label") {
		cfg.Dashboard.Label = opts.dashboardLabel
	}
	if f.Changed("dashboard-title") {
		cfg.Dashboard.Title = opts.dashboardTitle
	}
	if f.Changed("api-url") {
		cfg.APIURL = opts.apiURL
	}
	if f.Changed("app-id") {
		cfg.AppID = opts.appID
	}
	if f.Changed("app-key-path") {
		cfg.AppKeyPath = opts.appKeyPath
	}
	if f.Changed("http-timeout") {
		cfg.HTTPTimeout = opts.httpTimeout
	}
	if f.Changed("retries") {
		cfg.Retries = opts.retries
	}
	if f.Changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}
	if f.Changed("comment-pulls") {
		cfg.CommentPulls = opts.commentPulls
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	repo, err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := github.New(ctx, cfg.GitHub(repo))
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	var api github.API = client
	if cfg.DryRun {
		slog.Info("Dry-run mode: no comments, issues or review requests will be written")
		api = github.NewDryRun(client)
	}

	r, err := runner.New(api, runner.Options{
		Repository:     repo,
		LabelPrefix:    cfg.LabelPrefix,
		DashboardLabel: cfg.Dashboard.Label,
		DashboardTitle: cfg.Dashboard.Title,
		Marker:         config.Marker,
		CommentPulls:   cfg.CommentPulls,
	})
	if err != nil {
		return err
	}

	slog.Info("Starting run", "repo", repo.String(), "label_prefix", cfg.LabelPrefix, "dry_run", cfg.DryRun, "comment_pulls", cfg.CommentPulls)
	sum, err := r.Run(ctx)
	if sum != nil {
		slog.Info("Run summary",
			"pull_requests", sum.PullRequests,
			"groups", sum.Groups,
			"review_groups", sum.ReviewGroups,
			"comments_written", sum.CommentsWritten,
			"reviews_requested", sum.ReviewsRequested,
			"reviews_skipped", sum.ReviewsSkipped,
			"dashboard", sum.DashboardURL,
			"duration", sum.Duration)
	}
	return err
}

// reportError logs err with any structured detail the GitHub API returned.
func reportError(err error) {
	attrs := []any{"error", err}

	var rateErr *gh.RateLimitError
	var apiErr *gh.ErrorResponse
	switch {
	case errors.As(err, &rateErr):
		attrs = append(attrs, "rate_limit", rateErr.Rate.Limit, "rate_reset", rateErr.Rate.Reset.Time.Format(time.RFC3339))
	case errors.As(err, &apiErr):
		if apiErr.Response != nil {
			attrs = append(attrs, "status", apiErr.Response.StatusCode)
		}
		attrs = append(attrs, "api_message", apiErr.Message)
		if apiErr.DocumentationURL != "" {
			attrs = append(attrs, "documentation_url", apiErr.DocumentationURL)
		}
	}

	if errors.Is(err, config.ErrMissingPrefix) {
		attrs = append(attrs, "hint", "set --label-prefix or the label-prefix action input")
	}
	if errors.Is(err, config.ErrMissingRepository) {
		attrs = append(attrs, "hint", "set --repo or GITHUB_REPOSITORY")
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn("Run interrupted", attrs...)
		return
	}
	slog.Error("Run failed", attrs...)
}
