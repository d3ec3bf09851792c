// Package github provides GitHub API client functionality.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// Client handles all GitHub API interactions.
type Client struct {
	gh *github.Client
}

// Config holds configuration for creating a new GitHub client.
type Config struct {
	Token       string // Personal access token or GITHUB_TOKEN (for non-app auth)
	AppID       string
	AppKeyPath  string
	AppKey      []byte // PEM private key content; takes precedence over AppKeyPath
	BaseURL     string // API base URL (empty = api.github.com)
	Repository  types.Repository
	HTTPTimeout time.Duration
	Retries     int // additional attempts for rate limited or 5xx responses
}

// UseAppAuth reports whether GitHub App authentication is configured.
func (c Config) UseAppAuth() bool {
	return c.AppID != ""
}

// New creates a new GitHub API client using a token or GitHub App authentication.
func New(ctx context.Context, cfg Config) (*Client, error) {
	base := newRetryTransport(http.DefaultTransport, cfg.Retries)

	var ts oauth2.TokenSource
	var err error
	if cfg.UseAppAuth() {
		ts, err = newAppTokenSource(ctx, cfg, base)
	} else {
		ts, err = newPersonalTokenSource(ctx, cfg.Token)
	}
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: &oauth2.Transport{Source: ts, Base: base},
	}
	gh, err := newGitHub(httpClient, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Client{gh: gh}, nil
}

// newGitHub creates a go-github client, pointing it at baseURL when one is given.
func newGitHub(httpClient *http.Client, baseURL string) (*github.Client, error) {
	gh := github.NewClient(httpClient)
	if baseURL == "" {
		return gh, nil
	}
	gh, err := gh.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	return gh, nil
}

// drainAndCloseBody drains and closes an HTTP response body to prevent resource leaks.
func drainAndCloseBody(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}
