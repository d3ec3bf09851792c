// Package config loads run settings from a YAML file and the environment.
// Flags are applied on top by the command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/github"
	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// Persisted-state identifiers. Changing them orphans records written by earlier runs.
const (
	Marker                = "<!-- assign-pull-request-reviewers-action -->"
	DefaultDashboardLabel = "pull-request-review-dashboard"
	DefaultDashboardTitle = "Pull Request Review Dashboard"
)

const defaultHTTPTimeout = 30 * time.Second

// Validation errors.
var (
	ErrMissingPrefix     = errors.New("label prefix is required")
	ErrMissingRepository = errors.New("repository is required (owner/name)")
)

// Dashboard configures the dashboard issue.
type Dashboard struct {
	Label string `yaml:"label"`
	Title string `yaml:"title"`
}

// Config holds everything a run needs.
type Config struct {
	Dashboard    Dashboard     `yaml:"dashboard"`
	LabelPrefix  string        `yaml:"label_prefix"`
	Repository   string        `yaml:"repository"`
	APIURL       string        `yaml:"api_url"`
	Token        string        `yaml:"-"`
	AppID        string        `yaml:"-"`
	AppKey       string        `yaml:"-"`
	AppKeyPath   string        `yaml:"-"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	Retries      int           `yaml:"retries"`
	CommentPulls bool          `yaml:"comment_pulls"`
	DryRun       bool          `yaml:"dry_run"`
}

// Default returns a Config with defaults filled in.
func Default() *Config {
	return &Config{
		Dashboard: Dashboard{
			Label: DefaultDashboardLabel,
			Title: DefaultDashboardTitle,
		},
		HTTPTimeout: defaultHTTPTimeout,
	}
}

// LoadFile reads a YAML config file over the defaults. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	// GitHub Actions exposes action inputs as INPUT_<NAME>, keeping the hyphen.
	set(&c.LabelPrefix, "INPUT_LABEL-PREFIX")
	set(&c.Repository, "GITHUB_REPOSITORY")
	set(&c.Token, "INPUT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN")
	set(&c.APIURL, "GITHUB_API_URL")
	set(&c.AppID, "GITHUB_APP_ID")
	set(&c.AppKeyPath, "GITHUB_APP_KEY_PATH")
	// Key content is PEM; keep its newlines intact.
	if v := getenv("GITHUB_APP_KEY"); v != "" {
		c.AppKey = v
	}
}

// Validate checks required fields and returns the parsed repository.
func (c *Config) Validate() (types.Repository, error) {
	if c.LabelPrefix == "" {
		return types.Repository{}, ErrMissingPrefix
	}
	if c.Repository == "" {
		return types.Repository{}, ErrMissingRepository
	}
	repo, err := types.ParseRepository(c.Repository)
	if err != nil {
		return types.Repository{}, err
	}
	if c.Dashboard.Label == "" || c.Dashboard.Title == "" {
		return types.Repository{}, errors.New("dashboard label and title must not be empty")
	}
	if c.Retries < 0 {
		return types.Repository{}, fmt.Errorf("retries must not be negative: %d", c.Retries)
	}
	return repo, nil
}

// GitHub returns the client configuration for repo.
func (c *Config) GitHub(repo types.Repository) github.Config {
	return github.Config{
		Token:       c.Token,
		AppID:       c.AppID,
		AppKey:      []byte(c.AppKey),
		AppKeyPath:  c.AppKeyPath,
		BaseURL:     c.APIURL,
		Repository:  repo,
		HTTPTimeout: c.HTTPTimeout,
		Retries:     c.Retries,
	}
}
