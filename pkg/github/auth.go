package github

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Authentication constants.
const (
	maxTokenLength     = 100 // Maximum expected length for GitHub tokens
	minTokenLength     = 40  // Minimum expected length for GitHub tokens
	classicTokenLength = 40  // Length of classic GitHub tokens
	maxAppID           = 999999999
	filePermReadOnly   = 0o400 // Read-only file permissions
	filePermOwnerRW    = 0o600 // Owner read-write file permissions

	jwtLifetime        = 10 * time.Minute // GitHub Apps JWTs expire after 10 minutes max
	installationMargin = 5 * time.Minute  // refresh installation tokens this long before expiry
)

// newPersonalTokenSource returns a static token source for a personal access or workflow token.
func newPersonalTokenSource(ctx context.Context, token string) (oauth2.TokenSource, error) {
	// If no token provided, get it from gh CLI
	if token == "" {
		cmd := exec.CommandContext(ctx, "gh", "auth", "token")
		output, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("failed to get GitHub token: %w", err)
		}
		token = strings.TrimSpace(string(output))
	}

	if err := validateToken(token); err != nil {
		return nil, err
	}

	slog.Info("[AUTH] Using token authentication")
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
}

// validateToken validates a GitHub personal access token.
func validateToken(token string) error {
	if token == "" {
		return errors.New("no GitHub token found")
	}
	if len(token) > maxTokenLength || len(token) < minTokenLength {
		return errors.New("invalid token length")
	}

	// Validate token format - GitHub tokens have specific prefixes
	validPrefixes := []string{"ghp_", "gho_", "ghu_", "ghs_", "ghr_", "github_pat_"}
	for _, prefix := range validPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}

	// Could be a classic token (40 hex chars)
	if len(token) != classicTokenLength {
		return errors.New("invalid token format")
	}
	for _, r := range token {
		if (r < 'a' || r > 'f') && (r < '0' || r > '9') {
			return errors.New("invalid classic token format")
		}
	}

	return nil
}

// validateAppID validates a GitHub App ID.
func validateAppID(appID string) error {
	if appID == "" {
		return errors.New("GitHub App ID is required")
	}
	id, err := strconv.Atoi(appID)
	if err != nil || id <= 0 || id > maxAppID {
		return fmt.Errorf("invalid GitHub App ID: %q", appID)
	}
	return nil
}

// loadPrivateKey loads the App private key from content or from a file path.
func loadPrivateKey(privateKeyContent []byte, keyPath string) ([]byte, error) {
	var privateKey []byte
	var err error

	switch {
	case len(privateKeyContent) > 0:
		privateKey = privateKeyContent
	case keyPath != "":
		privateKey, err = readPrivateKeyFile(keyPath)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("no private key provided (neither content nor path)")
	}

	// Validate it looks like a PEM private key
	if !bytes.Contains(privateKey, []byte("BEGIN RSA PRIVATE KEY")) &&
		!bytes.Contains(privateKey, []byte("BEGIN PRIVATE KEY")) {
		return nil, errors.New("private key does not appear to be a valid PEM private key")
	}

	return privateKey, nil
}

// readPrivateKeyFile reads and validates a private key file.
func readPrivateKeyFile(keyPath string) ([]byte, error) {
	// Validate and clean the private key path to prevent path traversal
	cleanPath := filepath.Clean(keyPath)
	if !filepath.IsAbs(cleanPath) {
		return nil, errors.New("GITHUB_APP_KEY_PATH must be an absolute path")
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access private key file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, errors.New("GITHUB_APP_KEY_PATH must be a file, not a directory")
	}

	// Check file permissions - must be exactly 0600 or 0400
	perm := fileInfo.Mode().Perm()
	if perm != filePermOwnerRW && perm != filePermReadOnly {
		return nil, fmt.Errorf("private key file has insecure permissions %04o (must be 0600 or 0400)", perm)
	}

	return os.ReadFile(cleanPath)
}

// parsePrivateKey parses a PKCS1 or PKCS8 RSA private key.
func parsePrivateKey(privateKey []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(privateKey)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the private key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err == nil {
		return key, nil
	}
	// Try PKCS8 format if PKCS1 fails
	parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	rsaKey, ok := parsedKey.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rsaKey, nil
}

// generateJWT generates a JWT token for GitHub App authentication.
func generateJWT(appID string, key *rsa.PrivateKey, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iat": now.Add(-time.Minute).Unix(), // allow for clock drift
		"exp": now.Add(jwtLifetime - time.Minute).Unix(),
		"iss": appID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(key)
}

// appTokenSource mints installation access tokens for the App installation on one repository.
type appTokenSource struct {
	ctx            context.Context //nolint:containedctx // oauth2.TokenSource has no context parameter
	key            *rsa.PrivateKey
	httpClient     *http.Client
	appID          string
	baseURL        string
	owner          string
	repo           string
	installationID int64
	mu             sync.Mutex
}

// newAppTokenSource validates App credentials and returns a caching installation token source.
func newAppTokenSource(ctx context.Context, cfg Config, base http.RoundTripper) (oauth2.TokenSource, error) {
	if err := validateAppID(cfg.AppID); err != nil {
		return nil, err
	}
	if cfg.Repository.Owner == "" || cfg.Repository.Name == "" {
		return nil, errors.New("repository is required for GitHub App authentication")
	}

	pemBytes, err := loadPrivateKey(cfg.AppKey, cfg.AppKeyPath)
	if err != nil {
		return nil, err
	}
	key, err := parsePrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}

	slog.Info("[AUTH] Using GitHub App authentication", "app_id", cfg.AppID, "repo", cfg.Repository.String())
	src := &appTokenSource{
		ctx:        ctx,
		key:        key,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout, Transport: base},
		appID:      cfg.AppID,
		baseURL:    cfg.BaseURL,
		owner:      cfg.Repository.Owner,
		repo:       cfg.Repository.Name,
	}
	return oauth2.ReuseTokenSource(nil, src), nil
}

// Token implements oauth2.TokenSource.
func (s *appTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	signed, err := generateJWT(s.appID, s.key, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}
	gh, err := newGitHub(s.httpClient, s.baseURL)
	if err != nil {
		return nil, err
	}
	gh = gh.WithAuthToken(signed)

	if s.installationID == 0 {
		inst, _, err := gh.Apps.FindRepositoryInstallation(s.ctx, s.owner, s.repo)
		if err != nil {
			return nil, fmt.Errorf("no installation found for %s/%s (is the app installed?): %w", s.owner, s.repo, err)
		}
		s.installationID = inst.GetID()
		slog.Info("[APP] Found installation", "repo", s.owner+"/"+s.repo, "installation_id", s.installationID)
	}

	tok, _, err := gh.Apps.CreateInstallationToken(s.ctx, s.installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token: %w", err)
	}
	if tok.GetToken() == "" {
		return nil, errors.New("received empty installation token")
	}

	expiry := tok.GetExpiresAt().Time
	slog.Info("[AUTH] Created installation access token", "installation_id", s.installationID, "expires_at", expiry.Format(time.RFC3339))
	return &oauth2.Token{
		AccessToken: tok.GetToken(),
		Expiry:      expiry.Add(-installationMargin),
	}, nil
}
