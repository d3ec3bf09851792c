package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

var (
	testToken = "ghp_" + strings.Repeat("a", 36)
	testRepo  = types.Repository{Owner: "o", Name: "r"}
)

// newTestClient starts a server for mux and returns a token-authenticated client pointed at it.
// go-github treats the base URL as GitHub Enterprise, so routes live under /api/v3/.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c, err := New(context.Background(), Config{
		Token:       testToken,
		BaseURL:     server.URL + "/",
		HTTPTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestNew_InvalidToken(t *testing.T) {
	_, err := New(context.Background(), Config{Token: "not-a-token-but-long-enough-to-pass-length-checks"})
	if err == nil {
		t.Fatal("expected error for invalid token")
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(context.Background(), Config{Token: testToken, BaseURL: "://bad"})
	if err == nil {
		t.Fatal("expected error for invalid API URL")
	}
	if !strings.Contains(err.Error(), "invalid API URL") {
		t.Errorf("error = %v, want invalid API URL", err)
	}
}

func TestConfig_UseAppAuth(t *testing.T) {
	if (Config{Token: testToken}).UseAppAuth() {
		t.Error("token config should not use app auth")
	}
	if !(Config{AppID: "123"}).UseAppAuth() {
		t.Error("config with AppID should use app auth")
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, []any{})
	})
	c := newTestClient(t, mux)

	if _, err := c.PullRequests(context.Background(), testRepo); err != nil {
		t.Fatalf("PullRequests() unexpected error: %v", err)
	}
	if gotAuth != "Bearer "+testToken {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestClient_PullRequests_Paginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != "all" || q.Get("sort") != "created" || q.Get("direction") != "desc" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("per_page") != "100" {
			t.Errorf("per_page = %q, want 100", q.Get("per_page"))
		}
		switch q.Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/api/v3/repos/o/r/pulls?page=2>; rel="next"`, r.Host))
			writeJSON(t, w, []map[string]any{{"number": 3, "state": "open"}, {"number": 2, "state": "closed"}})
		case "2":
			writeJSON(t, w, []map[string]any{{"number": 1, "state": "closed"}})
		default:
			t.Errorf("unexpected page %q", q.Get("page"))
		}
	})
	c := newTestClient(t, mux)

	prs, err := c.PullRequests(context.Background(), testRepo)
	if err != nil {
		t.Fatalf("PullRequests() unexpected error: %v", err)
	}
	var got []int
	for _, pr := range prs {
		got = append(got, pr.Number)
	}
	if fmt.Sprint(got) != "[3 2 1]" {
		t.Errorf("numbers = %v, want [3 2 1]", got)
	}
}

func TestClient_PullRequests_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/o/r/pulls", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(t, w, map[string]string{"message": "Not Found"})
	})
	c := newTestClient(t, mux)

	_, err := c.PullRequests(context.Background(), testRepo)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *github.ErrorResponse
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *github.ErrorResponse in chain, got %T: %v", err, err)
	}
	if apiErr.Response.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.Response.StatusCode)
	}
}

func TestClient_RequestReviewers(t *testing.T) {
	var body struct {
		Reviewers []string `json:"reviewers"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/repos/o/r/pulls/7/requested_reviewers", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"number": 7})
	})
	c := newTestClient(t, mux)

	if err := c.RequestReviewers(context.Background(), testRepo, 7, []string{"alice", "bob"}); err != nil {
		t.Fatalf("RequestReviewers() unexpected error: %v", err)
	}
	if strings.Join(body.Reviewers, ",") != "alice,bob" {
		t.Errorf("reviewers = %v, want [alice bob]", body.Reviewers)
	}
}

func TestClient_RequestReviewers_Unprocessable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/repos/o/r/pulls/7/requested_reviewers", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(t, w, map[string]string{"message": "Reviews may only be requested from collaborators."})
	})
	c := newTestClient(t, mux)

	err := c.RequestReviewers(context.Background(), testRepo, 7, []string{"outsider"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "#7") {
		t.Errorf("error should name the pull request: %v", err)
	}
}

func TestConvertPullRequest(t *testing.T) {
	merged := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	pr := &github.PullRequest{
		Number:   github.Int(5),
		Title:    github.String("Add feature"),
		State:    github.String("closed"),
		User:     &github.User{Login: github.String("author")},
		MergedAt: &github.Timestamp{Time: merged},
		Labels: []*github.Label{
			{Name: github.String("feature-x")},
			{},
			{Name: github.String("bug")},
		},
		RequestedReviewers: []*github.User{
			{Login: github.String("alice"), Type: github.String("User")},
			{Login: github.String("dependabot"), Type: github.String("Bot")},
			{},
		},
		RequestedTeams: []*github.Team{
			{Slug: github.String("core")},
		},
	}

	got := convertPullRequest(pr)

	if got.Number != 5 || got.Title != "Add feature" || got.State != "closed" || got.Author != "author" {
		t.Errorf("unexpected scalar fields: %+v", got)
	}
	if !got.MergedAt.Equal(merged) {
		t.Errorf("MergedAt = %v, want %v", got.MergedAt, merged)
	}
	if strings.Join(got.Labels, ",") != "feature-x,bug" {
		t.Errorf("Labels = %v, want [feature-x bug]", got.Labels)
	}
	want := []types.Reviewer{
		{Login: "alice", Kind: types.ReviewerUser},
		{Login: "dependabot", Kind: types.ReviewerBot},
		{Login: "core", Kind: types.ReviewerTeam},
	}
	if len(got.RequestedReviewers) != len(want) {
		t.Fatalf("RequestedReviewers = %+v, want %+v", got.RequestedReviewers, want)
	}
	for i := range want {
		if got.RequestedReviewers[i] != want[i] {
			t.Errorf("RequestedReviewers[%d] = %+v, want %+v", i, got.RequestedReviewers[i], want[i])
		}
	}
	if users := got.UserReviewers(); len(users) != 1 || users[0] != "alice" {
		t.Errorf("UserReviewers() = %v, want [alice]", users)
	}
}

func TestConvertPullRequest_Unmerged(t *testing.T) {
	got := convertPullRequest(&github.PullRequest{Number: github.Int(1), State: github.String("open")})
	if !got.MergedAt.IsZero() {
		t.Errorf("MergedAt = %v, want zero", got.MergedAt)
	}
	if got.IsMerged() {
		t.Error("unmerged pull request reported as merged")
	}
}

func TestDrainAndCloseBody(t *testing.T) {
	// Test that drainAndCloseBody doesn't panic
	resp := &http.Response{
		Body: http.NoBody,
	}

	drainAndCloseBody(resp.Body)
}

type errorReader struct{}

func (*errorReader) Read([]byte) (int, error) {
	return 0, errors.New("read error")
}

func (*errorReader) Close() error {
	return nil
}

type errorCloser struct {
	reader io.Reader
}

func (e *errorCloser) Read(p []byte) (int, error) {
	return e.reader.Read(p)
}

func (*errorCloser) Close() error {
	return errors.New("close error")
}

func TestDrainAndCloseBody_ReadError(t *testing.T) {
	// Should not panic even with read error
	drainAndCloseBody(&errorReader{})
}

func TestDrainAndCloseBody_CloseError(t *testing.T) {
	// Should not panic even with close error
	drainAndCloseBody(&errorCloser{reader: strings.NewReader("test")})
}
