// Package testutil provides mock implementations and testing utilities for the group-reviewers project.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// MockGitHubClient implements the github.API interface against an in-memory repository.
// It's a smart, programmable mock that allows configuring responses and errors.
type MockGitHubClient struct {
	errors                map[string]error
	comments              map[int][]types.Comment // oldest first
	pulls                 []*types.PullRequest    // newest first, as GitHub returns them
	issues                []mockIssue             // creation order
	requestReviewersCalls []RequestReviewersCall
	writes                []string
	nextCommentID         int64
	nextIssueNumber       int
	mu                    sync.RWMutex
}

type mockIssue struct {
	labels []string
	issue  types.Issue
	closed bool
}

// RequestReviewersCall records a call to RequestReviewers.
type RequestReviewersCall struct {
	Reviewers []string
	Number    int
}

// NewMockGitHubClient creates a new MockGitHubClient.
func NewMockGitHubClient() *MockGitHubClient {
	return &MockGitHubClient{
		errors:          make(map[string]error),
		comments:        make(map[int][]types.Comment),
		nextCommentID:   1000,
		nextIssueNumber: 500,
	}
}

// SetPullRequests configures the pull requests returned by PullRequests, newest first.
func (m *MockGitHubClient) SetPullRequests(pulls ...*types.PullRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulls = pulls
}

// SetError configures an error for an operation. Key format is "Method:arg", e.g.
// "CreateComment:12", "RequestReviewers:3", "PullRequests", "IssuesWithLabel:dashboard".
func (m *MockGitHubClient) SetError(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key] = err
}

// AddComment seeds an existing comment, as if created before the current run.
func (m *MockGitHubClient) AddComment(number int, body string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addComment(number, body).ID
}

// AddIssue seeds an existing issue with labels.
func (m *MockGitHubClient) AddIssue(title, body string, labels ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addIssue(title, body, labels).Number
}

// CloseIssue marks a seeded issue closed so label listings no longer return it.
func (m *MockGitHubClient) CloseIssue(number int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.issues {
		if m.issues[i].issue.Number == number {
			m.issues[i].closed = true
		}
	}
}

// CommentsOn returns the stored comments for a number, oldest first.
func (m *MockGitHubClient) CommentsOn(number int) []types.Comment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.comments[number])
}

// Issue returns a stored issue by number.
func (m *MockGitHubClient) Issue(number int) (types.Issue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mi := range m.issues {
		if mi.issue.Number == number {
			return mi.issue, true
		}
	}
	return types.Issue{}, false
}

// IssueCount returns the number of stored issues.
func (m *MockGitHubClient) IssueCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.issues)
}

// RequestReviewersCalls returns all recorded RequestReviewers calls.
func (m *MockGitHubClient) RequestReviewersCalls() []RequestReviewersCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.requestReviewersCalls)
}

// Writes returns every mutating call in order, e.g. "EditIssue:501" or "CreateComment:12".
func (m *MockGitHubClient) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.writes)
}

// PullRequests returns the configured pull requests.
func (m *MockGitHubClient) PullRequests(_ context.Context, _ types.Repository) ([]*types.PullRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errors["PullRequests"]; err != nil {
		return nil, err
	}
	return slices.Clone(m.pulls), nil
}

// RequestReviewers records the call and adds the users to the pull request's reviewers.
func (m *MockGitHubClient) RequestReviewers(_ context.Context, _ types.Repository, number int, reviewers []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errors[fmt.Sprintf("RequestReviewers:%d", number)]; err != nil {
		return err
	}
	m.requestReviewersCalls = append(m.requestReviewersCalls, RequestReviewersCall{
		Number:    number,
		Reviewers: slices.Clone(reviewers),
	})
	m.writes = append(m.writes, fmt.Sprintf("RequestReviewers:%d", number))
	for _, pr := range m.pulls {
		if pr.Number != number {
			continue
		}
		for _, login := range reviewers {
			if !slices.Contains(pr.UserReviewers(), login) {
				pr.RequestedReviewers = append(pr.RequestedReviewers, types.Reviewer{Login: login, Kind: types.ReviewerUser})
			}
		}
	}
	return nil
}

// Comments returns the comments on number, most recent first.
func (m *MockGitHubClient) Comments(_ context.Context, _ types.Repository, number int) ([]types.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errors[fmt.Sprintf("Comments:%d", number)]; err != nil {
		return nil, err
	}
	comments := slices.Clone(m.comments[number])
	slices.Reverse(comments)
	return comments, nil
}

// CreateComment stores a new comment.
func (m *MockGitHubClient) CreateComment(_ context.Context, _ types.Repository, number int, body string) (*types.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errors[fmt.Sprintf("CreateComment:%d", number)]; err != nil {
		return nil, err
	}
	c := m.addComment(number, body)
	m.writes = append(m.writes, fmt.Sprintf("CreateComment:%d", number))
	return &c, nil
}

// EditComment replaces a stored comment's body.
func (m *MockGitHubClient) EditComment(_ context.Context, _ types.Repository, id int64, body string) (*types.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errors[fmt.Sprintf("EditComment:%d", id)]; err != nil {
		return nil, err
	}
	for _, comments := range m.comments {
		for i := range comments {
			if comments[i].ID == id {
				comments[i].Body = body
				m.writes = append(m.writes, fmt.Sprintf("EditComment:%d", id))
				c := comments[i]
				return &c, nil
			}
		}
	}
	return nil, fmt.Errorf("comment not found: %d", id)
}

// IssuesWithLabel returns open issues with label, oldest first.
func (m *MockGitHubClient) IssuesWithLabel(_ context.Context, _ types.Repository, label string) ([]types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errors["IssuesWithLabel:"+label]; err != nil {
		return nil, err
	}
	var issues []types.Issue
	for _, mi := range m.issues {
		if !mi.closed && slices.Contains(mi.labels, label) {
			issues = append(issues, mi.issue)
		}
	}
	return issues, nil
}

// CreateIssue stores a new issue.
func (m *MockGitHubClient) CreateIssue(_ context.Context, _ types.Repository, title, body string, labels []string) (*types.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errors["CreateIssue:"+strings.Join(labels, ",")]; err != nil {
		return nil, err
	}
	issue := m.addIssue(title, body, labels)
	m.writes = append(m.writes, fmt.Sprintf("CreateIssue:%d", issue.Number))
	return &issue, nil
}

// EditIssue replaces a stored issue's title and body.
func (m *MockGitHubClient) EditIssue(_ context.Context, _ types.Repository, number int, title, body string) (*types.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errors[fmt.Sprintf("EditIssue:%d", number)]; err != nil {
		return nil, err
	}
	for i := range m.issues {
		if m.issues[i].issue.Number == number {
			m.issues[i].issue.Title = title
			m.issues[i].issue.Body = body
			m.writes = append(m.writes, fmt.Sprintf("EditIssue:%d", number))
			issue := m.issues[i].issue
			return &issue, nil
		}
	}
	return nil, fmt.Errorf("issue not found: %d", number)
}

func (m *MockGitHubClient) addComment(number int, body string) types.Comment {
	m.nextCommentID++
	c := types.Comment{
		ID:      m.nextCommentID,
		Body:    body,
		HTMLURL: fmt.Sprintf("https://github.com/owner/repo/issues/%d#issuecomment-%d", number, m.nextCommentID),
	}
	m.comments[number] = append(m.comments[number], c)
	return c
}

func (m *MockGitHubClient) addIssue(title, body string, labels []string) types.Issue {
	m.nextIssueNumber++
	issue := types.Issue{
		Number:  m.nextIssueNumber,
		Title:   title,
		Body:    body,
		HTMLURL: fmt.Sprintf("https://github.com/owner/repo/issues/%d", m.nextIssueNumber),
	}
	m.issues = append(m.issues, mockIssue{issue: issue, labels: slices.Clone(labels)})
	return issue
}
