package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// MockTransport implements http.RoundTripper for testing.
// Responses are queued per "METHOD path" key and served in order; the last one repeats.
type MockTransport struct {
	responses map[string][]MockResponse
	errors    map[string]error
	calls     []HTTPCall
	mu        sync.Mutex
}

// MockResponse is a canned response.
type MockResponse struct {
	Body       any
	Header     http.Header
	StatusCode int
}

// HTTPCall records a single HTTP call.
type HTTPCall struct {
	Method string
	URL    string
	Auth   string
	Body   []byte
}

// NewMockTransport creates a new MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[string][]MockResponse),
		errors:    make(map[string]error),
	}
}

// RoundTrip records the request and returns the next configured response.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}
	m.calls = append(m.calls, HTTPCall{
		Method: req.Method,
		URL:    req.URL.String(),
		Auth:   req.Header.Get("Authorization"),
		Body:   body,
	})

	key := req.Method + " " + req.URL.Path
	if err, ok := m.errors[key]; ok {
		return nil, err
	}

	queue := m.responses[key]
	if len(queue) == 0 {
		return newResponse(req, MockResponse{StatusCode: http.StatusNotFound, Body: map[string]string{"message": "Not Found"}})
	}
	next := queue[0]
	if len(queue) > 1 {
		m.responses[key] = queue[1:]
	}
	return newResponse(req, next)
}

// AddResponse queues a response for method and path.
func (m *MockTransport) AddResponse(method, path string, statusCode int, body any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + path
	m.responses[key] = append(m.responses[key], MockResponse{StatusCode: statusCode, Body: body})
}

// SetError configures a transport error for method and path.
func (m *MockTransport) SetError(method, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method+" "+path] = err
}

// Calls returns all recorded HTTP calls.
func (m *MockTransport) Calls() []HTTPCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]HTTPCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func newResponse(req *http.Request, r MockResponse) (*http.Response, error) {
	var bodyBytes []byte
	switch b := r.Body.(type) {
	case nil:
	case string:
		bodyBytes = []byte(b)
	default:
		var err error
		bodyBytes, err = json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response body: %w", err)
		}
	}

	header := make(http.Header)
	for k, v := range r.Header {
		header[k] = v
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	return &http.Response{
		StatusCode: r.StatusCode,
		Status:     fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode)),
		Body:       io.NopCloser(bytes.NewReader(bodyBytes)),
		Header:     header,
		Request:    req,
	}, nil
}
