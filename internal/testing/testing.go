// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/songshare/internal/models"
)

// MockCatalog is a test double for [services.Catalog].
//
// Tracks maps track ids to metadata; unknown ids return Err (or a generic error when Err is nil).
type MockCatalog struct {
	Tracks map[string]*models.TrackMetadata
	Err    error

	mu    sync.Mutex
	calls []string
}

func (m *MockCatalog) GetTrack(ctx context.Context, trackID string) (*models.TrackMetadata, error) {
	m.mu.Lock()
	m.calls = append(m.calls, trackID)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if track, ok := m.Tracks[trackID]; ok {
		copied := *track
		return &copied, nil
	}
	return nil, errors.New("track not found")
}

func (m *MockCatalog) Name() string { return "mock-catalog" }

// Calls returns the track ids requested so far.
func (m *MockCatalog) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockSearcher is a test double for [services.VideoSearcher].
type MockSearcher struct {
	Result *models.VideoResult
	Err    error

	mu      sync.Mutex
	queries []string
}

func (m *MockSearcher) Search(ctx context.Context, artist, title string) (*models.VideoResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, artist+" "+title)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return nil, errors.New("no results")
	}
	copied := *m.Result
	return &copied, nil
}

func (m *MockSearcher) Name() string { return "mock-search" }

// Queries returns the search queries issued so far.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// SentMessage is a message recorded by [MockMessenger].
type SentMessage struct {
	To   string
	Body string
}

// MockMessenger is a test double for [services.Messenger] that records every send.
//
// FailFor lists recipients whose sends fail with Err (or a generic error when Err is nil).
type MockMessenger struct {
	FailFor map[string]bool
	Err     error

	mu   sync.Mutex
	sent []SentMessage
}

func (m *MockMessenger) Send(ctx context.Context, to, body string) (string, error) {
	if m.FailFor[to] {
		if m.Err != nil {
			return "", m.Err
		}
		return "", errors.New("delivery failed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return fmt.Sprintf("SM%04d", len(m.sent)), nil
}

func (m *MockMessenger) Name() string { return "mock-messenger" }

// Sent returns every delivered message in order.
func (m *MockMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// SentTo returns the delivered messages addressed to to.
func (m *MockMessenger) SentTo(to string) []SentMessage {
	var out []SentMessage
	for _, msg := range m.Sent() {
		if msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
