// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/playlog/internal/models"
)

// MockSource is a test double for [services.Source].
//
// Each call to Fetch pops the next queued response; once the queue is drained the last response repeats.
type MockSource struct {
	mu        sync.Mutex
	responses []MockFetch
	calls     int
	url       string
}

// MockFetch is one canned Fetch result
type MockFetch struct {
	Table *models.Table
	Err   error
}

func NewMockSource(url string, responses ...MockFetch) *MockSource {
	return &MockSource{url: url, responses: responses}
}

func (m *MockSource) Fetch(ctx context.Context) (*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.calls++
	if len(m.responses) == 0 {
		return models.NewTable(), nil
	}

	idx := min(m.calls-1, len(m.responses)-1)
	r := m.responses[idx]
	return r.Table, r.Err
}

func (m *MockSource) URL() string  { return m.url }
func (m *MockSource) Name() string { return "mock" }

// Calls returns how many times Fetch was invoked
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// PlaybackTable builds a date/artist/song table from (date, artist, song) triples.
func PlaybackTable(triples ...[3]string) *models.Table {
	table := models.NewTable("date", "artist", "song")
	for _, tr := range triples {
		table.Append(tr[0], tr[1], tr[2])
	}
	return table
}

// WriteStore writes table as CSV to name inside dir and returns the full path
func WriteStore(t *testing.T, dir, name string, table *models.Table) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create store %s: %v", path, err)
	}
	defer f.Close()

	if err := table.WriteCSV(f); err != nil {
		t.Fatalf("Failed to write store %s: %v", path, err)
	}
	return path
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
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
