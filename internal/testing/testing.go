// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotlite/internal/models"
)

// MockLibrary is an in-memory test double for the library API consumed by the sync engine.
//
// Errors are keyed by method name. A channel in Gates keyed "Method" or "Method:arg" blocks that call until closed.
type MockLibrary struct {
	mu sync.Mutex

	Favorites []models.Track
	User      models.User
	Lists     []models.Playlist
	Tracks    map[string][]models.Track
	Results   map[string][]models.Track
	Created   models.Playlist

	Errors map[string]error
	Gates  map[string]chan struct{}

	calls []string
}

// NewMockLibrary returns an empty library for user "me".
func NewMockLibrary() *MockLibrary {
	return &MockLibrary{
		User:    models.User{ID: "me", DisplayName: "Me"},
		Tracks:  map[string][]models.Track{},
		Results: map[string][]models.Track{},
		Errors:  map[string]error{},
		Gates:   map[string]chan struct{}{},
	}
}

// Calls returns the recorded calls as "Method" or "Method:arg".
func (m *MockLibrary) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Count returns how many recorded calls start with method.
func (m *MockLibrary) Count(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == method || len(c) > len(method) && c[:len(method)+1] == method+":" {
			n++
		}
	}
	return n
}

func (m *MockLibrary) record(ctx context.Context, method, arg string) error {
	key := method
	if arg != "" {
		key = method + ":" + arg
	}

	m.mu.Lock()
	m.calls = append(m.calls, key)
	gate := m.Gates[key]
	if gate == nil {
		gate = m.Gates[method]
	}
	err := m.Errors[method]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *MockLibrary) FavoriteTracks(ctx context.Context) ([]models.Track, error) {
	if err := m.record(ctx, "FavoriteTracks", ""); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Track(nil), m.Favorites...), nil
}

func (m *MockLibrary) CurrentUser(ctx context.Context) (*models.User, error) {
	if err := m.record(ctx, "CurrentUser", ""); err != nil {
		return nil, err
	}
	u := m.User
	return &u, nil
}

func (m *MockLibrary) Playlists(ctx context.Context, userID string) ([]models.Playlist, error) {
	if err := m.record(ctx, "Playlists", userID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Playlist, 0, len(m.Lists))
	for _, p := range m.Lists {
		p.IsOwner = p.OwnerID == userID
		out = append(out, p)
	}
	return out, nil
}

func (m *MockLibrary) PlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	if err := m.record(ctx, "PlaylistTracks", id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Track(nil), m.Tracks[id]...), nil
}

func (m *MockLibrary) CreatePlaylist(ctx context.Context, name, ownerID string) (*models.Playlist, error) {
	if err := m.record(ctx, "CreatePlaylist", name); err != nil {
		return nil, err
	}
	p := m.Created
	if p.ID == "" {
		p.ID = "created-" + name
	}
	p.Name = name
	p.IsOwner = true
	p.OwnerID = ownerID
	return &p, nil
}

func (m *MockLibrary) AddTrack(ctx context.Context, playlistID string, track models.Track) error {
	return m.record(ctx, "AddTrack", playlistID+"/"+track.ID)
}

func (m *MockLibrary) RemoveTrack(ctx context.Context, playlistID string, track models.Track) error {
	return m.record(ctx, "RemoveTrack", playlistID+"/"+track.ID)
}

func (m *MockLibrary) SaveFavorite(ctx context.Context, id string) error {
	return m.record(ctx, "SaveFavorite", id)
}

func (m *MockLibrary) RemoveFavorite(ctx context.Context, id string) error {
	return m.record(ctx, "RemoveFavorite", id)
}

func (m *MockLibrary) RenamePlaylist(ctx context.Context, id, name string) error {
	return m.record(ctx, "RenamePlaylist", id+"/"+name)
}

func (m *MockLibrary) UnfollowPlaylist(ctx context.Context, id string) error {
	return m.record(ctx, "UnfollowPlaylist", id)
}

func (m *MockLibrary) Search(ctx context.Context, q string) ([]models.Track, error) {
	if err := m.record(ctx, "Search", q); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Track(nil), m.Results[q]...), nil
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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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
