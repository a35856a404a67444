package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/shared"
	tu "github.com/desertthunder/spotlite/internal/testing"
)

type staticToken string

func (s staticToken) CurrentToken() string { return string(s) }

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type fakeSpotify struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recorded
	routes   map[string]string
	status   int
}

func newFakeSpotify(t *testing.T, routes map[string]string) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{routes: routes, status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		status := f.status
		f.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"status":500,"message":"boom"}}`))
			return
		}

		resp, ok := f.routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSpotify) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("expected a request")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeSpotify) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newClient(f *fakeSpotify, token string) *SpotifyClient {
	return NewSpotifyClient(
		shared.APIConfig{BaseURL: f.URL, PageLimit: 50},
		staticToken(token),
		log.New(io.Discard),
	)
}

const savedTracksJSON = `{
  "items": [
    {"added_at": "2024-01-01T00:00:00Z", "track": {
      "id": "t1", "name": "One", "uri": "spotify:track:t1",
      "preview_url": "https://p.scdn.co/one",
      "artists": [{"id": "a1", "name": "Alpha"}, {"id": "a2", "name": "Beta"}],
      "album": {"id": "al1", "name": "First", "images": [{"url": "https://i.scdn.co/big"}, {"url": "https://i.scdn.co/small"}]}
    }},
    {"added_at": "2024-01-02T00:00:00Z", "track": null},
    {"added_at": "2024-01-03T00:00:00Z", "track": {
      "id": "t2", "name": "Two", "uri": "spotify:track:t2", "preview_url": null,
      "artists": [], "album": {"id": "al2", "name": "Second", "images": []}
    }}
  ],
  "total": 3, "limit": 50, "offset": 0, "next": null
}`

const playlistsJSON = `{
  "items": [
    {"id": "p1", "name": "Mine", "owner": {"id": "me"}, "public": true, "collaborative": false},
    {"id": "p2", "name": "Theirs", "owner": {"id": "someone"}, "public": false, "collaborative": true}
  ],
  "total": 2, "limit": 50, "offset": 0, "next": null
}`

func TestSpotifyClient(t *testing.T) {
	ctx := context.Background()

	t.Run("FavoriteTracks normalizes and skips null tracks", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]string{"GET /me/tracks": savedTracksJSON})
		tracks, err := newClient(f, "tok").FavoriteTracks(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}

		want := models.Track{
			ID:         "t1",
			Name:       "One",
			Artist:     "Alpha, Beta",
			Album:      "First",
			Image:      "https://i.scdn.co/big",
			PreviewURL: "https://p.scdn.co/one",
			URI:        "spotify:track:t1",
		}
		if tracks[0] != want {
			t.Errorf("got %+v, want %+v", tracks[0], want)
		}
		if tracks[1].Image != "" || tracks[1].PreviewURL != "" || tracks[1].Artist != "" {
			t.Errorf("absent fields should be empty strings, got %+v", tracks[1])
		}

		req := f.last(t)
		if req.Auth != "Bearer tok" {
			t.Errorf("expected bearer auth, got %q", req.Auth)
		}
		if req.Query != "limit=50" {
			t.Errorf("expected limit query, got %q", req.Query)
		}
	})

	t.Run("Playlists resolves ownership", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]string{"GET /me/playlists": playlistsJSON})
		playlists, err := newClient(f, "tok").Playlists(ctx, "me")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if !playlists[0].IsOwner || playlists[0].OwnerID != "me" || !playlists[0].Public {
			t.Errorf("unexpected first playlist %+v", playlists[0])
		}
		if playlists[1].IsOwner || !playlists[1].Collaborative {
			t.Errorf("unexpected second playlist %+v", playlists[1])
		}
	})

	t.Run("CurrentUser", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]string{"GET /me": `{"id":"me","display_name":"Me"}`})
		u, err := newClient(f, "tok").CurrentUser(ctx)
		if err != nil || u.ID != "me" || u.DisplayName != "Me" {
			t.Fatalf("expected user me, got %+v (%v)", u, err)
		}
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]string{"GET /playlists/p1/tracks": savedTracksJSON})
		tracks, err := newClient(f, "tok").PlaylistTracks(ctx, "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
	})

	t.Run("CreatePlaylist is private and owned", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]string{"POST /me/playlists": `{"id":"new","name":"Road Trip","owner":{"id":"me"},"public":false}`})
		p, err := newClient(f, "tok").CreatePlaylist(ctx, "Road Trip", "me")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Road Trip" || !p.IsOwner || p.OwnerID != "me" {
			t.Errorf("unexpected playlist %+v", p)
		}

		var body map[string]any
		if err := json.Unmarshal([]byte(f.last(t).Body), &body); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if body["name"] != "Road Trip" || body["public"] != false {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("CreatePlaylist without user id", func(t *testing.T) {
		f := newFakeSpotify(t, nil)
		_, err := newClient(f, "tok").CreatePlaylist(ctx, "x", "")
		if IsMissingCredential(err) {
			t.Errorf("a missing user id is not a missing credential: %v", err)
		}
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.Kind != KindMissingUser {
			t.Errorf("expected RequestError of missing user kind, got %#v", err)
		}
		if err.Error() != "No access token or user ID available" {
			t.Errorf("unexpected message %q", err.Error())
		}
		if f.count() != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("mutations send the documented bodies", func(t *testing.T) {
		track := models.Track{ID: "t1", URI: "spotify:track:t1"}

		tc := []struct {
			name   string
			call   func(c *SpotifyClient) error
			method string
			path   string
			body   string
		}{
			{
				name:   "AddTrack",
				call:   func(c *SpotifyClient) error { return c.AddTrack(ctx, "p1", track) },
				method: http.MethodPost, path: "/playlists/p1/tracks",
				body: `{"uris":["spotify:track:t1"]}`,
			},
			{
				name:   "RemoveTrack",
				call:   func(c *SpotifyClient) error { return c.RemoveTrack(ctx, "p1", track) },
				method: http.MethodDelete, path: "/playlists/p1/tracks",
				body: `{"tracks":[{"uri":"spotify:track:t1"}]}`,
			},
			{
				name:   "SaveFavorite",
				call:   func(c *SpotifyClient) error { return c.SaveFavorite(ctx, "t1") },
				method: http.MethodPut, path: "/me/tracks",
				body: `{"ids":["t1"]}`,
			},
			{
				name:   "RemoveFavorite",
				call:   func(c *SpotifyClient) error { return c.RemoveFavorite(ctx, "t1") },
				method: http.MethodDelete, path: "/me/tracks",
				body: `{"ids":["t1"]}`,
			},
			{
				name:   "RenamePlaylist",
				call:   func(c *SpotifyClient) error { return c.RenamePlaylist(ctx, "p1", "New") },
				method: http.MethodPut, path: "/playlists/p1",
				body: `{"name":"New"}`,
			},
			{
				name:   "UnfollowPlaylist",
				call:   func(c *SpotifyClient) error { return c.UnfollowPlaylist(ctx, "p1") },
				method: http.MethodDelete, path: "/playlists/p1/followers",
				body: "",
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFakeSpotify(t, nil)
				if err := tt.call(newClient(f, "tok")); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				req := f.last(t)
				if req.Method != tt.method || req.Path != tt.path {
					t.Errorf("got %s %s, want %s %s", req.Method, req.Path, tt.method, tt.path)
				}
				if req.Body != tt.body {
					t.Errorf("got body %q, want %q", req.Body, tt.body)
				}
				if f.count() != 1 {
					t.Errorf("expected exactly one request, got %d", f.count())
				}
			})
		}
	})

	t.Run("Search", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]string{
			"GET /search": `{"tracks":{"items":[{"id":"s1","name":"Found","uri":"spotify:track:s1","artists":[{"name":"X"}],"album":{"name":"Y","images":[]}}]}}`,
		})
		c := newClient(f, "tok")

		tracks, err := c.Search(ctx, "found it")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "s1" || tracks[0].Artist != "X" {
			t.Errorf("unexpected results %+v", tracks)
		}

		q := f.last(t).Query
		for _, want := range []string{"q=found+it", "type=track", "limit=10"} {
			if !strings.Contains(q, want) {
				t.Errorf("query %q missing %q", q, want)
			}
		}

		if _, err := c.Search(ctx, "   "); err != nil {
			t.Errorf("blank search should not fail: %v", err)
		}
		if f.count() != 1 {
			t.Errorf("blank search should not issue a request, got %d requests", f.count())
		}
	})

	t.Run("missing token fails before any request", func(t *testing.T) {
		f := newFakeSpotify(t, nil)
		c := newClient(f, "")

		calls := map[string]func() error{
			"FavoriteTracks":   func() error { _, err := c.FavoriteTracks(ctx); return err },
			"CurrentUser":      func() error { _, err := c.CurrentUser(ctx); return err },
			"Playlists":        func() error { _, err := c.Playlists(ctx, "me"); return err },
			"PlaylistTracks":   func() error { _, err := c.PlaylistTracks(ctx, "p1"); return err },
			"CreatePlaylist":   func() error { _, err := c.CreatePlaylist(ctx, "x", "me"); return err },
			"AddTrack":         func() error { return c.AddTrack(ctx, "p1", models.Track{}) },
			"RemoveTrack":      func() error { return c.RemoveTrack(ctx, "p1", models.Track{}) },
			"SaveFavorite":     func() error { return c.SaveFavorite(ctx, "t1") },
			"RemoveFavorite":   func() error { return c.RemoveFavorite(ctx, "t1") },
			"RenamePlaylist":   func() error { return c.RenamePlaylist(ctx, "p1", "n") },
			"UnfollowPlaylist": func() error { return c.UnfollowPlaylist(ctx, "p1") },
			"Search":           func() error { _, err := c.Search(ctx, "q"); return err },
		}

		for name, call := range calls {
			t.Run(name, func(t *testing.T) {
				err := call()
				if !errors.Is(err, shared.ErrMissingCredential) {
					t.Fatalf("expected missing credential, got %v", err)
				}
				var reqErr *RequestError
				if !errors.As(err, &reqErr) || reqErr.Kind != KindMissingCredential {
					t.Errorf("expected RequestError of missing credential kind, got %#v", err)
				}
			})
		}

		if f.count() != 0 {
			t.Errorf("expected no requests, got %d", f.count())
		}
	})

	t.Run("status errors carry the short message", func(t *testing.T) {
		f := newFakeSpotify(t, nil)
		f.status = http.StatusInternalServerError

		_, err := newClient(f, "tok").Playlists(ctx, "me")
		if err == nil {
			t.Fatal("expected error")
		}
		if err.Error() != "Failed to fetch playlists" {
			t.Errorf("unexpected message %q", err.Error())
		}

		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("expected RequestError, got %T", err)
		}
		if reqErr.Kind != KindStatus || reqErr.Status != http.StatusInternalServerError {
			t.Errorf("unexpected kind/status %s/%d", reqErr.Kind, reqErr.Status)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected wrapped ErrAPIRequest")
		}
		if !strings.Contains(reqErr.Detail(), "boom") {
			t.Errorf("expected provider detail in %q", reqErr.Detail())
		}
	})

	t.Run("transport errors", func(t *testing.T) {
		f := newFakeSpotify(t, nil)
		c := newClient(f, "tok")
		c.SetHTTPClient(&http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset"))})

		err := c.SaveFavorite(ctx, "t1")
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.Kind != KindTransport {
			t.Fatalf("expected transport error, got %v", err)
		}
		if err.Error() != "Failed to toggle favorite track" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("decode errors", func(t *testing.T) {
		f := newFakeSpotify(t, map[string]string{"GET /search": `{not json`})
		_, err := newClient(f, "tok").Search(ctx, "q")
		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.Kind != KindDecode {
			t.Fatalf("expected decode error, got %v", err)
		}
		if err.Error() != "Failed to fetch search results" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}
