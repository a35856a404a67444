package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/shared"
	"golang.org/x/oauth2"
)

func newTestManager(t *testing.T, tokenURL string) *Manager {
	t.Helper()
	m := NewManager(
		shared.SpotifyConfig{ClientID: "cid", ClientSecret: "secret", RedirectURI: "http://127.0.0.1:3000/callback"},
		shared.APIConfig{AuthURL: "https://accounts.example.com/authorize", TokenURL: tokenURL},
		NewCredentialStore(),
		log.New(io.Discard),
	)
	m.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

type tokenServer struct {
	*httptest.Server
	calls   atomic.Int32
	status  int
	refresh string
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{status: http.StatusOK}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)

		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "secret" {
			t.Errorf("expected basic auth with client credentials, got %q %q %v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", got)
		}

		if ts.status != http.StatusOK {
			w.WriteHeader(ts.status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		body := map[string]any{
			"access_token": "fresh-" + r.PostForm.Get("refresh_token"),
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if ts.refresh != "" {
			body["refresh_token"] = ts.refresh
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestCredentialStore(t *testing.T) {
	c := NewCredentialStore()
	if c.CurrentToken() != "" {
		t.Fatal("store should start empty")
	}

	c.SetToken("abc")
	if c.CurrentToken() != "abc" {
		t.Errorf("expected abc, got %s", c.CurrentToken())
	}

	c.Set(Credentials{AccessToken: "a", RefreshToken: "r", UserID: "u"})
	if got := c.Current(); got.UserID != "u" || got.RefreshToken != "r" {
		t.Errorf("unexpected credentials %+v", got)
	}

	c.Clear()
	if c.CurrentToken() != "" || c.Current().UserID != "" {
		t.Error("expected store to be cleared")
	}
}

func TestSession(t *testing.T) {
	tc := []struct {
		name string
		s    Session
		want bool
	}{
		{name: "empty", s: Session{}, want: false},
		{name: "token", s: Session{AccessToken: "a"}, want: true},
		{name: "refresh failed", s: Session{AccessToken: "a", Error: RefreshAccessTokenError}, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Authenticated(); got != tt.want {
				t.Errorf("Authenticated() = %v, want %v", got, tt.want)
			}
		})
	}

	if !errors.Is(Session{Error: RefreshAccessTokenError}.Err(), shared.ErrRefreshAccessToken) {
		t.Error("expected sentinel error")
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Restore publishes once per change", func(t *testing.T) {
		m := newTestManager(t, "http://unused")
		changes := 0
		m.OnSessionChange(func(Session) { changes++ })

		s := Session{AccessToken: "a1", RefreshToken: "r1", UserID: "u1", Expiry: m.now().Add(time.Hour)}
		m.Restore(s)
		m.Sync(ctx)
		m.Sync(ctx)

		if changes != 1 {
			t.Errorf("expected 1 change, got %d", changes)
		}
		if m.Credentials().CurrentToken() != "a1" {
			t.Errorf("expected credential store to hold a1, got %q", m.Credentials().CurrentToken())
		}
		if m.Credentials().Current().UserID != "u1" {
			t.Error("expected user id to be copied")
		}
	})

	t.Run("Sync leaves a valid token alone", func(t *testing.T) {
		ts := newTokenServer(t)
		m := newTestManager(t, ts.URL)
		m.Restore(Session{AccessToken: "a1", RefreshToken: "r1", Expiry: m.now().Add(time.Minute)})

		s := m.Sync(ctx)
		if s.AccessToken != "a1" {
			t.Errorf("expected unchanged token, got %s", s.AccessToken)
		}
		if ts.calls.Load() != 0 {
			t.Errorf("expected no token requests, got %d", ts.calls.Load())
		}
	})

	t.Run("Sync refreshes an expired token and keeps the old refresh token", func(t *testing.T) {
		ts := newTokenServer(t)
		m := newTestManager(t, ts.URL)

		var persisted *oauth2.Token
		m.SetTokenRefreshCallback(func(tok *oauth2.Token) { persisted = tok })
		m.Restore(Session{AccessToken: "stale", RefreshToken: "r1", Expiry: m.now().Add(-time.Minute)})

		s := m.Sync(ctx)
		if s.AccessToken != "fresh-r1" {
			t.Errorf("expected refreshed token, got %s", s.AccessToken)
		}
		if s.RefreshToken != "r1" {
			t.Errorf("expected refresh token to be retained, got %s", s.RefreshToken)
		}
		if !s.Authenticated() {
			t.Error("expected refreshed session to be authenticated")
		}
		if m.Credentials().CurrentToken() != "fresh-r1" {
			t.Errorf("credential store not updated: %s", m.Credentials().CurrentToken())
		}
		if persisted == nil || persisted.AccessToken != "fresh-r1" {
			t.Errorf("expected refresh callback with new token, got %+v", persisted)
		}
	})

	t.Run("Sync adopts a rotated refresh token", func(t *testing.T) {
		ts := newTokenServer(t)
		ts.refresh = "r2"
		m := newTestManager(t, ts.URL)
		m.Restore(Session{AccessToken: "stale", RefreshToken: "r1", Expiry: m.now().Add(-time.Minute)})

		if s := m.Sync(ctx); s.RefreshToken != "r2" {
			t.Errorf("expected rotated refresh token, got %s", s.RefreshToken)
		}
	})

	t.Run("failed refresh marks the session instead of erroring", func(t *testing.T) {
		ts := newTokenServer(t)
		ts.status = http.StatusBadRequest
		m := newTestManager(t, ts.URL)

		var seen []Session
		m.OnSessionChange(func(s Session) { seen = append(seen, s) })
		m.Restore(Session{AccessToken: "stale", RefreshToken: "r1", Expiry: m.now().Add(-time.Minute)})

		s := m.Sync(ctx)
		if s.Error != RefreshAccessTokenError {
			t.Fatalf("expected sentinel, got %q", s.Error)
		}
		if s.Authenticated() {
			t.Error("session with sentinel must not be authenticated")
		}
		if m.Credentials().CurrentToken() != "" {
			t.Error("credential store should be emptied on refresh failure")
		}

		m.Sync(ctx)
		if ts.calls.Load() != 1 {
			t.Errorf("expected a single refresh attempt, got %d", ts.calls.Load())
		}
		if len(seen) != 2 {
			t.Errorf("expected two distinct session changes, got %d", len(seen))
		}
	})

	t.Run("Logout clears everything", func(t *testing.T) {
		m := newTestManager(t, "http://unused")
		m.Restore(Session{AccessToken: "a", UserID: "u"})
		m.Logout()

		if m.Session().AccessToken != "" || m.Credentials().CurrentToken() != "" {
			t.Error("expected session and store to be cleared")
		}
	})

	t.Run("SetUserID republishes", func(t *testing.T) {
		m := newTestManager(t, "http://unused")
		m.Restore(Session{AccessToken: "a"})
		m.SetUserID("u9")
		if m.Credentials().Current().UserID != "u9" {
			t.Error("expected user id in credential store")
		}
	})

	t.Run("AuthCodeURL", func(t *testing.T) {
		m := newTestManager(t, "http://unused")
		u := m.AuthCodeURL("state123")
		for _, want := range []string{"accounts.example.com", "client_id=cid", "state=state123", "user-library-modify"} {
			if !strings.Contains(u, want) {
				t.Errorf("auth url %s missing %s", u, want)
			}
		}
	})

	t.Run("Exchange rejects empty code", func(t *testing.T) {
		m := newTestManager(t, "http://unused")
		if _, err := m.Exchange(ctx, ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected invalid argument, got %v", err)
		}
	})
}

// rotatingTokenServer hands out a new refresh token on every grant and rejects spent ones.
type rotatingTokenServer struct {
	*httptest.Server
	calls   atomic.Int32
	mu      sync.Mutex
	current string
	started chan struct{}
	release chan struct{}
}

func newRotatingTokenServer(t *testing.T, initial string) *rotatingTokenServer {
	t.Helper()
	ts := &rotatingTokenServer{current: initial}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.calls.Add(1)
		if ts.started != nil {
			ts.started <- struct{}{}
			<-ts.release
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}

		ts.mu.Lock()
		defer ts.mu.Unlock()
		if r.PostForm.Get("refresh_token") != ts.current {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		ts.current = "r" + strconv.Itoa(int(n))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh-" + ts.current,
			"refresh_token": ts.current,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestManagerConcurrentSync(t *testing.T) {
	ctx := context.Background()

	t.Run("one refresh for concurrent callers", func(t *testing.T) {
		ts := newRotatingTokenServer(t, "r0")
		m := newTestManager(t, ts.URL)
		var persisted atomic.Int32
		m.SetTokenRefreshCallback(func(*oauth2.Token) { persisted.Add(1) })
		m.Restore(Session{AccessToken: "stale", RefreshToken: "r0", Expiry: m.now().Add(-time.Minute)})

		var wg sync.WaitGroup
		results := make([]Session, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = m.Sync(ctx)
			}(i)
		}
		wg.Wait()

		if got := ts.calls.Load(); got != 1 {
			t.Errorf("expected one token request, got %d", got)
		}
		if persisted.Load() != 1 {
			t.Errorf("expected one persisted token, got %d", persisted.Load())
		}
		for i, s := range results {
			if !s.Authenticated() || s.RefreshToken != "r1" {
				t.Errorf("caller %d got %+v", i, s)
			}
		}
		if s := m.Session(); !s.Authenticated() || s.RefreshToken != "r1" {
			t.Errorf("expected authenticated session with r1, got %+v", s)
		}
		if m.Credentials().CurrentToken() != "fresh-r1" {
			t.Errorf("expected credentials for fresh-r1, got %q", m.Credentials().CurrentToken())
		}
	})

	t.Run("logout during refresh wins", func(t *testing.T) {
		ts := newRotatingTokenServer(t, "r0")
		ts.started = make(chan struct{})
		ts.release = make(chan struct{})
		m := newTestManager(t, ts.URL)
		persisted := false
		m.SetTokenRefreshCallback(func(*oauth2.Token) { persisted = true })
		m.Restore(Session{AccessToken: "stale", RefreshToken: "r0", Expiry: m.now().Add(-time.Minute)})

		done := make(chan Session, 1)
		go func() { done <- m.Sync(ctx) }()

		<-ts.started
		m.Logout()
		close(ts.release)
		s := <-done

		if s.AccessToken != "" || m.Session().AccessToken != "" {
			t.Errorf("expected logged out session, got %+v", m.Session())
		}
		if m.Credentials().CurrentToken() != "" {
			t.Error("expected credentials to stay cleared")
		}
		if persisted {
			t.Error("discarded refresh must not be persisted")
		}
	})

	t.Run("user id set during refresh is kept", func(t *testing.T) {
		ts := newRotatingTokenServer(t, "r0")
		ts.started = make(chan struct{})
		ts.release = make(chan struct{})
		m := newTestManager(t, ts.URL)
		m.Restore(Session{AccessToken: "stale", RefreshToken: "r0", Expiry: m.now().Add(-time.Minute)})

		done := make(chan Session, 1)
		go func() { done <- m.Sync(ctx) }()

		<-ts.started
		m.SetUserID("u1")
		close(ts.release)
		<-done

		s := m.Session()
		if s.AccessToken != "fresh-r1" || s.RefreshToken != "r1" || s.UserID != "u1" {
			t.Errorf("expected refreshed tokens with user u1, got %+v", s)
		}
		if m.Credentials().Current().UserID != "u1" {
			t.Error("expected user id in credential store")
		}
	})
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("calls callback on first token fetch", func(t *testing.T) {
		var captured *oauth2.Token
		source := &refreshableTokenSource{
			source:   &mockTokenSource{token: &oauth2.Token{AccessToken: "test_token"}},
			callback: func(token *oauth2.Token) { captured = token },
		}

		token, err := source.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if captured == nil || captured.AccessToken != "test_token" {
			t.Errorf("expected callback with test_token, got %+v", captured)
		}
		if token.AccessToken != "test_token" {
			t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
		}
	})

	t.Run("calls callback only when token changes", func(t *testing.T) {
		callCount := 0
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "token1"}}
		source := &refreshableTokenSource{
			source:   mock,
			callback: func(*oauth2.Token) { callCount++ },
		}

		_, _ = source.Token()
		_, _ = source.Token()
		if callCount != 1 {
			t.Errorf("expected callback called once, got %d", callCount)
		}

		mock.token = &oauth2.Token{AccessToken: "token2"}
		_, _ = source.Token()
		if callCount != 2 {
			t.Errorf("expected callback called twice, got %d", callCount)
		}
	})

	t.Run("handles nil callback", func(t *testing.T) {
		source := &refreshableTokenSource{source: &mockTokenSource{token: &oauth2.Token{AccessToken: "x"}}}
		if _, err := source.Token(); err != nil {
			t.Fatalf("expected no error with nil callback, got %v", err)
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := &refreshableTokenSource{
			source: &mockTokenSource{err: errors.New("token source error")},
			callback: func(*oauth2.Token) {
				t.Error("callback should not be called on error")
			},
		}

		token, err := source.Token()
		if err == nil || !strings.Contains(err.Error(), "token source error") {
			t.Fatalf("expected source error, got %v", err)
		}
		if token != nil {
			t.Error("expected nil token on error")
		}
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
