package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/shared"
	"golang.org/x/oauth2"
)

// RefreshAccessTokenError marks a session whose refresh exchange failed.
const RefreshAccessTokenError = "RefreshAccessTokenError"

// Scopes requested by the authorization-code login.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-private",
	"playlist-modify-public",
	"user-library-read",
	"user-library-modify",
}

// Session is the identity-side view of the current login.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Expiry       time.Time
	Error        string
}

// Authenticated reports whether the session can authorize API calls.
//
// Callers must check this before trusting AccessToken: a failed refresh keeps the stale token but sets Error.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.Error != RefreshAccessTokenError
}

// Err returns [shared.ErrRefreshAccessToken] for a session carrying the sentinel.
func (s Session) Err() error {
	if s.Error == RefreshAccessTokenError {
		return shared.ErrRefreshAccessToken
	}
	return nil
}

func (s Session) expired(now time.Time) bool {
	return !s.Expiry.IsZero() && !now.Before(s.Expiry)
}

func (s Session) key() string {
	return s.AccessToken + "|" + s.RefreshToken + "|" + s.UserID + "|" + s.Error
}

// sameTokens reports whether s still carries the tokens of other, ignoring the user id.
func (s Session) sameTokens(other Session) bool {
	return s.AccessToken == other.AccessToken && s.RefreshToken == other.RefreshToken && s.Error == other.Error
}

func (s Session) credentials() Credentials {
	return Credentials{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserID:       s.UserID,
		Expiry:       s.Expiry,
	}
}

// FromConfig builds a session from the tokens persisted in config.toml.
func FromConfig(c shared.SpotifyConfig) Session {
	return Session{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		UserID:       c.UserID,
		Expiry:       c.TokenExpiry,
	}
}

// Manager owns the session lifecycle: login, refresh and logout.
//
// Every change to the session is copied into the [CredentialStore] once, keyed by token identity.
type Manager struct {
	config     *oauth2.Config
	creds      *CredentialStore
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time

	// refreshMu serializes refreshes so a rotating refresh token is spent once.
	refreshMu sync.Mutex

	mu             sync.Mutex
	session        Session
	lastKey        string
	onChange       func(Session)
	onTokenRefresh func(*oauth2.Token)
}

// NewManager creates a session manager for the configured client.
func NewManager(c shared.SpotifyConfig, api shared.APIConfig, creds *CredentialStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if creds == nil {
		creds = NewCredentialStore()
	}

	config := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   api.AuthURL,
			TokenURL:  api.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &Manager{
		config: config,
		creds:  creds,
		logger: shared.WithLogger(logger, "component", "session"),
		now:    time.Now,
	}
}

// Credentials returns the store this manager feeds.
func (m *Manager) Credentials() *CredentialStore {
	return m.creds
}

// SetHTTPClient overrides the client used for token exchanges.
func (m *Manager) SetHTTPClient(c *http.Client) {
	m.httpClient = c
}

// SetTokenRefreshCallback registers fn to receive every newly minted token, e.g. to persist it.
func (m *Manager) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTokenRefresh = fn
}

// OnSessionChange registers fn to run after each distinct session change.
func (m *Manager) OnSessionChange(fn func(Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Session returns the current session.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Restore installs a previously persisted session and publishes it.
func (m *Manager) Restore(s Session) {
	m.mu.Lock()
	m.session = s
	fn := m.publishLocked()
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// AuthCodeURL returns the provider authorization URL for login.
func (m *Manager) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens and establishes the session.
func (m *Manager) Exchange(ctx context.Context, code string) (Session, error) {
	if code == "" {
		return Session{}, fmt.Errorf("%w: empty authorization code", shared.ErrInvalidArgument)
	}

	token, err := m.config.Exchange(m.context(ctx), code)
	if err != nil {
		return Session{}, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}

	m.mu.Lock()
	m.session = Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		UserID:       m.session.UserID,
		Expiry:       token.Expiry,
	}
	cb := m.onTokenRefresh
	fn := m.publishLocked()
	s := m.session
	m.mu.Unlock()

	if cb != nil {
		cb(token)
	}
	if fn != nil {
		fn()
	}
	return s, nil
}

// SetUserID records the resolved account id on the session.
func (m *Manager) SetUserID(id string) {
	m.mu.Lock()
	if m.session.UserID == id {
		m.mu.Unlock()
		return
	}
	m.session.UserID = id
	fn := m.publishLocked()
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Sync brings the session up to date, refreshing an expired access token.
//
// A failed refresh never returns an error; the session is marked with [RefreshAccessTokenError] instead.
// Concurrent callers share one refresh, and a login or logout that lands while the refresh is in
// flight wins over its result.
func (m *Manager) Sync(ctx context.Context) Session {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()
	s := m.session
	cb := m.onTokenRefresh
	m.mu.Unlock()

	if s.Error != "" || s.RefreshToken == "" || !s.expired(m.now()) {
		return s
	}

	before := s
	var minted *oauth2.Token
	s = m.refresh(ctx, s, func(t *oauth2.Token) { minted = t })

	m.mu.Lock()
	if !m.session.sameTokens(before) {
		current := m.session
		m.mu.Unlock()
		m.logger.Debug("discarding refresh for a replaced session")
		return current
	}
	s.UserID = m.session.UserID
	m.session = s
	fn := m.publishLocked()
	m.mu.Unlock()

	if minted != nil && cb != nil {
		cb(minted)
	}
	if fn != nil {
		fn()
	}
	return s
}

// Logout clears the session and the credential store.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.session = Session{}
	fn := m.publishLocked()
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *Manager) refresh(ctx context.Context, s Session, cb func(*oauth2.Token)) Session {
	src := &refreshableTokenSource{
		source: m.config.TokenSource(m.context(ctx), &oauth2.Token{
			RefreshToken: s.RefreshToken,
			Expiry:       s.Expiry,
		}),
		callback:  cb,
		lastToken: s.AccessToken,
	}

	token, err := src.Token()
	if err != nil {
		m.logger.Error("refresh access token failed", "error", err)
		s.Error = RefreshAccessTokenError
		return s
	}

	m.logger.Debug("access token refreshed", "expiry", token.Expiry)
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.Expiry = token.Expiry
	return s
}

// publishLocked updates the credential store when the session changed and returns the change hook to run unlocked.
func (m *Manager) publishLocked() func() {
	k := m.session.key()
	if k == m.lastKey {
		return nil
	}
	m.lastKey = k

	s := m.session
	if s.Authenticated() {
		m.creds.Set(s.credentials())
	} else {
		m.creds.Clear()
	}

	if m.onChange == nil {
		return nil
	}
	fn := m.onChange
	return func() { fn(s) }
}

func (m *Manager) context(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}
