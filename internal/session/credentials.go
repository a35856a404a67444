package session

import (
	"sync"
	"time"
)

// Credentials is the shape handed over by the identity side once a session exists.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Expiry       time.Time
}

// CredentialStore holds the bearer credential read by every outgoing API call.
//
// It only stores what it is given and never refreshes on its own.
type CredentialStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewCredentialStore returns an empty store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// CurrentToken returns the access token, or "" when no session has been established.
func (c *CredentialStore) CurrentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.AccessToken
}

// SetToken replaces only the access token.
func (c *CredentialStore) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds.AccessToken = token
}

// Set replaces the stored credentials.
func (c *CredentialStore) Set(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// Current returns a copy of the stored credentials.
func (c *CredentialStore) Current() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// Clear forgets everything; used on logout.
func (c *CredentialStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = Credentials{}
}
