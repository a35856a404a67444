// Package session implements the credential store and the session lifecycle.
//
// [CredentialStore] is a passive holder for the bearer token that every API call reads.
// [Manager] is the identity side: it performs the authorization-code login, refreshes
// expired access tokens with the refresh-token grant (client credentials sent as HTTP
// Basic auth), and copies each distinct session into the store.
//
// A failed refresh does not raise an error. The session keeps its stale token and is
// tagged with [RefreshAccessTokenError]; [Session.Authenticated] reports false for it and
// the credential store is emptied so API calls fail fast with a missing-credential error.
package session
