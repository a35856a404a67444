// Package server runs the local HTTP callback used by the OAuth login flow.
//
// # Router
//
// [BasicRouter] registers method patterns on an [http.ServeMux] and wraps every handler with the
// registered [Middleware]; [RequestLogger] is the only middleware in use.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter (CSRF protection), exchanges the authorization code
// through an [Exchanger] and sends the resulting session through a channel. It only processes one
// callback.
//
// `spotlite auth login` binds a [CallbackServer] on the configured host and port, opens the
// authorization URL in the browser and shuts the server down after the first callback.
package server
