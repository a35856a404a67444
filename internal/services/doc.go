// Package services implements [SpotifyClient], the remote API client for the Spotify Web API.
//
// # Requests
//
// Every operation issues exactly one HTTP request authorized with the bearer token read
// from a [TokenProvider] at call time. When no token is present the call fails before
// any network I/O with a [RequestError] of kind [KindMissingCredential], which wraps
// [shared.ErrMissingCredential].
//
// # Normalization
//
// Responses are mapped to [models.Track] and [models.Playlist]:
//   - artist: artist names joined with ", "
//   - image: first album image URL or ""
//   - previewUrl: preview_url or ""
//   - isOwner: owner.id compared with the acting user's id
//
// Saved-track and playlist-track items whose track is null are skipped.
//
// # Error Handling
//
// Non-2xx responses and transport failures become a [RequestError] whose Error() is the
// short per-operation message ("Failed to fetch playlists", ...). The kind, HTTP status
// and cause are kept on the value. Nothing is retried.
package services
