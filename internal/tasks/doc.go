// Package tasks implements the synchronization actions that keep the application store
// consistent with the Spotify library.
//
// # Actions
//
// [SyncEngine] exposes one method per user intent. Every method:
//
//  1. runs the session sync so the credential store holds a fresh token
//  2. marks its [store.Operation] pending (clearing the shared error)
//  3. calls the [Library]
//  4. applies the result to the store, or records the short failure message
//
// Errors are logged with their full detail, stored as the short message and returned to
// the caller for a transient notification. Nothing is retried.
//
// Ordering rules:
//   - [SyncEngine.FetchPlaylists] resolves the user id before requesting playlists
//   - [SyncEngine.SelectPlaylist] empties the displayed list before fetching
//   - [SyncEngine.CreatePlaylist] and favorite additions prepend
//   - removals filter every entry sharing the track id
//   - [SyncEngine.ToggleFavorite] decides add vs. remove from local state only
//
// Rename and delete are skipped silently, with a log line and no stored error, when no
// access token is present.
//
// # Export
//
// [SyncEngine.Export] fetches playlists at a rate limited pace and writes them through a
// worker pool using the formatter package, finishing with a JSON manifest. Progress is
// reported on a non-blocking [ProgressUpdate] channel.
package tasks
