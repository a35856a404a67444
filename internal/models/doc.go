// Package models defines the normalized entities shared by the API client, the store and the UI.
//
//   - [Track] : display metadata for a playable item, identified by ID
//   - [Playlist] : playlist metadata with ownership resolved against the current user
//   - [User] : the authenticated account
//   - [PlaylistExport] : playlist with complete track listing, used by export
//
// None of these types are persisted; they live in memory for the lifetime of the process.
package models
