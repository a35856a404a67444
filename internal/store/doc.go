// Package store implements the application store: an auth slice and a music slice
// mutated only through named transitions on [Store].
//
// Each asynchronous action kind has a flag in [LoadingState] and follows
// idle → pending → fulfilled | rejected through [Store.Begin], [Store.Succeed] and
// [Store.Fail]. The shared error is cleared on pending, set on rejected and left alone
// on fulfilled.
//
// The displayed track list is derived at read time by [MusicState.DisplayedTracks]:
// search results when non-empty, otherwise the selection. While no playlist is
// selected every change to the favorites is mirrored into the selection.
package store
