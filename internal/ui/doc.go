// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The screen is split into a library sidebar (favorites plus playlists) and the displayed track
// list, which shows search results while a search is active and the selection otherwise. The
// [Model] never owns library data: every action runs through a [tasks.SyncEngine] on a command
// goroutine and the view is rebuilt from a fresh store snapshot after each message.
//
// Search is debounced: each keystroke updates the query and schedules a 300ms tick tagged with a
// sequence number, and only the tick matching the latest keystroke issues the request.
//
// Outcomes are reported on a status line that clears itself after a few seconds. Keyboard
// navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
