package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgActionDone MsgKind = iota
	MsgSearchTick
	MsgToastExpired
	MsgSessionTick
	MsgStoreChanged
)

// actionResult is the payload of [MsgActionDone].
//
// ok is shown on success, fail (or the error's short message when empty) on failure. Empty
// strings with a nil error produce no notification.
type actionResult struct {
	ok   string
	fail string
	err  error
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(ok, fail string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{ok: ok, fail: fail, err: err}}
}

type searchTick struct {
	seq   int
	query string
}

// searchTickMsg is the constructor for [MsgSearchTick]
func searchTickMsg(seq int, query string) Msg {
	return Msg{kind: MsgSearchTick, data: searchTick{seq: seq, query: query}}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(seq int) Msg {
	return Msg{kind: MsgToastExpired, data: seq}
}

// sessionTickMsg is the constructor for [MsgSessionTick]
func sessionTickMsg() Msg {
	return Msg{kind: MsgSessionTick}
}

// storeChangedMsg is the constructor for [MsgStoreChanged]
func storeChangedMsg() Msg {
	return Msg{kind: MsgStoreChanged}
}
