package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	focus    key.Binding
	enter    key.Binding
	back     key.Binding
	search   key.Binding
	like     key.Binding
	add      key.Binding
	remove   key.Binding
	create   key.Binding
	rename   key.Binding
	delete   key.Binding
	open     key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
	showHelp key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		like:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle favorite")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to playlist")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove from playlist")),
		create:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new playlist")),
		rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete/unfollow")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open preview")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		showHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.focus, k.enter, k.search, k.like, k.showHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.focus, k.enter, k.back},
		{k.search, k.like, k.add, k.remove, k.open},
		{k.create, k.rename, k.delete, k.quit},
	}
}
