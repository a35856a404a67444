package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/desertthunder/spotlite/internal/store"
	"github.com/desertthunder/spotlite/internal/tasks"
)

const (
	searchDebounce  = 300 * time.Millisecond
	toastDuration   = 3 * time.Second
	sessionInterval = time.Minute
)

// focusArea is the pane receiving navigation keys.
type focusArea int

const (
	focusPlaylists focusArea = iota
	focusTracks
)

// inputMode is what the keyboard is currently editing or confirming.
type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeCreate
	modeRename
	modeAddTrack
	modeConfirmDelete
)

// Model represents the TUI application state.
//
// The store is the source of truth; Model keeps the latest snapshot and rebuilds its lists from it
// after every message.
type Model struct {
	ctx     context.Context
	engine  *tasks.SyncEngine
	state   store.State
	width   int
	height  int
	focus   focusArea
	mode    inputMode
	target  *models.Playlist
	pending *models.Track

	playlistList list.Model
	trackList    list.Model
	search       textinput.Model
	prompt       textinput.Model
	help         help.Model
	keys         keyMap

	searchSeq int
	toast     string
	toastErr  bool
	toastSeq  int
	openURL   func(string) error
}

// NewModel creates a new TUI model driving engine.
func NewModel(ctx context.Context, engine *tasks.SyncEngine) *Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search tracks"
	search.CharLimit = 120

	prompt := textinput.New()
	prompt.Prompt = "> "
	prompt.CharLimit = 100

	m := &Model{
		ctx:          ctx,
		engine:       engine,
		playlistList: newList("Library"),
		trackList:    newList("Favorites"),
		search:       search,
		prompt:       prompt,
		help:         help.New(),
		keys:         newKeyMap(),
		openURL:      shared.OpenBrowser,
	}
	m.refresh()
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return l
}

// WatchStore forwards store transitions to send until ctx is done.
//
// The listener never blocks: transitions coalesce into one pending message, so a transition made
// from inside Update cannot stall the event loop.
func WatchStore(ctx context.Context, st *store.Store, send func(tea.Msg)) {
	changed := make(chan struct{}, 1)
	st.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				send(storeChangedMsg())
			}
		}
	}()
}

// SetOpener replaces the function used to open preview URLs.
func (m *Model) SetOpener(fn func(string) error) {
	m.openURL = fn
}

// Init loads the library and starts the periodic session check.
func (m *Model) Init() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	mount := func() tea.Msg {
		return actionDoneMsg("", "", engine.Mount(ctx))
	}
	return tea.Batch(mount, m.scheduleSessionSync())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		cmd = m.handleKey(msg)
	case Msg:
		cmd = m.handleMsg(msg)
	default:
		switch m.mode {
		case modeSearch:
			m.search, cmd = m.search.Update(msg)
		case modeCreate, modeRename:
			m.prompt, cmd = m.prompt.Update(msg)
		}
	}

	m.refresh()
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	header := styles.title.Render("spotlite") + "  " + styles.help.Render(m.describe())

	sidebar := styles.Pane(m.focus == focusPlaylists || m.mode == modeAddTrack).Render(m.playlistList.View())
	main := styles.Pane(m.focus == focusTracks && m.mode != modeAddTrack).Render(m.trackList.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	sections := []string{header, body}
	if line := m.inputLine(); line != "" {
		sections = append(sections, line)
	}
	if status := m.statusLine(); status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgActionDone:
		r := msg.data.(actionResult)
		if r.err != nil {
			text := r.fail
			if text == "" {
				text = r.err.Error()
			}
			return m.notify(text, true)
		}
		if r.ok != "" {
			return m.notify(r.ok, false)
		}
	case MsgSearchTick:
		t := msg.data.(searchTick)
		if t.seq != m.searchSeq {
			return nil
		}
		return m.runSearch(t.query)
	case MsgToastExpired:
		if msg.data.(int) == m.toastSeq {
			m.toast = ""
			m.toastErr = false
		}
	case MsgSessionTick:
		engine, ctx := m.engine, m.ctx
		sync := func() tea.Msg {
			engine.SyncSession(ctx)
			return actionDoneMsg("", "", nil)
		}
		return tea.Batch(sync, m.scheduleSessionSync())
	case MsgStoreChanged:
		// Update re-renders from the snapshot after every message.
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case modeSearch, modeCreate, modeRename:
		return m.handleInputKeys(msg)
	case modeConfirmDelete:
		return m.handleConfirmKeys(msg)
	case modeAddTrack:
		return m.handleAddTrackKeys(msg)
	}
	return m.handleBrowseKeys(msg)
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.showHelp):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.focus):
		if m.focus == focusPlaylists {
			m.focus = focusTracks
		} else {
			m.focus = focusPlaylists
		}
		return nil
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.focus = focusTracks
		return m.search.Focus()
	case key.Matches(msg, m.keys.back):
		if m.state.Music.ViewMode() == store.ViewSearch || m.search.Value() != "" {
			m.search.Reset()
			return m.onQueryChange("")
		}
		return nil
	}

	if m.focus == focusPlaylists {
		return m.handlePlaylistKeys(msg)
	}
	return m.handleTrackKeys(msg)
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.enter):
		p, ok := m.selectedPlaylist()
		if !ok {
			return nil
		}
		m.search.Reset()
		m.searchSeq++
		m.trackList.Select(0)
		if p == nil {
			m.engine.SelectFavorites()
			return nil
		}
		engine, ctx, id := m.engine, m.ctx, p.ID
		engine.ShowPlaylist(id)
		return func() tea.Msg {
			return actionDoneMsg("", "", engine.FetchPlaylistTracks(ctx, id))
		}
	case key.Matches(msg, m.keys.create):
		return m.openPrompt(modeCreate, "New playlist name", "")
	case key.Matches(msg, m.keys.rename):
		if p, ok := m.selectedPlaylist(); ok && p != nil {
			m.target = p
			return m.openPrompt(modeRename, "New name", p.Name)
		}
		return nil
	case key.Matches(msg, m.keys.delete):
		if p, ok := m.selectedPlaylist(); ok && p != nil {
			m.target = p
			m.mode = modeConfirmDelete
		}
		return nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return cmd
}

func (m *Model) handleTrackKeys(msg tea.KeyMsg) tea.Cmd {
	track, ok := m.selectedTrack()

	switch {
	case key.Matches(msg, m.keys.like):
		if ok {
			return m.toggleFavorite(track)
		}
		return nil
	case key.Matches(msg, m.keys.add):
		if ok {
			m.pending = &track
			m.mode = modeAddTrack
		}
		return nil
	case key.Matches(msg, m.keys.remove):
		cur := m.state.Music.CurrentPlaylistID
		if ok && cur != nil && m.state.Music.ViewMode() == store.ViewSelection {
			return m.removeTrack(*cur, track)
		}
		return nil
	case key.Matches(msg, m.keys.open), key.Matches(msg, m.keys.enter):
		if ok {
			return m.open(track)
		}
		return nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return cmd
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeSearch {
			m.search.Reset()
			m.closeInput()
			return m.onQueryChange("")
		}
		m.closeInput()
		return nil
	case tea.KeyEnter:
		return m.submitInput()
	}

	var cmd tea.Cmd
	if m.mode == modeSearch {
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if after := m.search.Value(); after != before {
			return tea.Batch(cmd, m.onQueryChange(after))
		}
		return cmd
	}

	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) submitInput() tea.Cmd {
	mode := m.mode
	name := strings.TrimSpace(m.prompt.Value())
	target := m.target
	m.closeInput()

	switch mode {
	case modeCreate:
		if name != "" {
			return m.createPlaylist(name)
		}
	case modeRename:
		if name != "" && target != nil {
			return m.renamePlaylist(target.ID, name)
		}
	}
	return nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) tea.Cmd {
	target := m.target
	switch {
	case key.Matches(msg, m.keys.yes):
		m.mode = modeBrowse
		m.target = nil
		if target != nil {
			return m.deletePlaylist(*target)
		}
	case key.Matches(msg, m.keys.no):
		m.mode = modeBrowse
		m.target = nil
	}
	return nil
}

func (m *Model) handleAddTrackKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		m.mode = modeBrowse
		m.pending = nil
		return nil
	case key.Matches(msg, m.keys.enter):
		p, ok := m.selectedPlaylist()
		if !ok || p == nil || m.pending == nil {
			return nil
		}
		track := *m.pending
		m.mode = modeBrowse
		m.pending = nil
		return m.addTrack(p.ID, track)
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return cmd
}

// onQueryChange records the query and schedules a debounced search for it.
//
// Every call bumps the sequence so only the tick for the latest keystroke searches.
func (m *Model) onQueryChange(q string) tea.Cmd {
	m.engine.SetSearchQuery(q)
	m.searchSeq++
	if strings.TrimSpace(q) == "" {
		return nil
	}

	seq := m.searchSeq
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg(seq, q)
	})
}

func (m *Model) runSearch(q string) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return actionDoneMsg("", "", engine.Search(ctx, q))
	}
}

func (m *Model) createPlaylist(name string) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		p, err := engine.CreatePlaylist(ctx, name)
		if err != nil {
			return actionDoneMsg("", "Failed to create playlist.", err)
		}
		return actionDoneMsg(fmt.Sprintf("Playlist %q created successfully!", p.Name), "", nil)
	}
}

func (m *Model) renamePlaylist(id, name string) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		done, err := engine.RenamePlaylist(ctx, id, name)
		if !done {
			return actionDoneMsg("", "", err)
		}
		return actionDoneMsg(fmt.Sprintf("Playlist renamed to %q successfully!", name), "", nil)
	}
}

func (m *Model) deletePlaylist(p models.Playlist) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	ok := "Playlist deleted successfully!"
	if !p.IsOwner {
		ok = "Playlist unfollowed successfully!"
	}
	return func() tea.Msg {
		done, err := engine.DeletePlaylist(ctx, p.ID)
		if !done {
			return actionDoneMsg("", "", err)
		}
		return actionDoneMsg(ok, "", nil)
	}
}

func (m *Model) addTrack(playlistID string, track models.Track) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		err := engine.AddTrack(ctx, playlistID, track)
		return actionDoneMsg(
			fmt.Sprintf("Added %q to playlist.", track.Name),
			fmt.Sprintf("Failed to add %q to playlist.", track.Name),
			err,
		)
	}
}

func (m *Model) removeTrack(playlistID string, track models.Track) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		err := engine.RemoveTrack(ctx, playlistID, track)
		return actionDoneMsg(
			fmt.Sprintf("Removed all instances %q from playlist.", track.Name),
			fmt.Sprintf("Failed to remove %q from playlist.", track.Name),
			err,
		)
	}
}

func (m *Model) toggleFavorite(track models.Track) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		removed, err := engine.ToggleFavorite(ctx, track)
		ok := fmt.Sprintf("Added %q to favorites.", track.Name)
		if removed {
			ok = fmt.Sprintf("Removed all instances of %q from favorites.", track.Name)
		}
		return actionDoneMsg(ok, fmt.Sprintf("Failed to update favorite status for %q.", track.Name), err)
	}
}

func (m *Model) open(track models.Track) tea.Cmd {
	url, opener := track.OpenURL(), m.openURL
	if url == "" {
		return m.notify("No preview available.", true)
	}
	return func() tea.Msg {
		if err := opener(url); err != nil {
			return actionDoneMsg("", "Failed to open preview.", err)
		}
		return actionDoneMsg("", "", nil)
	}
}

func (m *Model) notify(text string, isErr bool) tea.Cmd {
	m.toastSeq++
	m.toast = text
	m.toastErr = isErr
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg(seq)
	})
}

func (m *Model) scheduleSessionSync() tea.Cmd {
	return tea.Tick(sessionInterval, func(time.Time) tea.Msg {
		return sessionTickMsg()
	})
}

func (m *Model) openPrompt(mode inputMode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.prompt.Placeholder = placeholder
	m.prompt.SetValue(value)
	return m.prompt.Focus()
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.target = nil
	m.search.Blur()
	m.prompt.Blur()
	m.prompt.Reset()
}

func (m *Model) selectedPlaylist() (*models.Playlist, bool) {
	item, ok := m.playlistList.SelectedItem().(playlistItem)
	if !ok {
		return nil, false
	}
	return item.playlist, true
}

func (m *Model) selectedTrack() (models.Track, bool) {
	item, ok := m.trackList.SelectedItem().(trackItem)
	if !ok {
		return models.Track{}, false
	}
	return item.track, true
}

// refresh pulls a fresh snapshot and rebuilds both lists from it.
func (m *Model) refresh() {
	m.state = m.engine.Store().Snapshot()
	m.playlistList.SetItems(playlistItems(m.state.Music))
	m.trackList.SetItems(trackItems(m.state.Music))
	m.trackList.Title = m.trackTitle()
}

func (m *Model) resize() {
	sideWidth := m.width / 3
	height := m.height - 8
	if height < 5 {
		height = 5
	}
	m.playlistList.SetSize(sideWidth-4, height)
	m.trackList.SetSize(m.width-sideWidth-4, height)
	m.search.Width = m.width - 6
	m.prompt.Width = m.width - 6
}

func (m *Model) trackTitle() string {
	music := m.state.Music
	if music.ViewMode() == store.ViewSearch {
		return fmt.Sprintf("Search: %s", shared.Truncate(music.SearchQuery, 40))
	}
	if p := music.CurrentPlaylist(); p != nil {
		return p.Name
	}
	if music.CurrentPlaylistID != nil {
		return "Playlist"
	}
	return "Favorites"
}

func (m *Model) describe() string {
	summary := tasks.Describe(m.state)
	if u := m.state.Auth.User; u != nil {
		name := u.DisplayName
		if name == "" {
			name = u.ID
		}
		return name + " · " + summary
	}
	return summary
}

func (m *Model) inputLine() string {
	switch m.mode {
	case modeSearch:
		return m.search.View()
	case modeCreate, modeRename:
		return m.prompt.View()
	case modeAddTrack:
		if m.pending != nil {
			return styles.warn.Render(fmt.Sprintf("Choose a playlist for %q (enter to add, esc to cancel)", m.pending.Name))
		}
	case modeConfirmDelete:
		if m.target != nil {
			return styles.warn.Render(fmt.Sprintf("%s %q? (y/n)", capitalize(m.target.DeleteVerb()), m.target.Name))
		}
	}
	if q := m.search.Value(); q != "" {
		return styles.help.Render("/ " + q)
	}
	return ""
}

func (m *Model) statusLine() string {
	switch {
	case m.toast != "" && m.toastErr:
		return styles.err.Render(m.toast)
	case m.toast != "":
		return styles.ok.Render(m.toast)
	case m.state.Auth.Error != nil:
		return styles.err.Render("Session expired. Run `spotlite auth login` to sign in again.")
	case m.state.Music.Error != nil:
		return styles.err.Render(*m.state.Music.Error)
	case m.state.Music.IsLoading.Any() || m.state.Auth.Loading:
		return styles.warn.Render("Loading…")
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
