package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/store"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item]. A nil playlist is the favorites entry.
type playlistItem struct {
	playlist *models.Playlist
	count    int
}

func (i playlistItem) FilterValue() string { return i.Title() }
func (i playlistItem) Title() string {
	if i.playlist == nil {
		return "♥ Favorites"
	}
	return i.playlist.Name
}
func (i playlistItem) Description() string {
	if i.playlist == nil {
		return fmt.Sprintf("%d tracks", i.count)
	}
	desc := "followed"
	if i.playlist.IsOwner {
		desc = "owned"
	}
	if i.playlist.Collaborative {
		desc += " • collaborative"
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track    models.Track
	favorite bool
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string {
	if i.favorite {
		return "♥ " + i.track.Name
	}
	return i.track.Name
}
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

func playlistItems(m store.MusicState) []list.Item {
	items := make([]list.Item, 0, len(m.Playlists)+1)
	items = append(items, playlistItem{count: len(m.FavoriteTracks)})
	for i := range m.Playlists {
		p := m.Playlists[i]
		items = append(items, playlistItem{playlist: &p})
	}
	return items
}

func trackItems(m store.MusicState) []list.Item {
	tracks := m.DisplayedTracks()
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, favorite: m.IsFavorite(t.ID)}
	}
	return items
}
