package store

import "github.com/desertthunder/spotlite/internal/models"

// Operation names one asynchronous action kind.
type Operation string

const (
	FetchFavorites      Operation = "fetchFavorites"
	FetchPlaylists      Operation = "fetchPlaylists"
	FetchPlaylistTracks Operation = "fetchPlaylistTracks"
	CreatePlaylist      Operation = "createPlaylist"
	AddTrack            Operation = "addTrack"
	RemoveTrack         Operation = "removeTrack"
	ToggleFavorite      Operation = "toggleFavorite"
	RenamePlaylist      Operation = "renamePlaylist"
	DeletePlaylist      Operation = "deletePlaylist"
	FetchSearchResults  Operation = "fetchSearchResults"
	FetchCurrentUserID  Operation = "fetchCurrentUserId"
)

// Operations lists every action kind in a stable order.
var Operations = []Operation{
	FetchFavorites,
	FetchPlaylists,
	FetchPlaylistTracks,
	CreatePlaylist,
	AddTrack,
	RemoveTrack,
	ToggleFavorite,
	RenamePlaylist,
	DeletePlaylist,
	FetchSearchResults,
	FetchCurrentUserID,
}

// LoadingState holds one flag per [Operation]. A flag is true only while its operation is pending.
type LoadingState map[Operation]bool

func newLoadingState() LoadingState {
	ls := make(LoadingState, len(Operations))
	for _, op := range Operations {
		ls[op] = false
	}
	return ls
}

// Any reports whether some operation is pending.
func (l LoadingState) Any() bool {
	for _, v := range l {
		if v {
			return true
		}
	}
	return false
}

// ViewMode identifies which track list is displayed.
type ViewMode int

const (
	ViewSelection ViewMode = iota // selected playlist or favorites
	ViewSearch                    // search results
)

func (v ViewMode) String() string {
	if v == ViewSearch {
		return "search"
	}
	return "selection"
}

// MusicState is the library slice of the application state.
type MusicState struct {
	SearchResults          []models.Track
	SelectedPlaylistTracks []models.Track
	Playlists              []models.Playlist
	FavoriteTracks         []models.Track
	SearchQuery            string
	CurrentPlaylistID      *string // nil selects favorites
	IsLoading              LoadingState
	Error                  *string
}

// DisplayedTracks is SearchResults when non-empty, otherwise SelectedPlaylistTracks.
func (m MusicState) DisplayedTracks() []models.Track {
	if len(m.SearchResults) > 0 {
		return m.SearchResults
	}
	return m.SelectedPlaylistTracks
}

// ViewMode reports the list DisplayedTracks draws from.
func (m MusicState) ViewMode() ViewMode {
	if len(m.SearchResults) > 0 {
		return ViewSearch
	}
	return ViewSelection
}

// CurrentPlaylist returns the selected playlist, or nil when favorites are selected or the id is unknown.
func (m MusicState) CurrentPlaylist() *models.Playlist {
	if m.CurrentPlaylistID == nil {
		return nil
	}
	for i := range m.Playlists {
		if m.Playlists[i].ID == *m.CurrentPlaylistID {
			p := m.Playlists[i]
			return &p
		}
	}
	return nil
}

// IsFavorite reports whether the track id is among the favorites.
func (m MusicState) IsFavorite(id string) bool {
	return models.ContainsTrack(m.FavoriteTracks, id)
}

// AuthState is the session slice of the application state.
type AuthState struct {
	AccessToken string
	User        *models.User
	Loading     bool
	Error       *string
}

// State is the whole application state tree.
type State struct {
	Auth  AuthState
	Music MusicState
}

func (s State) clone() State {
	out := s
	out.Music.SearchResults = cloneTracks(s.Music.SearchResults)
	out.Music.SelectedPlaylistTracks = cloneTracks(s.Music.SelectedPlaylistTracks)
	out.Music.FavoriteTracks = cloneTracks(s.Music.FavoriteTracks)
	out.Music.Playlists = append([]models.Playlist(nil), s.Music.Playlists...)
	out.Music.CurrentPlaylistID = cloneString(s.Music.CurrentPlaylistID)
	out.Music.Error = cloneString(s.Music.Error)
	out.Music.IsLoading = make(LoadingState, len(s.Music.IsLoading))
	for k, v := range s.Music.IsLoading {
		out.Music.IsLoading[k] = v
	}
	out.Auth.Error = cloneString(s.Auth.Error)
	if s.Auth.User != nil {
		u := *s.Auth.User
		out.Auth.User = &u
	}
	return out
}

func cloneTracks(t []models.Track) []models.Track {
	if t == nil {
		return nil
	}
	return append([]models.Track(nil), t...)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
