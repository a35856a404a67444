// package store holds the in-memory application state and its named transitions
package store

import (
	"sync"

	"github.com/desertthunder/spotlite/internal/models"
)

// Store is the single source of truth for what the UI renders.
//
// All mutation goes through the transition methods, one at a time.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []func()
}

// New returns a store with empty state and every loading flag false.
func New() *Store {
	return &Store{state: State{Music: MusicState{IsLoading: newLoadingState()}}}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to run after every transition.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

// Begin marks op pending and clears the shared error.
func (s *Store) Begin(op Operation) {
	s.update(func(st *State) {
		st.Music.IsLoading[op] = true
		st.Music.Error = nil
	})
}

// Succeed marks op fulfilled, leaving the shared error untouched.
func (s *Store) Succeed(op Operation) {
	s.update(func(st *State) {
		st.Music.IsLoading[op] = false
	})
}

// Fail marks op rejected and records msg as the shared error.
func (s *Store) Fail(op Operation, msg string) {
	s.update(func(st *State) {
		st.Music.IsLoading[op] = false
		st.Music.Error = &msg
	})
}

// SetFavorites replaces the favorites, mirroring them into the selection while no playlist is selected.
func (s *Store) SetFavorites(tracks []models.Track) {
	s.update(func(st *State) {
		setFavorites(st, cloneTracks(tracks))
	})
}

// setFavorites is the only writer of FavoriteTracks so the fallback rule is re-applied on every change.
func setFavorites(st *State, tracks []models.Track) {
	st.Music.FavoriteTracks = tracks
	if st.Music.CurrentPlaylistID == nil {
		st.Music.SelectedPlaylistTracks = cloneTracks(tracks)
	}
}

// PrependFavorite inserts track at the front of the favorites.
func (s *Store) PrependFavorite(track models.Track) {
	s.update(func(st *State) {
		next := append([]models.Track{track}, st.Music.FavoriteTracks...)
		setFavorites(st, next)
	})
}

// RemoveFavorite drops every favorite with the given id.
func (s *Store) RemoveFavorite(id string) {
	s.update(func(st *State) {
		setFavorites(st, models.FilterTracks(st.Music.FavoriteTracks, id))
	})
}

// SetPlaylists replaces the playlist list.
func (s *Store) SetPlaylists(playlists []models.Playlist) {
	s.update(func(st *State) {
		st.Music.Playlists = append([]models.Playlist(nil), playlists...)
	})
}

// PrependPlaylist inserts a newly created playlist at the front.
func (s *Store) PrependPlaylist(p models.Playlist) {
	s.update(func(st *State) {
		st.Music.Playlists = append([]models.Playlist{p}, st.Music.Playlists...)
	})
}

// RenamePlaylist updates a playlist's name in place.
func (s *Store) RenamePlaylist(id, name string) {
	s.update(func(st *State) {
		for i := range st.Music.Playlists {
			if st.Music.Playlists[i].ID == id {
				st.Music.Playlists[i].Name = name
			}
		}
	})
}

// RemovePlaylist drops the playlist with the given id.
func (s *Store) RemovePlaylist(id string) {
	s.update(func(st *State) {
		out := make([]models.Playlist, 0, len(st.Music.Playlists))
		for _, p := range st.Music.Playlists {
			if p.ID != id {
				out = append(out, p)
			}
		}
		st.Music.Playlists = out
	})
}

// SelectPlaylist sets the current playlist and clears the displayed and search lists.
func (s *Store) SelectPlaylist(id string) {
	s.update(func(st *State) {
		st.Music.CurrentPlaylistID = &id
		st.Music.SelectedPlaylistTracks = []models.Track{}
		st.Music.SearchResults = []models.Track{}
		st.Music.SearchQuery = ""
	})
}

// SelectFavorites clears the playlist selection and search, displaying favorites.
func (s *Store) SelectFavorites() {
	s.update(func(st *State) {
		st.Music.CurrentPlaylistID = nil
		st.Music.SearchResults = []models.Track{}
		st.Music.SearchQuery = ""
		st.Music.SelectedPlaylistTracks = cloneTracks(st.Music.FavoriteTracks)
	})
}

// SetPlaylistTracks stores fetched tracks for playlistID.
//
// Results for a playlist that is no longer selected are dropped and false is returned.
func (s *Store) SetPlaylistTracks(playlistID string, tracks []models.Track) bool {
	applied := false
	s.update(func(st *State) {
		if st.Music.CurrentPlaylistID == nil || *st.Music.CurrentPlaylistID != playlistID {
			return
		}
		st.Music.SelectedPlaylistTracks = cloneTracks(tracks)
		applied = true
	})
	return applied
}

// SetSelectedTracks replaces the displayed selection.
func (s *Store) SetSelectedTracks(tracks []models.Track) {
	s.update(func(st *State) {
		st.Music.SelectedPlaylistTracks = cloneTracks(tracks)
	})
}

// AppendSelectedTrack adds a track to the end of the displayed selection.
func (s *Store) AppendSelectedTrack(track models.Track) {
	s.update(func(st *State) {
		st.Music.SelectedPlaylistTracks = append(st.Music.SelectedPlaylistTracks, track)
	})
}

// RemoveSelectedTrack drops every entry with the given id from the selection.
func (s *Store) RemoveSelectedTrack(id string) {
	s.update(func(st *State) {
		st.Music.SelectedPlaylistTracks = models.FilterTracks(st.Music.SelectedPlaylistTracks, id)
	})
}

// SetSearchQuery records the current search box contents.
func (s *Store) SetSearchQuery(q string) {
	s.update(func(st *State) {
		st.Music.SearchQuery = q
	})
}

// SetSearchResults replaces the search results.
func (s *Store) SetSearchResults(tracks []models.Track) {
	s.update(func(st *State) {
		st.Music.SearchResults = cloneTracks(tracks)
	})
}

// ClearSearch empties the query and results.
func (s *Store) ClearSearch() {
	s.update(func(st *State) {
		st.Music.SearchQuery = ""
		st.Music.SearchResults = []models.Track{}
	})
}

// SetSession copies an established session into the auth slice.
func (s *Store) SetSession(accessToken, userID string) {
	s.update(func(st *State) {
		st.Auth.AccessToken = accessToken
		st.Auth.Error = nil
		if userID == "" {
			return
		}
		if st.Auth.User == nil || st.Auth.User.ID != userID {
			st.Auth.User = &models.User{ID: userID}
		}
	})
}

// SetUser records the resolved account.
func (s *Store) SetUser(u models.User) {
	s.update(func(st *State) {
		st.Auth.User = &u
	})
}

// SetAuthLoading toggles the auth slice loading flag.
func (s *Store) SetAuthLoading(loading bool) {
	s.update(func(st *State) {
		st.Auth.Loading = loading
	})
}

// SetAuthError records a session level error such as a failed refresh.
func (s *Store) SetAuthError(msg string) {
	s.update(func(st *State) {
		st.Auth.Error = &msg
	})
}

// Logout clears the auth slice.
func (s *Store) Logout() {
	s.update(func(st *State) {
		st.Auth = AuthState{}
	})
}

// ClearError dismisses the shared music error.
func (s *Store) ClearError() {
	s.update(func(st *State) {
		st.Music.Error = nil
	})
}
