package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/session"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/desertthunder/spotlite/internal/store"
)

// Library is the remote API surface the engine needs. [services.SpotifyClient] implements it.
type Library interface {
	FavoriteTracks(ctx context.Context) ([]models.Track, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	Playlists(ctx context.Context, userID string) ([]models.Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)
	CreatePlaylist(ctx context.Context, name, ownerID string) (*models.Playlist, error)
	AddTrack(ctx context.Context, playlistID string, track models.Track) error
	RemoveTrack(ctx context.Context, playlistID string, track models.Track) error
	SaveFavorite(ctx context.Context, trackID string) error
	RemoveFavorite(ctx context.Context, trackID string) error
	RenamePlaylist(ctx context.Context, playlistID, name string) error
	UnfollowPlaylist(ctx context.Context, playlistID string) error
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// SessionSyncer keeps the credential store current before each action. [session.Manager] implements it.
type SessionSyncer interface {
	Sync(ctx context.Context) session.Session
}

type userRecorder interface {
	SetUserID(id string)
}

// ActionError is returned when an action fails because a dependent step failed.
//
// Error is the short message of the outer action; Unwrap yields the inner failure.
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string { return e.Message }
func (e *ActionError) Unwrap() error { return e.Err }

// detailer is implemented by errors that carry more than their short message.
type detailer interface {
	Detail() string
}

// SyncEngine orchestrates library actions against a [store.Store].
type SyncEngine struct {
	lib     Library
	store   *store.Store
	session SessionSyncer
	logger  *log.Logger
}

// NewSyncEngine creates an engine. sess may be nil when the caller manages tokens itself.
func NewSyncEngine(lib Library, st *store.Store, sess SessionSyncer, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if st == nil {
		st = store.New()
	}
	return &SyncEngine{
		lib:     lib,
		store:   st,
		session: sess,
		logger:  shared.WithLogger(logger, "component", "sync"),
	}
}

// Store returns the store the engine mutates.
func (e *SyncEngine) Store() *store.Store {
	return e.store
}

// BindSession mirrors every session change from m into the auth slice.
func (e *SyncEngine) BindSession(m *session.Manager) {
	m.OnSessionChange(func(s session.Session) {
		switch {
		case s.Authenticated():
			e.store.SetSession(s.AccessToken, s.UserID)
		case s.Error != "":
			e.store.SetSession("", s.UserID)
			e.store.SetAuthError(s.Error)
			e.logger.Warn("session needs re-authentication", "error", s.Error)
		default:
			e.store.Logout()
		}
	})
}

// SyncSession runs the session lifecycle check.
func (e *SyncEngine) SyncSession(ctx context.Context) {
	if e.session == nil {
		return
	}
	e.store.SetAuthLoading(true)
	e.session.Sync(ctx)
	e.store.SetAuthLoading(false)
}

// run wraps fn in the pending/fulfilled/rejected lifecycle of op.
func (e *SyncEngine) run(ctx context.Context, op store.Operation, fn func(ctx context.Context) error) error {
	e.SyncSession(ctx)

	logger := e.logger.With("op", op, "request_id", shared.GenerateID()[:8])
	e.store.Begin(op)

	if err := fn(ctx); err != nil {
		detail := err.Error()
		var d detailer
		if errors.As(err, &d) {
			detail = d.Detail()
		}
		logger.Error("action failed", "error", detail)
		e.store.Fail(op, err.Error())
		return err
	}

	logger.Debug("action succeeded")
	e.store.Succeed(op)
	return nil
}

// Mount loads favorites (which become the selection while nothing is selected) and then playlists.
//
// Both actions run even if the first one fails; the first error is returned.
func (e *SyncEngine) Mount(ctx context.Context) error {
	favErr := e.FetchFavorites(ctx)
	plErr := e.FetchPlaylists(ctx)
	if favErr != nil {
		return favErr
	}
	return plErr
}

// FetchFavorites replaces the favorites with the remote saved tracks.
func (e *SyncEngine) FetchFavorites(ctx context.Context) error {
	return e.run(ctx, store.FetchFavorites, func(ctx context.Context) error {
		tracks, err := e.lib.FavoriteTracks(ctx)
		if err != nil {
			return err
		}
		e.store.SetFavorites(tracks)
		return nil
	})
}

// FetchCurrentUserID resolves and records the authenticated user.
func (e *SyncEngine) FetchCurrentUserID(ctx context.Context) (string, error) {
	var id string
	err := e.run(ctx, store.FetchCurrentUserID, func(ctx context.Context) error {
		user, err := e.lib.CurrentUser(ctx)
		if err != nil {
			return err
		}
		id = user.ID
		e.store.SetUser(*user)
		if r, ok := e.session.(userRecorder); ok {
			r.SetUserID(user.ID)
		}
		return nil
	})
	return id, err
}

// FetchPlaylists resolves the user id first, then fetches playlists so ownership can be computed.
func (e *SyncEngine) FetchPlaylists(ctx context.Context) error {
	return e.run(ctx, store.FetchPlaylists, func(ctx context.Context) error {
		userID, err := e.FetchCurrentUserID(ctx)
		if err != nil {
			return &ActionError{Message: "Failed to fetch playlists", Err: err}
		}

		playlists, err := e.lib.Playlists(ctx, userID)
		if err != nil {
			return err
		}
		e.store.SetPlaylists(playlists)
		return nil
	})
}

// SelectPlaylist clears the displayed list and search before fetching the playlist's tracks.
//
// Tracks that arrive after another playlist was selected are discarded.
func (e *SyncEngine) SelectPlaylist(ctx context.Context, playlistID string) error {
	e.ShowPlaylist(playlistID)
	return e.FetchPlaylistTracks(ctx, playlistID)
}

// ShowPlaylist makes playlistID the current selection with an empty track list and search.
func (e *SyncEngine) ShowPlaylist(playlistID string) {
	e.store.SelectPlaylist(playlistID)
}

// FetchPlaylistTracks loads a playlist's tracks into the selection if it is still current.
func (e *SyncEngine) FetchPlaylistTracks(ctx context.Context, playlistID string) error {
	return e.run(ctx, store.FetchPlaylistTracks, func(ctx context.Context) error {
		tracks, err := e.lib.PlaylistTracks(ctx, playlistID)
		if err != nil {
			return err
		}
		if !e.store.SetPlaylistTracks(playlistID, tracks) {
			e.logger.Debug("discarding tracks for superseded selection", "playlist", playlistID)
		}
		return nil
	})
}

// SelectFavorites shows the favorites and clears any search.
func (e *SyncEngine) SelectFavorites() {
	e.store.SelectFavorites()
}

// CreatePlaylist creates a private playlist and puts it first in the list.
func (e *SyncEngine) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	var created *models.Playlist
	err := e.run(ctx, store.CreatePlaylist, func(ctx context.Context) error {
		ownerID := ""
		if u := e.store.Snapshot().Auth.User; u != nil {
			ownerID = u.ID
		}

		p, err := e.lib.CreatePlaylist(ctx, name, ownerID)
		if err != nil {
			return err
		}
		p.IsOwner = true
		created = p
		e.store.PrependPlaylist(*p)
		return nil
	})
	return created, err
}

// AddTrack appends track to a playlist, reflecting it locally when that playlist is displayed.
func (e *SyncEngine) AddTrack(ctx context.Context, playlistID string, track models.Track) error {
	return e.run(ctx, store.AddTrack, func(ctx context.Context) error {
		if err := e.lib.AddTrack(ctx, playlistID, track); err != nil {
			return err
		}
		if cur := e.store.Snapshot().Music.CurrentPlaylistID; cur != nil && *cur == playlistID {
			e.store.AppendSelectedTrack(track)
		}
		return nil
	})
}

// RemoveTrack removes every occurrence of track from the playlist and from the displayed selection.
func (e *SyncEngine) RemoveTrack(ctx context.Context, playlistID string, track models.Track) error {
	return e.run(ctx, store.RemoveTrack, func(ctx context.Context) error {
		if err := e.lib.RemoveTrack(ctx, playlistID, track); err != nil {
			return err
		}
		e.store.RemoveSelectedTrack(track.ID)
		return nil
	})
}

// ToggleFavorite removes track from favorites if the local list has it, otherwise saves it.
//
// The decision uses local state only. It returns true when the track was removed.
func (e *SyncEngine) ToggleFavorite(ctx context.Context, track models.Track) (removed bool, err error) {
	err = e.run(ctx, store.ToggleFavorite, func(ctx context.Context) error {
		removed = e.store.Snapshot().Music.IsFavorite(track.ID)
		if removed {
			if err := e.lib.RemoveFavorite(ctx, track.ID); err != nil {
				return err
			}
			e.store.RemoveFavorite(track.ID)
			return nil
		}

		if err := e.lib.SaveFavorite(ctx, track.ID); err != nil {
			return err
		}
		e.store.PrependFavorite(track)
		return nil
	})
	return removed, err
}

// RenamePlaylist renames a playlist and updates it in place.
//
// Without an access token the call is logged and skipped: it returns (false, nil) and records no error.
func (e *SyncEngine) RenamePlaylist(ctx context.Context, playlistID, name string) (bool, error) {
	if !e.hasToken(ctx) {
		e.logger.Error("No access token available for renaming playlist.")
		return false, nil
	}
	err := e.run(ctx, store.RenamePlaylist, func(ctx context.Context) error {
		if err := e.lib.RenamePlaylist(ctx, playlistID, name); err != nil {
			return err
		}
		e.store.RenamePlaylist(playlistID, name)
		return nil
	})
	return err == nil, err
}

// DeletePlaylist unfollows a playlist and removes it from the list.
//
// Without an access token the call is logged and skipped: it returns (false, nil) and records no error.
func (e *SyncEngine) DeletePlaylist(ctx context.Context, playlistID string) (bool, error) {
	if !e.hasToken(ctx) {
		e.logger.Error("No access token available for deleting playlist.")
		return false, nil
	}
	err := e.run(ctx, store.DeletePlaylist, func(ctx context.Context) error {
		if err := e.lib.UnfollowPlaylist(ctx, playlistID); err != nil {
			return err
		}
		e.store.RemovePlaylist(playlistID)
		return nil
	})
	return err == nil, err
}

// Search replaces the search results. A blank query issues nothing.
func (e *SyncEngine) Search(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	return e.run(ctx, store.FetchSearchResults, func(ctx context.Context) error {
		tracks, err := e.lib.Search(ctx, query)
		if err != nil {
			return err
		}
		e.store.SetSearchResults(tracks)
		return nil
	})
}

// SetSearchQuery records the search box contents. Clearing the box clears the results.
func (e *SyncEngine) SetSearchQuery(q string) {
	if q == "" {
		e.store.ClearSearch()
		return
	}
	e.store.SetSearchQuery(q)
}

// Logout drops the session and the auth slice.
func (e *SyncEngine) Logout(m *session.Manager) {
	if m != nil {
		m.Logout()
	}
	e.store.Logout()
}

func (e *SyncEngine) hasToken(ctx context.Context) bool {
	e.SyncSession(ctx)
	return e.store.Snapshot().Auth.AccessToken != ""
}

// Describe returns a one-line summary of the store for status output.
func Describe(st store.State) string {
	view := "favorites"
	if p := st.Music.CurrentPlaylist(); p != nil {
		view = p.Name
	}
	if st.Music.ViewMode() == store.ViewSearch {
		view = fmt.Sprintf("search %q", st.Music.SearchQuery)
	}
	return fmt.Sprintf("%s · %d tracks · %d playlists", view, len(st.Music.DisplayedTracks()), len(st.Music.Playlists))
}
