package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/urfave/cli/v3"
)

// requireSession refreshes the session and fails when it cannot authorize API calls.
func (r *Runner) requireSession(ctx context.Context) error {
	r.engine.SyncSession(ctx)
	s := r.session.Session()
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: run 'spotlite auth login' to sign in again", err)
	}
	if !s.Authenticated() {
		return fmt.Errorf("%w: run 'spotlite auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// LibraryFavorites lists the saved tracks.
func (r *Runner) LibraryFavorites(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	if err := r.engine.FetchFavorites(ctx); err != nil {
		return fmt.Errorf("failed to fetch favorites: %w", err)
	}

	tracks := r.engine.Store().Snapshot().Music.FavoriteTracks
	return r.writeTracks("Favorites", tracks, cmd.Bool("json"), cmd.Bool("pretty"))
}

// LibraryPlaylists lists owned and followed playlists.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	if err := r.engine.FetchPlaylists(ctx); err != nil {
		return err
	}

	playlists := r.engine.Store().Snapshot().Music.Playlists
	if cmd.Bool("json") {
		if playlists == nil {
			playlists = []models.Playlist{}
		}
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for i, p := range playlists {
		owner := "followed"
		if p.IsOwner {
			owner = "owned"
		}
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   %s · %s\n", owner, shared.VisibilityString(p.Public))
	}
	return nil
}

// LibraryTracks lists the tracks of one playlist.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "playlist-id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	if err := r.engine.SelectPlaylist(ctx, id); err != nil {
		return fmt.Errorf("failed to fetch tracks for %s: %w", id, err)
	}

	tracks := r.engine.Store().Snapshot().Music.SelectedPlaylistTracks
	return r.writeTracks("Playlist "+id, tracks, cmd.Bool("json"), cmd.Bool("pretty"))
}

// LibrarySearch searches the catalog for tracks.
func (r *Runner) LibrarySearch(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	r.engine.SetSearchQuery(query)
	if err := r.engine.Search(ctx, query); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	tracks := r.engine.Store().Snapshot().Music.SearchResults
	return r.writeTracks(fmt.Sprintf("Search %q", query), tracks, cmd.Bool("json"), cmd.Bool("pretty"))
}
