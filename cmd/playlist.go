package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/urfave/cli/v3"
)

const trackURIPrefix = "spotify:track:"

// trackRef builds a track reference from a bare id or a spotify:track: URI.
func trackRef(id string) models.Track {
	id = strings.TrimPrefix(id, trackURIPrefix)
	return models.Track{ID: id, URI: trackURIPrefix + id}
}

// findPlaylist loads the playlists and returns the one with id.
func (r *Runner) findPlaylist(ctx context.Context, id string) (models.Playlist, error) {
	if err := r.engine.FetchPlaylists(ctx); err != nil {
		return models.Playlist{}, err
	}
	for _, p := range r.engine.Store().Snapshot().Music.Playlists {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
}

// PlaylistCreate creates a private playlist owned by the current user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	if _, err := r.engine.FetchCurrentUserID(ctx); err != nil {
		return fmt.Errorf("failed to resolve the current user: %w", err)
	}

	p, err := r.engine.CreatePlaylist(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	r.logger.Info("playlist created", "id", p.ID, "name", p.Name)
	return r.writePlain("✓ Playlist %q created (%s)\n", p.Name, p.ID)
}

// PlaylistRename renames a playlist.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "playlist-id")
	if err != nil {
		return err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	done, err := r.engine.RenamePlaylist(ctx, id, name)
	if err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}
	if !done {
		return fmt.Errorf("%w: rename skipped", shared.ErrNotAuthenticated)
	}
	return r.writePlain("✓ Playlist renamed to %q\n", name)
}

// PlaylistDelete removes a playlist from the library: owned playlists are deleted, others unfollowed.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "playlist-id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	p, err := r.findPlaylist(ctx, id)
	if err != nil {
		return err
	}

	done, err := r.engine.DeletePlaylist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to %s playlist: %w", p.DeleteVerb(), err)
	}
	if !done {
		return fmt.Errorf("%w: %s skipped", shared.ErrNotAuthenticated, p.DeleteVerb())
	}

	verb := "Deleted"
	if !p.IsOwner {
		verb = "Unfollowed"
	}
	return r.writePlain("✓ %s %q\n", verb, p.Name)
}

// PlaylistAdd appends a track to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "playlist-id")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track-id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	track := trackRef(trackID)
	if err := r.engine.AddTrack(ctx, id, track); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	return r.writePlain("✓ Added %s to %s\n", track.URI, id)
}

// PlaylistRemove removes every instance of a track from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "playlist-id")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track-id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	track := trackRef(trackID)
	if err := r.engine.RemoveTrack(ctx, id, track); err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}
	return r.writePlain("✓ Removed all instances of %s from %s\n", track.URI, id)
}

// Like toggles a track in the favorites.
//
// Favorites are loaded first so the toggle decision sees the current library.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	trackID, err := requireArg(cmd, "track-id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	if err := r.engine.FetchFavorites(ctx); err != nil {
		return fmt.Errorf("failed to fetch favorites: %w", err)
	}

	track := trackRef(trackID)
	for _, t := range r.engine.Store().Snapshot().Music.FavoriteTracks {
		if t.ID == track.ID {
			track = t
			break
		}
	}

	removed, err := r.engine.ToggleFavorite(ctx, track)
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}

	label := track.Label()
	if label == "" {
		label = track.ID
	}
	if removed {
		return r.writePlain("✓ Removed %s from favorites\n", label)
	}
	return r.writePlain("✓ Added %s to favorites\n", label)
}
