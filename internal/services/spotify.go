// Spotify Web API operations
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/spotlite/internal/models"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	PreviewURL string          `json:"preview_url"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// Owner is the owner of a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyTrackItem wraps a track in saved-track and playlist-track pages. Track is null for removed or unavailable items.
type SpotifyTrackItem struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents one page of saved or playlist tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifyTrackItem `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
	Next   *string            `json:"next"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Owner         Owner  `json:"owner"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
	URI           string `json:"uri"`
}

// SpotifyPaginatedPlaylists represents one page of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []*SpotifySimplePlaylist `json:"items"`
	Total  int                      `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
	Next   *string                  `json:"next"`
}

// SpotifySearchResponse is the track section of a search response.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []*SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type createPlaylistRequest struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

type renamePlaylistRequest struct {
	Name string `json:"name"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type trackURI struct {
	URI string `json:"uri"`
}

type removeTracksRequest struct {
	Tracks []trackURI `json:"tracks"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

// NormalizeTrack converts a Spotify track into a [models.Track]. Absent fields become "".
func NormalizeTrack(st SpotifyTrack) models.Track {
	names := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		names = append(names, a.Name)
	}

	image := ""
	if len(st.Album.Images) > 0 {
		image = st.Album.Images[0].URL
	}

	return models.Track{
		ID:         st.ID,
		Name:       st.Name,
		Artist:     models.JoinArtists(names),
		Album:      st.Album.Name,
		Image:      image,
		PreviewURL: st.PreviewURL,
		URI:        st.URI,
	}
}

// NormalizePlaylist converts a Spotify playlist, resolving ownership against userID.
func NormalizePlaylist(sp SpotifySimplePlaylist, userID string) models.Playlist {
	return models.Playlist{
		ID:            sp.ID,
		Name:          sp.Name,
		IsOwner:       userID != "" && sp.Owner.ID == userID,
		OwnerID:       sp.Owner.ID,
		Public:        sp.Public,
		Collaborative: sp.Collaborative,
	}
}

func normalizeItems(items []SpotifyTrackItem) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, NormalizeTrack(*item.Track))
	}
	return tracks
}

func (s *SpotifyClient) limitQuery() url.Values {
	return url.Values{"limit": {strconv.Itoa(s.pageLimit)}}
}

// FavoriteTracks retrieves the user's saved tracks.
func (s *SpotifyClient) FavoriteTracks(ctx context.Context) ([]models.Track, error) {
	var page SpotifyPaginatedTracks
	if err := s.doRequest(ctx, OpFavoriteTracks, http.MethodGet, "/me/tracks", s.limitQuery(), nil, &page); err != nil {
		return nil, err
	}
	return normalizeItems(page.Items), nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, OpCurrentUserID, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// Playlists retrieves the playlists the user owns or follows, marking those owned by userID.
func (s *SpotifyClient) Playlists(ctx context.Context, userID string) ([]models.Playlist, error) {
	var page SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, OpPlaylists, http.MethodGet, "/me/playlists", s.limitQuery(), nil, &page); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(page.Items))
	for _, sp := range page.Items {
		if sp == nil {
			continue
		}
		playlists = append(playlists, NormalizePlaylist(*sp, userID))
	}
	return playlists, nil
}

// PlaylistTracks retrieves the tracks of one playlist.
func (s *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	var page SpotifyPaginatedTracks
	if err := s.doRequest(ctx, OpPlaylistTracks, http.MethodGet, endpoint, s.limitQuery(), nil, &page); err != nil {
		return nil, err
	}
	return normalizeItems(page.Items), nil
}

// CreatePlaylist creates a private playlist. The result is always owned by ownerID.
func (s *SpotifyClient) CreatePlaylist(ctx context.Context, name, ownerID string) (*models.Playlist, error) {
	if ownerID == "" {
		return nil, missingUser(OpCreatePlaylist, "No access token or user ID available")
	}

	var sp SpotifySimplePlaylist
	body := createPlaylistRequest{Name: name, Public: false}
	if err := s.doRequest(ctx, OpCreatePlaylist, http.MethodPost, "/me/playlists", nil, body, &sp); err != nil {
		return nil, err
	}

	p := NormalizePlaylist(sp, ownerID)
	p.IsOwner = true
	p.OwnerID = ownerID
	return &p, nil
}

// AddTrack appends track to a playlist.
func (s *SpotifyClient) AddTrack(ctx context.Context, playlistID string, track models.Track) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, OpAddTrack, http.MethodPost, endpoint, nil, addTracksRequest{URIs: []string{track.URI}}, nil)
}

// RemoveTrack removes every occurrence of track from a playlist.
func (s *SpotifyClient) RemoveTrack(ctx context.Context, playlistID string, track models.Track) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := removeTracksRequest{Tracks: []trackURI{{URI: track.URI}}}
	return s.doRequest(ctx, OpRemoveTrack, http.MethodDelete, endpoint, nil, body, nil)
}

// SaveFavorite adds a track to the user's saved tracks.
func (s *SpotifyClient) SaveFavorite(ctx context.Context, trackID string) error {
	return s.doRequest(ctx, OpToggleFavorite, http.MethodPut, "/me/tracks", nil, idsRequest{IDs: []string{trackID}}, nil)
}

// RemoveFavorite removes a track from the user's saved tracks.
func (s *SpotifyClient) RemoveFavorite(ctx context.Context, trackID string) error {
	return s.doRequest(ctx, OpToggleFavorite, http.MethodDelete, "/me/tracks", nil, idsRequest{IDs: []string{trackID}}, nil)
}

// RenamePlaylist changes a playlist's name.
func (s *SpotifyClient) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	return s.doRequest(ctx, OpRenamePlaylist, http.MethodPut, endpoint, nil, renamePlaylistRequest{Name: name}, nil)
}

// UnfollowPlaylist removes the playlist from the user's library. Spotify has no destructive delete.
func (s *SpotifyClient) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, OpDeletePlaylist, http.MethodDelete, endpoint, nil, nil, nil)
}

// Search looks up tracks matching query. A blank query returns no results without a request.
func (s *SpotifyClient) Search(ctx context.Context, query string) ([]models.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(searchResultLimit)},
	}

	var resp SpotifySearchResponse
	if err := s.doRequest(ctx, OpSearch, http.MethodGet, "/search", params, nil, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(resp.Tracks.Items))
	for _, st := range resp.Tracks.Items {
		if st == nil {
			continue
		}
		tracks = append(tracks, NormalizeTrack(*st))
	}
	return tracks, nil
}
