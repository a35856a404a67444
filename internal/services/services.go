// package services implements the Spotify Web API client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/shared"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// Operation names carried by [RequestError.Op].
const (
	OpFavoriteTracks  = "fetchFavorites"
	OpCurrentUserID   = "fetchCurrentUserId"
	OpPlaylists       = "fetchPlaylists"
	OpPlaylistTracks  = "fetchPlaylistTracks"
	OpCreatePlaylist  = "createPlaylist"
	OpAddTrack        = "addTrack"
	OpRemoveTrack     = "removeTrack"
	OpToggleFavorite  = "toggleFavorite"
	OpRenamePlaylist  = "renamePlaylist"
	OpDeletePlaylist  = "deletePlaylist"
	OpSearch          = "fetchSearchResults"
	searchResultLimit = 10
)

var messages = map[string]string{
	OpFavoriteTracks: "Failed to fetch favorite tracks",
	OpCurrentUserID:  "Failed to fetch user ID",
	OpPlaylists:      "Failed to fetch playlists",
	OpPlaylistTracks: "Failed to fetch playlist tracks",
	OpCreatePlaylist: "Failed to create playlist",
	OpAddTrack:       "Failed to add track",
	OpRemoveTrack:    "Failed to remove track",
	OpToggleFavorite: "Failed to toggle favorite track",
	OpRenamePlaylist: "Failed to rename playlist",
	OpDeletePlaylist: "Failed to delete playlist",
	OpSearch:         "Failed to fetch search results",
}

// TokenProvider supplies the bearer token for each request.
type TokenProvider interface {
	CurrentToken() string
}

// SpotifyClient issues one HTTP request per library operation and normalizes the responses.
type SpotifyClient struct {
	baseURL    string
	pageLimit  int
	httpClient *http.Client
	tokens     TokenProvider
	logger     *log.Logger
}

// NewSpotifyClient creates a client reading its token from tokens.
//
// Requests carry no timeout beyond the caller's context.
func NewSpotifyClient(api shared.APIConfig, tokens TokenProvider, logger *log.Logger) *SpotifyClient {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	baseURL := api.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	limit := api.PageLimit
	if limit <= 0 {
		limit = 50
	}

	return &SpotifyClient{
		baseURL:    baseURL,
		pageLimit:  limit,
		httpClient: http.DefaultClient,
		tokens:     tokens,
		logger:     shared.WithLogger(logger, "component", "spotify"),
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (s *SpotifyClient) SetHTTPClient(c *http.Client) {
	s.httpClient = c
}

func (s *SpotifyClient) token(op string) (string, error) {
	if s.tokens == nil {
		return "", missingCredential(op, "")
	}
	tok := s.tokens.CurrentToken()
	if tok == "" {
		return "", missingCredential(op, "")
	}
	return tok, nil
}

// doRequest performs an authenticated request, decoding a JSON response into result when non-nil.
func (s *SpotifyClient) doRequest(ctx context.Context, op, method, endpoint string, query url.Values, body, result any) error {
	token, err := s.token(op)
	if err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failed(op, KindTransport, 0, fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return failed(op, KindTransport, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("request", "op", op, "method", method, "endpoint", endpoint)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return failed(op, KindTransport, 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return failed(op, KindStatus, resp.StatusCode,
			fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, bytes.TrimSpace(detail)))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return failed(op, KindDecode, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
