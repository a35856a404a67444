// package models defines the data model for the spotlite library client
package models

import (
	"fmt"
	"strings"
)

const openTrackURL = "https://open.spotify.com/track/"

// Track is a single playable item normalized from a provider response.
//
// Tracks are never mutated after construction; containers replace them wholesale.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"` // Artist names joined with ", "
	Album      string `json:"album"`
	Image      string `json:"image"`      // First album image URL or ""
	PreviewURL string `json:"previewUrl"` // 30s preview URL or ""
	URI        string `json:"uri"`
}

// OpenURL returns the preview URL when one exists, otherwise the public track page.
func (t Track) OpenURL() string {
	if t.PreviewURL != "" {
		return t.PreviewURL
	}
	if t.ID == "" {
		return ""
	}
	return openTrackURL + t.ID
}

// Label renders "Name - Artist" for single line displays.
func (t Track) Label() string {
	if t.Artist == "" {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Name, t.Artist)
}

// Playlist is a named collection owned or followed by the current user.
//
// IsOwner is computed once, at fetch time, by comparing OwnerID to the acting user's id.
type Playlist struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsOwner       bool   `json:"isOwner"`
	OwnerID       string `json:"ownerId"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
}

// DeleteVerb is the label for removing this playlist from the library.
func (p Playlist) DeleteVerb() string {
	if p.IsOwner {
		return "delete"
	}
	return "unfollow"
}

// User is the authenticated account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// PlaylistExport is a playlist together with its full track listing.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// JoinArtists joins artist display names the way tracks render them.
func JoinArtists(names []string) string {
	return strings.Join(names, ", ")
}

// FilterTracks returns tracks without any entry whose ID equals id.
func FilterTracks(tracks []Track, id string) []Track {
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// ContainsTrack reports whether any entry in tracks has the given id.
func ContainsTrack(tracks []Track, id string) bool {
	for _, t := range tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}
