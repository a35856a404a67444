package models

import "testing"

func TestTrack(t *testing.T) {
	t.Run("OpenURL prefers preview", func(t *testing.T) {
		tr := Track{ID: "t1", PreviewURL: "https://p.scdn.co/mp3-preview/abc"}
		if got := tr.OpenURL(); got != tr.PreviewURL {
			t.Errorf("expected preview url, got %s", got)
		}
	})

	t.Run("OpenURL falls back to track page", func(t *testing.T) {
		tr := Track{ID: "t1"}
		if got := tr.OpenURL(); got != "https://open.spotify.com/track/t1" {
			t.Errorf("unexpected url %s", got)
		}
		if (Track{}).OpenURL() != "" {
			t.Error("expected empty url for track without id")
		}
	})

	t.Run("Label", func(t *testing.T) {
		if got := (Track{Name: "Song", Artist: "A, B"}).Label(); got != "Song - A, B" {
			t.Errorf("unexpected label %q", got)
		}
		if got := (Track{Name: "Song"}).Label(); got != "Song" {
			t.Errorf("unexpected label %q", got)
		}
	})
}

func TestPlaylistDeleteVerb(t *testing.T) {
	if (Playlist{IsOwner: true}).DeleteVerb() != "delete" {
		t.Error("owner should see delete")
	}
	if (Playlist{IsOwner: false}).DeleteVerb() != "unfollow" {
		t.Error("follower should see unfollow")
	}
}

func TestTrackHelpers(t *testing.T) {
	tracks := []Track{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}}

	t.Run("FilterTracks removes every match", func(t *testing.T) {
		got := FilterTracks(tracks, "a")
		if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
			t.Errorf("unexpected result %+v", got)
		}
		if len(tracks) != 4 {
			t.Error("input should not be modified")
		}
	})

	t.Run("ContainsTrack", func(t *testing.T) {
		if !ContainsTrack(tracks, "c") {
			t.Error("expected c to be found")
		}
		if ContainsTrack(tracks, "z") {
			t.Error("did not expect z")
		}
	})

	t.Run("JoinArtists", func(t *testing.T) {
		if got := JoinArtists([]string{"A", "B"}); got != "A, B" {
			t.Errorf("unexpected %q", got)
		}
		if got := JoinArtists(nil); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}
