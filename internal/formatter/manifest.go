package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/spotlite/internal/shared"
)

// ManifestEntry describes the outcome for one exported playlist.
type ManifestEntry struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Status       string   `json:"status"`
	Files        []string `json:"files,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	ExportedAt        time.Time       `json:"exported_at"`
	Format            string          `json:"format"`
	OutputDirectory   string          `json:"output_directory"`
	TotalPlaylists    int             `json:"total_playlists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Playlists         []ManifestEntry `json:"playlists"`
}

// NewManifestEntry builds an entry, deriving status from err.
func NewManifestEntry(id, name string, files []string, err error) ManifestEntry {
	e := ManifestEntry{PlaylistID: id, PlaylistName: name, Status: "success", Files: files}
	if err != nil {
		e.Status = "failed"
		e.Error = err.Error()
	}
	return e
}

// WriteBulkExportManifest writes m as indented JSON to path.
func WriteBulkExportManifest(m Manifest, path string) error {
	if m.ExportedAt.IsZero() {
		m.ExportedAt = time.Now().UTC()
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
