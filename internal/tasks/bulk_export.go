package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/spotlite/internal/formatter"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/shared"
	"golang.org/x/time/rate"
)

// FavoritesName labels the saved-tracks collection in exports.
const FavoritesName = "Favorites"

// ExportOpts contains configuration for bulk library exports.
type ExportOpts struct {
	Format      string   // json, csv, markdown, txt
	OutputDir   string   // default: spotlite_export_{epoch}
	PlaylistIDs []string // empty exports every playlist in the store
	Favorites   bool     // include saved tracks
	NumWorkers  int      // concurrent writers (default: 5, max 10)
	RateLimit   float64  // track fetches per second (default: 5)
}

// ExportJob is one fetched collection waiting to be written.
type ExportJob struct {
	Export *models.PlaylistExport
}

// ExportItemResult is the outcome for one collection.
type ExportItemResult struct {
	PlaylistID   string
	PlaylistName string
	Success      bool
	Files        []string
	Error        error
}

// ExportResult summarizes a bulk export.
type ExportResult struct {
	Total           int
	Successful      int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []ExportItemResult
}

// Export fetches the selected collections at a paced rate and writes them with a worker pool.
//
// Partial failures are recorded in the result and the manifest; only setup errors are returned.
func (e *SyncEngine) Export(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = "json"
	}
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotlite_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	targets, err := e.exportTargets(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Total:           len(targets),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ExportItemResult, 0, len(targets)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan ExportJob, len(targets))
	results := make(chan ExportItemResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		sendProgress(prog, fetchLibraryUpdate(len(targets)))
		for i, target := range targets {
			if err := limiter.Wait(ctx); err != nil {
				for _, skipped := range targets[i:] {
					results <- ExportItemResult{PlaylistID: skipped.ID, PlaylistName: skipped.Name, Error: err}
				}
				return
			}
			sendProgress(prog, fetchTracksUpdate(i+1, len(targets), target.Name))

			tracks, err := e.fetchCollection(ctx, target)
			if err != nil {
				results <- ExportItemResult{
					PlaylistID:   target.ID,
					PlaylistName: target.Name,
					Error:        err,
				}
				continue
			}
			jobs <- ExportJob{Export: &models.PlaylistExport{Playlist: target, Tracks: tracks}}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
			sendProgress(prog, exportCompletedUpdate(completed, len(targets), res.PlaylistName, len(res.Files)))
		} else {
			result.Failed++
			sendProgress(prog, exportFailedUpdate(completed, len(targets), res.PlaylistName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result.manifest(opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// exportTargets resolves the collections to export, loading playlists when the store has none.
func (e *SyncEngine) exportTargets(ctx context.Context, opts ExportOpts) ([]models.Playlist, error) {
	var targets []models.Playlist
	if opts.Favorites {
		targets = append(targets, models.Playlist{Name: FavoritesName})
	}
	if opts.Favorites && len(opts.PlaylistIDs) == 0 {
		return targets, nil
	}

	if len(e.store.Snapshot().Music.Playlists) == 0 {
		if err := e.FetchPlaylists(ctx); err != nil {
			return nil, err
		}
	}
	playlists := e.store.Snapshot().Music.Playlists

	if len(opts.PlaylistIDs) == 0 {
		return append(targets, playlists...), nil
	}

	byID := make(map[string]models.Playlist, len(playlists))
	for _, p := range playlists {
		byID[p.ID] = p
	}
	for _, id := range opts.PlaylistIDs {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		targets = append(targets, p)
	}
	return targets, nil
}

func (e *SyncEngine) fetchCollection(ctx context.Context, p models.Playlist) ([]models.Track, error) {
	if p.ID == "" {
		if err := e.FetchFavorites(ctx); err != nil {
			return nil, err
		}
		return e.store.Snapshot().Music.FavoriteTracks, nil
	}
	return e.lib.PlaylistTracks(ctx, p.ID)
}

func exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan ExportJob, results chan<- ExportItemResult, opts ExportOpts) {
	defer wg.Done()

	for job := range jobs {
		res := ExportItemResult{
			PlaylistID:   job.Export.Playlist.ID,
			PlaylistName: job.Export.Playlist.Name,
		}
		if err := ctx.Err(); err != nil {
			res.Error = err
			results <- res
			continue
		}

		files, err := formatter.Write(job.Export, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = err
		} else {
			res.Success = true
			res.Files = files
		}
		results <- res
	}
}

func (r *ExportResult) manifest(format string) formatter.Manifest {
	m := formatter.Manifest{
		Format:            format,
		OutputDirectory:   r.OutputDirectory,
		TotalPlaylists:    r.Total,
		SuccessfulExports: r.Successful,
		FailedExports:     r.Failed,
		Playlists:         make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		m.Playlists = append(m.Playlists, formatter.NewManifestEntry(res.PlaylistID, res.PlaylistName, res.Files, res.Error))
	}
	return m
}
