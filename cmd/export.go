package main

import (
	"context"

	"github.com/desertthunder/spotlite/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes playlists and favorites to disk with a manifest.
//
// Without --playlist every playlist is exported; --favorites alone exports only saved tracks.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:      cmd.String("format"),
		OutputDir:   cmd.String("output"),
		PlaylistIDs: cmd.StringSlice("playlist"),
		Favorites:   cmd.Bool("favorites"),
		NumWorkers:  r.config.Export.Workers,
		RateLimit:   r.config.Export.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate-limit") {
		opts.RateLimit = cmd.Float("rate-limit")
	}

	r.logger.Info("starting export", "format", opts.Format, "playlists", len(opts.PlaylistIDs), "favorites", opts.Favorites)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchLibrary:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchTracks, tasks.WriteExport:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Export(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.Successful, result.Total)
	if result.Failed > 0 {
		r.writePlain("\nFailed to export %d collections:\n", result.Failed)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %s: %v\n", res.PlaylistName, res.Error)
			}
		}
	}
	return err
}
