package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/models"
	"github.com/desertthunder/spotlite/internal/services"
	"github.com/desertthunder/spotlite/internal/session"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/desertthunder/spotlite/internal/store"
	"github.com/desertthunder/spotlite/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error

	// configMu guards config mutations and saves; token refreshes land from any goroutine.
	configMu sync.Mutex

	creds   *session.CredentialStore
	session *session.Manager
	client  *services.SpotifyClient
	engine  *tasks.SyncEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    shared.OpenBrowser,
	}
	r.wire()
	return r
}

// Before loads the configuration named by the global flags and rebuilds the dependency graph.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := config.ApplyEnv(cmd.String("env-file")); err != nil {
		return ctx, err
	}

	level := config.Log.Level
	if lvl := cmd.String("log-level"); lvl != "" {
		level = lvl
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	r.config = config
	r.configPath = path
	r.wire()
	return ctx, nil
}

// SetLogger replaces the logger and rebuilds every component that holds one.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.wire()
}

// wire builds the session, client, store and engine from the current config.
//
// The stored session is restored last so the auth slice starts populated.
func (r *Runner) wire() {
	r.creds = session.NewCredentialStore()

	r.session = session.NewManager(r.config.Credentials.Spotify, r.config.API, r.creds, r.logger)
	r.session.SetHTTPClient(r.httpClient)
	r.session.SetTokenRefreshCallback(r.persistToken)

	r.client = services.NewSpotifyClient(r.config.API, r.creds, r.logger)
	r.client.SetHTTPClient(r.httpClient)

	r.engine = tasks.NewSyncEngine(r.client, store.New(), r.session, r.logger)
	r.engine.BindSession(r.session)
	r.session.Restore(session.FromConfig(r.config.Credentials.Spotify))
}

// persistToken writes refreshed or newly issued tokens back to the config file.
func (r *Runner) persistToken(token *oauth2.Token) {
	r.updateConfig(func(c *shared.Config) error {
		return c.Credentials.Spotify.Update(token)
	})
}

// updateConfig applies fn to the config and saves the result.
func (r *Runner) updateConfig(fn func(*shared.Config) error) {
	r.configMu.Lock()
	defer r.configMu.Unlock()

	if err := fn(r.config); err != nil {
		r.logger.Warn("ignoring config update", "error", err)
		return
	}
	if r.configPath == "" {
		return
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to persist config", "path", r.configPath, "error", err)
		return
	}
	r.logger.Debug("config saved", "path", r.configPath)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, playlistCommand, likeCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

func (r *Runner) writeTracks(title string, tracks []models.Track, asJSON, pretty bool) error {
	if asJSON {
		if tracks == nil {
			tracks = []models.Track{}
		}
		return r.writeJSON(tracks, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", title, len(tracks)))
	for i, t := range tracks {
		r.writePlain("%d. %s\n", i+1, t.Label())
		if t.Album != "" {
			r.writePlain("   Album: %s\n", t.Album)
		}
		r.writePlain("   ID: %s\n", t.ID)
	}
	return nil
}
