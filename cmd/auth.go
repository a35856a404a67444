package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotlite/internal/server"
	"github.com/desertthunder/spotlite/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 5 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization and saves the issued tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" || strings.HasPrefix(creds.ClientID, "your_") {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or .env", shared.ErrMissingCredentials)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(r.session, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv, err := server.Listen(addr, router, r.logger)
	if err != nil {
		return err
	}
	srv.Start()
	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			r.logger.Warn("callback server shutdown failed", "error", err)
		}
	}()

	authURL := r.session.AuthCodeURL(state)
	r.logger.Info("waiting for authorization callback", "addr", srv.Addr())
	r.writePlain("Open this URL to authorize spotlite:\n\n%s\n\n", authURL)
	if !cmd.Bool("no-browser") {
		if err := r.openURL(authURL); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	select {
	case res := <-handler.Result():
		if err := res.Error(); err != nil {
			return err
		}
	case <-time.After(loginTimeout):
		return fmt.Errorf("%w: no authorization callback after %s", shared.ErrTimeout, loginTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	userID, err := r.engine.FetchCurrentUserID(ctx)
	if err != nil {
		return fmt.Errorf("%w: signed in but could not resolve the user: %v", shared.ErrAuthFailed, err)
	}
	r.updateConfig(func(c *shared.Config) error {
		c.Credentials.Spotify.UserID = userID
		return nil
	})

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Signed in as %s\n", userID)
	if r.configPath != "" {
		r.writePlain("✓ Tokens saved to %s\n", r.configPath)
	}
	return nil
}

// AuthStatus reports the current session, refreshing an expired token first.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.engine.SyncSession(ctx)
	s := r.session.Session()

	r.writePlainHeader("Spotify session")
	switch {
	case s.Err() != nil:
		r.writePlain("Status: ✗ %s\n", s.Error)
		r.writePlain("Run 'spotlite auth login' to sign in again.\n")
		return nil
	case !s.Authenticated():
		r.writePlain("Status: ✗ Not signed in\n")
		r.writePlain("Run 'spotlite auth login' to sign in.\n")
		return nil
	}

	r.writePlain("Status: ✓ Signed in\n")
	if !s.Expiry.IsZero() {
		r.writePlain("Token expires: %s\n", s.Expiry.Local().Format(time.RFC1123))
	}

	if _, err := r.engine.FetchCurrentUserID(ctx); err != nil {
		r.writePlain("User: unknown (%v)\n", err)
		return nil
	}
	if u := r.engine.Store().Snapshot().Auth.User; u != nil {
		name := u.DisplayName
		if name == "" {
			name = u.ID
		}
		r.writePlain("User: %s (%s)\n", name, u.ID)
	}
	return nil
}

// AuthLogout clears the credential store, the auth slice and the saved tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.engine.Logout(r.session)
	r.updateConfig(func(c *shared.Config) error {
		c.Credentials.Spotify.Clear()
		return nil
	})
	return r.writePlain("✓ Signed out\n")
}
