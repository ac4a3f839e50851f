package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/playthrough/internal/server"
	"github.com/desertthunder/playthrough/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the web service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	client, tokens, history, err := r.spotify(config)
	if err != nil {
		return err
	}

	router := server.NewRouter(config.Server, server.Deps{
		Authorizer: client,
		Tokens:     tokens,
		History:    history,
		Logger:     shared.WithLogger(r.logger, "component", "http"),
	})
	srv := server.NewHTTPServer(config.Server, router)

	if config.Server.EnableDiagnostics {
		r.logger.Warn("diagnostic endpoint enabled", "path", "/test")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	if cmd.Bool("open") {
		loginURL, err := config.LoginURL()
		if err != nil {
			r.logger.Warn("could not build login URL", "error", err)
		} else if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warn("could not open browser", "url", loginURL, "error", err)
		}
	}

	return server.Serve(ctx, srv, ln, r.logger)
}
