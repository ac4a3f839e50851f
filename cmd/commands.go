// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/playthrough/internal/formatter"
	"github.com/desertthunder/playthrough/internal/services"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the web service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the OAuth web service",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the login page in a browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand writes a starter config
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write a starter configuration file",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// historyCommand fetches listening history without a browser
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Print listening history using a refresh token",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "refresh-token",
				Usage:   "Spotify refresh token (from the sp_refresh_token cookie)",
				Sources: cli.EnvVars("SPOTIFY_REFRESH_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "view",
				Usage: "One of albums, recent, top",
				Value: services.ViewAlbums,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, markdown, txt",
				Value:   formatter.FormatJSON,
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.BoolFlag{
				Name:  "print-rotated",
				Usage: "Print the new refresh token after the result when Spotify rotates it",
			},
		},
		Action: r.History,
	}
}
