package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playthrough/internal/formatter"
	"github.com/desertthunder/playthrough/internal/services"
	"github.com/desertthunder/playthrough/internal/session"
	"github.com/desertthunder/playthrough/internal/shared"
	"github.com/urfave/cli/v3"
)

// History runs the retriever headlessly with a refresh token and prints the result.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	refreshToken := cmd.String("refresh-token")
	if refreshToken == "" {
		return fmt.Errorf("%w: --refresh-token or SPOTIFY_REFRESH_TOKEN", shared.ErrMissingArgument)
	}

	view := cmd.String("view")
	if !services.ValidView(view) {
		return fmt.Errorf("%w: unknown view %q", shared.ErrInvalidArgument, view)
	}

	format := cmd.String("format")
	switch format {
	case formatter.FormatJSON, formatter.FormatCSV, formatter.FormatMarkdown, formatter.FormatText:
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	_, tokens, history, err := r.spotify(config)
	if err != nil {
		return err
	}

	store := session.NewMemoryStore()
	store.Set(session.RefreshTokenCookie, refreshToken, 0)

	token, err := tokens.ValidAccessToken(ctx, store)
	if err != nil {
		return err
	}

	rotated, _ := store.Get(session.RefreshTokenCookie)
	if rotated == refreshToken {
		rotated = ""
	} else if !cmd.Bool("print-rotated") {
		r.logger.Warn("refresh token was rotated; rerun with --print-rotated to see the new one")
	}

	var payload any
	switch view {
	case services.ViewRecent:
		payload, err = history.RecentlyPlayed(ctx, token, config.History.Limit)
	case services.ViewTop:
		payload, err = history.TopTracks(ctx, token, 0)
	default:
		payload, err = history.AlbumTracks(ctx, token)
	}
	if err != nil {
		return err
	}

	if format == formatter.FormatJSON {
		err = r.writeJSON(payload, cmd.Bool("pretty"))
	} else {
		err = r.writeRendered(payload, format)
	}
	if err != nil {
		return err
	}

	if rotated != "" && cmd.Bool("print-rotated") {
		return r.writePlain("refresh_token=%s\n", rotated)
	}
	return nil
}

func (r *Runner) writeRendered(payload any, format string) error {
	data, err := formatter.Render(payload, format, false)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
