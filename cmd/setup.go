package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playthrough/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example configuration to --config.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	r.logger.Info("creating config file from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.writePlain("✓ Wrote %s\n", configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set client_id and client_secret from your Spotify app dashboard\n")
	r.writePlain("2. Register the redirect_uri in the dashboard\n")
	r.writePlain("3. Run 'playthrough serve --open'\n")
	return nil
}
