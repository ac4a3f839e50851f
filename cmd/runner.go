package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playthrough/internal/services"
	"github.com/desertthunder/playthrough/internal/session"
	"github.com/desertthunder/playthrough/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config makes every command load its own from --config.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads path (or the defaults when it does not exist), applies environment overrides
// and the log level, and validates the result.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	config := r.config
	if config == nil {
		if _, err := os.Stat(path); err == nil {
			if config, err = shared.LoadConfig(path); err != nil {
				return nil, err
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
			config = shared.DefaultConfig()
		}

		if err := shared.ApplyEnv(config); err != nil {
			return nil, err
		}
	}

	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// spotify builds the client, token manager and retriever for config.
func (r *Runner) spotify(config *shared.Config) (*services.SpotifyClient, *session.TokenManager, *services.HistoryService, error) {
	client, err := services.NewSpotifyClient(config.Credentials.Spotify, r.httpClient)
	if err != nil {
		return nil, nil, nil, err
	}

	tokens := session.NewTokenManager(client, shared.WithLogger(r.logger, "component", "tokens"))
	history := services.NewHistoryService(client, shared.WithLogger(r.logger, "component", "history"), services.HistoryOptions{
		Limit:          config.History.Limit,
		MaxConcurrency: config.History.MaxConcurrency,
		RateLimit:      config.History.RateLimit,
	})
	return client, tokens, history, nil
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
