package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	History     HistoryConfig     `toml:"history"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	AuthURL      string `toml:"auth_url" env:"SPOTIFY_AUTH_URL"`
	TokenURL     string `toml:"token_url" env:"SPOTIFY_TOKEN_URL"`
	APIBaseURL   string `toml:"api_base_url" env:"SPOTIFY_API_BASE_URL"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string `toml:"host" env:"HOST"`
	Port              int    `toml:"port" env:"PORT"`
	AppURL            string `toml:"app_url" env:"APP_URL"`
	SecureCookies     bool   `toml:"secure_cookies" env:"SECURE_COOKIES"`
	EnableDiagnostics bool   `toml:"enable_diagnostics" env:"ENABLE_DIAGNOSTICS"`
}

// HistoryConfig tunes the listening-history retriever.
type HistoryConfig struct {
	Limit          int     `toml:"limit"`
	MaxConcurrency int     `toml:"max_concurrency"`
	RateLimit      float64 `toml:"rate_limit"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoginURL is the service's /login page, on the public origin Spotify redirects back to.
func (c *Config) LoginURL() (string, error) {
	u, err := url.Parse(c.Credentials.Spotify.RedirectURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: credentials.spotify.redirect_uri must be an absolute URL", ErrInvalidConfig)
	}
	return u.ResolveReference(&url.URL{Path: "/login"}).String(), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values from environment variables, loading a .env file first when one exists.
func ApplyEnv(config *Config) error {
	_ = godotenv.Load()
	return applyEnv(config, env.Options{})
}

func applyEnv(config *Config, opts env.Options) error {
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks that the required Spotify credentials and URLs are present and well formed.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	required := []struct {
		name  string
		value string
	}{
		{"credentials.spotify.client_id", sp.ClientID},
		{"credentials.spotify.client_secret", sp.ClientSecret},
		{"credentials.spotify.redirect_uri", sp.RedirectURI},
		{"server.app_url", c.Server.AppURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is required", ErrMissingCredentials, r.name)
		}
	}

	for name, raw := range map[string]string{
		"credentials.spotify.redirect_uri": sp.RedirectURI,
		"credentials.spotify.auth_url":     sp.AuthURL,
		"credentials.spotify.token_url":    sp.TokenURL,
		"credentials.spotify.api_base_url": sp.APIBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL, got %q", ErrInvalidConfig, name, raw)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.History.Limit < 1 || c.History.Limit > 50 {
		return fmt.Errorf("%w: history.limit must be between 1 and 50, got %d", ErrInvalidConfig, c.History.Limit)
	}
	if c.History.RateLimit < 0 {
		return fmt.Errorf("%w: history.rate_limit must not be negative", ErrInvalidConfig)
	}

	return nil
}
