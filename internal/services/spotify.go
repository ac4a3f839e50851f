// Spotify accounts service and Web API client
//
// API reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/playthrough/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// Scopes requested at login.
var Scopes = []string{"user-top-read", "user-read-recently-played"}

// UpstreamError is a non-2xx response from Spotify.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: spotify returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return shared.ErrAPIRequest
}

// SpotifyClient performs the token grants against the accounts service and authenticated GETs against the Web API.
//
// It holds no tokens: every call is handed the credential it needs.
type SpotifyClient struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyClient creates a client from cfg. Empty endpoint URLs fall back to Spotify's public ones and a nil httpClient uses [http.DefaultClient].
func NewSpotifyClient(cfg shared.SpotifyConfig, httpClient *http.Client) (*SpotifyClient, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri", shared.ErrMissingCredentials)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   orDefault(cfg.AuthURL, spotifyAuthURL),
			TokenURL:  orDefault(cfg.TokenURL, spotifyTokenURL),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyClient{
		config:     config,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(orDefault(cfg.APIBaseURL, spotifyBaseURL), "/"),
	}, nil
}

// AuthURL returns the authorize URL for the authorization-code flow with state attached.
func (s *SpotifyClient) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a token.
func (s *SpotifyClient) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := s.config.Exchange(s.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrExchangeFailed, tokenError("exchange authorization code", err))
	}
	return tok, nil
}

// RefreshToken performs the refresh_token grant. The returned token carries the provider's
// refresh token, or the one sent when the provider did not rotate it.
func (s *SpotifyClient) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := s.config.TokenSource(s.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, tokenError("refresh access token", err)
	}
	return tok, nil
}

// Endpoint resolves an API path against the base URL.
func (s *SpotifyClient) Endpoint(path string) string {
	return s.baseURL + path
}

// GetJSON performs an authenticated GET and parses the body.
func (s *SpotifyClient) GetJSON(ctx context.Context, endpoint, token string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, &UpstreamError{Op: "GET " + req.URL.Path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON from %s", shared.ErrAPIResponse, req.URL.Path)
	}

	return gjson.ParseBytes(body), nil
}

func (s *SpotifyClient) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func tokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &UpstreamError{Op: op, StatusCode: re.Response.StatusCode, Body: string(re.Body)}
	}
	return fmt.Errorf("%s: %w: %w", op, shared.ErrAPIRequest, err)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
