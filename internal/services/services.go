// package services talks to Spotify: token grants, authenticated reads, and reshaping of listening history
package services

import (
	"context"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// APIClient performs authenticated reads against the Web API. Implemented by [SpotifyClient].
type APIClient interface {
	// Endpoint resolves an API path (e.g. "/me/top/tracks") to an absolute URL.
	Endpoint(path string) string

	// GetJSON performs a GET with a bearer token and parses the JSON body.
	// Non-2xx responses fail with [*UpstreamError].
	GetJSON(ctx context.Context, endpoint, token string) (gjson.Result, error)
}

// TokenGranter performs the two OAuth token grants. Implemented by [SpotifyClient].
type TokenGranter interface {
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

var (
	_ APIClient    = (*SpotifyClient)(nil)
	_ TokenGranter = (*SpotifyClient)(nil)
)
