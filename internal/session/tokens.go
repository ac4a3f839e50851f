package session

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playthrough/internal/shared"
	"golang.org/x/oauth2"
)

// FreshnessMargin is how long before expiry an access token is treated as stale.
const FreshnessMargin = 10 * time.Second

// TokenRefresher performs the refresh_token grant.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// TokenManager yields a usable access token for a [CredentialStore], refreshing it when stale.
type TokenManager struct {
	refresher TokenRefresher
	logger    *log.Logger
	now       func() time.Time
}

func NewTokenManager(refresher TokenRefresher, logger *log.Logger) *TokenManager {
	return &TokenManager{refresher: refresher, logger: logger, now: time.Now}
}

// ValidAccessToken returns the stored access token if it is fresh. Otherwise it performs exactly one
// refresh, writes the new access token and expiry back to store, and returns the new token.
//
// [shared.ErrNoValidToken] is returned when no refresh token is stored. A failed refresh wraps
// [shared.ErrRefreshFailed] and leaves the store untouched.
func (m *TokenManager) ValidAccessToken(ctx context.Context, store CredentialStore) (string, error) {
	creds := ReadCredentials(store)
	now := m.now()

	if creds.Fresh(now, FreshnessMargin) {
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" {
		return "", shared.ErrNoValidToken
	}

	m.logger.Debug("access token stale, refreshing", "expires_at", creds.ExpiresAt)

	tok, err := m.refresher.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		return "", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: %w: missing access_token", shared.ErrRefreshFailed, shared.ErrAPIResponse)
	}

	updated := Credentials{AccessToken: tok.AccessToken, ExpiresAt: ExpiryFrom(now, tok)}
	if tok.RefreshToken != "" && tok.RefreshToken != creds.RefreshToken {
		updated.RefreshToken = tok.RefreshToken
	}
	WriteCredentials(store, updated)

	return tok.AccessToken, nil
}

// ExpiryFrom computes the absolute expiry of tok relative to now.
//
// The wire expires_in value is preferred; tokens without one fall back to their own Expiry.
func ExpiryFrom(now time.Time, tok *oauth2.Token) time.Time {
	switch {
	case tok.ExpiresIn > 0:
		return now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	case !tok.Expiry.IsZero():
		return tok.Expiry
	default:
		return now
	}
}
