package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrInvalidState   = fmt.Errorf("invalid OAuth state or missing code")
	ErrNoValidToken   = fmt.Errorf("no valid access token")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrExchangeFailed = fmt.Errorf("authorization code exchange failed")

	// API and service errors
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrAPIResponse = fmt.Errorf("unexpected API response")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
