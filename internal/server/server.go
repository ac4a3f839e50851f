// package server contains middleware & handlers for the playthrough web service
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playthrough/internal/models"
	"github.com/desertthunder/playthrough/internal/session"
	"github.com/desertthunder/playthrough/internal/shared"
	"golang.org/x/oauth2"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the service.
// Implementations handle specific endpoints (login, callback, diagnostics).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Authorizer starts and completes the authorization-code flow.
type Authorizer interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

// TokenSource yields a usable access token for the credentials held in store.
type TokenSource interface {
	ValidAccessToken(ctx context.Context, store session.CredentialStore) (string, error)
}

// HistoryReader retrieves listening history with a valid access token.
type HistoryReader interface {
	RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.RecentlyPlayedItem, error)
	AlbumTracks(ctx context.Context, token string) ([]models.AlbumTrackBundle, error)
	TopTracks(ctx context.Context, token string, limit int) ([]models.TopTrack, error)
}

// Deps are the collaborators the routes are built from.
type Deps struct {
	Authorizer Authorizer
	Tokens     TokenSource
	History    HistoryReader
	Logger     *log.Logger
}

// NewRouter registers every route on a [BasicRouter] behind the request-id, logging and recovery middleware.
//
// The diagnostic history route is only registered when cfg.EnableDiagnostics is set.
func NewRouter(cfg shared.ServerConfig, deps Deps) *BasicRouter {
	r := NewBasicRouter()
	r.Use(RequestID(deps.Logger), Logging(deps.Logger), Recover(deps.Logger))

	r.Handle(http.MethodGet, "/healthz", HealthHandler())
	r.Handler(NewLoginHandler(deps.Authorizer, cfg.SecureCookies, deps.Logger))
	r.Handler(NewCallbackHandler(deps.Authorizer, cfg.AppURL, cfg.SecureCookies, deps.Logger))

	if cfg.EnableDiagnostics {
		r.Handler(NewHistoryHandler(deps.Tokens, deps.History, cfg.SecureCookies, deps.Logger))
	}
	return r
}

// NewHTTPServer creates an [http.Server] listening on cfg.Addr().
func NewHTTPServer(cfg shared.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve runs srv on an already bound ln until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
