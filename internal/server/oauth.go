package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playthrough/internal/session"
	"github.com/desertthunder/playthrough/internal/shared"
)

const invalidStateMessage = "Invalid OAuth state or missing code"

// LoginHandler starts the authorization-code flow: it stores a fresh state nonce in a cookie and
// redirects the browser to Spotify's authorize page.
type LoginHandler struct {
	auth   Authorizer
	secure bool
	logger *log.Logger
}

// NewLoginHandler creates a new [LoginHandler].
func NewLoginHandler(auth Authorizer, secure bool, logger *log.Logger) *LoginHandler {
	return &LoginHandler{auth: auth, secure: secure, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *LoginHandler) Routes() []string {
	return []string{"GET /login"}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		requestLogger(r, h.logger).Error("failed to generate state", "error", err)
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	store := session.NewCookieStore(w, r, h.secure)
	store.Set(session.StateCookie, state, session.StateTTL)

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusFound)
}

// CallbackHandler completes the authorization-code flow.
//
// The state nonce is consumed before the code exchange, so a callback can succeed at most once
// per login. On success the credential cookies are written and the browser is sent to the app.
type CallbackHandler struct {
	auth   Authorizer
	appURL string
	secure bool
	logger *log.Logger
	now    func() time.Time
}

// NewCallbackHandler creates a new [CallbackHandler] that redirects to appURL on success.
func NewCallbackHandler(auth Authorizer, appURL string, secure bool, logger *log.Logger) *CallbackHandler {
	if appURL == "" {
		appURL = "/"
	}
	return &CallbackHandler{auth: auth, appURL: appURL, secure: secure, logger: logger, now: time.Now}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET /auth/callback"}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r, h.logger)
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")

	if errParam := q.Get("error"); errParam != "" {
		logger.Warn("authorization denied", "error", errParam, "description", q.Get("error_description"))
	}

	store := session.NewCookieStore(w, r, h.secure)
	stored, _ := store.Get(session.StateCookie)

	if err := session.CheckState(code, state, stored); err != nil {
		logger.Warn("oauth callback rejected", "error", err)
		writeText(w, http.StatusBadRequest, invalidStateMessage)
		return
	}

	store.Delete(session.StateCookie)

	tok, err := h.auth.ExchangeCode(r.Context(), code)
	if err != nil {
		logger.Error("code exchange failed", "error", err)
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	session.WriteCredentials(store, session.Credentials{
		AccessToken:  tok.AccessToken,
		ExpiresAt:    session.ExpiryFrom(h.now(), tok),
		RefreshToken: tok.RefreshToken,
	})

	logger.Info("login complete")
	http.Redirect(w, r, h.appURL, http.StatusFound)
}
