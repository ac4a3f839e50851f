package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playthrough/internal/services"
	"github.com/desertthunder/playthrough/internal/session"
	"github.com/desertthunder/playthrough/internal/shared"
)

const noTokenMessage = "No valid token yet. Try logging in first."

// HistoryHandler is a development endpoint that runs a retriever with the caller's cookies and
// returns its result as JSON. ?view= selects albums (default), recent or top.
type HistoryHandler struct {
	tokens  TokenSource
	history HistoryReader
	secure  bool
	logger  *log.Logger
}

// NewHistoryHandler creates a new [HistoryHandler].
func NewHistoryHandler(tokens TokenSource, history HistoryReader, secure bool, logger *log.Logger) *HistoryHandler {
	return &HistoryHandler{tokens: tokens, history: history, secure: secure, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *HistoryHandler) Routes() []string {
	return []string{"GET /test"}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r, h.logger)

	view := r.URL.Query().Get("view")
	if view == "" {
		view = services.ViewAlbums
	}
	if !services.ValidView(view) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q", view))
		return
	}

	store := session.NewCookieStore(w, r, h.secure)
	token, err := h.tokens.ValidAccessToken(r.Context(), store)
	if err != nil {
		if errors.Is(err, shared.ErrNoValidToken) || errors.Is(err, shared.ErrRefreshFailed) {
			writeError(w, http.StatusUnauthorized, noTokenMessage)
			return
		}
		logger.Error("failed to obtain access token", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var payload any
	switch view {
	case services.ViewRecent:
		payload, err = h.history.RecentlyPlayed(r.Context(), token, 0)
	case services.ViewTop:
		payload, err = h.history.TopTracks(r.Context(), token, 0)
	default:
		payload, err = h.history.AlbumTracks(r.Context(), token)
	}

	if err != nil {
		logger.Error("history request failed", "view", view, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, payload)
}
