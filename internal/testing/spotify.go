package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/playthrough/internal/shared"
)

const (
	FakeClientID     = "test_client_id"
	FakeClientSecret = "test_client_secret"
)

// FakeTrack is a track served by [FakeSpotify].
type FakeTrack struct {
	Name    string
	Artists []string
	Album   string
}

// FakeAlbum is an album served by [FakeSpotify]. A non-zero Status makes its tracks endpoint fail.
type FakeAlbum struct {
	ID     string
	Name   string
	Tracks []FakeTrack
	Status int
}

// FakeSpotify is an httptest stand-in for the Spotify accounts service and Web API.
//
// Configure the exported fields before issuing requests; call counters are safe to read concurrently.
type FakeSpotify struct {
	Server *httptest.Server

	AccessToken        string
	RefreshToken       string
	ExpiresIn          int
	RotateRefreshToken bool
	TokenStatus        int

	History       []FakeAlbum
	HistoryStatus int
	Albums        map[string]FakeAlbum
	Top           []FakeTrack

	mu            sync.Mutex
	exchangeCalls int
	refreshCalls  int
	historyCalls  int
	albumCalls    map[string]int
	topCalls      int
	lastTokenForm url.Values
	lastBearer    string
	historyLimit  string
}

// NewFakeSpotify starts a fake provider that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{
		AccessToken:  "fake-access-token",
		RefreshToken: "fake-refresh-token",
		ExpiresIn:    3600,
		Albums:       map[string]FakeAlbum{},
		albumCalls:   map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.handleToken)
	mux.HandleFunc("GET /v1/me/player/recently-played", f.bearer(f.handleHistory))
	mux.HandleFunc("GET /v1/albums/{id}/tracks", f.bearer(f.handleAlbumTracks))
	mux.HandleFunc("GET /v1/me/top/tracks", f.bearer(f.handleTop))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns Spotify settings that point at the fake.
func (f *FakeSpotify) Config() shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:     FakeClientID,
		ClientSecret: FakeClientSecret,
		RedirectURI:  "http://127.0.0.1:3000/auth/callback",
		AuthURL:      f.Server.URL + "/authorize",
		TokenURL:     f.Server.URL + "/api/token",
		APIBaseURL:   f.Server.URL + "/v1",
	}
}

// AddAlbum registers album and appends one play event referencing it to the history.
func (f *FakeSpotify) AddAlbum(album FakeAlbum) {
	f.Albums[album.ID] = album
	f.History = append(f.History, album)
}

// ExchangeCalls returns the number of authorization_code grants received.
func (f *FakeSpotify) ExchangeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeCalls
}

// RefreshCalls returns the number of refresh_token grants received.
func (f *FakeSpotify) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

// HistoryCalls returns the number of recently-played requests received.
func (f *FakeSpotify) HistoryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyCalls
}

// AlbumCalls returns the number of track requests received for album id.
func (f *FakeSpotify) AlbumCalls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.albumCalls[id]
}

// TopCalls returns the number of top-tracks requests received.
func (f *FakeSpotify) TopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topCalls
}

// LastTokenForm returns the form body of the most recent token request.
func (f *FakeSpotify) LastTokenForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTokenForm
}

// LastBearer returns the bearer token of the most recent API request.
func (f *FakeSpotify) LastBearer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBearer
}

// HistoryLimit returns the limit query parameter of the most recent recently-played request.
func (f *FakeSpotify) HistoryLimit() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyLimit
}

func (f *FakeSpotify) handleToken(w http.ResponseWriter, r *http.Request) {
	id, secret, ok := r.BasicAuth()
	if !ok || id != FakeClientID || secret != FakeClientSecret {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	f.mu.Lock()
	f.lastTokenForm = r.PostForm
	grant := r.PostForm.Get("grant_type")
	switch grant {
	case "authorization_code":
		f.exchangeCalls++
	case "refresh_token":
		f.refreshCalls++
	}
	f.mu.Unlock()

	if f.TokenStatus != 0 {
		writeFakeJSON(w, f.TokenStatus, map[string]string{"error": "invalid_grant", "error_description": "Refresh token revoked"})
		return
	}

	resp := map[string]any{
		"access_token": f.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   f.ExpiresIn,
		"scope":        "user-top-read user-read-recently-played",
	}

	switch grant {
	case "authorization_code":
		if r.PostForm.Get("code") == "" {
			writeFakeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		resp["refresh_token"] = f.RefreshToken
	case "refresh_token":
		if r.PostForm.Get("refresh_token") == "" {
			writeFakeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		if f.RotateRefreshToken {
			resp["refresh_token"] = f.RefreshToken
		}
	default:
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	writeFakeJSON(w, http.StatusOK, resp)
}

func (f *FakeSpotify) bearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeFakeJSON(w, http.StatusUnauthorized, fakeAPIError(http.StatusUnauthorized, "No token provided"))
			return
		}
		f.mu.Lock()
		f.lastBearer = token
		f.mu.Unlock()
		next(w, r)
	}
}

func (f *FakeSpotify) handleHistory(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.historyCalls++
	f.historyLimit = r.URL.Query().Get("limit")
	f.mu.Unlock()

	if f.HistoryStatus != 0 {
		writeFakeJSON(w, f.HistoryStatus, fakeAPIError(f.HistoryStatus, "Insufficient client scope"))
		return
	}

	history := f.History
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit < len(history) {
		history = history[:limit]
	}

	items := make([]map[string]any, 0, len(history))
	for i, album := range history {
		items = append(items, map[string]any{
			"played_at": "2025-01-01T00:00:00Z",
			"track": map[string]any{
				"name":  "Play " + strconv.Itoa(i),
				"album": map[string]any{"id": album.ID, "name": album.Name},
			},
		})
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": len(items)})
}

func (f *FakeSpotify) handleAlbumTracks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	f.albumCalls[id]++
	f.mu.Unlock()

	album, ok := f.Albums[id]
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, fakeAPIError(http.StatusNotFound, "Non existing id"))
		return
	}
	if album.Status != 0 {
		writeFakeJSON(w, album.Status, fakeAPIError(album.Status, "Server error"))
		return
	}

	writeFakeJSON(w, http.StatusOK, map[string]any{"items": fakeTrackItems(album.Tracks)})
}

func (f *FakeSpotify) handleTop(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.topCalls++
	f.mu.Unlock()

	tracks := f.Top
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit < len(tracks) {
		tracks = tracks[:limit]
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"items": fakeTrackItems(tracks)})
}

func fakeTrackItems(tracks []FakeTrack) []map[string]any {
	items := make([]map[string]any, 0, len(tracks))
	for _, track := range tracks {
		artists := make([]map[string]string, 0, len(track.Artists))
		for _, name := range track.Artists {
			artists = append(artists, map[string]string{"name": name})
		}
		items = append(items, map[string]any{
			"name":    track.Name,
			"artists": artists,
			"album":   map[string]string{"name": track.Album},
		})
	}
	return items
}

func fakeAPIError(status int, message string) map[string]any {
	return map[string]any{"error": map[string]any{"status": status, "message": message}}
}

func writeFakeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
