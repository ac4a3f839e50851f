package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playthrough/internal/models"
	"github.com/desertthunder/playthrough/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	recentlyPlayedPath = "/me/player/recently-played"
	albumTracksPath    = "/albums/%s/tracks"
	topTracksPath      = "/me/top/tracks"

	MaxHistoryLimit       = 50
	DefaultTopTracksLimit = 5
	DefaultMaxConcurrency = 10
)

// History views a caller can select.
const (
	ViewAlbums = "albums"
	ViewRecent = "recent"
	ViewTop    = "top"
)

// ValidView reports whether view names one of the history views.
func ValidView(view string) bool {
	switch view {
	case ViewAlbums, ViewRecent, ViewTop:
		return true
	}
	return false
}

// HistoryOptions tunes [HistoryService]. Zero values keep the defaults.
type HistoryOptions struct {
	// Limit is the recently-played window used by AlbumTracks.
	Limit int
	// MaxConcurrency caps in-flight album requests; negative means unbounded.
	MaxConcurrency int
	// RateLimit paces album requests per second; zero disables pacing.
	RateLimit float64
}

// HistoryService reshapes listening history into [models] records.
type HistoryService struct {
	client         APIClient
	logger         *log.Logger
	limit          int
	maxConcurrency int
	limiter        *rate.Limiter
}

func NewHistoryService(client APIClient, logger *log.Logger, opts HistoryOptions) *HistoryService {
	h := &HistoryService{
		client:         client,
		logger:         logger,
		limit:          clampLimit(opts.Limit, MaxHistoryLimit, MaxHistoryLimit),
		maxConcurrency: opts.MaxConcurrency,
	}
	if h.maxConcurrency == 0 {
		h.maxConcurrency = DefaultMaxConcurrency
	}
	if opts.RateLimit > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return h
}

// RecentlyPlayed returns one item per play event, most recent first.
//
// limit defaults to and is capped at [MaxHistoryLimit].
func (h *HistoryService) RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.RecentlyPlayedItem, error) {
	limit = clampLimit(limit, MaxHistoryLimit, MaxHistoryLimit)
	endpoint := fmt.Sprintf("%s?limit=%d", h.client.Endpoint(recentlyPlayedPath), limit)

	res, err := h.client.GetJSON(ctx, endpoint, token)
	if err != nil {
		h.logUpstream("recently played request failed", err)
		return nil, fmt.Errorf("failed to fetch recently played tracks: %w", err)
	}

	items := res.Get("items")
	if !items.IsArray() {
		return nil, fmt.Errorf("%w: recently played response has no items", shared.ErrAPIResponse)
	}

	out := make([]models.RecentlyPlayedItem, 0, len(items.Array()))
	for _, item := range items.Array() {
		album := item.Get("track.album")
		out = append(out, models.RecentlyPlayedItem{
			AlbumID:   album.Get("id").String(),
			AlbumName: album.Get("name").String(),
		})
	}
	return out, nil
}

// AlbumTracks fetches the track listing of every distinct album in the recently-played window.
//
// Bundles keep the order in which albums were first seen. An album whose fetch fails is returned
// with no tracks and FetchFailed set; only a failed history request fails the call.
func (h *HistoryService) AlbumTracks(ctx context.Context, token string) ([]models.AlbumTrackBundle, error) {
	items, err := h.RecentlyPlayed(ctx, token, h.limit)
	if err != nil {
		return nil, err
	}

	albums := models.UniqueAlbums(items)
	bundles := make([]models.AlbumTrackBundle, len(albums))

	var g errgroup.Group
	if h.maxConcurrency > 0 {
		g.SetLimit(h.maxConcurrency)
	}

	for i, album := range albums {
		g.Go(func() error {
			bundles[i] = h.albumBundle(ctx, token, album)
			return nil
		})
	}
	_ = g.Wait()

	return bundles, nil
}

// TopTracks returns the user's top tracks. limit defaults to [DefaultTopTracksLimit].
func (h *HistoryService) TopTracks(ctx context.Context, token string, limit int) ([]models.TopTrack, error) {
	limit = clampLimit(limit, DefaultTopTracksLimit, MaxHistoryLimit)
	endpoint := fmt.Sprintf("%s?limit=%d", h.client.Endpoint(topTracksPath), limit)

	res, err := h.client.GetJSON(ctx, endpoint, token)
	if err != nil {
		h.logUpstream("top tracks request failed", err)
		return nil, fmt.Errorf("failed to fetch top tracks: %w", err)
	}

	items := res.Get("items").Array()
	out := make([]models.TopTrack, 0, len(items))
	for _, item := range items {
		out = append(out, models.TopTrack{
			SongName: item.Get("name").String(),
			Artists:  joinArtists(item.Get("artists")),
			Album:    item.Get("album.name").String(),
		})
	}
	return out, nil
}

func (h *HistoryService) albumBundle(ctx context.Context, token string, album models.RecentlyPlayedItem) models.AlbumTrackBundle {
	if album.AlbumID == "" {
		h.logger.Warn("play event without album id", "album_name", album.AlbumName)
		return models.FailedBundle(album)
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			h.logger.Warn("album fetch cancelled", "album_id", album.AlbumID, "error", err)
			return models.FailedBundle(album)
		}
	}

	endpoint := h.client.Endpoint(fmt.Sprintf(albumTracksPath, url.PathEscape(album.AlbumID)))
	res, err := h.client.GetJSON(ctx, endpoint, token)
	if err != nil {
		h.logger.Warn("album fetch failed", "album_id", album.AlbumID, "error", err)
		return models.FailedBundle(album)
	}

	items := res.Get("items").Array()
	tracks := make([]models.AlbumTrack, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, models.AlbumTrack{
			SongName: item.Get("name").String(),
			Artists:  joinArtists(item.Get("artists")),
		})
	}

	return models.AlbumTrackBundle{
		AlbumID:   album.AlbumID,
		AlbumName: album.AlbumName,
		Tracks:    tracks,
	}
}

func (h *HistoryService) logUpstream(msg string, err error) {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		h.logger.Error(msg, "status", upErr.StatusCode, "body", upErr.Body)
		return
	}
	h.logger.Error(msg, "error", err)
}

func joinArtists(artists gjson.Result) string {
	names := make([]string, 0, len(artists.Array()))
	for _, a := range artists.Array() {
		names = append(names, a.Get("name").String())
	}
	return strings.Join(names, ", ")
}

func clampLimit(limit, fallback, ceiling int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, ceiling)
}
