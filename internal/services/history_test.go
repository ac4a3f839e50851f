package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/desertthunder/playthrough/internal/models"
	"github.com/desertthunder/playthrough/internal/shared"
	tu "github.com/desertthunder/playthrough/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newHistoryService(t *testing.T, fake *tu.FakeSpotify, opts HistoryOptions) *HistoryService {
	t.Helper()
	client, err := NewSpotifyClient(fake.Config(), nil)
	require.NoError(t, err)
	return NewHistoryService(client, tu.DiscardLogger(), opts)
}

func TestRecentlyPlayed(t *testing.T) {
	ctx := context.Background()

	t.Run("maps play events", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.AddAlbum(tu.FakeAlbum{ID: "A", Name: "Album A"})
		fake.AddAlbum(tu.FakeAlbum{ID: "B", Name: "Album B"})
		fake.History = append(fake.History, fake.Albums["A"])

		items, err := newHistoryService(t, fake, HistoryOptions{}).RecentlyPlayed(ctx, "T1", 50)
		require.NoError(t, err)

		assert.Equal(t, []models.RecentlyPlayedItem{
			{AlbumID: "A", AlbumName: "Album A"},
			{AlbumID: "B", AlbumName: "Album B"},
			{AlbumID: "A", AlbumName: "Album A"},
		}, items)
		assert.Equal(t, "T1", fake.LastBearer())
	})

	t.Run("limit is defaulted and capped", func(t *testing.T) {
		tests := []struct {
			limit int
			want  string
		}{
			{limit: 0, want: "50"},
			{limit: -3, want: "50"},
			{limit: 10, want: "10"},
			{limit: 200, want: "50"},
		}

		fake := tu.NewFakeSpotify(t)
		svc := newHistoryService(t, fake, HistoryOptions{})
		for _, tt := range tests {
			_, err := svc.RecentlyPlayed(ctx, "T1", tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fake.HistoryLimit(), "limit %d", tt.limit)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.HistoryStatus = http.StatusUnauthorized

		_, err := newHistoryService(t, fake, HistoryOptions{}).RecentlyPlayed(ctx, "T1", 50)

		var upErr *UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	})

	t.Run("missing items", func(t *testing.T) {
		svc := NewHistoryService(stubClient{body: `{"href":"x"}`}, tu.DiscardLogger(), HistoryOptions{})

		_, err := svc.RecentlyPlayed(ctx, "T1", 50)
		assert.ErrorIs(t, err, shared.ErrAPIResponse)
	})
}

func TestAlbumTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("failed album is contained", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.AddAlbum(tu.FakeAlbum{
			ID:   "A",
			Name: "Album A",
			Tracks: []tu.FakeTrack{
				{Name: "Song 1", Artists: []string{"X", "Y"}},
			},
		})
		fake.AddAlbum(tu.FakeAlbum{ID: "B", Name: "Album B", Status: http.StatusInternalServerError})

		bundles, err := newHistoryService(t, fake, HistoryOptions{}).AlbumTracks(ctx, "T1")
		require.NoError(t, err)

		got, err := json.Marshal(bundles)
		require.NoError(t, err)
		assert.JSONEq(t, `[
			{"albumId":"A","albumName":"Album A","tracks":[{"songName":"Song 1","artists":"X, Y"}],"fetchFailed":false},
			{"albumId":"B","albumName":"Album B","tracks":[],"fetchFailed":true}
		]`, string(got))
	})

	t.Run("albums are fetched once in first-seen order", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.AddAlbum(tu.FakeAlbum{ID: "A", Name: "Album A"})
		fake.AddAlbum(tu.FakeAlbum{ID: "B", Name: "Album B"})
		fake.History = append(fake.History, fake.Albums["A"], fake.Albums["B"])

		bundles, err := newHistoryService(t, fake, HistoryOptions{}).AlbumTracks(ctx, "T1")
		require.NoError(t, err)

		require.Len(t, bundles, 2)
		assert.Equal(t, "A", bundles[0].AlbumID)
		assert.Equal(t, "B", bundles[1].AlbumID)
		assert.Equal(t, 1, fake.AlbumCalls("A"))
		assert.Equal(t, 1, fake.AlbumCalls("B"))
		assert.Equal(t, 1, fake.HistoryCalls())
	})

	t.Run("order survives concurrency", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		for i := range 30 {
			id := fmt.Sprintf("album-%02d", i)
			fake.AddAlbum(tu.FakeAlbum{
				ID:     id,
				Name:   "Name " + id,
				Tracks: []tu.FakeTrack{{Name: "Track " + id, Artists: []string{"Artist"}}},
			})
		}

		for _, opts := range []HistoryOptions{
			{},
			{MaxConcurrency: 1},
			{MaxConcurrency: -1},
			{MaxConcurrency: 4, RateLimit: 1000},
		} {
			bundles, err := newHistoryService(t, fake, opts).AlbumTracks(ctx, "T1")
			require.NoError(t, err)
			require.Len(t, bundles, 30)

			for i, b := range bundles {
				id := fmt.Sprintf("album-%02d", i)
				assert.Equal(t, id, b.AlbumID, "opts %+v", opts)
				require.Len(t, b.Tracks, 1)
				assert.Equal(t, "Track "+id, b.Tracks[0].SongName)
			}
		}
	})

	t.Run("album without id is not requested", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.AddAlbum(tu.FakeAlbum{ID: "", Name: "Local file"})

		bundles, err := newHistoryService(t, fake, HistoryOptions{}).AlbumTracks(ctx, "T1")
		require.NoError(t, err)

		require.Len(t, bundles, 1)
		assert.True(t, bundles[0].FetchFailed)
		assert.NotNil(t, bundles[0].Tracks)
		assert.Zero(t, fake.AlbumCalls(""))
	})

	t.Run("history failure fails the call", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.AddAlbum(tu.FakeAlbum{ID: "A", Name: "Album A"})
		fake.HistoryStatus = http.StatusInternalServerError

		bundles, err := newHistoryService(t, fake, HistoryOptions{}).AlbumTracks(ctx, "T1")
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.Nil(t, bundles)
		assert.Zero(t, fake.AlbumCalls("A"))
	})

	t.Run("uses configured window", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		_, err := newHistoryService(t, fake, HistoryOptions{Limit: 20}).AlbumTracks(ctx, "T1")
		require.NoError(t, err)
		assert.Equal(t, "20", fake.HistoryLimit())
	})

	t.Run("empty history", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		bundles, err := newHistoryService(t, fake, HistoryOptions{}).AlbumTracks(ctx, "T1")
		require.NoError(t, err)
		assert.Empty(t, bundles)
	})
}

func TestTopTracks(t *testing.T) {
	ctx := context.Background()

	fake := tu.NewFakeSpotify(t)
	for i := range 7 {
		fake.Top = append(fake.Top, tu.FakeTrack{
			Name:    fmt.Sprintf("Top %d", i),
			Artists: []string{"X", "Y"},
			Album:   "Album",
		})
	}
	svc := newHistoryService(t, fake, HistoryOptions{})

	t.Run("default limit", func(t *testing.T) {
		tracks, err := svc.TopTracks(ctx, "T1", 0)
		require.NoError(t, err)

		require.Len(t, tracks, DefaultTopTracksLimit)
		assert.Equal(t, models.TopTrack{SongName: "Top 0", Artists: "X, Y", Album: "Album"}, tracks[0])
		assert.Equal(t, 1, fake.TopCalls())
	})

	t.Run("explicit limit", func(t *testing.T) {
		tracks, err := svc.TopTracks(ctx, "T1", 2)
		require.NoError(t, err)
		assert.Len(t, tracks, 2)
	})
}

// stubClient serves a fixed body for every request.
type stubClient struct {
	body string
}

func (s stubClient) Endpoint(path string) string {
	return "http://stub" + path
}

func (s stubClient) GetJSON(ctx context.Context, endpoint, token string) (gjson.Result, error) {
	return gjson.Parse(s.body), nil
}

func TestValidView(t *testing.T) {
	for _, view := range []string{ViewAlbums, ViewRecent, ViewTop} {
		assert.True(t, ValidView(view), view)
	}
	for _, view := range []string{"", "Albums", "genres"} {
		assert.False(t, ValidView(view), view)
	}
}
