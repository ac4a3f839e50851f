// package formatter renders listening history as JSON, CSV, Markdown, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/playthrough/internal/models"
	"github.com/desertthunder/playthrough/internal/shared"
)

// Output formats accepted by [Render].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Render encodes a history payload ([]models.AlbumTrackBundle, []models.RecentlyPlayedItem or []models.TopTrack) in format.
func Render(payload any, format string, pretty bool) ([]byte, error) {
	switch format {
	case "", FormatJSON:
		return shared.MarshalJSON(payload, pretty)
	case FormatCSV, FormatMarkdown, FormatText:
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	switch p := payload.(type) {
	case []models.AlbumTrackBundle:
		return renderAlbums(p, format)
	case []models.RecentlyPlayedItem:
		return renderRecent(p, format)
	case []models.TopTrack:
		return renderTop(p, format)
	default:
		return nil, fmt.Errorf("%w: cannot render %T", shared.ErrInvalidArgument, payload)
	}
}

func renderAlbums(bundles []models.AlbumTrackBundle, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return AlbumsToCSV(bundles)
	case FormatMarkdown:
		return AlbumsToMarkdown(bundles), nil
	default:
		return AlbumsToText(bundles), nil
	}
}

func renderRecent(items []models.RecentlyPlayedItem, format string) ([]byte, error) {
	if format == FormatCSV {
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, []string{item.AlbumID, item.AlbumName})
		}
		return toCSV([]string{"AlbumID", "Album"}, rows)
	}

	var buf bytes.Buffer
	if format == FormatMarkdown {
		buf.WriteString("# Recently Played\n\n")
	} else {
		buf.WriteString(fmt.Sprintf("Recently played: %d\n\n", len(items)))
	}
	for i, item := range items {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, item.AlbumName))
	}
	return buf.Bytes(), nil
}

func renderTop(tracks []models.TopTrack, format string) ([]byte, error) {
	if format == FormatCSV {
		rows := make([][]string, 0, len(tracks))
		for i, track := range tracks {
			rows = append(rows, []string{strconv.Itoa(i + 1), track.SongName, track.Artists, track.Album})
		}
		return toCSV([]string{"Rank", "Title", "Artists", "Album"}, rows)
	}

	var buf bytes.Buffer
	if format == FormatMarkdown {
		buf.WriteString("# Top Tracks\n\n")
	} else {
		buf.WriteString(fmt.Sprintf("Top tracks: %d\n\n", len(tracks)))
	}
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Artists, track.SongName, albumPart))
	}
	return buf.Bytes(), nil
}

// AlbumsToCSV writes one row per track with columns: AlbumID, Album, Title, Artists, FetchFailed.
//
// An album whose fetch failed is a single row with empty track columns.
func AlbumsToCSV(bundles []models.AlbumTrackBundle) ([]byte, error) {
	rows := [][]string{}
	for _, b := range bundles {
		failed := strconv.FormatBool(b.FetchFailed)
		if len(b.Tracks) == 0 {
			rows = append(rows, []string{b.AlbumID, b.AlbumName, "", "", failed})
			continue
		}
		for _, track := range b.Tracks {
			rows = append(rows, []string{b.AlbumID, b.AlbumName, track.SongName, track.Artists, failed})
		}
	}
	return toCSV([]string{"AlbumID", "Album", "Title", "Artists", "FetchFailed"}, rows)
}

// AlbumsToMarkdown renders a section per album with a numbered track list.
func AlbumsToMarkdown(bundles []models.AlbumTrackBundle) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Recently Played Albums\n\n")
	buf.WriteString(fmt.Sprintf("**Albums**: %d\n\n", len(bundles)))

	for _, b := range bundles {
		buf.WriteString(fmt.Sprintf("## %s\n\n", b.AlbumName))
		if b.FetchFailed {
			buf.WriteString("_Tracks unavailable_\n\n")
			continue
		}
		for i, track := range b.Tracks {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artists, track.SongName))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// AlbumsToText renders albums and their tracks as indented plain text.
func AlbumsToText(bundles []models.AlbumTrackBundle) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Albums: %d\n", len(bundles)))
	for _, b := range bundles {
		buf.WriteString(fmt.Sprintf("\n%s\n", b.AlbumName))
		if b.FetchFailed {
			buf.WriteString("  (tracks unavailable)\n")
			continue
		}
		for i, track := range b.Tracks {
			buf.WriteString(fmt.Sprintf("  %d. %s - %s\n", i+1, track.Artists, track.SongName))
		}
	}

	return buf.Bytes()
}

func toCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
