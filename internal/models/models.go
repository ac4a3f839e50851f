// package models defines the data model for the listening-history service
package models

// RecentlyPlayedItem is the album referenced by a single play event.
type RecentlyPlayedItem struct {
	AlbumID   string `json:"albumId"`
	AlbumName string `json:"albumName"`
}

// AlbumTrack is a song on an album with its artists joined by ", ".
type AlbumTrack struct {
	SongName string `json:"songName"`
	Artists  string `json:"artists"`
}

// AlbumTrackBundle holds the tracks of one album.
//
// FetchFailed is set when the album's track request failed; Tracks is then empty, never nil.
type AlbumTrackBundle struct {
	AlbumID     string       `json:"albumId"`
	AlbumName   string       `json:"albumName"`
	Tracks      []AlbumTrack `json:"tracks"`
	FetchFailed bool         `json:"fetchFailed"`
}

// TopTrack is an entry of the user's top tracks.
type TopTrack struct {
	SongName string `json:"songName"`
	Artists  string `json:"artists"`
	Album    string `json:"album"`
}

// FailedBundle returns the bundle recorded for an album whose track fetch failed.
func FailedBundle(item RecentlyPlayedItem) AlbumTrackBundle {
	return AlbumTrackBundle{
		AlbumID:     item.AlbumID,
		AlbumName:   item.AlbumName,
		Tracks:      []AlbumTrack{},
		FetchFailed: true,
	}
}

// UniqueAlbums returns items with duplicate album ids removed, keeping first-seen order.
func UniqueAlbums(items []RecentlyPlayedItem) []RecentlyPlayedItem {
	seen := make(map[string]bool, len(items))
	unique := make([]RecentlyPlayedItem, 0, len(items))
	for _, item := range items {
		if seen[item.AlbumID] {
			continue
		}
		seen[item.AlbumID] = true
		unique = append(unique, item)
	}
	return unique
}
