// Package models defines the listening-history records produced by the playthrough service.
//
// All types are transient: they are built per request from provider responses and serialised straight to the caller.
//
//   - [RecentlyPlayedItem] : album reference taken from one play event
//   - [AlbumTrackBundle] : track list of one album referenced in the recently-played window
//   - [AlbumTrack] : a track inside a bundle
//   - [TopTrack] : an entry of the user's top tracks
package models
