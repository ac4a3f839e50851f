// Package services implements the Spotify side of playthrough.
//
// # Spotify Client
//
// [SpotifyClient] wraps an [oauth2.Config] for the accounts service. Both token grants post a
// form body with HTTP Basic client authentication, one request each with no retry. The client
// holds no tokens; callers pass the credential for every call.
//
// [SpotifyClient.GetJSON] returns a [gjson.Result] so callers reshape provider payloads by path
// instead of mirroring Spotify's object model in structs.
//
// # History Service
//
// [HistoryService] consumes a valid access token:
//   - RecentlyPlayed: one request to /me/player/recently-played
//   - AlbumTracks: recently played, deduplicated by album, then one request per album
//   - TopTracks: one request to /me/top/tracks
//
// Album requests fan out on an [errgroup.Group] into an index-addressed slice, so output order is
// first-seen order regardless of completion order. A per-album failure is recorded on that
// album's bundle and logged; it never fails the call.
//
// # Error Handling
//
//   - [*UpstreamError] : non-2xx from Spotify; unwraps to [shared.ErrAPIRequest]
//   - [shared.ErrAPIRequest] : transport failure
//   - [shared.ErrAPIResponse] : body was not the expected JSON
package services
