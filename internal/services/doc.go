// Package services implements the HTTP clients the relay depends on: a music catalog, a video search and an SMS gateway.
//
// # Interfaces
//
// The relay only sees [Catalog], [VideoSearcher] and [Messenger], so tests can swap in fakes.
//
// # Spotify Implementation
//
// [SpotifyService] resolves track metadata with an app-only token obtained through the client-credentials grant.
// Tokens are memoized by [CredentialCache] and refreshed 60 seconds before they expire.
//
// Genres and audio features are best-effort enrichment. Their failures are logged and never surface to the caller.
//
// # YouTube Implementation
//
// [YouTubeService] queries the YouTube Data API v3 search endpoint with an API key and keeps the top result.
//
// # Twilio Implementation
//
// [TwilioService] posts to the Messages resource of the Twilio REST API using account SID and auth token basic auth.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrAuthFailed] : client-credentials exchange failed
//   - [shared.ErrTrackNotFound] : the catalog does not know the track id
//   - [shared.ErrAPIRequest] : any other upstream failure
//   - [shared.ErrNoResults] : the video search returned nothing
//   - [shared.ErrDeliveryFailed] : the SMS gateway rejected or never received the message
//
// Non-2xx responses are reported as [*StatusError], which unwraps to [shared.ErrAPIRequest].
package services
