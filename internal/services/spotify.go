// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Genres      []string        `json:"genres"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyAudioFeatures represents the audio analysis summary of a track.
type SpotifyAudioFeatures struct {
	ID           string  `json:"id"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        float64 `json:"tempo"`
}

type spotifyErrorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func spotifyErrorMessage(body []byte) string {
	var envelope spotifyErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}

// genreStrategy is one source of genres for a track, tried in order.
type genreStrategy struct {
	name  string
	fetch func(ctx context.Context, s *SpotifyService, track *SpotifyTrack) ([]string, error)
}

// genreStrategies prefers album genres and falls back to the primary artist's.
var genreStrategies = []genreStrategy{
	{
		name: "album",
		fetch: func(ctx context.Context, s *SpotifyService, track *SpotifyTrack) ([]string, error) {
			if track.Album.ID == "" {
				return nil, nil
			}
			album, err := s.Album(ctx, track.Album.ID)
			if err != nil {
				return nil, err
			}
			return album.Genres, nil
		},
	},
	{
		name: "artist",
		fetch: func(ctx context.Context, s *SpotifyService, track *SpotifyTrack) ([]string, error) {
			if len(track.Artists) == 0 || track.Artists[0].ID == "" {
				return nil, nil
			}
			artist, err := s.Artist(ctx, track.Artists[0].ID)
			if err != nil {
				return nil, err
			}
			return artist.Genres, nil
		},
	},
}

// SpotifyService implements [Catalog] for the Spotify Web API.
// Requests carry an app-only bearer token from a [CredentialCache].
type SpotifyService struct {
	baseURL    string
	tokens     *CredentialCache
	httpClient *http.Client
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service with the given client credentials.
//
// Recognized keys are "client_id", "client_secret", "token_url" and "api_url". A nil client uses [http.DefaultClient].
func NewSpotifyService(credentials map[string]string, client *http.Client) (*SpotifyService, error) {
	tokens, err := NewCredentialCache(credentials, client)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyService{
		baseURL:    strings.TrimRight(credentialOr(credentials, "api_url", spotifyBaseURL), "/"),
		tokens:     tokens,
		httpClient: client,
		logger:     shared.NewLogger(nil),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetLogger replaces the logger used by the service and its credential cache.
func (s *SpotifyService) SetLogger(l *log.Logger) {
	s.logger = l
	s.tokens.SetLogger(l)
}

// Credentials exposes the token cache backing the service.
func (s *SpotifyService) Credentials() *CredentialCache {
	return s.tokens
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := checkResponse("spotify", resp, spotifyErrorMessage); err != nil {
		if resp.StatusCode == http.StatusUnauthorized {
			s.tokens.Invalidate()
		}
		return err
	}

	return decodeResponse(resp, result)
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(trackID), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Album retrieves an album by ID.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*SpotifyAlbum, error) {
	var album SpotifyAlbum
	if err := s.doRequest(ctx, http.MethodGet, "/albums/"+url.PathEscape(albumID), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Artist retrieves an artist by ID.
func (s *SpotifyService) Artist(ctx context.Context, artistID string) (*SpotifyArtist, error) {
	var artist SpotifyArtist
	if err := s.doRequest(ctx, http.MethodGet, "/artists/"+url.PathEscape(artistID), &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// AudioFeatures retrieves the audio analysis summary of a track.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackID string) (*SpotifyAudioFeatures, error) {
	var features SpotifyAudioFeatures
	if err := s.doRequest(ctx, http.MethodGet, "/audio-features/"+url.PathEscape(trackID), &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// GetTrack resolves trackID into [models.TrackMetadata].
//
// Only the token exchange and the base track lookup are fatal. A 400 or 404 from the track
// endpoint wraps [shared.ErrTrackNotFound]; everything else wraps [shared.ErrAPIRequest].
func (s *SpotifyService) GetTrack(ctx context.Context, trackID string) (*models.TrackMetadata, error) {
	track, err := s.Track(ctx, trackID)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrTrackNotFound, trackID, err)
		}
		if errors.Is(err, shared.ErrAPIRequest) {
			return nil, fmt.Errorf("failed to get track %s: %w", trackID, err)
		}
		return nil, fmt.Errorf("%w: failed to get track %s: %w", shared.ErrAPIRequest, trackID, err)
	}

	if len(track.Artists) == 0 {
		return nil, fmt.Errorf("%w: track %s has no artists", shared.ErrAPIRequest, trackID)
	}

	names := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		names = append(names, a.Name)
	}

	return &models.TrackMetadata{
		ID:            trackID,
		Title:         track.Name,
		Artist:        strings.Join(names, ", "),
		Album:         track.Album.Name,
		Genres:        s.resolveGenres(ctx, track),
		AudioFeatures: s.resolveAudioFeatures(ctx, trackID),
	}, nil
}

// resolveGenres tries each genre strategy in order and returns the first non-empty result.
// The result is never nil.
func (s *SpotifyService) resolveGenres(ctx context.Context, track *SpotifyTrack) []string {
	for _, strategy := range genreStrategies {
		genres, err := strategy.fetch(ctx, s, track)
		if err != nil {
			s.logger.Debug("genres not available", "source", strategy.name, "track_id", track.ID, "error", err)
			continue
		}
		if len(genres) > 0 {
			return genres
		}
	}
	return []string{}
}

// resolveAudioFeatures returns nil when the features cannot be fetched.
func (s *SpotifyService) resolveAudioFeatures(ctx context.Context, trackID string) *models.AudioFeatures {
	features, err := s.AudioFeatures(ctx, trackID)
	if err != nil {
		s.logger.Debug("audio features not available", "track_id", trackID, "error", err)
		return nil
	}

	return &models.AudioFeatures{
		Danceability: features.Danceability,
		Energy:       features.Energy,
		Valence:      features.Valence,
		Tempo:        int(math.Round(features.Tempo)),
	}
}
