// package services defines the upstream clients used by the relay
//
// Spotify, YouTube Data API, Twilio
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
)

// Catalog resolves a track id into song metadata.
type Catalog interface {
	// GetTrack returns the metadata for trackID.
	// Enrichment failures are swallowed; only the base track lookup can fail.
	GetTrack(ctx context.Context, trackID string) (*models.TrackMetadata, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// VideoSearcher finds the best matching video for a song.
type VideoSearcher interface {
	// Search returns the top video for artist and title or [shared.ErrNoResults].
	Search(ctx context.Context, artist, title string) (*models.VideoResult, error)

	// Name returns the name of the service (e.g., "YouTube")
	Name() string
}

// Messenger delivers a text message.
type Messenger interface {
	// Send delivers body to the phone number to and returns the provider's message id.
	Send(ctx context.Context, to, body string) (string, error)

	// Name returns the name of the service (e.g., "Twilio")
	Name() string
}

// NewHTTPClient returns an [http.Client] with the given request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// StatusError reports a non-2xx response from an upstream API.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
}

// Unwrap lets callers match [shared.ErrAPIRequest] with errors.Is.
func (e *StatusError) Unwrap() error {
	return shared.ErrAPIRequest
}

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// checkResponse returns nil for 2xx responses and a [*StatusError] otherwise.
//
// extract pulls a human-readable message out of the provider's error envelope.
func checkResponse(service string, resp *http.Response, extract func([]byte) string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	statusErr := &StatusError{Service: service, StatusCode: resp.StatusCode}
	if body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); err == nil && extract != nil {
		statusErr.Message = extract(body)
	}
	return statusErr
}

// decodeResponse decodes a JSON response body into result.
func decodeResponse(resp *http.Response, result any) error {
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// requireCredential returns credentials[key] or an error naming the missing key.
func requireCredential(credentials map[string]string, key string) (string, error) {
	value, ok := credentials[key]
	if !ok || value == "" {
		return "", fmt.Errorf("%w: missing %s in credentials", shared.ErrMissingCredentials, key)
	}
	return value, nil
}

// credentialOr returns credentials[key] or fallback when the key is unset or empty.
func credentialOr(credentials map[string]string, key, fallback string) string {
	if value, ok := credentials[key]; ok && value != "" {
		return value
	}
	return fallback
}
