// YouTube Data API v3 implementation of [VideoSearcher]
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
)

const (
	youtubeBaseURL  = "https://www.googleapis.com/youtube/v3"
	youtubeWatchURL = "https://www.youtube.com/watch?v="
)

// YouTubeSearchResponse is the subset of a search.list response the relay reads.
type YouTubeSearchResponse struct {
	Items []YouTubeSearchResult `json:"items"`
}

// YouTubeSearchResult is a single search.list item.
type YouTubeSearchResult struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

type youtubeErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func youtubeErrorMessage(body []byte) string {
	var envelope youtubeErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}

// YouTubeService implements [VideoSearcher] with an API key.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube search service.
//
// Recognized keys are "api_key" (required) and "api_url". A nil client uses [http.DefaultClient].
func NewYouTubeService(credentials map[string]string, client *http.Client) (*YouTubeService, error) {
	apiKey, err := requireCredential(credentials, "api_key")
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(credentialOr(credentials, "api_url", youtubeBaseURL), "/"),
		apiKey:     apiKey,
		httpClient: client,
	}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, params url.Values, result any) error {
	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := checkResponse("youtube", resp, youtubeErrorMessage); err != nil {
		return err
	}

	return decodeResponse(resp, result)
}

// SearchVideos runs search.list for query and returns at most maxResults videos ordered by relevance.
func (y *YouTubeService) SearchVideos(ctx context.Context, query string, maxResults int) ([]YouTubeSearchResult, error) {
	if maxResults <= 0 {
		maxResults = 1
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprint(maxResults))
	params.Set("order", "relevance")

	var response YouTubeSearchResponse
	if err := y.doRequest(ctx, http.MethodGet, "/search", params, &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// Search returns the top video for "<artist> <title>".
func (y *YouTubeService) Search(ctx context.Context, artist, title string) (*models.VideoResult, error) {
	query := artist + " " + title

	items, err := y.SearchVideos(ctx, query, 1)
	if err != nil {
		if errors.Is(err, shared.ErrAPIRequest) {
			return nil, fmt.Errorf("video search for %q: %w", query, err)
		}
		return nil, fmt.Errorf("%w: video search for %q: %w", shared.ErrAPIRequest, query, err)
	}

	if len(items) == 0 || items[0].ID.VideoID == "" {
		return nil, fmt.Errorf("%w: %q", shared.ErrNoResults, query)
	}

	top := items[0]
	return &models.VideoResult{
		Title:   top.Snippet.Title,
		URL:     youtubeWatchURL + top.ID.VideoID,
		Channel: top.Snippet.ChannelTitle,
	}, nil
}
