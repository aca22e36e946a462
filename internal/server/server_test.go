package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/relay"
	"github.com/desertthunder/songshare/internal/shared"
	tu "github.com/desertthunder/songshare/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sender    = "+15550002222"
	recipient = "+15550001111"
)

type harness struct {
	server    *Server
	catalog   *tu.MockCatalog
	search    *tu.MockSearcher
	messenger *tu.MockMessenger
}

// memoryCache is an in-memory [relay.Cache].
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*models.Resolution
}

func (c *memoryCache) Cached(trackID string) (*models.Resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[trackID]
	return res, ok
}

func (c *memoryCache) Store(track models.TrackMetadata, video models.VideoResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]*models.Resolution{}
	}
	c.entries[track.ID] = models.NewResolution(track, video)
	return nil
}

func newHarness(t *testing.T, mutate ...func(*relay.Options)) *harness {
	t.Helper()

	h := &harness{
		catalog: &tu.MockCatalog{Tracks: map[string]*models.TrackMetadata{
			"ID123": {ID: "ID123", Title: "Song A", Artist: "Artist B", Album: "Album C", Genres: []string{}},
		}},
		search:    &tu.MockSearcher{Result: &models.VideoResult{Title: "Song A", URL: "https://video.example/watch?v=ID1", Channel: "Artist B"}},
		messenger: &tu.MockMessenger{},
	}

	logger := shared.NewLogger(io.Discard)
	opts := relay.Options{
		Catalog:   h.catalog,
		Search:    h.search,
		Messenger: h.messenger,
		Recipient: recipient,
		Logger:    logger,
	}
	for _, m := range mutate {
		m(&opts)
	}
	r, err := relay.New(opts)
	require.NoError(t, err)

	h.server = New("127.0.0.1:0", r, logger)
	return h
}

func (h *harness) postForm(values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/sms", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.server.ServeHTTP(rr, req)
	return rr
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestWebhook(t *testing.T) {
	t.Run("help path", func(t *testing.T) {
		h := newHarness(t)

		rr := h.postForm(url.Values{"From": {sender}, "Body": {"hello"}})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

		sent := h.messenger.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, sender, sent[0].To)
		assert.Contains(t, sent[0].Body, "Send me a Spotify song link")
		assert.Empty(t, h.catalog.Calls())
	})

	t.Run("full success", func(t *testing.T) {
		h := newHarness(t)

		rr := h.postForm(url.Values{"From": {sender}, "Body": {"https://open.spotify.com/track/ID123"}})
		assert.Equal(t, http.StatusOK, rr.Code)

		forwarded := h.messenger.SentTo(recipient)
		require.Len(t, forwarded, 1)
		assert.Contains(t, forwarded[0].Body, "Song A")
		assert.Contains(t, forwarded[0].Body, "Artist B")
		assert.Contains(t, forwarded[0].Body, "https://video.example/watch?v=ID1")
		assert.Empty(t, h.messenger.SentTo(sender))
	})

	t.Run("failure apologizes with 200", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.Err = shared.ErrTrackNotFound

		rr := h.postForm(url.Values{"From": {sender}, "Body": {"spotify:track:BAD"}})
		assert.Equal(t, http.StatusOK, rr.Code)

		sent := h.messenger.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, sender, sent[0].To)
		assert.Contains(t, sent[0].Body, "Sorry")
	})

	t.Run("missing body field", func(t *testing.T) {
		h := newHarness(t)

		rr := h.postForm(url.Values{"From": {sender}})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Internal Server Error")
		assert.Empty(t, h.messenger.Sent())
	})

	t.Run("missing sender", func(t *testing.T) {
		h := newHarness(t)

		rr := h.postForm(url.Values{"Body": {"hello"}})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("delivery failure", func(t *testing.T) {
		h := newHarness(t)
		h.messenger.FailFor = map[string]bool{sender: true}

		rr := h.postForm(url.Values{"From": {sender}, "Body": {"hello"}})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("json payload", func(t *testing.T) {
		h := newHarness(t)

		req := httptest.NewRequest(http.MethodPost, "/webhook/sms",
			strings.NewReader(`{"From": "+15550002222", "Body": "spotify:track:ID123"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		h.server.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, h.messenger.SentTo(recipient), 1)
	})

	t.Run("duplicate webhooks", func(t *testing.T) {
		h := newHarness(t)
		values := url.Values{"From": {sender}, "Body": {"https://open.spotify.com/track/ID123"}}

		for range 2 {
			assert.Equal(t, http.StatusOK, h.postForm(values).Code)
		}
		assert.Len(t, h.messenger.SentTo(recipient), 2)
	})

	t.Run("wrong method", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, http.StatusMethodNotAllowed, h.get("/webhook/sms").Code)
	})
}

func TestDiagnostics(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		for _, path := range []string{"/test-catalog/ID123", "/test-spotify/ID123"} {
			h := newHarness(t)
			rr := h.get(path)
			require.Equal(t, http.StatusOK, rr.Code, path)

			var body struct {
				Success bool                 `json:"success"`
				Track   models.TrackMetadata `json:"track"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.True(t, body.Success)
			assert.Equal(t, "Song A", body.Track.Title)
			assert.Empty(t, h.messenger.Sent(), "diagnostics never send messages")
		}
	})

	t.Run("catalog failure", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.Err = shared.ErrTrackNotFound

		rr := h.get("/test-catalog/NOPE")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"success": false, "error": "track not found"}`, rr.Body.String())
	})

	t.Run("full", func(t *testing.T) {
		h := newHarness(t)

		rr := h.get("/test-full/ID123")
		require.Equal(t, http.StatusOK, rr.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Song A", body["track"].(map[string]any)["title"])
		assert.Equal(t, "https://video.example/watch?v=ID1", body["video"].(map[string]any)["url"])
	})

	t.Run("full always queries upstreams with a cache", func(t *testing.T) {
		cache := &memoryCache{}
		h := newHarness(t, func(o *relay.Options) { o.Cache = cache })

		rr := h.postForm(url.Values{"From": {sender}, "Body": {"spotify:track:ID123"}})
		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, h.catalog.Calls(), 1)

		h.search.Result = &models.VideoResult{Title: "Song A", URL: "https://video.example/watch?v=NEW", Channel: "Artist B"}

		rr = h.get("/test-full/ID123")
		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Video models.VideoResult `json:"video"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "https://video.example/watch?v=NEW", body.Video.URL)
		assert.Len(t, h.catalog.Calls(), 2)
		assert.Len(t, h.search.Queries(), 2)

		rr = h.get("/test-full/ID123")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, h.catalog.Calls(), 3, "repeat diagnostics are never served from the cache")

		cached, ok := cache.Cached("ID123")
		require.True(t, ok)
		assert.Equal(t, "https://video.example/watch?v=NEW", cached.Video().URL)
	})

	t.Run("full failure", func(t *testing.T) {
		h := newHarness(t)
		h.search.Err = shared.ErrNoResults

		rr := h.get("/test-full/ID123")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "no search results")
	})
}

func TestRoot(t *testing.T) {
	h := newHarness(t)

	rr := h.get("/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message": "songshare is running!", "status": "ok"}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, h.get("/missing").Code)
}

func TestServe(t *testing.T) {
	h := newHarness(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
