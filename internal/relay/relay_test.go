package relay

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
	tu "github.com/desertthunder/songshare/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sender    = "+15550002222"
	recipient = "+15550001111"
)

type fixture struct {
	catalog   *tu.MockCatalog
	search    *tu.MockSearcher
	messenger *tu.MockMessenger
}

func newFixture() *fixture {
	return &fixture{
		catalog: &tu.MockCatalog{Tracks: map[string]*models.TrackMetadata{
			"ID123": {ID: "ID123", Title: "Song A", Artist: "Artist B", Album: "Album C", Genres: []string{}},
		}},
		search:    &tu.MockSearcher{Result: &models.VideoResult{Title: "Song A", URL: "https://video.example/watch?v=ID1", Channel: "Artist B"}},
		messenger: &tu.MockMessenger{},
	}
}

func (f *fixture) relay(t *testing.T, mutate ...func(*Options)) *Relay {
	t.Helper()

	opts := Options{
		Catalog:       f.catalog,
		Search:        f.search,
		Messenger:     f.messenger,
		Recipient:     recipient,
		RecipientName: "Casey",
		Logger:        shared.NewLogger(io.Discard),
	}
	for _, m := range mutate {
		m(&opts)
	}

	r, err := New(opts)
	require.NoError(t, err)
	return r
}

// memoryCache is an in-memory [Cache].
type memoryCache struct {
	entries map[string]*models.Resolution
	stores  int
	err     error
}

func (c *memoryCache) Cached(trackID string) (*models.Resolution, bool) {
	res, ok := c.entries[trackID]
	return res, ok
}

func (c *memoryCache) Store(track models.TrackMetadata, video models.VideoResult) error {
	c.stores++
	if c.err != nil {
		return c.err
	}
	if c.entries == nil {
		c.entries = map[string]*models.Resolution{}
	}
	c.entries[track.ID] = models.NewResolution(track, video)
	return nil
}

func TestNew(t *testing.T) {
	f := newFixture()

	t.Run("requires collaborators", func(t *testing.T) {
		_, err := New(Options{Recipient: recipient})
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})

	t.Run("requires recipient", func(t *testing.T) {
		_, err := New(Options{Catalog: f.catalog, Search: f.search, Messenger: f.messenger, Recipient: `" "`})
		assert.ErrorIs(t, err, shared.ErrMissingConfig)
	})
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("help path", func(t *testing.T) {
		f := newFixture()
		r := f.relay(t)

		outcome, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "hello"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeHelp, outcome)

		sent := f.messenger.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, sender, sent[0].To)
		assert.Contains(t, sent[0].Body, "Send me a Spotify song link")
		assert.Contains(t, sent[0].Body, "Casey")
		assert.Empty(t, f.catalog.Calls(), "no catalog lookup without a link")
		assert.Empty(t, f.search.Queries(), "no search without a link")
	})

	t.Run("empty body gets help", func(t *testing.T) {
		f := newFixture()
		outcome, err := f.relay(t).Handle(ctx, models.InboundMessage{From: sender, Body: ""})
		require.NoError(t, err)
		assert.Equal(t, OutcomeHelp, outcome)
		assert.Len(t, f.messenger.SentTo(sender), 1)
	})

	t.Run("full success", func(t *testing.T) {
		f := newFixture()
		r := f.relay(t)

		outcome, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "listen https://open.spotify.com/track/ID123"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeForwarded, outcome)

		assert.Empty(t, f.messenger.SentTo(sender), "the sender receives no message")

		forwarded := f.messenger.SentTo(recipient)
		require.Len(t, forwarded, 1)
		assert.Contains(t, forwarded[0].Body, "Song A")
		assert.Contains(t, forwarded[0].Body, "Artist B")
		assert.Contains(t, forwarded[0].Body, "https://video.example/watch?v=ID1")

		assert.Equal(t, []string{"ID123"}, f.catalog.Calls())
		assert.Equal(t, []string{"Artist B Song A"}, f.search.Queries())
	})

	t.Run("catalog failure apologizes", func(t *testing.T) {
		f := newFixture()
		f.catalog.Err = shared.ErrTrackNotFound
		r := f.relay(t)

		outcome, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "spotify:track:BAD"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeApologized, outcome)

		sent := f.messenger.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, sender, sent[0].To)
		assert.Contains(t, sent[0].Body, "Sorry")
		assert.Empty(t, f.search.Queries(), "search must not run after a catalog failure")
	})

	t.Run("search failure apologizes", func(t *testing.T) {
		f := newFixture()
		f.search.Err = shared.ErrNoResults
		r := f.relay(t)

		outcome, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "spotify:track:ID123"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeApologized, outcome)
		assert.Empty(t, f.messenger.SentTo(recipient))
		assert.Len(t, f.messenger.SentTo(sender), 1)
	})

	t.Run("forward failure apologizes", func(t *testing.T) {
		f := newFixture()
		f.messenger.FailFor = map[string]bool{recipient: true}
		r := f.relay(t)

		outcome, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "spotify:track:ID123"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeApologized, outcome)

		apology := f.messenger.SentTo(sender)
		require.Len(t, apology, 1)
		assert.Contains(t, apology[0].Body, "Sorry")
	})

	t.Run("apology delivery failure is returned", func(t *testing.T) {
		f := newFixture()
		f.catalog.Err = errors.New("upstream down")
		f.messenger.FailFor = map[string]bool{sender: true}
		f.messenger.Err = shared.ErrDeliveryFailed

		outcome, err := f.relay(t).Handle(ctx, models.InboundMessage{From: sender, Body: "spotify:track:ID123"})
		assert.ErrorIs(t, err, shared.ErrDeliveryFailed)
		assert.Equal(t, OutcomeApologized, outcome)
	})

	t.Run("help delivery failure is returned", func(t *testing.T) {
		f := newFixture()
		f.messenger.FailFor = map[string]bool{sender: true}
		f.messenger.Err = shared.ErrDeliveryFailed

		_, err := f.relay(t).Handle(ctx, models.InboundMessage{From: sender, Body: "hi"})
		assert.ErrorIs(t, err, shared.ErrDeliveryFailed)
	})

	t.Run("malformed message", func(t *testing.T) {
		f := newFixture()

		_, err := f.relay(t).Handle(ctx, models.InboundMessage{From: "  ", Body: "spotify:track:ID123"})
		assert.ErrorIs(t, err, shared.ErrMalformedRequest)
		assert.Empty(t, f.messenger.Sent())
	})

	t.Run("duplicates are processed independently", func(t *testing.T) {
		f := newFixture()
		r := f.relay(t)
		msg := models.InboundMessage{From: sender, Body: "https://open.spotify.com/track/ID123"}

		for range 2 {
			outcome, err := r.Handle(ctx, msg)
			require.NoError(t, err)
			assert.Equal(t, OutcomeForwarded, outcome)
		}

		assert.Len(t, f.messenger.SentTo(recipient), 2)
	})

	t.Run("confirm sender", func(t *testing.T) {
		f := newFixture()
		r := f.relay(t, func(o *Options) {
			o.ConfirmSender = true
			o.RecipientName = "Jordan"
		})

		outcome, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "spotify:track:ID123"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeForwarded, outcome)

		sent := f.messenger.Sent()
		require.Len(t, sent, 2)
		assert.Equal(t, recipient, sent[0].To, "forward happens before the confirmation")
		assert.Equal(t, sender, sent[1].To)
		assert.Contains(t, sent[1].Body, "Sending to Jordan")
	})

	t.Run("confirmation failure keeps forward", func(t *testing.T) {
		f := newFixture()
		f.messenger.FailFor = map[string]bool{sender: true}
		r := f.relay(t, func(o *Options) { o.ConfirmSender = true })

		outcome, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "spotify:track:ID123"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeForwarded, outcome)
		assert.Len(t, f.messenger.SentTo(recipient), 1)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss stores result", func(t *testing.T) {
		f := newFixture()
		cache := &memoryCache{}
		r := f.relay(t, func(o *Options) { o.Cache = cache })

		res, err := r.Resolve(ctx, "ID123")
		require.NoError(t, err)
		assert.False(t, res.Cached)
		assert.Equal(t, 1, cache.stores)
		assert.Contains(t, cache.entries, "ID123")
	})

	t.Run("cache hit skips lookups but still forwards", func(t *testing.T) {
		f := newFixture()
		cache := &memoryCache{}
		r := f.relay(t, func(o *Options) { o.Cache = cache })

		for range 2 {
			_, err := r.Handle(ctx, models.InboundMessage{From: sender, Body: "spotify:track:ID123"})
			require.NoError(t, err)
		}

		assert.Len(t, f.catalog.Calls(), 1)
		assert.Len(t, f.search.Queries(), 1)
		assert.Len(t, f.messenger.SentTo(recipient), 2)
	})

	t.Run("cache store failure is ignored", func(t *testing.T) {
		f := newFixture()
		cache := &memoryCache{err: errors.New("disk full")}
		r := f.relay(t, func(o *Options) { o.Cache = cache })

		res, err := r.Resolve(ctx, "ID123")
		require.NoError(t, err)
		assert.Equal(t, "Song A", res.Track.Title)
	})

	t.Run("wraps upstream errors", func(t *testing.T) {
		f := newFixture()
		f.search.Err = shared.ErrNoResults

		_, err := f.relay(t).Resolve(ctx, "ID123")
		assert.ErrorIs(t, err, shared.ErrNoResults)
	})

	t.Run("fresh resolution ignores and refreshes cache", func(t *testing.T) {
		f := newFixture()
		cache := &memoryCache{}
		r := f.relay(t, func(o *Options) { o.Cache = cache })

		_, err := r.Resolve(ctx, "ID123")
		require.NoError(t, err)

		f.search.Result = &models.VideoResult{Title: "Song A", URL: "https://video.example/watch?v=NEW", Channel: "Artist B"}

		res, err := r.ResolveFresh(ctx, "ID123")
		require.NoError(t, err)
		assert.False(t, res.Cached)
		assert.Equal(t, "https://video.example/watch?v=NEW", res.Video.URL)
		assert.Len(t, f.catalog.Calls(), 2)
		assert.Len(t, f.search.Queries(), 2)

		cached, err := r.Resolve(ctx, "ID123")
		require.NoError(t, err)
		assert.True(t, cached.Cached)
		assert.Equal(t, "https://video.example/watch?v=NEW", cached.Video.URL, "fresh result replaces the cache entry")
	})

	t.Run("track bypasses cache", func(t *testing.T) {
		f := newFixture()
		cache := &memoryCache{}
		r := f.relay(t, func(o *Options) { o.Cache = cache })

		track, err := r.Track(ctx, "ID123")
		require.NoError(t, err)
		assert.Equal(t, "Artist B", track.Artist)
		assert.Zero(t, cache.stores)
	})
}
