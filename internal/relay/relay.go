package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songshare/internal/formatter"
	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/services"
	"github.com/desertthunder/songshare/internal/shared"
)

// Outcome names the path a handled message took.
type Outcome string

const (
	OutcomeHelp       Outcome = "help"       // no track link; help text sent to the sender
	OutcomeForwarded  Outcome = "forwarded"  // track relayed to the recipient
	OutcomeApologized Outcome = "apologized" // relay failed; apology sent to the sender
)

// Cache stores resolved tracks so repeated links skip the catalog and the search.
type Cache interface {
	Cached(trackID string) (*models.Resolution, bool)
	Store(track models.TrackMetadata, video models.VideoResult) error
}

// Resolution pairs a track with its matched video.
type Resolution struct {
	Track  *models.TrackMetadata `json:"track"`
	Video  *models.VideoResult   `json:"video"`
	Cached bool                  `json:"-"`
}

// Options configures a [Relay].
type Options struct {
	Catalog   services.Catalog
	Search    services.VideoSearcher
	Messenger services.Messenger

	// Cache is optional.
	Cache Cache

	Recipient     string
	RecipientName string
	ConfirmSender bool

	Logger *log.Logger
}

// Relay handles inbound messages. It holds no per-message state and is safe for concurrent use.
type Relay struct {
	catalog       services.Catalog
	search        services.VideoSearcher
	messenger     services.Messenger
	cache         Cache
	recipient     string
	recipientName string
	confirmSender bool
	logger        *log.Logger
}

// New validates opts and builds a [Relay].
func New(opts Options) (*Relay, error) {
	if opts.Catalog == nil || opts.Search == nil || opts.Messenger == nil {
		return nil, fmt.Errorf("%w: catalog, search and messenger are required", shared.ErrInvalidConfig)
	}

	recipient := shared.CleanPhoneNumber(opts.Recipient)
	if recipient == "" {
		return nil, fmt.Errorf("%w: recipient", shared.ErrMissingConfig)
	}

	name := opts.RecipientName
	if name == "" {
		name = "Casey"
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Relay{
		catalog:       opts.Catalog,
		search:        opts.Search,
		messenger:     opts.Messenger,
		cache:         opts.Cache,
		recipient:     recipient,
		recipientName: name,
		confirmSender: opts.ConfirmSender,
		logger:        shared.WithLogger(logger, "component", "relay"),
	}, nil
}

// Handle processes one inbound message.
//
// A message without a track link gets the help text. A linked track is resolved and forwarded to
// the recipient; any failure while doing so is answered with an apology to the sender.
// The returned error is non-nil only when the message is malformed or the sender cannot be reached.
func (r *Relay) Handle(ctx context.Context, msg models.InboundMessage) (Outcome, error) {
	from := strings.TrimSpace(msg.From)
	if from == "" {
		return "", fmt.Errorf("%w: missing sender", shared.ErrMalformedRequest)
	}

	logger := r.logger.With("from", shared.MaskPhoneNumber(from))
	logger.Info("received message", "length", len(msg.Body))

	trackID, ok := ExtractTrackID(msg.Body)
	if !ok {
		if err := r.send(ctx, logger, from, formatter.HelpMessage(r.recipientName)); err != nil {
			return OutcomeHelp, fmt.Errorf("failed to send help message: %w", err)
		}
		return OutcomeHelp, nil
	}

	logger = logger.With("track_id", trackID)
	logger.Info("processing track")

	if err := r.forward(ctx, logger, from, trackID); err != nil {
		logger.Error("failed to relay track", "error", err)
		if err := r.send(ctx, logger, from, formatter.ApologyMessage()); err != nil {
			return OutcomeApologized, fmt.Errorf("failed to send apology: %w", err)
		}
		return OutcomeApologized, nil
	}

	return OutcomeForwarded, nil
}

// forward resolves trackID and sends the match to the recipient, then optionally confirms to the sender.
func (r *Relay) forward(ctx context.Context, logger *log.Logger, from, trackID string) error {
	res, err := r.Resolve(ctx, trackID)
	if err != nil {
		return err
	}

	logger.Info("found video", "title", res.Track.Title, "artist", res.Track.Artist, "video", res.Video.URL, "cached", res.Cached)

	if err := r.send(ctx, logger, r.recipient, formatter.ForwardMessage(res.Track, res.Video)); err != nil {
		return fmt.Errorf("failed to forward to recipient: %w", err)
	}
	logger.Info("forwarded track", "recipient", shared.MaskPhoneNumber(r.recipient))

	if r.confirmSender {
		if err := r.send(ctx, logger, from, formatter.ConfirmationMessage(res.Track, r.recipientName)); err != nil {
			logger.Warn("failed to confirm to sender", "error", err)
		}
	}

	return nil
}

// Track resolves track metadata through the catalog without consulting the cache.
func (r *Relay) Track(ctx context.Context, trackID string) (*models.TrackMetadata, error) {
	return r.catalog.GetTrack(ctx, trackID)
}

// Resolve returns the track metadata and top video for trackID.
//
// A cache hit skips both lookups. Fresh results are stored in the cache; store failures are only logged.
func (r *Relay) Resolve(ctx context.Context, trackID string) (*Resolution, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Cached(trackID); ok {
			track, video := cached.Track(), cached.Video()
			return &Resolution{Track: &track, Video: &video, Cached: true}, nil
		}
	}

	return r.ResolveFresh(ctx, trackID)
}

// ResolveFresh always runs the catalog lookup and the video search, then refreshes the cache entry.
func (r *Relay) ResolveFresh(ctx context.Context, trackID string) (*Resolution, error) {
	track, err := r.catalog.GetTrack(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("%s lookup: %w", r.catalog.Name(), err)
	}

	video, err := r.search.Search(ctx, track.Artist, track.Title)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", r.search.Name(), err)
	}

	if r.cache != nil {
		if err := r.cache.Store(*track, *video); err != nil {
			r.logger.Warn("failed to cache resolution", "track_id", trackID, "error", err)
		}
	}

	return &Resolution{Track: track, Video: video}, nil
}

func (r *Relay) send(ctx context.Context, logger *log.Logger, to, body string) error {
	sid, err := r.messenger.Send(ctx, to, body)
	if err != nil {
		return err
	}
	logger.Debug("sent message", "to", shared.MaskPhoneNumber(to), "sid", sid)
	return nil
}
