package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
)

// ResolutionCacheAdapter lets the relay look up and store resolutions through [ResolutionRepository].
//
// Lookup failures are logged and reported as misses so that a broken cache never blocks a relay.
// Entries last updated more than ttl ago are misses; a zero ttl keeps entries forever.
type ResolutionCacheAdapter struct {
	repo   *ResolutionRepository
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// NewResolutionCacheAdapter creates a new ResolutionCacheAdapter with the given repository and entry lifetime
func NewResolutionCacheAdapter(repo *ResolutionRepository, ttl time.Duration, logger *log.Logger) *ResolutionCacheAdapter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ResolutionCacheAdapter{repo: repo, ttl: ttl, now: time.Now, logger: logger}
}

// SetClock replaces the time source used for expiry checks.
func (a *ResolutionCacheAdapter) SetClock(now func() time.Time) {
	a.now = now
}

// Cached returns the resolution stored for trackID and records a hit.
func (a *ResolutionCacheAdapter) Cached(trackID string) (*models.Resolution, bool) {
	res, err := a.repo.GetByTrackID(trackID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			a.logger.Warn("resolution cache lookup failed", "track_id", trackID, "error", err)
		}
		return nil, false
	}

	if a.ttl > 0 && a.now().Sub(res.UpdatedAt()) > a.ttl {
		a.logger.Debug("cached resolution expired", "track_id", trackID, "updated_at", res.UpdatedAt())
		return nil, false
	}

	if err := a.repo.RecordHit(trackID); err != nil {
		a.logger.Warn("failed to record cache hit", "track_id", trackID, "error", err)
	} else {
		res.SetHits(res.Hits() + 1)
	}

	return res, true
}

// Store caches a resolution, replacing any existing entry for the same track.
func (a *ResolutionCacheAdapter) Store(track models.TrackMetadata, video models.VideoResult) error {
	existing, err := a.repo.GetByTrackID(track.ID)
	if err == nil && existing != nil {
		existing.SetTrack(track)
		existing.SetVideo(video)
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached resolution: %w", err)
		}
		return nil
	}

	err = a.repo.Create(models.NewResolution(track, video))
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to cache resolution: %w", err)
	}

	return nil
}
