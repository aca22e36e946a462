package models

import (
	"fmt"
	"time"
)

// Resolution is a cached track to video resolution.
//
// One row exists per catalog track id. Hits counts how many times the cached value was served.
type Resolution struct {
	id        string
	trackID   string
	track     TrackMetadata
	video     VideoResult
	hits      int
	createdAt time.Time
	updatedAt time.Time
}

// NewResolution creates a new [Resolution] for the given track and video.
// The ID is assigned by the repository on insert.
func NewResolution(track TrackMetadata, video VideoResult) *Resolution {
	now := time.Now()
	if track.Genres == nil {
		track.Genres = []string{}
	}
	return &Resolution{
		trackID:   track.ID,
		track:     track,
		video:     video,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *Resolution) ID() string           { return r.id }
func (r *Resolution) TrackID() string      { return r.trackID }
func (r *Resolution) Track() TrackMetadata { return r.track }
func (r *Resolution) Video() VideoResult   { return r.video }
func (r *Resolution) Hits() int            { return r.hits }
func (r *Resolution) CreatedAt() time.Time { return r.createdAt }
func (r *Resolution) UpdatedAt() time.Time { return r.updatedAt }

func (r *Resolution) SetID(id string)            { r.id = id }
func (r *Resolution) SetHits(hits int)           { r.hits = hits }
func (r *Resolution) SetCreatedAt(t time.Time)   { r.createdAt = t }
func (r *Resolution) SetUpdatedAt(t time.Time)   { r.updatedAt = t }
func (r *Resolution) SetVideo(video VideoResult) { r.video = video }

// SetTrack replaces the cached track metadata and its track id.
func (r *Resolution) SetTrack(track TrackMetadata) {
	if track.Genres == nil {
		track.Genres = []string{}
	}
	r.track = track
	r.trackID = track.ID
}

// Validate checks that the resolution has a track id, title, artist and video URL.
func (r *Resolution) Validate() error {
	switch {
	case r.trackID == "":
		return fmt.Errorf("track id is required")
	case r.track.Title == "":
		return fmt.Errorf("track title is required")
	case r.track.Artist == "":
		return fmt.Errorf("track artist is required")
	case r.video.URL == "":
		return fmt.Errorf("video url is required")
	}
	return nil
}
