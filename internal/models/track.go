package models

import "strings"

// TrackMetadata describes a song resolved from the music catalog.
//
// Artist holds every credited artist joined with ", ". Genres is never nil.
type TrackMetadata struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Artist        string         `json:"artist"`
	Album         string         `json:"album"`
	Genres        []string       `json:"genres"`
	AudioFeatures *AudioFeatures `json:"audio_features,omitempty"`
}

// HasGenres reports whether any genre was resolved for the track.
func (t *TrackMetadata) HasGenres() bool {
	return len(t.Genres) > 0
}

// AudioFeatures holds the catalog's audio analysis for a track. Tempo is rounded to whole BPM.
type AudioFeatures struct {
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Tempo        int     `json:"tempo"`
}

// VideoResult is the top video search match for a track.
type VideoResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Channel string `json:"channel"`
}

// InboundMessage holds the fields of an incoming SMS webhook that the relay acts on.
type InboundMessage struct {
	From string
	Body string
}

// Empty reports whether the message carries no text.
func (m InboundMessage) Empty() bool {
	return strings.TrimSpace(m.Body) == ""
}
