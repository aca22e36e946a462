// package formatter renders outbound SMS texts and CLI output (plain text, CSV, JSON) for tracks and cached resolutions
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
)

// HelpMessage is sent to senders whose message carries no track link.
func HelpMessage(recipientName string) string {
	return fmt.Sprintf("Hi! Send me a Spotify song link and I'll convert it to YouTube and send it to %s! 🎵", recipientName)
}

// ForwardMessage is sent to the recipient once a track has been matched to a video.
func ForwardMessage(track *models.TrackMetadata, video *models.VideoResult) string {
	return fmt.Sprintf("🎵 Someone shared a song with you!\n\n\"%s\" by %s\n\n%s", track.Title, track.Artist, video.URL)
}

// ApologyMessage is sent to the sender when the track could not be relayed.
func ApologyMessage() string {
	return "Sorry, I couldn't process that song. Please try again! 🤔"
}

// ConfirmationMessage tells the sender which song is being forwarded.
func ConfirmationMessage(track *models.TrackMetadata, recipientName string) string {
	return fmt.Sprintf("Found \"%s\" by %s. Sending to %s now! 🎵", track.Title, track.Artist, recipientName)
}

// TrackToText renders track metadata as aligned "Label: value" lines.
func TrackToText(track *models.TrackMetadata) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Title:  %s\n", track.Title))
	buf.WriteString(fmt.Sprintf("Artist: %s\n", track.Artist))
	buf.WriteString(fmt.Sprintf("Album:  %s\n", track.Album))

	if track.HasGenres() {
		buf.WriteString(fmt.Sprintf("Genres: %s\n", strings.Join(track.Genres, ", ")))
	} else {
		buf.WriteString("Genres: (none)\n")
	}

	if f := track.AudioFeatures; f != nil {
		buf.WriteString(fmt.Sprintf("Audio:  danceability %.2f, energy %.2f, valence %.2f, %d BPM\n",
			f.Danceability, f.Energy, f.Valence, f.Tempo))
	}

	return buf.Bytes()
}

// VideoToText renders a video result as aligned "Label: value" lines.
func VideoToText(video *models.VideoResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Video:   %s\n", video.Title))
	buf.WriteString(fmt.Sprintf("Channel: %s\n", video.Channel))
	buf.WriteString(fmt.Sprintf("URL:     %s\n", video.URL))

	return buf.Bytes()
}

// ResolutionsToCSV converts cached resolutions to CSV with columns: Track ID, Title, Artist, Album, Genres, Video URL, Hits, Updated
func ResolutionsToCSV(resolutions []*models.Resolution) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Track ID", "Title", "Artist", "Album", "Genres", "Video URL", "Hits", "Updated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, res := range resolutions {
		track := res.Track()
		record := []string{
			res.TrackID(),
			track.Title,
			track.Artist,
			track.Album,
			strings.Join(track.Genres, "; "),
			res.Video().URL,
			strconv.Itoa(res.Hits()),
			res.UpdatedAt().UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResolutionsToText converts cached resolutions to a numbered plain text list
func ResolutionsToText(resolutions []*models.Resolution) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Cached resolutions: %d\n\n", len(resolutions)))

	for i, res := range resolutions {
		track := res.Track()
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s] (%d hits)\n   %s\n",
			i+1, track.Artist, track.Title, res.TrackID(), res.Hits(), res.Video().URL))
	}

	return buf.Bytes()
}

type resolutionJSON struct {
	Track     models.TrackMetadata `json:"track"`
	Video     models.VideoResult   `json:"video"`
	Hits      int                  `json:"hits"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ResolutionsToJSON converts cached resolutions to an indented JSON array
func ResolutionsToJSON(resolutions []*models.Resolution) ([]byte, error) {
	out := make([]resolutionJSON, 0, len(resolutions))
	for _, res := range resolutions {
		out = append(out, resolutionJSON{
			Track:     res.Track(),
			Video:     res.Video(),
			Hits:      res.Hits(),
			CreatedAt: res.CreatedAt(),
			UpdatedAt: res.UpdatedAt(),
		})
	}
	return shared.MarshalJSON(out, true)
}
