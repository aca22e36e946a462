// package repositories provides the persistence helpers shared by the cache repositories.
//
// Each repository implements models.Repository[T] for a specific entity type.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/songshare/internal/models"
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// encodeGenres serializes genres as a JSON array, writing "[]" for nil.
func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	data, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("failed to encode genres: %w", err)
	}
	return string(data), nil
}

func decodeGenres(raw string) ([]string, error) {
	genres := []string{}
	if raw == "" {
		return genres, nil
	}
	if err := json.Unmarshal([]byte(raw), &genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres: %w", err)
	}
	return genres, nil
}

// encodeAudioFeatures serializes features as JSON, or NULL when absent.
func encodeAudioFeatures(features *models.AudioFeatures) (sql.NullString, error) {
	if features == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(features)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode audio features: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeAudioFeatures(raw sql.NullString) (*models.AudioFeatures, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var features models.AudioFeatures
	if err := json.Unmarshal([]byte(raw.String), &features); err != nil {
		return nil, fmt.Errorf("failed to decode audio features: %w", err)
	}
	return &features, nil
}
