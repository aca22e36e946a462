package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songshare/internal/models"
	"github.com/desertthunder/songshare/internal/shared"
)

const resolutionColumns = `id, track_id, title, artist, album, genres, audio_features,
	video_title, video_url, video_channel, hits, created_at, updated_at`

// ResolutionRepository implements models.Repository[*models.Resolution] for the resolution cache.
//
// Rows are unique per track id and deleted rows are removed outright.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Create inserts a new [models.Resolution] into the database with a generated ID
func (r *ResolutionRepository) Create(res *models.Resolution) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track := res.Track()
	video := res.Video()

	genres, err := encodeGenres(track.Genres)
	if err != nil {
		return err
	}
	features, err := encodeAudioFeatures(track.AudioFeatures)
	if err != nil {
		return err
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO resolutions (` + resolutionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		res.TrackID(),
		track.Title,
		track.Artist,
		track.Album,
		genres,
		features,
		video.Title,
		video.URL,
		video.Channel,
		res.Hits(),
		res.CreatedAt(),
		res.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	res.SetID(id)
	return nil
}

// Get retrieves a resolution by ID
func (r *ResolutionRepository) Get(id string) (*models.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByTrackID retrieves the resolution cached for a catalog track id
func (r *ResolutionRepository) GetByTrackID(trackID string) (*models.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE track_id = ?`
	return r.scan(r.db.QueryRow(query, trackID))
}

// Update overwrites the track and video metadata of an existing resolution
func (r *ResolutionRepository) Update(res *models.Resolution) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track := res.Track()
	video := res.Video()

	genres, err := encodeGenres(track.Genres)
	if err != nil {
		return err
	}
	features, err := encodeAudioFeatures(track.AudioFeatures)
	if err != nil {
		return err
	}

	now := time.Now()

	query := `
		UPDATE resolutions
		SET title = ?, artist = ?, album = ?, genres = ?, audio_features = ?,
			video_title = ?, video_url = ?, video_channel = ?, hits = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		track.Title,
		track.Artist,
		track.Album,
		genres,
		features,
		video.Title,
		video.URL,
		video.Channel,
		res.Hits(),
		now,
		res.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update resolution: %w", err)
	}

	if err := expectRow(result, res.ID()); err != nil {
		return err
	}

	res.SetUpdatedAt(now)
	return nil
}

// RecordHit increments the hit counter of the resolution for trackID
func (r *ResolutionRepository) RecordHit(trackID string) error {
	result, err := r.db.Exec(`UPDATE resolutions SET hits = hits + 1 WHERE track_id = ?`, trackID)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	return expectRow(result, trackID)
}

// Delete removes a resolution by ID
func (r *ResolutionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM resolutions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resolution: %w", err)
	}
	return expectRow(result, id)
}

// Clear removes every cached resolution and returns how many were deleted
func (r *ResolutionRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM resolutions`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear resolutions: %w", err)
	}
	return result.RowsAffected()
}

// List retrieves resolutions matching the given criteria, most recently updated first.
//
// Supported criteria: "artist" (exact match) and "limit" (int).
func (r *ResolutionRepository) List(criteria map[string]any) ([]*models.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE 1 = 1`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	query += " ORDER BY updated_at DESC, track_id ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*models.Resolution
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return resolutions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads a single row from [sql.Row] or [sql.Rows] into a [models.Resolution]
func (r *ResolutionRepository) scan(row scanner) (*models.Resolution, error) {
	var (
		id, trackID, title, artist, album, genresRaw string
		featuresRaw                                  sql.NullString
		videoTitle, videoURL, videoChannel           string
		hits                                         int
		createdAt, updatedAt                         time.Time
	)

	err := row.Scan(&id, &trackID, &title, &artist, &album, &genresRaw, &featuresRaw,
		&videoTitle, &videoURL, &videoChannel, &hits, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: resolution", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}

	genres, err := decodeGenres(genresRaw)
	if err != nil {
		return nil, err
	}
	features, err := decodeAudioFeatures(featuresRaw)
	if err != nil {
		return nil, err
	}

	track := models.TrackMetadata{
		ID:            trackID,
		Title:         title,
		Artist:        artist,
		Album:         album,
		Genres:        genres,
		AudioFeatures: features,
	}
	video := models.VideoResult{Title: videoTitle, URL: videoURL, Channel: videoChannel}

	res := models.NewResolution(track, video)
	res.SetID(id)
	res.SetHits(hits)
	res.SetCreatedAt(createdAt)
	res.SetUpdatedAt(updatedAt)

	return res, nil
}

// expectRow returns [shared.ErrNotFound] when result touched no rows.
func expectRow(result sql.Result, key string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: resolution %s", shared.ErrNotFound, key)
	}
	return nil
}
