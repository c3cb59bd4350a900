package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbutil "github.com/llehouerou/wavecloud/internal/db"
)

const trackColumns = `id, title, artist, album, duration_seconds, data_bytes,
	data_path, artwork_path, thumbnail_path, added_at`

// Add inserts t and returns it with its ID and AddedAt filled in.
// A new random ID is generated when t.ID is empty.
func (s *Store) Add(ctx context.Context, t Track) (Track, error) {
	if err := ValidateDataPath(t.DataPath); err != nil {
		return Track{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Title == "" {
		return Track{}, errors.New("track title is required")
	}
	if t.AddedAt.IsZero() {
		t.AddedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO library_tracks (`+trackColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, nullString(t.Artist), nullString(t.Album), t.DurationSeconds, t.DataBytes,
		t.DataPath, nullString(t.ArtworkPath), nullString(t.ThumbnailPath), t.AddedAt.UnixMilli())
	if err != nil {
		return Track{}, fmt.Errorf("insert track %s: %w", t.ID, err)
	}
	return t, nil
}

// List returns every track, oldest first.
func (s *Store) List(ctx context.Context) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM library_tracks
		ORDER BY added_at, title COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Get returns the track with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Track, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+trackColumns+`
		FROM library_tracks
		WHERE id = ?
	`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Track{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, err
}

// Remove deletes the track and drops it from the saved queue.
func (s *Store) Remove(ctx context.Context, id string) error {
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM library_tracks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM queue_tracks WHERE track_id = ?`, id)
		return err
	})
}

// Count returns the number of tracks in the library.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_tracks`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (Track, error) {
	var t Track
	var artist, album, artwork, thumbnail sql.NullString
	var addedAt int64
	err := row.Scan(&t.ID, &t.Title, &artist, &album, &t.DurationSeconds, &t.DataBytes,
		&t.DataPath, &artwork, &thumbnail, &addedAt)
	if err != nil {
		return Track{}, err
	}
	t.Artist = dbutil.NullStringValue(artist)
	t.Album = dbutil.NullStringValue(album)
	t.ArtworkPath = dbutil.NullStringValue(artwork)
	t.ThumbnailPath = dbutil.NullStringValue(thumbnail)
	t.AddedAt = time.UnixMilli(addedAt)
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
