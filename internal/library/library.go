// Package library stores the metadata of uploaded tracks.
package library

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a track ID is not in the library.
var ErrNotFound = errors.New("track not found")

// Track is the stored metadata of one uploaded track. The audio, artwork
// and thumbnail live in object storage under the given paths.
type Track struct {
	ID              string
	Title           string
	Artist          string
	Album           string
	DurationSeconds int
	DataBytes       int64
	DataPath        string
	ArtworkPath     string
	ThumbnailPath   string
	AddedAt         time.Time
}

// Store reads and writes library tracks.
type Store struct {
	db *sql.DB
}

// New creates a store over an initialized database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}
