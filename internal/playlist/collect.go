package playlist

import (
	"context"
	"time"

	"github.com/llehouerou/wavecloud/internal/library"
)

// FromLibraryTrack converts a library track to a playlist track.
// The track's audio data path becomes its source reference.
func FromLibraryTrack(t library.Track) Track {
	return Track{
		ID:        t.ID,
		SourceRef: t.DataPath,
		Title:     t.Title,
		Artist:    t.Artist,
		Album:     t.Album,
		Duration:  time.Duration(t.DurationSeconds) * time.Second,
	}
}

// FromLibraryTracks converts a slice of library tracks to playlist tracks.
func FromLibraryTracks(tracks []library.Track) []Track {
	result := make([]Track, len(tracks))
	for i := range tracks {
		result[i] = FromLibraryTrack(tracks[i])
	}
	return result
}

// CollectByID looks up tracks in the library in the order of ids.
// IDs that are no longer in the library, and repeated IDs, are skipped.
func CollectByID(ctx context.Context, lib *library.Store, ids []string) ([]Track, error) {
	all, err := lib.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]library.Track, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	tracks := make([]Track, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			continue
		}
		tracks = append(tracks, FromLibraryTrack(t))
		delete(byID, id)
	}
	return tracks, nil
}
