package playlist

import (
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateTrack is returned when a track ID already exists in the list.
var ErrDuplicateTrack = errors.New("duplicate track id")

// Track is a single playable item. Tracks are compared by ID only.
type Track struct {
	ID        string
	SourceRef string // storage reference resolvable to playable media
	Title     string
	Artist    string
	Album     string
	Duration  time.Duration
}

// Is reports whether t and other refer to the same track.
func (t Track) Is(other Track) bool {
	return t.ID == other.ID
}

// Playlist holds an ordered collection of tracks with unique IDs.
type Playlist struct {
	tracks []Track
}

// NewPlaylist creates a new empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks: make([]Track, 0),
	}
}

// Add appends tracks to the playlist.
// Nothing is added if any track ID is already present or repeated in tracks.
func (p *Playlist) Add(tracks ...Track) error {
	seen := make(map[string]struct{}, len(p.tracks)+len(tracks))
	for _, t := range p.tracks {
		seen[t.ID] = struct{}{}
	}
	for _, t := range tracks {
		if _, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateTrack, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	p.tracks = append(p.tracks, tracks...)
	return nil
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.tracks) {
		return false
	}
	p.tracks = append(p.tracks[:index], p.tracks[index+1:]...)
	return true
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	return &p.tracks[index]
}

// IndexOf returns the position of the track with the given ID, or -1.
func (p *Playlist) IndexOf(id string) int {
	for i := range p.tracks {
		if p.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Move moves the track at fromIndex to toIndex.
// Returns false if either index is out of bounds.
func (p *Playlist) Move(fromIndex, toIndex int) bool {
	if fromIndex < 0 || fromIndex >= len(p.tracks) {
		return false
	}
	if toIndex < 0 || toIndex >= len(p.tracks) {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	track := p.tracks[fromIndex]
	p.tracks = append(p.tracks[:fromIndex], p.tracks[fromIndex+1:]...)
	p.tracks = append(p.tracks[:toIndex], append([]Track{track}, p.tracks[toIndex:]...)...)
	return true
}
