package playback

import (
	"time"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a different track is loaded into the output.
//
// Emitted by SelectTrack, Next, Previous, Play (when it has to load the
// current track) and automatic advance at track end. A RepeatOne restart
// keeps the same track and does not emit.
type TrackChange struct {
	Previous      *playlist.Track
	Current       *playlist.Track
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when the track list is replaced or edited.
type QueueChange struct {
	Tracks []playlist.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode playlist.RepeatMode
	Shuffle    bool
}

// PositionChange is emitted on every poll tick and after a seek.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// ErrorEvent is emitted when an operation fails.
type ErrorEvent struct {
	Operation string // e.g. "resolve", "load", "play"
	TrackID   string
	Err       error
}
