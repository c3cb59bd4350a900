package playback

import (
	"time"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

// State represents the playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// Status is the observable state of a controller.
type Status struct {
	State          State
	CurrentTrackID string // empty when there is no current track
	Position       time.Duration
	Duration       time.Duration
	RepeatMode     playlist.RepeatMode
	Shuffle        bool
}
