package playback

import (
	"context"
	"time"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

// Service defines the playback controller contract.
type Service interface {
	// List and selection
	SetTracks(tracks []playlist.Track, startAt int) error
	SelectTrack(ctx context.Context, id string) error
	AddTracks(tracks ...playlist.Track) error
	RemoveTrack(ctx context.Context, id string) (bool, error)
	MoveTrack(id string, to int) bool

	// Playback control
	Play(ctx context.Context) error
	Pause()
	Stop()
	Seek(pos time.Duration)
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	// Mode control
	SetRepeatMode(mode playlist.RepeatMode)
	CycleRepeatMode() playlist.RepeatMode
	SetShuffle(enabled bool)
	ToggleShuffle() bool

	// State queries
	Status() Status
	CurrentTrack() *playlist.Track
	Tracks() []playlist.Track
	CurrentIndex() int

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// Verify Controller implements Service at compile time.
var _ Service = (*Controller)(nil)
