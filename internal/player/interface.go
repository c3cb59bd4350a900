// Package player defines the audio output driven by the playback
// controller, with a virtual clock implementation and a test double.
package player

import (
	"errors"
	"time"
)

var (
	// ErrNotLoaded is returned by Play when no source is loaded.
	ErrNotLoaded = errors.New("no source loaded")
	// ErrClosed is returned by Load and Play after Close.
	ErrClosed = errors.New("output closed")
)

// Output plays one source at a time.
//
// Load replaces the current source, stopping it first, so two sources are
// never loaded at once. The OnEnd handler fires exactly once when a source
// plays through to its end; it never fires on Stop or Load.
type Output interface {
	Load(url string) error
	Play() error
	Pause()
	Stop()
	Seek(pos time.Duration)
	Position() time.Duration
	Duration() time.Duration
	OnEnd(fn func())
	Close() error
}
