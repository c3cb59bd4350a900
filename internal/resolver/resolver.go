// Package resolver turns a track's source reference into a URL the output
// can load.
package resolver

import (
	"context"
	"errors"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

// ErrNotFound is returned when a track's source does not exist.
var ErrNotFound = errors.New("source not found")

// Resolver maps a track to a playable URL. Implementations must be safe for
// concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, t playlist.Track) (string, error)
}

// Func adapts a function to Resolver.
type Func func(ctx context.Context, t playlist.Track) (string, error)

func (f Func) Resolve(ctx context.Context, t playlist.Track) (string, error) {
	return f(ctx, t)
}

func errNoSource(t playlist.Track) error {
	return errors.New("track " + t.ID + " has no source")
}
