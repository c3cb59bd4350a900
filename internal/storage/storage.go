// Package storage puts and deletes track assets in the media store, either
// a local directory or an S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// Storage is where uploaded audio and artwork objects live, keyed by their
// library path (e.g. "music/audio/<id>.mp3").
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
}
