package resolver

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/llehouerou/wavecloud/internal/playlist"
	"github.com/llehouerou/wavecloud/internal/storage"
)

// File resolves sources stored in a local media root to file:// URLs.
type File struct {
	fs *storage.Filesystem
}

// NewFile creates a resolver over the filesystem store.
func NewFile(fs *storage.Filesystem) *File {
	return &File{fs: fs}
}

func (r *File) Resolve(_ context.Context, t playlist.Track) (string, error) {
	if t.SourceRef == "" {
		return "", errNoSource(t)
	}
	p, err := r.fs.Path(t.SourceRef)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, t.SourceRef)
		}
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
