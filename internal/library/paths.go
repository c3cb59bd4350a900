package library

import (
	"fmt"
	"path"
	"strings"
)

// Object storage prefixes for track assets.
const (
	AudioPrefix     = "music/audio/"
	ArtworkPrefix   = "music/artwork/"
	ThumbnailPrefix = "music/thumbnail/"
)

// DataPathFor returns the storage path of an audio file.
func DataPathFor(fileName string) string {
	return AudioPrefix + path.Base(fileName)
}

// ArtworkPathFor returns the storage path of a full-size artwork image.
func ArtworkPathFor(fileName string) string {
	return ArtworkPrefix + path.Base(fileName)
}

// ThumbnailPathFor returns the storage path of an artwork thumbnail.
func ThumbnailPathFor(fileName string) string {
	return ThumbnailPrefix + path.Base(fileName)
}

// ValidateDataPath checks that p points at an audio object.
func ValidateDataPath(p string) error {
	if !strings.HasPrefix(p, AudioPrefix) || len(p) == len(AudioPrefix) {
		return fmt.Errorf("invalid audio path %q", p)
	}
	if path.Clean(p) != p {
		return fmt.Errorf("audio path %q is not clean", p)
	}
	return nil
}
