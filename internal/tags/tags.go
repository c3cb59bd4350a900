// Package tags reads metadata and artwork from audio files being imported
// into the library.
package tags

import (
	"path/filepath"
	"strings"
)

// File extensions accepted for import.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOGG  = ".ogg"
	ExtM4A  = ".m4a"
	ExtWAV  = ".wav"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// Tag holds the metadata kept for a library track.
type Tag struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Genre  string
	Year   int
}

// IsMusicFile reports whether path has an importable audio extension.
func IsMusicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3, ExtFLAC, ExtOGG, ExtM4A, ExtWAV:
		return true
	default:
		return false
	}
}

// titleFromPath derives a display title from a file name.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
