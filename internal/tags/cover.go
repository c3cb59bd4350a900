package tags

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Common cover art filenames to look for next to an audio file.
var coverArtFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"front.jpg", "front.png",
}

// ExtractCoverArt returns embedded art, or a cover image from the file's
// directory. Returns nil data when there is none.
func ExtractCoverArt(path string) (data []byte, mimeType string, err error) {
	data, mimeType, err = extractEmbeddedArt(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", err
	}
	// Untagged files fall through to folder art.
	if err == nil && data != nil {
		return data, mimeType, nil
	}
	return findFolderArt(filepath.Dir(path))
}

func extractEmbeddedArt(path string) (data []byte, mimeType string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, "", err
	}

	pic := m.Picture()
	if pic == nil {
		return nil, "", nil
	}
	return pic.Data, pic.MIMEType, nil
}

func findFolderArt(dir string) (data []byte, mimeType string, err error) {
	for _, filename := range coverArtFilenames {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			continue
		}
		return data, mimeFromExt(filename), nil
	}
	return nil, "", nil
}

func mimeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return mimeJPEG
	case ".png":
		return mimePNG
	default:
		return "application/octet-stream"
	}
}

// ExtForMIME returns the file extension for an artwork MIME type.
func ExtForMIME(mimeType string) string {
	if mimeType == mimePNG {
		return ".png"
	}
	return ".jpg"
}
