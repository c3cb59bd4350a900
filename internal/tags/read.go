package tags

import (
	"os"

	"github.com/dhowden/tag"
)

// Read reads tag metadata from a music file.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	title := m.Title()
	if title == "" {
		title = titleFromPath(path)
	}

	return &Tag{
		Path:   path,
		Title:  title,
		Artist: m.Artist(),
		Album:  m.Album(),
		Genre:  m.Genre(),
		Year:   m.Year(),
	}, nil
}

// ReadOrDefault reads tags, falling back to a title derived from the file
// name when the file carries no readable tags.
func ReadOrDefault(path string) *Tag {
	t, err := Read(path)
	if err != nil {
		return &Tag{
			Path:  path,
			Title: titleFromPath(path),
		}
	}
	return t
}
