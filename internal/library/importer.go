package library

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/wavecloud/internal/storage"
	"github.com/llehouerou/wavecloud/internal/tags"
)

// Importer uploads local audio files and records them in the store.
type Importer struct {
	store   *Store
	storage storage.Storage
	logger  zerolog.Logger
}

// NewImporter creates an importer writing assets to st.
func NewImporter(store *Store, st storage.Storage, logger zerolog.Logger) *Importer {
	return &Importer{store: store, storage: st, logger: logger}
}

// Import uploads the audio file at path along with its cover art and a
// thumbnail, then adds the track. Nothing is left in storage on failure.
func (im *Importer) Import(ctx context.Context, path string) (Track, error) {
	if !tags.IsMusicFile(path) {
		return Track{}, fmt.Errorf("%s: unsupported file type", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Track{}, err
	}

	meta := tags.ReadOrDefault(path)
	id := uuid.NewString()
	t := Track{
		ID:        id,
		Title:     meta.Title,
		Artist:    meta.Artist,
		Album:     meta.Album,
		DataBytes: info.Size(),
		DataPath:  DataPathFor(id + strings.ToLower(filepath.Ext(path))),
	}

	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := im.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
				im.logger.Warn().Err(err).Str("key", key).Msg("import: cleanup failed")
			}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Track{}, err
	}
	err = im.storage.Put(ctx, t.DataPath, f)
	f.Close()
	if err != nil {
		return Track{}, fmt.Errorf("upload audio: %w", err)
	}
	stored = append(stored, t.DataPath)

	if err := im.importArtwork(ctx, path, &t, &stored); err != nil {
		cleanup()
		return Track{}, err
	}

	added, err := im.store.Add(ctx, t)
	if err != nil {
		cleanup()
		return Track{}, err
	}

	im.logger.Info().
		Str("id", added.ID).
		Str("title", added.Title).
		Str("size", FormatSize(added.DataBytes)).
		Msg("import: track added")
	return added, nil
}

func (im *Importer) importArtwork(ctx context.Context, path string, t *Track, stored *[]string) error {
	data, mimeType, err := tags.ExtractCoverArt(path)
	if err != nil {
		return fmt.Errorf("read artwork: %w", err)
	}
	if data == nil {
		return nil
	}

	artworkPath := ArtworkPathFor(t.ID + tags.ExtForMIME(mimeType))
	if err := im.storage.Put(ctx, artworkPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload artwork: %w", err)
	}
	*stored = append(*stored, artworkPath)
	t.ArtworkPath = artworkPath

	thumb, err := tags.Thumbnail(data, tags.DefaultThumbnailSize)
	if err != nil {
		// Undecodable artwork is still kept at full size.
		im.logger.Warn().Err(err).Str("path", path).Msg("import: no thumbnail")
		return nil
	}
	thumbnailPath := ThumbnailPathFor(t.ID + ".jpg")
	if err := im.storage.Put(ctx, thumbnailPath, bytes.NewReader(thumb)); err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}
	*stored = append(*stored, thumbnailPath)
	t.ThumbnailPath = thumbnailPath
	return nil
}

// Delete removes the track and its stored assets.
func (im *Importer) Delete(ctx context.Context, id string) error {
	t, err := im.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := im.store.Remove(ctx, id); err != nil {
		return err
	}
	for _, key := range []string{t.DataPath, t.ArtworkPath, t.ThumbnailPath} {
		if key == "" {
			continue
		}
		if err := im.storage.Delete(ctx, key); err != nil {
			im.logger.Warn().Err(err).Str("key", key).Msg("delete: asset not removed")
		}
	}
	return nil
}
