package library_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavecloud/internal/library"
	"github.com/llehouerou/wavecloud/internal/storage"
)

// writeSource writes an MP3 with an ID3v2.3 title frame and a folder cover.
func writeSource(t *testing.T, title string, withCover bool) string {
	t.Helper()
	dir := t.TempDir()

	var frame bytes.Buffer
	frame.WriteString("TIT2")
	_ = binary.Write(&frame, binary.BigEndian, uint32(len(title)+1))
	frame.Write([]byte{0, 0, 0})
	frame.WriteString(title)
	size := frame.Len()
	data := []byte{'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)}
	data = append(data, frame.Bytes()...)
	data = append(data, bytes.Repeat([]byte{0xff, 0xfb, 0x90, 0x00}, 32)...)

	path := filepath.Join(dir, "Song.MP3")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	if withCover {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 512, 512))))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), buf.Bytes(), 0o600))
	}
	return path
}

func newTestImporter(t *testing.T) (*library.Importer, *library.Store, *storage.Filesystem) {
	t.Helper()
	s := newTestStore(t)
	fs := storage.NewFilesystem(t.TempDir(), zerolog.Nop())
	return library.NewImporter(s, fs, zerolog.Nop()), s, fs
}

func assertStored(t *testing.T, fs *storage.Filesystem, key string) {
	t.Helper()
	p, err := fs.Path(key)
	require.NoError(t, err)
	_, err = os.Stat(p)
	assert.NoError(t, err, key)
}

func TestImporter_Import(t *testing.T) {
	im, s, fs := newTestImporter(t)
	ctx := context.Background()
	src := writeSource(t, "Imported", true)

	tr, err := im.Import(ctx, src)
	require.NoError(t, err)

	assert.Equal(t, "Imported", tr.Title)
	assert.Equal(t, library.DataPathFor(tr.ID+".mp3"), tr.DataPath)
	assert.Equal(t, library.ArtworkPathFor(tr.ID+".png"), tr.ArtworkPath)
	assert.Equal(t, library.ThumbnailPathFor(tr.ID+".jpg"), tr.ThumbnailPath)
	assert.Positive(t, tr.DataBytes)
	assertStored(t, fs, tr.DataPath)
	assertStored(t, fs, tr.ArtworkPath)
	assertStored(t, fs, tr.ThumbnailPath)

	got, err := s.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.DataPath, got.DataPath)
}

func TestImporter_ImportWithoutArtwork(t *testing.T) {
	im, _, _ := newTestImporter(t)

	tr, err := im.Import(context.Background(), writeSource(t, "Plain", false))

	require.NoError(t, err)
	assert.Empty(t, tr.ArtworkPath)
	assert.Empty(t, tr.ThumbnailPath)
}

func TestImporter_RejectsUnsupportedFiles(t *testing.T) {
	im, s, _ := newTestImporter(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o600))

	_, err := im.Import(context.Background(), path)

	assert.Error(t, err)
	n, _ := s.Count(context.Background())
	assert.Zero(t, n)
}

func TestImporter_Delete(t *testing.T) {
	im, s, fs := newTestImporter(t)
	ctx := context.Background()
	tr, err := im.Import(ctx, writeSource(t, "Gone", true))
	require.NoError(t, err)

	require.NoError(t, im.Delete(ctx, tr.ID))

	_, err = s.Get(ctx, tr.ID)
	assert.ErrorIs(t, err, library.ErrNotFound)
	for _, key := range []string{tr.DataPath, tr.ArtworkPath, tr.ThumbnailPath} {
		p, _ := fs.Path(key)
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), key)
	}
}
