package library_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavecloud/internal/library"
	"github.com/llehouerou/wavecloud/internal/state"
)

func newTestStore(t *testing.T) *library.Store {
	t.Helper()
	m, err := state.Open(state.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return library.New(m.DB())
}

func testTrack(title string) library.Track {
	return library.Track{
		Title:           title,
		Artist:          "Artist",
		DurationSeconds: 185,
		DataBytes:       4_200_000,
		DataPath:        library.DataPathFor(title + ".mp3"),
	}
}

func TestStore_AddAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.Add(ctx, testTrack("one"))
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.AddedAt.IsZero())

	got, err := s.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Title)
	assert.Equal(t, "Artist", got.Artist)
	assert.Empty(t, got.Album)
	assert.Equal(t, 185, got.DurationSeconds)
	assert.Equal(t, "music/audio/one.mp3", got.DataPath)
	assert.Equal(t, added.AddedAt.UnixMilli(), got.AddedAt.UnixMilli())
}

func TestStore_AddKeepsGivenID(t *testing.T) {
	s := newTestStore(t)
	tr := testTrack("one")
	tr.ID = "fixed"

	added, err := s.Add(context.Background(), tr)

	require.NoError(t, err)
	assert.Equal(t, "fixed", added.ID)
}

func TestStore_AddValidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	noTitle := testTrack("x")
	noTitle.Title = ""
	_, err := s.Add(ctx, noTitle)
	assert.Error(t, err)

	badPath := testTrack("x")
	badPath.DataPath = "elsewhere/x.mp3"
	_, err = s.Add(ctx, badPath)
	assert.Error(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, title := range []string{"b", "a", "c"} {
		tr := testTrack(title)
		tr.AddedAt = base
		if title == "c" {
			tr.AddedAt = base.Add(-time.Minute)
		}
		_, err := s.Add(ctx, tr)
		require.NoError(t, err, i)
	}

	tracks, err := s.List(ctx)
	require.NoError(t, err)
	var titles []string
	for _, tr := range tracks {
		titles = append(titles, tr.Title)
	}
	assert.Equal(t, []string{"c", "a", "b"}, titles)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")

	assert.True(t, errors.Is(err, library.ErrNotFound), "err = %v", err)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	added, err := s.Add(ctx, testTrack("one"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, added.ID))

	_, err = s.Get(ctx, added.ID)
	assert.ErrorIs(t, err, library.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, added.ID), library.ErrNotFound)
}

func TestStore_RemoveDropsQueuedTrack(t *testing.T) {
	m, err := state.Open(state.MemoryPath)
	require.NoError(t, err)
	defer m.Close()
	s := library.New(m.DB())
	ctx := context.Background()

	a, err := s.Add(ctx, testTrack("a"))
	require.NoError(t, err)
	b, err := s.Add(ctx, testTrack("b"))
	require.NoError(t, err)
	require.NoError(t, m.SaveQueue(state.QueueState{CurrentIndex: 0, TrackIDs: []string{a.ID, b.ID}}))

	require.NoError(t, s.Remove(ctx, a.ID))

	q, err := m.GetQueue()
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, q.TrackIDs)
}

func TestStore_Observe(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m, err := state.Open(state.MemoryPath)
		require.NoError(t, err)
		defer m.Close()
		s := library.New(m.DB())

		ctx, cancel := context.WithCancel(context.Background())
		ch := s.Observe(ctx, time.Second, zerolog.Nop())

		first := <-ch
		assert.Empty(t, first)

		_, err = s.Add(context.Background(), testTrack("one"))
		require.NoError(t, err)

		time.Sleep(time.Second)
		synctest.Wait()
		select {
		case got := <-ch:
			require.Len(t, got, 1)
			assert.Equal(t, "one", got[0].Title)
		default:
			t.Fatal("expected an update after the change")
		}

		// No change, no update.
		time.Sleep(time.Second)
		synctest.Wait()
		select {
		case got := <-ch:
			t.Fatalf("unexpected update %v", got)
		default:
		}

		cancel()
		for range ch {
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{185, "3:05"},
		{3600, "60:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := library.FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "4.2 MB", library.FormatSize(4_200_000))
	assert.Equal(t, "0 B", library.FormatSize(-1))
}

func TestValidateDataPath(t *testing.T) {
	tests := map[string]bool{
		"music/audio/a.mp3":      true,
		"music/audio/":           false,
		"music/audio/../a.mp3":   false,
		"music/artwork/a.jpg":    false,
		"/music/audio/a.mp3":     false,
		"music/audio/sub/a.flac": true,
	}
	for p, valid := range tests {
		err := library.ValidateDataPath(p)
		if valid {
			assert.NoError(t, err, p)
		} else {
			assert.Error(t, err, p)
		}
	}
}
