package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavecloud/internal/library"
	"github.com/llehouerou/wavecloud/internal/playlist"
	"github.com/llehouerou/wavecloud/internal/state"
)

func newTestLibrary(t *testing.T, ids ...string) (*state.Manager, *library.Store) {
	t.Helper()
	mgr, err := state.Open(state.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	lib := library.New(mgr.DB())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		_, err := lib.Add(context.Background(), library.Track{
			ID:              id,
			Title:           "Title " + id,
			DurationSeconds: 60,
			DataPath:        library.DataPathFor(id + ".mp3"),
			AddedAt:         base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	return mgr, lib
}

func trackIDs(tracks []playlist.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func TestLoadSession_WholeLibraryWithoutSave(t *testing.T) {
	mgr, lib := newTestLibrary(t, "a", "b", "c")
	defaults := session{Repeat: playlist.RepeatAll, Shuffle: true}

	s, err := loadSession(context.Background(), mgr, lib, defaults, sessionOverrides{})

	require.NoError(t, err)
	assert.False(t, s.Restored)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, trackIDs(s.Tracks))
	assert.Equal(t, 0, s.StartAt)
	assert.Equal(t, playlist.RepeatAll, s.Repeat)
	assert.True(t, s.Shuffle)
}

func TestLoadSession_RestoresSavedQueue(t *testing.T) {
	mgr, lib := newTestLibrary(t, "a", "b", "c")
	require.NoError(t, mgr.SaveQueue(state.QueueState{
		CurrentIndex: 2,
		RepeatMode:   playlist.RepeatOne,
		Shuffle:      true,
		TrackIDs:     []string{"c", "gone", "a"},
	}))

	s, err := loadSession(context.Background(), mgr, lib, session{}, sessionOverrides{})

	require.NoError(t, err)
	assert.True(t, s.Restored)
	assert.Equal(t, []string{"c", "a"}, trackIDs(s.Tracks))
	assert.Equal(t, 1, s.StartAt, "cursor follows the saved track")
	assert.Equal(t, playlist.RepeatOne, s.Repeat)
	assert.True(t, s.Shuffle)
}

func TestLoadSession_CursorOnRemovedTrack(t *testing.T) {
	mgr, lib := newTestLibrary(t, "a", "b")
	require.NoError(t, mgr.SaveQueue(state.QueueState{
		CurrentIndex: 0,
		TrackIDs:     []string{"gone", "b"},
	}))

	s, err := loadSession(context.Background(), mgr, lib, session{}, sessionOverrides{})

	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, trackIDs(s.Tracks))
	assert.Equal(t, 0, s.StartAt)
}

func TestLoadSession_Overrides(t *testing.T) {
	mgr, lib := newTestLibrary(t, "a", "b", "c")
	require.NoError(t, mgr.SaveQueue(state.QueueState{
		CurrentIndex: 0,
		RepeatMode:   playlist.RepeatAll,
		TrackIDs:     []string{"a", "b"},
	}))
	off := playlist.RepeatOff
	shuffle := true

	s, err := loadSession(context.Background(), mgr, lib, session{}, sessionOverrides{
		Repeat:  &off,
		Shuffle: &shuffle,
		StartID: "c",
		Fresh:   true,
	})

	require.NoError(t, err)
	assert.False(t, s.Restored)
	assert.Len(t, s.Tracks, 3)
	assert.Equal(t, "c", s.Tracks[s.StartAt].ID)
	assert.Equal(t, playlist.RepeatOff, s.Repeat)
	assert.True(t, s.Shuffle)
}

func TestLoadSession_UnknownStart(t *testing.T) {
	mgr, lib := newTestLibrary(t, "a")

	_, err := loadSession(context.Background(), mgr, lib, session{}, sessionOverrides{StartID: "x"})

	assert.True(t, errors.Is(err, library.ErrNotFound))
}

func TestSnapshot(t *testing.T) {
	c, _ := newTestService(t, "a", "b")
	require.NoError(t, c.Next(context.Background()))
	c.SetRepeatMode(playlist.RepeatOne)

	q := snapshot(c)

	assert.Equal(t, state.QueueState{
		CurrentIndex: 1,
		RepeatMode:   playlist.RepeatOne,
		TrackIDs:     []string{"a", "b"},
	}, q)
}
