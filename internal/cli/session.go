package cli

import (
	"context"
	"fmt"

	"github.com/llehouerou/wavecloud/internal/library"
	"github.com/llehouerou/wavecloud/internal/playback"
	"github.com/llehouerou/wavecloud/internal/playlist"
	"github.com/llehouerou/wavecloud/internal/state"
)

// session is the list and modes playback starts from.
type session struct {
	Tracks   []playlist.Track
	StartAt  int
	Repeat   playlist.RepeatMode
	Shuffle  bool
	Restored bool
}

// sessionOverrides are the play flags that were set explicitly.
type sessionOverrides struct {
	Repeat  *playlist.RepeatMode
	Shuffle *bool
	StartID string
	Fresh   bool
}

// loadSession resumes the saved queue, dropping tracks no longer in the
// library, or else queues the whole library. Overrides apply last.
func loadSession(ctx context.Context, st state.Interface, lib *library.Store, defaults session, o sessionOverrides) (session, error) {
	s := defaults
	s.StartAt = 0

	if !o.Fresh {
		saved, err := st.GetQueue()
		if err != nil {
			return session{}, err
		}
		if saved != nil && len(saved.TrackIDs) > 0 {
			tracks, err := playlist.CollectByID(ctx, lib, saved.TrackIDs)
			if err != nil {
				return session{}, err
			}
			if len(tracks) > 0 {
				s.Tracks = tracks
				s.StartAt = restoredCursor(saved, tracks)
				s.Repeat = saved.RepeatMode
				s.Shuffle = saved.Shuffle
				s.Restored = true
			}
		}
	}

	if len(s.Tracks) == 0 {
		all, err := lib.List(ctx)
		if err != nil {
			return session{}, err
		}
		s.Tracks = playlist.FromLibraryTracks(all)
		s.Restored = false
	}

	if o.Repeat != nil {
		s.Repeat = *o.Repeat
	}
	if o.Shuffle != nil {
		s.Shuffle = *o.Shuffle
	}
	if o.StartID != "" {
		idx := indexOf(s.Tracks, o.StartID)
		if idx < 0 {
			return session{}, fmt.Errorf("track %s: %w", o.StartID, library.ErrNotFound)
		}
		s.StartAt = idx
	}
	return s, nil
}

// restoredCursor maps the saved cursor onto tracks, which may have lost
// entries since the save.
func restoredCursor(saved *state.QueueState, tracks []playlist.Track) int {
	if saved.CurrentIndex < 0 || saved.CurrentIndex >= len(saved.TrackIDs) {
		return 0
	}
	if idx := indexOf(tracks, saved.TrackIDs[saved.CurrentIndex]); idx >= 0 {
		return idx
	}
	return 0
}

func indexOf(tracks []playlist.Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// snapshot captures the controller's queue for saving.
func snapshot(svc playback.Service) state.QueueState {
	tracks := svc.Tracks()
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	st := svc.Status()
	return state.QueueState{
		CurrentIndex: svc.CurrentIndex(),
		RepeatMode:   st.RepeatMode,
		Shuffle:      st.Shuffle,
		TrackIDs:     ids,
	}
}
