package playback

import (
	"context"
	"errors"
	"testing"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

func trackIDs(tracks []playlist.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func assertIDs(t *testing.T, got []playlist.Track, want ...string) {
	t.Helper()
	ids := trackIDs(got)
	if len(ids) != len(want) {
		t.Fatalf("Tracks() = %v, want %v", ids, want)
	}
	for i := range ids {
		if ids[i] != want[i] {
			t.Fatalf("Tracks() = %v, want %v", ids, want)
		}
	}
}

func TestController_AddTracks(t *testing.T) {
	c, out, _ := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 0, "A")
	_ = c.Play(ctx)
	sub := c.Subscribe()

	if err := c.AddTracks(testTracks("B", "C")...); err != nil {
		t.Fatalf("AddTracks() error = %v", err)
	}

	assertIDs(t, c.Tracks(), "A", "B", "C")
	if st := c.Status(); st.State != StatePlaying || st.CurrentTrackID != "A" {
		t.Errorf("Status() = %+v, want Playing A", st)
	}
	if ev := <-sub.QueueChanged; len(ev.Tracks) != 3 || ev.Index != 0 {
		t.Errorf("QueueChange = %+v, want 3 tracks at 0", ev)
	}
	if got := len(out.LoadCalls()); got != 1 {
		t.Errorf("LoadCalls() = %d, want 1", got)
	}

	if err := c.AddTracks(testTracks("B")...); !errors.Is(err, playlist.ErrDuplicateTrack) {
		t.Errorf("AddTracks(duplicate) error = %v, want ErrDuplicateTrack", err)
	}
	assertIDs(t, c.Tracks(), "A", "B", "C")
}

func TestController_RemoveTrack_Other(t *testing.T) {
	c, out, _ := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 1, "A", "B", "C")
	_ = c.Play(ctx)

	removed, err := c.RemoveTrack(ctx, "A")
	if err != nil || !removed {
		t.Fatalf("RemoveTrack() = %v, %v, want true, nil", removed, err)
	}

	assertIDs(t, c.Tracks(), "B", "C")
	if st := c.Status(); st.State != StatePlaying || st.CurrentTrackID != "B" {
		t.Errorf("Status() = %+v, want Playing B", st)
	}
	// B is still the loaded source at its new index, so pausing and
	// resuming does not reload it.
	c.Pause()
	_ = c.Play(ctx)
	if got := len(out.LoadCalls()); got != 1 {
		t.Errorf("LoadCalls() = %d, want 1", got)
	}
}

func TestController_RemoveTrack_PlayingContinues(t *testing.T) {
	c, out, _ := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 0, "A", "B", "C")
	_ = c.Play(ctx)

	removed, err := c.RemoveTrack(ctx, "A")
	if err != nil || !removed {
		t.Fatalf("RemoveTrack() = %v, %v, want true, nil", removed, err)
	}

	if st := c.Status(); st.State != StatePlaying || st.CurrentTrackID != "B" {
		t.Errorf("Status() = %+v, want Playing B", st)
	}
	if out.URL() != "mem://B" {
		t.Errorf("output URL = %s, want mem://B", out.URL())
	}
}

func TestController_RemoveTrack_PausedStops(t *testing.T) {
	c, out, _ := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 0, "A", "B")
	_ = c.Play(ctx)
	c.Pause()

	if _, err := c.RemoveTrack(ctx, "A"); err != nil {
		t.Fatalf("RemoveTrack() error = %v", err)
	}

	st := c.Status()
	if st.State != StateStopped || st.CurrentTrackID != "B" || st.Position != 0 {
		t.Errorf("Status() = %+v, want Stopped on B at 0", st)
	}
	if got := len(out.LoadCalls()); got != 1 {
		t.Errorf("LoadCalls() = %d, want 1 (B not loaded yet)", got)
	}
}

func TestController_RemoveTrack_LastTrack(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 0, "A")
	_ = c.Play(ctx)

	if _, err := c.RemoveTrack(ctx, "A"); err != nil {
		t.Fatalf("RemoveTrack() error = %v", err)
	}

	st := c.Status()
	if st.State != StateStopped || st.CurrentTrackID != "" {
		t.Errorf("Status() = %+v, want Stopped with no track", st)
	}
	if c.CurrentIndex() != playlist.NoTrack {
		t.Errorf("CurrentIndex() = %d, want NoTrack", c.CurrentIndex())
	}
}

func TestController_RemoveTrack_ReplacementFailsStops(t *testing.T) {
	c, _, res := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 0, "A", "B")
	_ = c.Play(ctx)
	boom := errors.New("object missing")
	res.setFail("B", boom)

	removed, err := c.RemoveTrack(ctx, "A")

	if !removed || !errors.Is(err, boom) {
		t.Fatalf("RemoveTrack() = %v, %v, want true, %v", removed, err, boom)
	}
	if st := c.Status(); st.State != StateStopped {
		t.Errorf("State = %v, want Stopped", st.State)
	}
}

func TestController_RemoveTrack_Unknown(t *testing.T) {
	c, _, _ := newTestController(t)
	mustSetTracks(t, c, 0, "A")

	removed, err := c.RemoveTrack(context.Background(), "Z")

	if removed || err != nil {
		t.Errorf("RemoveTrack(unknown) = %v, %v, want false, nil", removed, err)
	}
	assertIDs(t, c.Tracks(), "A")
}

func TestController_MoveTrack(t *testing.T) {
	c, out, _ := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 0, "A", "B", "C")
	_ = c.Play(ctx)

	if !c.MoveTrack("A", 2) {
		t.Fatal("MoveTrack() = false, want true")
	}

	assertIDs(t, c.Tracks(), "B", "C", "A")
	if c.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2", c.CurrentIndex())
	}
	c.Pause()
	_ = c.Play(ctx)
	if got := len(out.LoadCalls()); got != 1 {
		t.Errorf("LoadCalls() = %d, want 1", got)
	}

	if c.MoveTrack("Z", 0) {
		t.Error("MoveTrack(unknown) = true, want false")
	}
	if c.MoveTrack("B", 5) {
		t.Error("MoveTrack(out of range) = true, want false")
	}
}
