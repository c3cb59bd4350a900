package playback

import (
	"context"
	"testing"
	"time"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

func TestState(t *testing.T) {
	tests := []struct {
		state  State
		name   string
		active bool
	}{
		{StateStopped, "Stopped", false},
		{StatePlaying, "Playing", true},
		{StatePaused, "Paused", true},
		{State(99), "Unknown", false},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.name {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.name)
		}
		if got := tt.state.IsActive(); got != tt.active {
			t.Errorf("%v.IsActive() = %v, want %v", tt.state, got, tt.active)
		}
	}
}

// Status follows the state machine: Stopped -> Playing -> Paused ->
// Playing -> Stopped, with the position reset only by stop.
func TestStatus_Transitions(t *testing.T) {
	c, out, _ := newTestController(t)
	ctx := context.Background()
	mustSetTracks(t, c, 0, "A", "B")
	c.SetRepeatMode(playlist.RepeatAll)
	c.SetShuffle(true)

	steps := []struct {
		name string
		do   func()
		want Status
	}{
		{
			name: "initial",
			do:   func() {},
			want: Status{State: StateStopped, CurrentTrackID: "A"},
		},
		{
			name: "play",
			do:   func() { _ = c.Play(ctx) },
			want: Status{State: StatePlaying, CurrentTrackID: "A", Duration: 3 * time.Minute},
		},
		{
			name: "pause",
			do: func() {
				out.SetPosition(40 * time.Second)
				c.Pause()
			},
			want: Status{State: StatePaused, CurrentTrackID: "A", Position: 40 * time.Second, Duration: 3 * time.Minute},
		},
		{
			name: "resume",
			do:   func() { _ = c.Play(ctx) },
			want: Status{State: StatePlaying, CurrentTrackID: "A", Position: 40 * time.Second, Duration: 3 * time.Minute},
		},
		{
			name: "stop",
			do:   func() { c.Stop() },
			want: Status{State: StateStopped, CurrentTrackID: "A", Duration: 3 * time.Minute},
		},
	}

	for _, step := range steps {
		step.do()
		want := step.want
		want.RepeatMode = playlist.RepeatAll
		want.Shuffle = true
		if got := c.Status(); got != want {
			t.Errorf("after %s: Status() = %+v, want %+v", step.name, got, want)
		}
	}
}
