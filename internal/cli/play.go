package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/llehouerou/wavecloud/internal/errmsg"
	"github.com/llehouerou/wavecloud/internal/library"
	"github.com/llehouerou/wavecloud/internal/playback"
	"github.com/llehouerou/wavecloud/internal/player"
	"github.com/llehouerou/wavecloud/internal/playlist"
	"github.com/llehouerou/wavecloud/internal/state"
)

var (
	playShuffle     bool
	playRepeat      string
	playStart       string
	playSpeed       float64
	playFresh       bool
	playMetricsAddr string
)

// libraryPollInterval is how often the library is checked for imported or
// removed tracks while playing.
const libraryPollInterval = 2 * time.Second

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the library or resume the saved queue",
	Long: `Play the saved queue, or the whole library when there is none.

Playback runs on a virtual clock for each track's stored length. Type a
command and press enter while playing:

  <enter>/t  toggle play/pause     n  next        b  previous
  s          stop                  r  cycle repeat z toggle shuffle
  seek <pos> seek (90, 1m30s)      select <id>    i  status
  move <id> <n>  move a track to position n       q  quit

Tracks imported or removed with 'wavecloud library' while playing are
added to or dropped from the queue.

Examples:
  wavecloud play --shuffle --repeat all
  wavecloud play --start 3f2c... --speed 20`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "enable shuffle mode")
	playCmd.Flags().StringVar(&playRepeat, "repeat", "", "repeat mode: off, one or all")
	playCmd.Flags().StringVar(&playStart, "start", "", "ID of the track to start from")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 1, "run the playback clock this many times faster")
	playCmd.Flags().BoolVar(&playFresh, "fresh", false, "ignore the saved queue and play the whole library")
	playCmd.Flags().StringVar(&playMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	rootCmd.AddCommand(playCmd)
}

func playOverrides(cmd *cobra.Command) (sessionOverrides, error) {
	o := sessionOverrides{StartID: playStart, Fresh: playFresh}
	if cmd.Flags().Changed("repeat") {
		mode, err := playlist.ParseRepeatMode(playRepeat)
		if err != nil {
			return o, err
		}
		o.Repeat = &mode
	}
	if cmd.Flags().Changed("shuffle") {
		o.Shuffle = &playShuffle
	}
	return o, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	overrides, err := playOverrides(cmd)
	if err != nil {
		return err
	}
	repeat, err := cfg.GetRepeatMode()
	if err != nil {
		return errmsg.Wrap(errmsg.OpConfigLoad, err)
	}

	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.newResolver(ctx)
	if err != nil {
		return err
	}
	lengths := newDurations(res)

	sess, err := loadSession(ctx, e.state, e.library,
		session{Repeat: repeat, Shuffle: cfg.Playback.Shuffle}, overrides)
	if err != nil {
		return errmsg.Wrap(errmsg.OpQueueLoad, err)
	}
	if len(sess.Tracks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Library is empty, import tracks with 'wavecloud library import'")
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if playMetricsAddr != "" {
		srv := serveMetrics(playMetricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	out := player.NewClock(player.WithSpeed(playSpeed), player.WithDurationLookup(lengths.Lookup))
	ctrl := playback.New(out, lengths,
		playback.WithLogger(logger),
		playback.WithPollInterval(cfg.GetPollInterval()),
		playback.WithMetrics(playback.NewMetrics(reg)),
	)
	defer ctrl.Close()

	if err := ctrl.SetTracks(sess.Tracks, sess.StartAt); err != nil {
		return errmsg.Wrap(errmsg.OpQueueLoad, err)
	}
	ctrl.SetRepeatMode(sess.Repeat)
	ctrl.SetShuffle(sess.Shuffle)
	if sess.Restored {
		logger.Info().Int("tracks", len(sess.Tracks)).Msg("resuming saved queue")
	}

	// Stop watching before the database is closed.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	r := &runner{
		svc:     ctrl,
		saver:   e.state,
		library: e.library.Observe(watchCtx, libraryPollInterval, logger),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		json:    JSONOutput(),
	}
	sub := ctrl.Subscribe()
	if err := ctrl.Play(ctx); err != nil {
		return errmsg.Wrap(errmsg.OpPlaybackStart, err)
	}
	r.printStatus()
	return r.run(ctx, sub, readLines(ctx, cmd.InOrStdin()))
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}

// runner prints controller events, applies typed commands and saves the
// queue until quit, end of the queue or ctx is done.
type runner struct {
	svc     playback.Service
	saver   state.Interface
	library <-chan []library.Track // nil when the library is not watched
	out     io.Writer
	errOut  io.Writer
	json    bool

	// known holds the library IDs last seen on library. Only changes
	// relative to it are applied to the queue.
	known map[string]bool

	// userStopped is set when a typed command left playback stopped, so
	// that only a stop at the end of the queue ends the run.
	userStopped bool
}

func (r *runner) run(ctx context.Context, sub *playback.Subscription, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case line, ok := <-lines:
			if !ok {
				// Input closed, keep playing without controls.
				lines = nil
				continue
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				fmt.Fprintln(r.errOut, err)
				continue
			}
			if err := Apply(ctx, r.svc, cmd); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintln(r.errOut, errmsg.Format(commandOp(cmd.Control), err))
			}
			if r.svc.Status().State == playback.StateStopped {
				r.userStopped = true
			}
			if cmd.Control == CtrlStatus {
				r.printStatus()
			}
		case tracks, ok := <-r.library:
			if !ok {
				r.library = nil
				continue
			}
			r.syncLibrary(ctx, tracks)
		case <-sub.QueueChanged:
			r.saver.ScheduleQueueSave(snapshot(r.svc))
		case e := <-sub.TrackChanged:
			r.printTrack(e)
			r.saver.ScheduleQueueSave(snapshot(r.svc))
		case e := <-sub.ModeChanged:
			fmt.Fprintf(r.out, "repeat %s, shuffle %s\n", e.RepeatMode, onOff(e.Shuffle))
			r.saver.ScheduleQueueSave(snapshot(r.svc))
		case e := <-sub.StateChanged:
			if r.json {
				r.printStatus()
			} else {
				fmt.Fprintln(r.out, stateSymbol(e.Current), e.Current)
			}
			switch {
			case e.Current == playback.StatePlaying:
				r.userStopped = false
			case e.Current == playback.StateStopped && e.Previous == playback.StatePlaying && !r.userStopped:
				fmt.Fprintln(r.out, "End of queue")
				return nil
			}
		case e := <-sub.Error:
			fmt.Fprintln(r.errOut, errmsg.FormatWith(errmsg.OpPlaybackStart, e.TrackID, e.Err))
		}
	}
}

// syncLibrary appends tracks imported since the last library list to the
// queue and drops removed ones. The first list only sets the baseline.
func (r *runner) syncLibrary(ctx context.Context, tracks []library.Track) {
	current := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		current[t.ID] = true
	}
	if r.known == nil {
		r.known = current
		return
	}

	var added []library.Track
	for _, t := range tracks {
		if !r.known[t.ID] {
			added = append(added, t)
		}
	}
	var removed []string
	for id := range r.known {
		if !current[id] {
			removed = append(removed, id)
		}
	}
	r.known = current

	if len(added) > 0 {
		if err := r.svc.AddTracks(playlist.FromLibraryTracks(added)...); err != nil {
			fmt.Fprintln(r.errOut, errmsg.Format(errmsg.OpQueueUpdate, err))
		} else if !r.json {
			fmt.Fprintf(r.out, "+ %d track(s) added to the queue\n", len(added))
		}
	}
	for _, id := range removed {
		ok, err := r.svc.RemoveTrack(ctx, id)
		if err != nil {
			fmt.Fprintln(r.errOut, errmsg.FormatWith(errmsg.OpQueueUpdate, id, err))
		}
		if ok && !r.json {
			fmt.Fprintf(r.out, "- %s removed from the queue\n", id)
		}
	}
}

func commandOp(c Control) errmsg.Op {
	switch c {
	case CtrlNext:
		return errmsg.OpPlaybackNext
	case CtrlPrevious:
		return errmsg.OpPlaybackPrev
	case CtrlSelect:
		return errmsg.OpPlaybackSelect
	case CtrlMove:
		return errmsg.OpQueueUpdate
	default:
		return errmsg.OpPlaybackStart
	}
}

func (r *runner) printTrack(e playback.TrackChange) {
	if r.json || e.Current == nil {
		return
	}
	t := e.Current
	line := t.Title
	if t.Artist != "" {
		line += " - " + t.Artist
	}
	fmt.Fprintf(r.out, "[%d/%d] %s (%s)\n", e.Index+1, len(r.svc.Tracks()), line,
		library.FormatDuration(int(t.Duration.Seconds())))
}

type statusJSON struct {
	State    string  `json:"state"`
	TrackID  string  `json:"track_id,omitempty"`
	Position float64 `json:"position_seconds"`
	Duration float64 `json:"duration_seconds"`
	Repeat   string  `json:"repeat"`
	Shuffle  bool    `json:"shuffle"`
}

func (r *runner) printStatus() {
	st := r.svc.Status()
	if r.json {
		_ = writeJSON(r.out, statusJSON{
			State:    st.State.String(),
			TrackID:  st.CurrentTrackID,
			Position: st.Position.Seconds(),
			Duration: st.Duration.Seconds(),
			Repeat:   st.RepeatMode.String(),
			Shuffle:  st.Shuffle,
		})
		return
	}
	title := "-"
	if t := r.svc.CurrentTrack(); t != nil {
		title = t.Title
	}
	fmt.Fprintf(r.out, "%s %s %s/%s  repeat %s, shuffle %s\n",
		stateSymbol(st.State), title,
		library.FormatDuration(int(st.Position.Seconds())),
		library.FormatDuration(int(st.Duration.Seconds())),
		st.RepeatMode, onOff(st.Shuffle))
}

func stateSymbol(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return "▶"
	case playback.StatePaused:
		return "⏸"
	default:
		return "■"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
