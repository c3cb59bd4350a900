// Package playback binds the track sequencer to an audio output and
// publishes a single observable status.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/wavecloud/internal/player"
	"github.com/llehouerou/wavecloud/internal/playlist"
	"github.com/llehouerou/wavecloud/internal/resolver"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("playback controller closed")

// DefaultPollInterval is how often position and duration are read from the
// output while playing.
const DefaultPollInterval = 250 * time.Millisecond

// Operation names reported in errors, logs and metrics.
const (
	opResolve = "resolve"
	opLoad    = "load"
	opPlay    = "play"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithPollInterval sets the position polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithMetrics sets the collectors the controller updates.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithSequencer uses s instead of a new sequencer, e.g. to restore a
// session or to seed shuffling.
func WithSequencer(s *playlist.Sequencer) Option {
	return func(c *Controller) { c.seq = s }
}

// Controller drives an Output from a Sequencer. Methods are safe for
// concurrent use. URL resolution runs without holding the lock, so
// overlapping track changes race and the last one to resolve wins, unless
// the list was replaced in the meantime.
type Controller struct {
	mu sync.Mutex

	seq          *playlist.Sequencer
	output       player.Output
	resolver     resolver.Resolver
	logger       zerolog.Logger
	metrics      *Metrics
	pollInterval time.Duration

	state    State
	loaded   int // index of the track loaded in the output
	position time.Duration
	duration time.Duration
	listGen  uint64

	pollStop      chan struct{}
	activePollers atomic.Int32

	ctx    context.Context // canceled by Close, used for automatic advance
	cancel context.CancelFunc
	closed bool

	subsMu     sync.Mutex
	subs       []*Subscription
	subsClosed bool
}

// New creates a stopped controller with an empty list. It registers itself
// as out's end handler.
func New(out player.Output, res resolver.Resolver, opts ...Option) *Controller {
	c := &Controller{
		output:       out,
		resolver:     res,
		logger:       zerolog.Nop(),
		pollInterval: DefaultPollInterval,
		loaded:       playlist.NoTrack,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.seq == nil {
		c.seq = playlist.NewSequencer()
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	out.OnEnd(c.handleEnd)
	return c
}

// move is a cursor change waiting on URL resolution.
type move struct {
	index  int
	track  playlist.Track
	gen    uint64
	play   bool // start playback even if not playing before
	commit func(index int) int
}

func keepCursor(index int) int { return index }

// SetTracks replaces the list. Playback stops and the cursor is placed at
// startAt, clamped to the list.
func (c *Controller) SetTracks(tracks []playlist.Track, startAt int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.seq.SetTracks(tracks, startAt); err != nil {
		return err
	}

	c.listGen++
	if c.loaded != playlist.NoTrack || c.state.IsActive() {
		c.output.Stop()
	}
	c.loaded = playlist.NoTrack
	c.stopPollerLocked()
	c.position, c.duration = 0, 0
	c.setStateLocked(StateStopped)

	c.publishQueueLocked()
	return nil
}

// AddTracks appends tracks to the list without touching playback.
func (c *Controller) AddTracks(tracks ...playlist.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if len(tracks) == 0 {
		return nil
	}
	if err := c.seq.Add(tracks...); err != nil {
		return err
	}
	c.publishQueueLocked()
	return nil
}

// RemoveTrack removes the track with the given ID and reports whether it
// was in the list. Removing the playing track continues with the track that
// took its place; removing it while paused or stopped stops playback.
func (c *Controller) RemoveTrack(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	idx := c.seq.IndexOf(id)
	if idx == playlist.NoTrack {
		c.mu.Unlock()
		return false, nil
	}

	loadedID := c.loadedIDLocked()
	c.seq.RemoveAt(idx)
	c.listGen++
	c.loaded = c.seq.IndexOf(loadedID)
	c.publishQueueLocked()

	if loadedID != id {
		c.mu.Unlock()
		return true, nil
	}

	c.output.Stop()
	if c.state != StatePlaying || c.seq.CurrentIndex() == playlist.NoTrack {
		c.haltLocked()
		c.mu.Unlock()
		return true, nil
	}
	mv := c.moveLocked(c.seq.CurrentIndex(), keepCursor)
	mv.play = true
	c.mu.Unlock()
	return true, c.switchTo(ctx, mv)
}

// MoveTrack moves the track with the given ID to position to and reports
// whether it was moved. Playback is not affected.
func (c *Controller) MoveTrack(id string, to int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	from := c.seq.IndexOf(id)
	if from == playlist.NoTrack {
		return false
	}

	loadedID := c.loadedIDLocked()
	if !c.seq.Move(from, to) {
		return false
	}
	c.listGen++
	c.loaded = c.seq.IndexOf(loadedID)
	c.publishQueueLocked()
	return true
}

// SelectTrack jumps to the track with the given ID and loads it, playing it
// if the controller was playing. An unknown ID clears the cursor and stops
// playback. Selecting the current, loaded track does nothing.
func (c *Controller) SelectTrack(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	idx := c.seq.IndexOf(id)
	if idx == playlist.NoTrack {
		c.logger.Debug().Str("track", id).Msg("playback: selected track not in list")
		c.seq.JumpTo(playlist.NoTrack)
		c.haltLocked()
		c.loaded = playlist.NoTrack
		c.mu.Unlock()
		return nil
	}
	if idx == c.seq.CurrentIndex() && idx == c.loaded {
		c.mu.Unlock()
		return nil
	}

	mv := c.moveLocked(idx, c.seq.JumpTo)
	c.mu.Unlock()
	return c.switchTo(ctx, mv)
}

// Play starts or resumes playback of the current track, loading it first
// if needed. It does nothing without a current track.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	idx := c.seq.CurrentIndex()
	if idx == playlist.NoTrack || c.state == StatePlaying {
		c.mu.Unlock()
		return nil
	}
	if idx == c.loaded {
		defer c.mu.Unlock()
		if err := c.output.Play(); err != nil {
			return c.failLocked(opPlay, *c.seq.Track(idx), err)
		}
		c.setStateLocked(StatePlaying)
		c.restartPollerLocked()
		c.publishStatusLocked()
		return nil
	}

	mv := c.moveLocked(idx, keepCursor)
	mv.play = true
	c.mu.Unlock()
	return c.switchTo(ctx, mv)
}

// Pause pauses playback, keeping the position.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StatePlaying {
		return
	}
	c.output.Pause()
	c.position = c.output.Position()
	c.stopPollerLocked()
	c.setStateLocked(StatePaused)
	c.publishStatusLocked()
}

// Stop stops playback and rewinds to the start of the current track.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == StateStopped {
		return
	}
	c.haltLocked()
}

// Seek moves within the loaded track, clamped to [0, duration]. When the
// duration is unknown only negative positions are clamped.
func (c *Controller) Seek(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.loaded == playlist.NoTrack {
		return
	}

	limit := c.output.Duration()
	if limit <= 0 {
		limit = c.duration
	}
	pos = max(0, pos)
	if limit > 0 {
		pos = min(pos, limit)
	}

	c.output.Seek(pos)
	c.position = pos
	e := PositionChange{Position: pos, Duration: c.duration}
	c.broadcast(func(s *Subscription) { s.sendPosition(e) })
	c.publishStatusLocked()
}

// Next moves to the next track. Without one, playback stops at position 0
// and the cursor stays on the last track.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	mv, ok, err := c.prepareLocked(c.seq.ComputeNext(), c.seq.CommitNext)
	c.mu.Unlock()
	if !ok {
		return err
	}
	return c.switchTo(ctx, mv)
}

// Previous moves to the previous track, or back through shuffle history.
// Without one, playback stops at position 0.
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	mv, ok, err := c.prepareLocked(c.seq.ComputePrevious(), c.seq.CommitPrevious)
	c.mu.Unlock()
	if !ok {
		return err
	}
	return c.switchTo(ctx, mv)
}

// prepareLocked handles the outcomes of a next/previous computation that
// need no resolution. It returns ok=false when there is nothing to load.
func (c *Controller) prepareLocked(idx int, commit func(int) int) (move, bool, error) {
	if idx == playlist.NoTrack {
		c.haltLocked()
		return move{}, false, nil
	}
	if idx == c.loaded && idx == c.seq.CurrentIndex() {
		// Same source again (RepeatOne, or a one-track list): rewind.
		commit(idx)
		c.output.Seek(0)
		c.position = 0
		if c.state == StatePlaying {
			if err := c.output.Play(); err != nil {
				c.haltLocked()
				return move{}, false, c.failLocked(opPlay, *c.seq.Track(idx), err)
			}
		}
		c.publishStatusLocked()
		return move{}, false, nil
	}
	return c.moveLocked(idx, commit), true, nil
}

func (c *Controller) moveLocked(idx int, commit func(int) int) move {
	return move{
		index:  idx,
		track:  *c.seq.Track(idx),
		gen:    c.listGen,
		commit: commit,
	}
}

// switchTo resolves mv's track and installs it. Called without c.mu.
func (c *Controller) switchTo(ctx context.Context, mv move) error {
	start := time.Now()
	url, err := c.resolver.Resolve(ctx, mv.track)
	c.metrics.observeResolve(start, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.settleLocked()
		return c.failLocked(opResolve, mv.track, err)
	}
	if mv.gen != c.listGen {
		c.logger.Debug().Str("track", mv.track.ID).Msg("playback: list changed during resolution, dropping track")
		c.settleLocked()
		return nil
	}
	return c.installLocked(mv, url)
}

// installLocked loads url and commits the cursor change. On failure the
// cursor and status are left as they were.
func (c *Controller) installLocked(mv move, url string) error {
	autoplay := mv.play || c.state == StatePlaying

	if err := c.output.Load(url); err != nil {
		c.settleLocked()
		return c.failLocked(opLoad, mv.track, err)
	}
	if autoplay {
		if err := c.output.Play(); err != nil {
			// The previous source is gone, so nothing is playing any more.
			c.loaded = playlist.NoTrack
			c.haltLocked()
			return c.failLocked(opPlay, mv.track, err)
		}
	}

	prevIndex := c.seq.CurrentIndex()
	var prev *playlist.Track
	if t := c.seq.Current(); t != nil {
		cp := *t
		prev = &cp
	}

	mv.commit(mv.index)
	c.loaded = mv.index
	c.position = 0
	c.duration = c.output.Duration()
	if c.duration <= 0 {
		c.duration = mv.track.Duration
	}
	c.metrics.TrackChanges.Inc()
	c.logger.Debug().
		Str("track", mv.track.ID).
		Int("index", mv.index).
		Bool("playing", autoplay).
		Msg("playback: track loaded")

	cur := mv.track
	e := TrackChange{Previous: prev, Current: &cur, PreviousIndex: prevIndex, Index: mv.index}
	c.broadcast(func(s *Subscription) { s.sendTrack(e) })

	if autoplay {
		c.setStateLocked(StatePlaying)
	}
	c.restartPollerLocked()
	c.publishStatusLocked()
	return nil
}

// handleEnd runs when the output reaches the end of the loaded source.
func (c *Controller) handleEnd() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.metrics.TracksCompleted.Inc()

	idx := c.seq.CurrentIndex()
	if c.seq.RepeatMode() == playlist.RepeatOne && idx != playlist.NoTrack && idx == c.loaded {
		defer c.mu.Unlock()
		c.output.Seek(0)
		c.position = 0
		if err := c.output.Play(); err != nil {
			_ = c.failLocked(opPlay, *c.seq.Track(idx), err)
			c.haltLocked()
			return
		}
		c.setStateLocked(StatePlaying)
		c.restartPollerLocked()
		c.publishStatusLocked()
		return
	}
	c.mu.Unlock()

	if err := c.Next(c.ctx); err != nil && !errors.Is(err, ErrClosed) {
		// The source has ended, so a failed advance leaves nothing playing.
		c.mu.Lock()
		if !c.closed {
			c.haltLocked()
		}
		c.mu.Unlock()
	}
}

// SetRepeatMode sets the repeat mode.
func (c *Controller) SetRepeatMode(mode playlist.RepeatMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seq.SetRepeatMode(mode)
	c.publishModeLocked()
}

// CycleRepeatMode advances Off → All → One → Off and returns the new mode.
func (c *Controller) CycleRepeatMode() playlist.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode := c.seq.RepeatMode().Cycle()
	if c.closed {
		return c.seq.RepeatMode()
	}
	c.seq.SetRepeatMode(mode)
	c.publishModeLocked()
	return mode
}

// SetShuffle enables or disables shuffle.
func (c *Controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seq.SetShuffle(enabled)
	c.publishModeLocked()
}

// ToggleShuffle flips shuffle and returns the new setting.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.seq.Shuffle()
	}
	c.seq.SetShuffle(!c.seq.Shuffle())
	c.publishModeLocked()
	return c.seq.Shuffle()
}

// Status returns the current observable state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// CurrentTrack returns a copy of the current track, or nil if none.
func (c *Controller) CurrentTrack() *playlist.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.seq.Current()
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// Tracks returns a copy of the list.
func (c *Controller) Tracks() []playlist.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.Tracks()
}

// CurrentIndex returns the cursor, or playlist.NoTrack.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.CurrentIndex()
}

// Subscribe creates a new event subscription. Subscriptions created after
// Close are already done.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	if c.subsClosed {
		sub.close()
		return sub
	}
	c.subs = append(c.subs, sub)
	return sub
}

// Close stops polling, closes the output and ends all subscriptions. It is
// safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	c.stopPollerLocked()
	c.setStateLocked(StateStopped)
	c.mu.Unlock()

	err := c.output.Close()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsClosed = true
	c.subsMu.Unlock()

	return err
}

// haltLocked stops the output and resets the position.
func (c *Controller) haltLocked() {
	c.output.Stop()
	c.stopPollerLocked()
	c.position = 0
	c.setStateLocked(StateStopped)
	c.publishStatusLocked()
}

// settleLocked stops playback when no source is loaded, after a track
// switch that removed the old source has failed.
func (c *Controller) settleLocked() {
	if c.loaded == playlist.NoTrack && c.state.IsActive() {
		c.haltLocked()
	}
}

func (c *Controller) failLocked(op string, t playlist.Track, err error) error {
	c.metrics.Errors.WithLabelValues(op).Inc()
	c.logger.Warn().Err(err).Str("operation", op).Str("track", t.ID).Msg("playback: operation failed")
	e := ErrorEvent{Operation: op, TrackID: t.ID, Err: err}
	c.broadcast(func(s *Subscription) { s.sendError(e) })
	return fmt.Errorf("%s %s: %w", op, t.ID, err)
}

func (c *Controller) statusLocked() Status {
	st := Status{
		State:      c.state,
		Position:   c.position,
		Duration:   c.duration,
		RepeatMode: c.seq.RepeatMode(),
		Shuffle:    c.seq.Shuffle(),
	}
	if t := c.seq.Current(); t != nil {
		st.CurrentTrackID = t.ID
	}
	return st
}

func (c *Controller) setStateLocked(s State) {
	if s == c.state {
		return
	}
	e := StateChange{Previous: c.state, Current: s}
	c.state = s
	c.metrics.setState(s)
	c.broadcast(func(sub *Subscription) { sub.sendState(e) })
}

// loadedIDLocked returns the ID of the track in the output, or "".
func (c *Controller) loadedIDLocked() string {
	if t := c.seq.Track(c.loaded); t != nil {
		return t.ID
	}
	return ""
}

func (c *Controller) publishQueueLocked() {
	e := QueueChange{Tracks: c.seq.Tracks(), Index: c.seq.CurrentIndex()}
	c.broadcast(func(s *Subscription) { s.sendQueue(e) })
	c.publishStatusLocked()
}

func (c *Controller) publishModeLocked() {
	e := ModeChange{RepeatMode: c.seq.RepeatMode(), Shuffle: c.seq.Shuffle()}
	c.broadcast(func(s *Subscription) { s.sendMode(e) })
	c.publishStatusLocked()
}

func (c *Controller) publishStatusLocked() {
	st := c.statusLocked()
	c.broadcast(func(s *Subscription) { s.sendStatus(st) })
}

func (c *Controller) broadcast(fn func(*Subscription)) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		fn(sub)
	}
}
