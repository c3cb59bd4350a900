package playlist

import "math/rand/v2"

// NoTrack is the cursor value when no track is selected.
const NoTrack = -1

// Sequencer decides which track plays next or previous over an ordered
// track list. It performs no I/O: Compute* methods only look ahead, and
// Advance*/Commit* methods move the cursor and maintain the shuffle history.
//
// Sequencer is not safe for concurrent use.
type Sequencer struct {
	playlist *Playlist
	cursor   int
	history  History
	repeat   RepeatMode
	shuffle  bool
	rng      *rand.Rand

	// pick memoizes the random choice of ComputeNext so that a preview
	// and the following AdvanceNext agree. Reset on every state change.
	pick      int
	pickValid bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithRand sets the random source used for shuffle picks.
func WithRand(r *rand.Rand) Option {
	return func(s *Sequencer) {
		s.rng = r
	}
}

// NewSequencer creates an empty sequencer with repeat off and shuffle disabled.
func NewSequencer(opts ...Option) *Sequencer {
	s := &Sequencer{
		playlist: NewPlaylist(),
		cursor:   NoTrack,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // shuffle order only
	}
	return s
}

// SetTracks replaces the list and places the cursor at startAt, clamped to
// the list bounds. History is always cleared.
func (s *Sequencer) SetTracks(tracks []Track, startAt int) error {
	next := NewPlaylist()
	if err := next.Add(tracks...); err != nil {
		return err
	}
	s.playlist = next
	s.history.Clear()
	s.invalidate()
	if next.Len() == 0 {
		s.cursor = NoTrack
		return nil
	}
	s.cursor = max(0, min(startAt, next.Len()-1))
	return nil
}

// SetRepeatMode sets the repeat mode.
func (s *Sequencer) SetRepeatMode(mode RepeatMode) {
	s.repeat = mode
	s.invalidate()
}

// RepeatMode returns the current repeat mode.
func (s *Sequencer) RepeatMode() RepeatMode {
	return s.repeat
}

// SetShuffle enables or disables shuffle. Toggling clears the history.
func (s *Sequencer) SetShuffle(enabled bool) {
	if s.shuffle != enabled {
		s.history.Clear()
	}
	s.shuffle = enabled
	s.invalidate()
}

// Shuffle reports whether shuffle is enabled.
func (s *Sequencer) Shuffle() bool {
	return s.shuffle
}

// CurrentIndex returns the cursor, or NoTrack.
func (s *Sequencer) CurrentIndex() int {
	return s.cursor
}

// Current returns the track under the cursor, or nil.
func (s *Sequencer) Current() *Track {
	if s.cursor == NoTrack {
		return nil
	}
	return s.playlist.Track(s.cursor)
}

// Track returns the track at index, or nil if out of bounds.
func (s *Sequencer) Track(index int) *Track {
	return s.playlist.Track(index)
}

// Tracks returns a copy of the list.
func (s *Sequencer) Tracks() []Track {
	return s.playlist.Tracks()
}

// Len returns the number of tracks.
func (s *Sequencer) Len() int {
	return s.playlist.Len()
}

// IndexOf returns the index of the track with the given ID, or NoTrack.
func (s *Sequencer) IndexOf(id string) int {
	return s.playlist.IndexOf(id)
}

// History returns a copy of the shuffle history, oldest first.
func (s *Sequencer) History() []int {
	return s.history.Indices()
}

// HasNext reports whether ComputeNext would return a track.
func (s *Sequencer) HasNext() bool {
	return s.ComputeNext() != NoTrack
}

// ComputeNext returns the index that AdvanceNext would move to, or NoTrack.
// It never changes the cursor or the history.
func (s *Sequencer) ComputeNext() int {
	n := s.playlist.Len()
	if s.cursor == NoTrack || n == 0 {
		return NoTrack
	}
	if s.repeat == RepeatOne {
		return s.cursor
	}
	if s.shuffle {
		return s.shuffleNext(n)
	}
	if s.cursor < n-1 {
		return s.cursor + 1
	}
	if s.repeat == RepeatAll {
		return 0
	}
	return NoTrack
}

func (s *Sequencer) shuffleNext(n int) int {
	if n <= 1 {
		if s.repeat == RepeatAll {
			return s.cursor
		}
		return NoTrack
	}
	if s.pickValid {
		return s.pick
	}

	candidates := make([]int, 0, n)
	for i := range n {
		if i != s.cursor && !s.history.Contains(i) {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		// Every track has been visited in this cycle.
		if s.repeat != RepeatAll {
			return NoTrack
		}
		// Start over from everything but the current track. The history is
		// reset when the pick is committed, not here.
		for i := range n {
			if i != s.cursor {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return s.cursor
		}
	}

	s.pick = candidates[s.rng.IntN(len(candidates))]
	s.pickValid = true
	return s.pick
}

// AdvanceNext moves to the next track and returns its index, or NoTrack
// when the sequence is exhausted (cursor unchanged).
func (s *Sequencer) AdvanceNext() int {
	return s.CommitNext(s.ComputeNext())
}

// CommitNext moves the cursor forward to index, a value previously returned
// by ComputeNext. With shuffle enabled the track being left is recorded in
// the history; once the history covers every other track the cycle is
// complete and the history restarts.
func (s *Sequencer) CommitNext(index int) int {
	n := s.playlist.Len()
	if index < 0 || index >= n {
		return NoTrack
	}
	prev := s.cursor
	if s.shuffle && prev != NoTrack && index != prev {
		if s.history.Len() >= n-1 {
			s.history.Clear()
		}
		s.history.Push(prev)
	}
	s.cursor = index
	s.invalidate()
	return index
}

// ComputePrevious returns the index that AdvancePrevious would move to, or
// NoTrack. It never changes the cursor or the history.
func (s *Sequencer) ComputePrevious() int {
	n := s.playlist.Len()
	if s.cursor == NoTrack || n == 0 {
		return NoTrack
	}
	if s.repeat == RepeatOne {
		return s.cursor
	}
	if s.shuffle {
		if last, ok := s.history.Last(); ok {
			return last
		}
	}
	if s.cursor > 0 {
		return s.cursor - 1
	}
	if s.repeat == RepeatAll {
		if n > 1 {
			return n - 1
		}
		return 0
	}
	return NoTrack
}

// AdvancePrevious moves to the previous track and returns its index, or
// NoTrack when there is none (cursor unchanged).
func (s *Sequencer) AdvancePrevious() int {
	return s.CommitPrevious(s.ComputePrevious())
}

// CommitPrevious moves the cursor back to index, a value previously
// returned by ComputePrevious, and drops its latest history entry.
func (s *Sequencer) CommitPrevious(index int) int {
	if index < 0 || index >= s.playlist.Len() {
		return NoTrack
	}
	if index != s.cursor {
		s.history.RemoveLast(index)
	}
	s.cursor = index
	s.invalidate()
	return index
}

// JumpTo selects index directly. An explicit jump is not a traversal, so
// the history is cleared. JumpTo(NoTrack) clears the cursor; any other
// out-of-bounds index is ignored and returns NoTrack.
func (s *Sequencer) JumpTo(index int) int {
	if index == NoTrack {
		s.cursor = NoTrack
		s.history.Clear()
		s.invalidate()
		return NoTrack
	}
	if index < 0 || index >= s.playlist.Len() {
		return NoTrack
	}
	s.cursor = index
	s.history.Clear()
	s.invalidate()
	return index
}

// Add appends tracks without moving the cursor. If the list was empty the
// cursor stays NoTrack until a track is selected.
func (s *Sequencer) Add(tracks ...Track) error {
	if err := s.playlist.Add(tracks...); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// RemoveAt removes the track at index, shifting the cursor and history.
// Removing the current track leaves the cursor on the track that took its
// place (or the new last track).
func (s *Sequencer) RemoveAt(index int) bool {
	if !s.playlist.Remove(index) {
		return false
	}
	n := s.playlist.Len()

	switch {
	case n == 0:
		s.cursor = NoTrack
	case s.cursor > index:
		s.cursor--
	case s.cursor == index && s.cursor >= n:
		s.cursor = n - 1
	}

	s.history.remap(func(i int) (int, bool) {
		switch {
		case i == index:
			return 0, false
		case i > index:
			return i - 1, true
		default:
			return i, true
		}
	})
	if s.cursor != NoTrack {
		s.history.RemoveLast(s.cursor)
	}
	s.history.trim(n)
	s.invalidate()
	return true
}

// Move reorders the track at from to position to, keeping the cursor and
// history on the same tracks.
func (s *Sequencer) Move(from, to int) bool {
	if !s.playlist.Move(from, to) {
		return false
	}
	remap := func(i int) int {
		switch {
		case i == from:
			return to
		case from < to && i > from && i <= to:
			return i - 1
		case from > to && i >= to && i < from:
			return i + 1
		default:
			return i
		}
	}
	if s.cursor != NoTrack {
		s.cursor = remap(s.cursor)
	}
	s.history.remap(func(i int) (int, bool) { return remap(i), true })
	s.invalidate()
	return true
}

func (s *Sequencer) invalidate() {
	s.pickValid = false
}
