package player

import (
	"errors"
	"sync"
	"time"
)

// DefaultClockDuration is the length given to sources of unknown duration.
const DefaultClockDuration = 3 * time.Minute

// Clock is an Output that decodes nothing: it advances a position against
// wall time for each loaded source and reports the end when the source's
// duration is reached.
type Clock struct {
	mu sync.Mutex

	speed           float64
	defaultDuration time.Duration
	lookup          func(url string) time.Duration

	url       string
	duration  time.Duration
	offset    time.Duration // position when startedAt was taken
	startedAt time.Time
	state     State
	timer     *time.Timer
	gen       uint64 // identifies the armed end timer
	onEnd     func()
	closed    bool
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithSpeed runs the clock speed times faster than wall time.
func WithSpeed(speed float64) ClockOption {
	return func(c *Clock) {
		if speed > 0 {
			c.speed = speed
		}
	}
}

// WithDefaultDuration sets the length of sources the lookup cannot size.
func WithDefaultDuration(d time.Duration) ClockOption {
	return func(c *Clock) {
		if d > 0 {
			c.defaultDuration = d
		}
	}
}

// WithDurationLookup sets how the clock learns a source's duration.
func WithDurationLookup(fn func(url string) time.Duration) ClockOption {
	return func(c *Clock) { c.lookup = fn }
}

// NewClock creates a stopped clock with nothing loaded.
func NewClock(opts ...ClockOption) *Clock {
	c := &Clock{
		speed:           1,
		defaultDuration: DefaultClockDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Clock) Load(url string) error {
	if url == "" {
		return errors.New("empty source url")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.halt()
	c.url = url
	c.duration = c.defaultDuration
	if c.lookup != nil {
		if d := c.lookup(url); d > 0 {
			c.duration = d
		}
	}
	return nil
}

func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.url == "" {
		return ErrNotLoaded
	}
	if c.state == Playing {
		return nil
	}
	if c.offset >= c.duration {
		c.offset = 0
	}
	c.state = Playing
	c.startedAt = time.Now()
	c.schedule()
	return nil
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.CanPause() {
		return
	}
	c.offset = c.position()
	c.state = Paused
	c.stopTimer()
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
}

func (c *Clock) Seek(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.url == "" {
		return
	}
	c.offset = max(0, min(pos, c.duration))
	if c.state == Playing {
		c.startedAt = time.Now()
		c.schedule()
	}
}

func (c *Clock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *Clock) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.url == "" {
		return 0
	}
	return c.duration
}

func (c *Clock) OnEnd(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnd = fn
}

// State returns the clock's playback state.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops the clock. Further Load and Play calls fail.
func (c *Clock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halt()
	c.closed = true
	return nil
}

func (c *Clock) position() time.Duration {
	if c.state != Playing {
		return c.offset
	}
	elapsed := time.Duration(float64(time.Since(c.startedAt)) * c.speed)
	return min(c.offset+elapsed, c.duration)
}

// halt stops playback, rewinds, and invalidates pending end timers.
// Caller must hold c.mu.
func (c *Clock) halt() {
	c.stopTimer()
	c.gen++
	c.state = Stopped
	c.offset = 0
}

func (c *Clock) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// schedule arms the end timer for the remaining wall time.
// Caller must hold c.mu.
func (c *Clock) schedule() {
	c.stopTimer()
	remaining := time.Duration(float64(c.duration-c.offset) / c.speed)
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(max(0, remaining), func() { c.end(gen) })
}

func (c *Clock) end(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != Playing {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.timer = nil
	c.state = Stopped
	c.offset = c.duration
	fn := c.onEnd
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Verify Clock implements Output at compile time.
var _ Output = (*Clock)(nil)
