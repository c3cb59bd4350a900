package playback

import "time"

// startPollerLocked starts the position poller unless one is running.
func (c *Controller) startPollerLocked() {
	if c.pollStop != nil {
		return
	}
	stop := make(chan struct{})
	c.pollStop = stop
	c.activePollers.Add(1)
	c.logger.Debug().Dur("interval", c.pollInterval).Msg("playback: poller started")
	go c.poll(stop)
}

// stopPollerLocked signals the running poller, if any, to exit.
func (c *Controller) stopPollerLocked() {
	if c.pollStop == nil {
		return
	}
	close(c.pollStop)
	c.pollStop = nil
	c.logger.Debug().Msg("playback: poller stopped")
}

// restartPollerLocked replaces the poller so it tracks the new source, and
// leaves none running unless playing.
func (c *Controller) restartPollerLocked() {
	c.stopPollerLocked()
	if c.state == StatePlaying {
		c.startPollerLocked()
	}
}

func (c *Controller) poll(stop chan struct{}) {
	defer c.activePollers.Add(-1)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.pollStop != stop {
			c.mu.Unlock()
			return
		}
		c.position = c.output.Position()
		if d := c.output.Duration(); d > 0 {
			c.duration = d
		}
		e := PositionChange{Position: c.position, Duration: c.duration}
		c.broadcast(func(s *Subscription) { s.sendPosition(e) })
		c.publishStatusLocked()
		c.mu.Unlock()
	}
}
