package library

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"
)

// Observe polls the store every interval and sends the full track list
// whenever it changes. The first list is sent immediately. The channel is
// closed when ctx is done.
func (s *Store) Observe(ctx context.Context, interval time.Duration, logger zerolog.Logger) <-chan []Track {
	ch := make(chan []Track, 1)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last []Track
		first := true
		for {
			tracks, err := s.List(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				logger.Warn().Err(err).Msg("library observe: list failed")
			case first || !sameTracks(last, tracks):
				first = false
				last = tracks
				select {
				case ch <- tracks:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

func sameTracks(a, b []Track) bool {
	return slices.EqualFunc(a, b, func(x, y Track) bool {
		return x.ID == y.ID && x.Title == y.Title && x.DataPath == y.DataPath
	})
}
