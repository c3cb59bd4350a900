package state

import (
	"context"
	"database/sql"
	"errors"

	dbutil "github.com/llehouerou/wavecloud/internal/db"
	"github.com/llehouerou/wavecloud/internal/playlist"
)

// QueueState is the saved playback session: the ordered track IDs, the
// cursor and the modes.
type QueueState struct {
	CurrentIndex int
	RepeatMode   playlist.RepeatMode
	Shuffle      bool
	TrackIDs     []string
}

// QueueFromSequencer captures the session held by s.
func QueueFromSequencer(s *playlist.Sequencer) QueueState {
	tracks := s.Tracks()
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return QueueState{
		CurrentIndex: s.CurrentIndex(),
		RepeatMode:   s.RepeatMode(),
		Shuffle:      s.Shuffle(),
		TrackIDs:     ids,
	}
}

func getQueue(db *sql.DB) (*QueueState, error) {
	var currentIndex, repeatMode int
	var shuffle bool
	row := db.QueryRow(`SELECT current_index, repeat_mode, shuffle FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex, &repeatMode, &shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: playlist.NoTrack}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT track_id FROM queue_tracks ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if currentIndex >= len(ids) {
		currentIndex = playlist.NoTrack
	}

	return &QueueState{
		CurrentIndex: currentIndex,
		RepeatMode:   playlist.RepeatMode(repeatMode),
		Shuffle:      shuffle,
		TrackIDs:     ids,
	}, nil
}

func saveQueue(sqlDB *sql.DB, state QueueState) error {
	return dbutil.WithTx(context.Background(), sqlDB, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM queue_tracks`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO queue_state (id, current_index, repeat_mode, shuffle)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle
		`, state.CurrentIndex, int(state.RepeatMode), state.Shuffle)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO queue_tracks (position, track_id) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, id := range state.TrackIDs {
			if _, err := stmt.Exec(i, id); err != nil {
				return err
			}
		}
		return nil
	})
}
