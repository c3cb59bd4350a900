package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/wavecloud/internal/playback"
)

// Control is a command typed while playing.
type Control int

const (
	CtrlToggle Control = iota
	CtrlPlay
	CtrlPause
	CtrlStop
	CtrlNext
	CtrlPrevious
	CtrlSeek
	CtrlRepeat
	CtrlShuffle
	CtrlSelect
	CtrlMove
	CtrlStatus
	CtrlQuit
)

// Command is a parsed control line.
type Command struct {
	Control Control
	Seek    time.Duration
	TrackID string
	Index   int // target position for CtrlMove, zero based
}

var errQuit = errors.New("quit")

var controlNames = map[string]Control{
	"":        CtrlToggle,
	"t":       CtrlToggle,
	"toggle":  CtrlToggle,
	"play":    CtrlPlay,
	"pause":   CtrlPause,
	"s":       CtrlStop,
	"stop":    CtrlStop,
	"n":       CtrlNext,
	"next":    CtrlNext,
	"b":       CtrlPrevious,
	"prev":    CtrlPrevious,
	"seek":    CtrlSeek,
	"r":       CtrlRepeat,
	"repeat":  CtrlRepeat,
	"z":       CtrlShuffle,
	"shuffle": CtrlShuffle,
	"select":  CtrlSelect,
	"m":       CtrlMove,
	"move":    CtrlMove,
	"i":       CtrlStatus,
	"status":  CtrlStatus,
	"q":       CtrlQuit,
	"quit":    CtrlQuit,
}

// ParseCommand parses a control line. An empty line toggles play/pause.
// Seek takes a Go duration ("1m30s") or a number of seconds.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	name := ""
	if len(fields) > 0 {
		name = fields[0]
	}
	ctrl, ok := controlNames[name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q", name)
	}
	cmd := Command{Control: ctrl}

	switch ctrl {
	case CtrlSeek:
		if len(fields) != 2 {
			return Command{}, errors.New("usage: seek <position>")
		}
		pos, err := parsePosition(fields[1])
		if err != nil {
			return Command{}, err
		}
		cmd.Seek = pos
	case CtrlSelect:
		// IDs are case sensitive, so read them from the raw line.
		raw := strings.Fields(line)
		if len(raw) != 2 {
			return Command{}, errors.New("usage: select <track id>")
		}
		cmd.TrackID = raw[1]
	case CtrlMove:
		raw := strings.Fields(line)
		if len(raw) != 3 {
			return Command{}, errors.New("usage: move <track id> <position>")
		}
		pos, err := strconv.Atoi(raw[2])
		if err != nil || pos < 1 {
			return Command{}, fmt.Errorf("invalid position %q", raw[2])
		}
		cmd.TrackID = raw[1]
		cmd.Index = pos - 1
	default:
		if len(fields) > 1 {
			return Command{}, fmt.Errorf("%s takes no argument", name)
		}
	}
	return cmd, nil
}

func parsePosition(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return d, nil
}

// Apply runs cmd against svc. It returns errQuit for CtrlQuit.
func Apply(ctx context.Context, svc playback.Service, cmd Command) error {
	switch cmd.Control {
	case CtrlToggle:
		if svc.Status().State == playback.StatePlaying {
			svc.Pause()
			return nil
		}
		return svc.Play(ctx)
	case CtrlPlay:
		return svc.Play(ctx)
	case CtrlPause:
		svc.Pause()
	case CtrlStop:
		svc.Stop()
	case CtrlNext:
		return svc.Next(ctx)
	case CtrlPrevious:
		return svc.Previous(ctx)
	case CtrlSeek:
		svc.Seek(cmd.Seek)
	case CtrlRepeat:
		svc.CycleRepeatMode()
	case CtrlShuffle:
		svc.ToggleShuffle()
	case CtrlSelect:
		return svc.SelectTrack(ctx, cmd.TrackID)
	case CtrlMove:
		if !svc.MoveTrack(cmd.TrackID, cmd.Index) {
			return fmt.Errorf("cannot move %q to position %d", cmd.TrackID, cmd.Index+1)
		}
	case CtrlStatus:
		// Printed by the caller.
	case CtrlQuit:
		return errQuit
	}
	return nil
}

// readLines sends the lines of r until EOF or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
