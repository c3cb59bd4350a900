// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryLoad   Op = "load library"
	OpLibraryImport Op = "import track"
	OpLibraryRemove Op = "remove track from library"

	// Queue operations
	OpQueueLoad   Op = "load queue"
	OpQueueSave   Op = "save queue"
	OpQueueUpdate Op = "update queue"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackSelect Op = "select track"
	OpPlaybackNext   Op = "skip to next track"
	OpPlaybackPrev   Op = "go back to previous track"

	// Storage operations
	OpStorageOpen   Op = "open storage"
	OpResolverSetup Op = "set up track resolver"
	OpCacheConnect  Op = "connect to url cache"

	// Initialization
	OpConfigLoad Op = "load configuration"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Error is an error carrying the operation that failed. Its message is the
// Format/FormatWith one, and it unwraps to the cause.
type Error struct {
	Op      Op
	Context string
	Err     error
}

func (e *Error) Error() string { return FormatWith(e.Op, e.Context, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err tagged with op, or nil if err is nil.
func Wrap(op Op, err error) error {
	return WrapWith(op, "", err)
}

// WrapWith returns err tagged with op and context, or nil if err is nil.
func WrapWith(op Op, context string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Context: context, Err: err}
}

// OpOf returns the operation of the first *Error in err's chain.
func OpOf(err error) (Op, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Op, true
	}
	return "", false
}
