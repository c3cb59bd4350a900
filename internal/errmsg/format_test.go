//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpLibraryRemove,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpLibraryRemove,
			err:      errors.New("track not found"),
			expected: "Failed to remove track from library: track not found",
		},
		{
			name:     "queue operation",
			op:       OpQueueSave,
			err:      errors.New("database is locked"),
			expected: "Failed to save queue: database is locked",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no such track"),
			expected: "Failed to start playback: no such track",
		},
		{
			name:     "cache operation",
			op:       OpCacheConnect,
			err:      errors.New("connection refused"),
			expected: "Failed to connect to url cache: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpLibraryImport,
			context:  "song.mp3",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpLibraryImport,
			context:  "song.mp3",
			err:      errors.New("permission denied"),
			expected: "Failed to import track 'song.mp3': permission denied",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpLibraryImport,
			context:  "",
			err:      errors.New("permission denied"),
			expected: "Failed to import track: permission denied",
		},
		{
			name:     "select with track id context",
			op:       OpPlaybackSelect,
			context:  "3f2c",
			err:      errors.New("not found"),
			expected: "Failed to select track '3f2c': not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("disk full")

	err := WrapWith(OpLibraryImport, "a.mp3", cause)

	if err.Error() != "Failed to import track 'a.mp3': disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}

	op, ok := OpOf(fmt.Errorf("cli: %w", err))
	if !ok || op != OpLibraryImport {
		t.Errorf("OpOf() = %q, %v; want %q, true", op, ok, OpLibraryImport)
	}

	if Wrap(OpQueueSave, nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if _, ok := OpOf(cause); ok {
		t.Error("OpOf() found an operation on a plain error")
	}
}

func TestOpConstants(t *testing.T) {
	// Verify that Op constants are non-empty and produce valid messages
	ops := []Op{
		OpLibraryLoad, OpLibraryImport, OpLibraryRemove,
		OpQueueLoad, OpQueueSave, OpQueueUpdate,
		OpPlaybackStart, OpPlaybackSelect, OpPlaybackNext, OpPlaybackPrev,
		OpStorageOpen, OpResolverSetup, OpCacheConnect,
		OpConfigLoad, OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
