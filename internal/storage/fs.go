package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Filesystem implements Storage under a local root directory.
type Filesystem struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystem creates a filesystem-based storage backend.
func NewFilesystem(rootDir string, logger zerolog.Logger) *Filesystem {
	return &Filesystem{
		rootDir: rootDir,
		logger:  logger,
	}
}

// Root returns the directory objects are stored under.
func (fs *Filesystem) Root() string {
	return fs.rootDir
}

// Path returns the local file path of key.
func (fs *Filesystem) Path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes the media root", key)
	}
	return filepath.Join(fs.rootDir, clean), nil
}

// Put writes r to the file for key, creating parent directories.
func (fs *Filesystem) Put(_ context.Context, key string, r io.Reader) error {
	fullPath, err := fs.Path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	dest, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dest, r); err != nil {
		dest.Close()
		os.Remove(fullPath)
		return fmt.Errorf("write file: %w", err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("write file: %w", err)
	}

	fs.logger.Debug().
		Str("path", fullPath).
		Str("key", key).
		Msg("filesystem storage: file stored")
	return nil
}

// Delete removes the file for key. Missing files are not an error.
func (fs *Filesystem) Delete(_ context.Context, key string) error {
	fullPath, err := fs.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}

	fs.logger.Debug().Str("path", fullPath).Msg("filesystem storage: file deleted")
	return nil
}

// CheckAccess verifies the storage directory exists and is accessible.
func (fs *Filesystem) CheckAccess() error {
	info, err := os.Stat(fs.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("media root directory does not exist: %s", fs.rootDir)
		}
		return fmt.Errorf("cannot access media root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root is not a directory: %s", fs.rootDir)
	}
	return nil
}
