package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

// Storage backends.
const (
	StorageFS = "fs"
	StorageS3 = "s3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Poll interval bounds in milliseconds.
const (
	MinPollIntervalMS     = 250
	MaxPollIntervalMS     = 500
	DefaultPollIntervalMS = 250
)

type Config struct {
	LogLevel     string `koanf:"log_level"`     // zerolog level name (default: "info")
	MediaRoot    string `koanf:"media_root"`    // directory holding music/audio, music/artwork, ...
	DatabasePath string `koanf:"database_path"` // empty means the XDG data dir

	Playback PlaybackConfig `koanf:"playback"`
	Storage  StorageConfig  `koanf:"storage"`
	Cache    CacheConfig    `koanf:"cache"`
}

// PlaybackConfig holds the initial controller settings.
type PlaybackConfig struct {
	PollIntervalMS int    `koanf:"poll_interval_ms"` // 250-500, default: 250
	Repeat         string `koanf:"repeat"`           // "off", "all", "one"
	Shuffle        bool   `koanf:"shuffle"`
}

// StorageConfig selects where track data lives.
type StorageConfig struct {
	Backend           string `koanf:"backend"` // "fs" or "s3" (default: "fs")
	Bucket            string `koanf:"bucket"`
	Region            string `koanf:"region"`
	Endpoint          string `koanf:"endpoint"` // e.g. a MinIO URL
	AccessKeyID       string `koanf:"access_key_id"`
	SecretAccessKey   string `koanf:"secret_access_key"`
	UsePathStyle      bool   `koanf:"use_path_style"`
	PresignTTLMinutes int    `koanf:"presign_ttl_minutes"` // default: 15
}

// CacheConfig configures the resolved URL cache.
type CacheConfig struct {
	Backend       string `koanf:"backend"`     // "memory", "redis" or "none" (default: "memory")
	Size          int    `koanf:"size"`        // memory cache entries (default: 256)
	TTLMinutes    int    `koanf:"ttl_minutes"` // default: 10
	RedisAddr     string `koanf:"redis_addr"`  // default: "localhost:6379"
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// Load reads the default config files. Later files override earlier ones.
func Load() (*Config, error) {
	return load(getConfigPaths())
}

// LoadFile reads a single config file, which must exist.
func LoadFile(path string) (*Config, error) {
	path = expandPath(path)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return load([]string{path})
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		MediaRoot: "", // empty means cwd
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.MediaRoot = expandPath(cfg.MediaRoot)
	cfg.DatabasePath = expandPath(cfg.DatabasePath)

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	cfg.Storage.Endpoint = strings.TrimSuffix(cfg.Storage.Endpoint, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/wavecloud/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "wavecloud", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetLogLevel returns the log level, defaulting to "info".
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}

// GetMediaRoot returns the media root, defaulting to the working directory.
func (c *Config) GetMediaRoot() string {
	if c.MediaRoot == "" {
		return "."
	}
	return c.MediaRoot
}

// GetPollInterval returns the poll interval clamped to 250-500ms.
func (c *Config) GetPollInterval() time.Duration {
	ms := c.Playback.PollIntervalMS
	switch {
	case ms <= 0:
		ms = DefaultPollIntervalMS
	case ms < MinPollIntervalMS:
		ms = MinPollIntervalMS
	case ms > MaxPollIntervalMS:
		ms = MaxPollIntervalMS
	}
	return time.Duration(ms) * time.Millisecond
}

// GetRepeatMode parses the configured repeat mode. Empty means off.
func (c *Config) GetRepeatMode() (playlist.RepeatMode, error) {
	if c.Playback.Repeat == "" {
		return playlist.RepeatOff, nil
	}
	return playlist.ParseRepeatMode(c.Playback.Repeat)
}

// GetStorageConfig returns the storage configuration with defaults applied.
func (c *Config) GetStorageConfig() StorageConfig {
	cfg := c.Storage
	if cfg.Backend == "" {
		cfg.Backend = StorageFS
	}
	if cfg.PresignTTLMinutes <= 0 {
		cfg.PresignTTLMinutes = 15
	}
	return cfg
}

// PresignTTL returns how long presigned URLs stay valid.
func (s StorageConfig) PresignTTL() time.Duration {
	return time.Duration(s.PresignTTLMinutes) * time.Minute
}

// HasS3Config returns true if S3 storage is selected and a bucket is set.
func (c *Config) HasS3Config() bool {
	return c.GetStorageConfig().Backend == StorageS3 && c.Storage.Bucket != ""
}

// GetCacheConfig returns the cache configuration with defaults applied.
func (c *Config) GetCacheConfig() CacheConfig {
	cfg := c.Cache
	if cfg.Backend == "" {
		cfg.Backend = CacheMemory
	}
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.TTLMinutes <= 0 {
		cfg.TTLMinutes = 10
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	return cfg
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}
