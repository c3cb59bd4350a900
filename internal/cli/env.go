package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/llehouerou/wavecloud/internal/config"
	"github.com/llehouerou/wavecloud/internal/errmsg"
	"github.com/llehouerou/wavecloud/internal/library"
	"github.com/llehouerou/wavecloud/internal/playlist"
	"github.com/llehouerou/wavecloud/internal/resolver"
	"github.com/llehouerou/wavecloud/internal/state"
	"github.com/llehouerou/wavecloud/internal/storage"
)

// env holds what the commands open from the configuration.
type env struct {
	cfg     *config.Config
	state   *state.Manager
	library *library.Store
	closers []func() error
}

func openEnv(c *config.Config) (*env, error) {
	mgr, err := state.Open(c.DatabasePath)
	if err != nil {
		return nil, errmsg.Wrap(errmsg.OpInitialize, err)
	}
	return &env{cfg: c, state: mgr, library: library.New(mgr.DB())}, nil
}

// Close releases everything opened by the env, the database last.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	errs = append(errs, e.state.Close())
	return errors.Join(errs...)
}

func s3Config(sc config.StorageConfig) storage.S3Config {
	return storage.S3Config{
		Bucket:          sc.Bucket,
		Region:          sc.Region,
		Endpoint:        sc.Endpoint,
		AccessKeyID:     sc.AccessKeyID,
		SecretAccessKey: sc.SecretAccessKey,
		UsePathStyle:    sc.UsePathStyle,
	}
}

// newStorage returns the backend imported track data is written to.
func (e *env) newStorage(ctx context.Context) (storage.Storage, error) {
	sc := e.cfg.GetStorageConfig()
	switch sc.Backend {
	case config.StorageFS:
		fs := storage.NewFilesystem(e.cfg.GetMediaRoot(), logger)
		if err := fs.CheckAccess(); err != nil {
			return nil, errmsg.Wrap(errmsg.OpStorageOpen, err)
		}
		return fs, nil
	case config.StorageS3:
		if !e.cfg.HasS3Config() {
			return nil, errmsg.Wrap(errmsg.OpStorageOpen, errors.New("storage.bucket is not set"))
		}
		client, err := storage.NewS3Client(ctx, s3Config(sc))
		if err != nil {
			return nil, errmsg.Wrap(errmsg.OpStorageOpen, err)
		}
		return storage.NewS3(client, sc.Bucket, logger), nil
	default:
		return nil, errmsg.Wrap(errmsg.OpStorageOpen, fmt.Errorf("unknown storage backend %q", sc.Backend))
	}
}

// newResolver builds the track resolver for the configured storage,
// wrapped with the configured URL cache.
func (e *env) newResolver(ctx context.Context) (resolver.Resolver, error) {
	sc := e.cfg.GetStorageConfig()
	var base resolver.Resolver
	var maxTTL time.Duration
	switch sc.Backend {
	case config.StorageFS:
		base = resolver.NewFile(storage.NewFilesystem(e.cfg.GetMediaRoot(), logger))
	case config.StorageS3:
		if !e.cfg.HasS3Config() {
			return nil, errmsg.Wrap(errmsg.OpResolverSetup, errors.New("storage.bucket is not set"))
		}
		client, err := storage.NewS3Client(ctx, s3Config(sc))
		if err != nil {
			return nil, errmsg.Wrap(errmsg.OpResolverSetup, err)
		}
		s3r := resolver.NewS3(client, sc.Bucket, sc.PresignTTL(), logger)
		base = s3r
		// Cached URLs must not outlive their signature.
		maxTTL = s3r.TTL() / 2
	default:
		return nil, errmsg.Wrap(errmsg.OpResolverSetup, fmt.Errorf("unknown storage backend %q", sc.Backend))
	}

	cc := e.cfg.GetCacheConfig()
	ttl := cc.TTL()
	if maxTTL > 0 && ttl > maxTTL {
		ttl = maxTTL
	}
	switch cc.Backend {
	case config.CacheNone:
		return base, nil
	case config.CacheMemory:
		return resolver.NewCached(base, resolver.NewMemoryCache(cc.Size, ttl), logger), nil
	case config.CacheRedis:
		rc := resolver.NewRedisCache(resolver.NewRedisClient(resolver.RedisConfig{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
		}), ttl, logger)
		e.closers = append(e.closers, rc.Close)
		return resolver.NewCached(base, rc, logger), nil
	default:
		return nil, errmsg.Wrap(errmsg.OpCacheConnect, fmt.Errorf("unknown cache backend %q", cc.Backend))
	}
}

// durations remembers the library duration of each resolved URL, so the
// clock output plays a track for its real length.
type durations struct {
	inner resolver.Resolver

	mu    sync.Mutex
	byURL map[string]time.Duration
}

func newDurations(inner resolver.Resolver) *durations {
	return &durations{inner: inner, byURL: make(map[string]time.Duration)}
}

func (d *durations) Resolve(ctx context.Context, t playlist.Track) (string, error) {
	url, err := d.inner.Resolve(ctx, t)
	if err != nil {
		return "", err
	}
	if t.Duration > 0 {
		d.mu.Lock()
		d.byURL[url] = t.Duration
		d.mu.Unlock()
	}
	return url, nil
}

// Lookup returns the duration recorded for url, or 0.
func (d *durations) Lookup(url string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byURL[url]
}
