// Package bootstrap opens the storage stack shared by the api and dashboard
// binaries: the device cache, the optional remote, and the changefeed.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/medicarehub-backend/internal/seed"
	"github.com/angelmondragon/medicarehub-backend/pkg/changefeed"
	"github.com/angelmondragon/medicarehub-backend/pkg/config"
	"github.com/angelmondragon/medicarehub-backend/pkg/db"
	"github.com/angelmondragon/medicarehub-backend/pkg/docstore"
	"github.com/angelmondragon/medicarehub-backend/pkg/kv"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
	"github.com/angelmondragon/medicarehub-backend/pkg/metrics"
	"github.com/angelmondragon/medicarehub-backend/pkg/migrate"
	"github.com/angelmondragon/medicarehub-backend/pkg/redis"
)

// Pinger is a health-checkable backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stack is every storage handle a binary needs.
type Stack struct {
	LocalDB *db.Client
	Device  kv.Store
	Bus     *changefeed.Bus
	Bridge  *changefeed.RedisBridge
	Local   *docstore.LocalStore
	Remote  docstore.Store
	Syncing *docstore.SyncingStore
	Redis   *redis.Client

	// RemotePinger is nil when no remote is attached.
	RemotePinger Pinger
	Registry     *prometheus.Registry
	Metrics      *metrics.SyncMetrics

	closers []func() error
}

// Open boots the device cache (always), then tries the configured remote. A
// remote that cannot be reached is logged and the stack runs local-only.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Stack, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Stack{
		Bus:      changefeed.NewBus(),
		Registry: prometheus.NewRegistry(),
	}
	s.Metrics = metrics.NewSyncMetrics(s.Registry)

	localDB, err := db.New(ctx, db.Options{Driver: db.DriverSQLite, DSN: cfg.Local.Path, Pool: cfg.DB}, logg)
	if err != nil {
		return nil, fmt.Errorf("opening local cache: %w", err)
	}
	s.LocalDB = localDB
	s.closers = append(s.closers, localDB.Close)

	if err := migrate.EnsureLocal(ctx, logg, localDB); err != nil {
		s.Close()
		return nil, err
	}

	device, err := kv.NewGorm(localDB.DB())
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Device = device

	if cfg.Redis.Configured() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Warn(logg.WithError(ctx, err), "redis unavailable, continuing without it")
		} else {
			s.Redis = client
			s.closers = append(s.closers, client.Close)
		}
	}

	var publisher changefeed.Publisher = s.Bus
	if cfg.Sync.BridgeRedis && s.Redis != nil {
		bridge, err := changefeed.NewRedisBridge(s.Redis, cfg.Sync.ChangefeedTopic, s.Bus, logg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Bridge = bridge
		publisher = bridge
	}

	local, err := docstore.NewLocalStore(device, publisher)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Local = local

	s.openRemote(ctx, cfg, logg)

	syncing, err := docstore.NewSyncingStore(docstore.SyncingParams{
		Local:         local,
		Remote:        s.Remote,
		RemoteTimeout: cfg.Sync.RemoteTimeout,
		Metrics:       s.Metrics,
		Logger:        logg,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Syncing = syncing

	if cfg.FeatureFlags.SeedData {
		if err := seed.Stores(ctx, seed.Params{Local: local, Remote: s.Remote, Logger: logg}); err != nil {
			s.Close()
			return nil, fmt.Errorf("seeding stores: %w", err)
		}
	}

	return s, nil
}

func (s *Stack) openRemote(ctx context.Context, cfg *config.Config, logg *logger.Logger) {
	driver := cfg.Remote.NormalizedDriver()
	ctx = logg.WithField(ctx, "remote_driver", driver)

	switch driver {
	case config.RemoteDriverNone:
		logg.Info(ctx, "no remote store configured, running local-only")
		return

	case config.RemoteDriverRedis:
		if s.Redis == nil {
			logg.Warn(ctx, "redis remote selected but redis is unavailable, running local-only")
			return
		}
		remote, err := docstore.NewRedisStore(s.Redis)
		if err != nil {
			logg.Warn(logg.WithError(ctx, err), "redis remote store unavailable, running local-only")
			return
		}
		s.Remote = remote
		s.RemotePinger = s.Redis

	case config.RemoteDriverPostgres, config.RemoteDriverSQLite:
		client, err := db.New(ctx, db.Options{Driver: driver, DSN: cfg.Remote.DSN, Pool: cfg.DB}, logg)
		if err != nil {
			logg.Warn(logg.WithError(ctx, err), "remote database unavailable, running local-only")
			return
		}
		if err := client.Ping(ctx); err != nil {
			logg.Warn(logg.WithError(ctx, err), "remote database unreachable, running local-only")
			_ = client.Close()
			return
		}
		if err := migrate.MaybeRunRemote(ctx, cfg, logg, client); err != nil {
			logg.Warn(logg.WithError(ctx, err), "remote migrations failed, running local-only")
			_ = client.Close()
			return
		}
		remote, err := docstore.NewSQLStore(client.DB())
		if err != nil {
			logg.Warn(logg.WithError(ctx, err), "remote store unavailable, running local-only")
			_ = client.Close()
			return
		}
		s.Remote = remote
		s.RemotePinger = client
		s.closers = append(s.closers, client.Close)
	}
}

// RunBridge relays foreign changefeed signals until ctx is done. It returns
// immediately when no bridge is configured.
func (s *Stack) RunBridge(ctx context.Context) error {
	if s.Bridge == nil {
		return nil
	}
	err := s.Bridge.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases every handle in reverse open order.
func (s *Stack) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	s.closers = nil
	return err
}
