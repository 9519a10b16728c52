package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/medicarehub-backend/pkg/config"
	"github.com/angelmondragon/medicarehub-backend/pkg/db"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

// EnsureLocal brings the device cache schema up to date. The local cache has
// no operator, so it always migrates on boot.
func EnsureLocal(ctx context.Context, logg *logger.Logger, client *db.Client) error {
	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := Up(ctx, sqlDB, Dialect(client.Driver()), EmbeddedDir); err != nil {
		return fmt.Errorf("migrating local cache: %w", err)
	}
	if logg != nil {
		logg.Debug(ctx, "local cache schema ready")
	}
	return nil
}

// MaybeRunRemote migrates a SQL-backed remote document store when the
// auto-migrate flag is enabled.
func MaybeRunRemote(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "driver": client.Driver()}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running goose migrations on remote store")

	if err := Up(ctx, sqlDB, Dialect(client.Driver()), EmbeddedDir); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
