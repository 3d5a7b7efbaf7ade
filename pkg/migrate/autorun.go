package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Migrator is the schema surface exposed by the db client.
type Migrator interface {
	AutoMigrate(ctx context.Context) error
}

// ShouldRun reports whether the schema should be synced on boot. SQLite
// databases start empty, so they are always migrated.
func ShouldRun(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}
	if cfg.FeatureFlags.UseSQLite {
		return true
	}
	return cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRun syncs the schema when ShouldRun allows it.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, m Migrator) error {
	if !ShouldRun(cfg) {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "sqlite": cfg.FeatureFlags.UseSQLite})
	logg.Info(ctx, "running schema auto-migration")

	if err := m.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("running auto-migration: %w", err)
	}

	logg.Info(ctx, "schema auto-migration completed")
	return nil
}
