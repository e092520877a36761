package migrate

import (
	"context"
	"fmt"

	"github.com/iskomart/iskomart-backend/pkg/config"
	"github.com/iskomart/iskomart-backend/pkg/db"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
	"github.com/iskomart/iskomart-backend/pkg/logger"
)

// MaybeRunDev syncs the schema on boot when the app runs in dev with
// ISKOMART_AUTO_MIGRATE on. Every other environment migrates out of band.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	return Sync(logg.WithField(ctx, "driver", client.Driver()), logg, client)
}

// Sync brings the connected database up to the current schema. Postgres
// applies the embedded goose migrations; sqlite cannot run that DDL and
// gets a gorm AutoMigrate of the models instead.
func Sync(ctx context.Context, logg *logger.Logger, client *db.Client) error {
	switch client.Driver() {
	case config.DBDriverSQLite:
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("gorm automigrate: %w", err)
		}
		logg.Info(ctx, "migrate.automigrate_done")
		return nil
	default:
		sqlDB, err := client.DB().DB()
		if err != nil {
			return fmt.Errorf("unwrap sql.DB: %w", err)
		}
		applied, err := UpEmbedded(ctx, sqlDB)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "applied", applied), "migrate.goose_up_done")
		return nil
	}
}
