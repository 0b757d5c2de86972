/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 10:02:17
 * @FilePath: \pssuai-admin\backend\internal\app\app.go
 * @LastEditTime: 2025-10-21 14:48:09
 */
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pssuai-admin/backend/internal/bootstrapdata"
	"pssuai-admin/backend/internal/config"
	"pssuai-admin/backend/internal/domain/mirror"
	infra "pssuai-admin/backend/internal/infra/client"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resources are the long-lived handles shared by every request.
type Resources struct {
	Settings config.Settings
	DB       *gorm.DB
	SQL      *sql.DB
	// Redis is nil when no endpoint is configured.
	Redis *redis.Client
}

// InitResources opens the mirror database (SQLite in local mode, MySQL otherwise)
// and the optional Redis connection. A fresh local database is seeded from the
// snapshot directory when one exists.
func InitResources(ctx context.Context, settings config.Settings, logger *zap.SugaredLogger) (*Resources, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	res := &Resources{Settings: settings}

	if settings.IsLocal() {
		db, sqlDB, err := infra.NewGORMSQLite(settings.LocalSQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open local sqlite: %w", err)
		}
		res.DB, res.SQL = db, sqlDB
		if err := db.WithContext(ctx).AutoMigrate(mirror.Models()...); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("auto migrate local mirror: %w", err)
		}
		if err := bootstrapdata.SeedLocalDatabase(ctx, db, bootstrapdata.Options{
			Logger: logger.With("component", "bootstrapdata"),
		}); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("seed local mirror: %w", err)
		}
		logger.Infow("local mirror ready", "path", settings.LocalSQLitePath)
	} else {
		mysqlCfg, err := infra.NewDefaultMySQLConfig()
		if err != nil {
			return nil, fmt.Errorf("build mysql config: %w", err)
		}
		db, sqlDB, err := infra.NewGORMMySQL(mysqlCfg)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		res.DB, res.SQL = db, sqlDB
		logger.Infow("mysql connected", "host", mysqlCfg.Host, "database", mysqlCfg.Database, "user", mysqlCfg.Username)
	}

	redisOpts, enabled, err := infra.NewDefaultRedisOptions()
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("build redis options: %w", err)
	}
	if enabled {
		client, err := infra.NewRedisClient(redisOpts)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		res.Redis = client
		logger.Infow("redis connected", "host", redisOpts.Host, "port", redisOpts.Port, "db", redisOpts.DB)
	}

	return res, nil
}

// Close releases every handle, returning the joined errors.
func (r *Resources) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if r.SQL != nil {
		if err := r.SQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
