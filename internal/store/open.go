package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"retail-ledger/internal/config"
	"retail-ledger/internal/database"
)

// Open builds the backend selected by cfg.Store.Backend
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Backend, error) {
	switch cfg.Store.Backend {
	case "memory":
		log.Warn("Using in-memory store, data will not survive a restart")
		return NewMemoryBackend(), nil

	case "file":
		b, err := NewFileBackend(afero.NewOsFs(), cfg.Store.FileDir)
		if err != nil {
			return nil, err
		}
		log.Info("Using file store", zap.String("dir", cfg.Store.FileDir))
		return b, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr(), err)
		}
		log.Info("Using redis store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.String("prefix", cfg.Redis.KeyPrefix),
		)
		return NewRedisBackend(client, cfg.Redis.KeyPrefix), nil

	case database.DialectSQLite, database.DialectPostgres, database.DialectMySQL:
		db, err := database.Open(ctx, cfg.Store.Backend, cfg.Store.SQLDSN)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, cfg.Store.Backend, log); err != nil {
			db.Close()
			return nil, err
		}
		version, err := database.MigrationVersion(db, cfg.Store.Backend)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Using sql store",
			zap.String("dialect", cfg.Store.Backend),
			zap.Int64("schema_version", version),
		)
		return NewSQLBackend(db, cfg.Store.Backend)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Store.Backend)
	}
}
