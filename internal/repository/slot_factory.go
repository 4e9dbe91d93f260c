package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/catalog-editor/internal/config"
	"github.com/sandeepkv93/catalog-editor/internal/database"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
)

// NewRedisClient opens an instrumented client for the configured redis.
func NewRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

// OpenSlot builds the slot selected by CATALOG_STORE_BACKEND. SQL backends
// are migrated before use. The redis backend reuses shared when it is not nil
// and otherwise opens a client that the slot closes.
func OpenSlot(ctx context.Context, cfg *config.Config, shared redis.UniversalClient, logger *slog.Logger) (Slot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.StoreBackend {
	case config.StoreBackendBolt:
		return NewBoltSlot(cfg.BoltPath)
	case config.StoreBackendSQLite, config.StoreBackendPostgres:
		db, err := openMigrated(cfg, database.Migrate)
		if err != nil {
			return nil, err
		}
		return NewGormSlot(db), nil
	case config.StoreBackendRedis:
		if shared != nil {
			return NewRedisSlot(shared, cfg.RedisPrefix), nil
		}
		slot := NewRedisSlot(NewRedisClient(cfg, logger), cfg.RedisPrefix)
		slot.owned = true
		return slot, nil
	case config.StoreBackendMinio:
		return NewMinioSlot(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	case config.StoreBackendMongo:
		return NewMongoSlot(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StoreBackendMemory:
		return NewMemorySlot(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// openMigrated opens the SQL store and runs migrate. The connection pool is
// closed when migrate fails.
func openMigrated(cfg *config.Config, migrate func(*gorm.DB) error) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.StoreBackend, err)
	}
	if err := migrate(db); err != nil {
		if sqlDB, derr := db.DB(); derr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate %s: %w", cfg.StoreBackend, err)
	}
	return db, nil
}
