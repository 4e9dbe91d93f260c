package database

import (
	"fmt"

	"github.com/sandeepkv93/catalog-editor/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQL database selected by CATALOG_STORE_BACKEND.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.StoreBackendSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("store backend %q is not SQL-backed", cfg.StoreBackend)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}
