package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
)

// Migrate reconciles the slot table. It is idempotent and safe to run on
// every start of a SQL-backed store.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.CatalogSlot{}); err != nil {
		return fmt.Errorf("migrate %s: %w", domain.CatalogSlot{}.TableName(), err)
	}
	return nil
}
