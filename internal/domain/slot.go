package domain

import "time"

// CatalogSlot is one key-value slot row for the SQL-backed store.
type CatalogSlot struct {
	Key       string    `gorm:"column:slot_key;primaryKey;size:255"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (CatalogSlot) TableName() string { return "catalog_slots" }
