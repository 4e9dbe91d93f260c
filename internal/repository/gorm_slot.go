package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
)

// GormSlot stores slots as rows of catalog_slots. Writes are upserts keyed
// on slot_key so Put never depends on a prior read.
type GormSlot struct {
	db      *gorm.DB
	backend string
	now     func() time.Time
}

func NewGormSlot(db *gorm.DB) *GormSlot {
	return &GormSlot{db: db, backend: db.Dialector.Name(), now: time.Now}
}

func (s *GormSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row domain.CatalogSlot
	err := s.db.WithContext(ctx).Where("slot_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Value), true, nil
}

func (s *GormSlot) Put(ctx context.Context, key string, value []byte) error {
	row := domain.CatalogSlot{Key: key, Value: string(value), UpdatedAt: s.now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormSlot) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("slot_key = ?", key).Delete(&domain.CatalogSlot{}).Error
}

func (s *GormSlot) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormSlot) Backend() string { return s.backend }

func (s *GormSlot) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
