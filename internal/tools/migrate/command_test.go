package migrate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/catalog-editor/internal/config"
	"github.com/sandeepkv93/catalog-editor/internal/repository"
)

func newMigrateDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestStatusPlanAndUp(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StoreBackend: config.StoreBackendSQLite}
	db := newMigrateDBForTest(t)

	details, err := schemaStatus(ctx, cfg, db)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(strings.Join(details, "\n"), "catalog_slots: missing") {
		t.Fatalf("expected missing table, got %v", details)
	}

	details, err = schemaPlan(ctx, cfg, db)
	if err != nil || !strings.HasPrefix(details[0], "would create catalog_slots") {
		t.Fatalf("unexpected plan %v err=%v", details, err)
	}

	if _, err := applySchema(ctx, cfg, db); err != nil {
		t.Fatalf("up: %v", err)
	}
	if err := repository.NewGormSlot(db).Put(ctx, "products", []byte("[]")); err != nil {
		t.Fatalf("put after migrate: %v", err)
	}

	details, err = schemaStatus(ctx, cfg, db)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(strings.Join(details, "\n"), "catalog_slots: present, 1 slot(s)") {
		t.Fatalf("expected one slot, got %v", details)
	}

	details, err = schemaPlan(ctx, cfg, db)
	if err != nil || !strings.HasPrefix(details[0], "would reconcile") {
		t.Fatalf("unexpected plan after up %v err=%v", details, err)
	}
}

func TestApplySchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StoreBackend: config.StoreBackendSQLite}
	db := newMigrateDBForTest(t)
	for i := 0; i < 2; i++ {
		if _, err := applySchema(ctx, cfg, db); err != nil {
			t.Fatalf("up #%d: %v", i+1, err)
		}
	}
}
