package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/catalog-editor/internal/config"
	"github.com/sandeepkv93/catalog-editor/internal/database"
	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/tools/common"
	"github.com/sandeepkv93/catalog-editor/internal/tools/ui"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "SQL slot table migration tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newStepCommand(opts, "up", "Create or update the catalog_slots table", applySchema),
		newStepCommand(opts, "status", "Check connectivity and table state", schemaStatus),
		newStepCommand(opts, "plan", "Show migration plan (dry-run)", schemaPlan),
	)
	return cmd
}

type step func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error)

func newStepCommand(opts *options, name, short string, fn step) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "migrate " + name
			start := time.Now()
			details, err := run(opts, title, func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, err := db.DB()
				if err != nil {
					return nil, err
				}
				defer func() { _ = sqlDB.Close() }()
				return fn(ctx, cfg, db)
			})
			common.Finish(cmd.Context(), common.Outcome{
				Tool: "migrate", Command: name, CI: opts.ci,
				Details: details, Err: err, Started: start,
			})
			return nil
		},
	}
}

func applySchema(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	if err := database.Migrate(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	return []string{
		"schema migration applied",
		"backend: " + cfg.StoreBackend,
		"table: " + domain.CatalogSlot{}.TableName(),
	}, nil
}

func schemaStatus(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	details := []string{"database reachable", "backend: " + cfg.StoreBackend}
	table := domain.CatalogSlot{}.TableName()
	if !db.Migrator().HasTable(&domain.CatalogSlot{}) {
		return append(details, table+": missing, run migrate up"), nil
	}
	var slots int64
	if err := db.WithContext(ctx).Model(&domain.CatalogSlot{}).Count(&slots).Error; err != nil {
		return nil, fmt.Errorf("count slots: %w", err)
	}
	return append(details, fmt.Sprintf("%s: present, %d slot(s)", table, slots)), nil
}

func schemaPlan(ctx context.Context, _ *config.Config, db *gorm.DB) ([]string, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	action := "would create"
	if db.Migrator().HasTable(&domain.CatalogSlot{}) {
		action = "would reconcile"
	}
	return []string{
		fmt.Sprintf("%s %s(slot_key primary key, value text, updated_at)", action, domain.CatalogSlot{}.TableName()),
		"no mutation executed in plan mode",
	}, nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.RunWithTimeout(title, opts.timeout, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
