package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/catalog-editor/internal/di"
	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/service"
	"github.com/sandeepkv93/catalog-editor/internal/tools/common"
	"github.com/sandeepkv93/catalog-editor/internal/tools/ui"
	"github.com/sandeepkv93/catalog-editor/internal/transfer"
)

type options struct {
	envFile string
	fixture string
	replace bool
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Catalog seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.fixture, "fixture", "", "yaml, json or csv fixture (default built-in demo products)")
	cmd.PersistentFlags().BoolVar(&opts.replace, "replace", false, "replace the catalog instead of appending")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Write seed products into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				items, err := loadItems(opts.fixture)
				if err != nil {
					return nil, err
				}
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				cat, err := di.InitializeCatalog()
				if err != nil {
					return nil, err
				}
				defer func() { _ = cat.Close() }()
				return apply(ctx, cat.Service, items, opts.replace)
			})
			finish(cmd.Context(), opts, "apply", start, details, err)
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				items, err := loadItems(opts.fixture)
				if err != nil {
					return nil, err
				}
				return plan(items, opts.replace)
			})
			finish(cmd.Context(), opts, "dry-run", start, details, err)
			return nil
		},
	}
}

func finish(ctx context.Context, opts *options, name string, started time.Time, details []string, err error) {
	common.Finish(ctx, common.Outcome{
		Tool: "seed", Command: name, CI: opts.ci,
		Details: details, Err: err, Started: started,
	})
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}

// loadItems reads the fixture, or returns the demo products when path is
// empty.
func loadItems(path string) ([]domain.Product, error) {
	if path == "" {
		return demoProducts(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return transfer.Import(f, transfer.FormatFromPath(path))
}

func apply(ctx context.Context, svc service.ProductService, items []domain.Product, replace bool) ([]string, error) {
	report, err := svc.Import(ctx, items, replace)
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("seeded %d products", report.Imported),
		fmt.Sprintf("catalog now holds %d products", report.Total),
	}, nil
}

func plan(items []domain.Product, replace bool) ([]string, error) {
	details := make([]string, 0, len(items)+2)
	if replace {
		details = append(details, "would replace the existing catalog")
	} else {
		details = append(details, "would append to the existing catalog")
	}
	for i, item := range items {
		if err := service.InputFromProduct(item).Validate(); err != nil {
			return details, fmt.Errorf("item %d: %w", i+1, err)
		}
		details = append(details, fmt.Sprintf("would add %q (%s, $%.2f)", item.Title, item.Category, item.Price))
	}
	return append(details, "no mutation executed in dry-run mode"), nil
}

func demoProducts() []domain.Product {
	return []domain.Product{
		{Title: "Ceramic Mug", Price: 12.5, Image: "https://picsum.photos/seed/mug/400/300", Category: "Kitchen", Description: "Stoneware mug, 350 ml."},
		{Title: "Desk Lamp", Price: 39.99, Image: "https://picsum.photos/seed/lamp/400/300", Category: "Office", Description: "Adjustable arm with warm LED."},
		{Title: "Notebook", Price: 4.25, Image: "https://picsum.photos/seed/notebook/400/300", Category: "Office"},
		{Title: "Throw Blanket", Price: 29, Image: "https://picsum.photos/seed/blanket/400/300", Category: "Home", Description: "Cotton knit, 130 x 170 cm."},
	}
}
