package catalogctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/catalog-editor/internal/config"
	"github.com/sandeepkv93/catalog-editor/internal/di"
	"github.com/sandeepkv93/catalog-editor/internal/editor"
	"github.com/sandeepkv93/catalog-editor/internal/observability"
	"github.com/sandeepkv93/catalog-editor/internal/tools/common"
	"github.com/sandeepkv93/catalog-editor/internal/tools/ui"
	"github.com/sandeepkv93/catalog-editor/internal/transfer"
	"github.com/sandeepkv93/catalog-editor/internal/view"
)

const toolName = "catalog"

type options struct {
	envFile   string
	timeout   time.Duration
	ci        bool
	ephemeral bool
}

// opener builds the catalog runtime for one command invocation.
type opener func(opts *options) (*di.Catalog, error)

type cli struct {
	opts *options
	open opener
}

// output is what a command reports. Raw output has already been written and
// suppresses the result summary.
type output struct {
	details []string
	pretty  string
	raw     bool
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(openCatalog)
}

func newRootCommand(open opener) *cobra.Command {
	c := &cli{opts: &options{}, open: open}
	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Product catalog editor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&c.opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&c.opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&c.opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.PersistentFlags().BoolVar(&c.opts.ephemeral, "ephemeral", false, "use an in-memory store for this run")

	cmd.AddCommand(
		c.newListCommand(),
		c.newCategoriesCommand(),
		c.newAddCommand(),
		c.newUpdateCommand(),
		c.newDeleteCommand(),
		c.newClearCommand(),
		c.newEditCommand(),
		c.newExportCommand(),
		c.newImportCommand(),
	)
	return cmd
}

func openCatalog(opts *options) (*di.Catalog, error) {
	if err := common.LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	if opts.ephemeral {
		if err := os.Setenv("CATALOG_STORE_BACKEND", config.StoreBackendMemory); err != nil {
			return nil, err
		}
	}
	return di.InitializeCatalog()
}

func (c *cli) run(cmd *cobra.Command, name string, fn func(ctx context.Context, cat *di.Catalog) (output, error)) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(cmd.Context(), c.opts.timeout)
	defer cancel()

	var (
		out output
		err error
	)
	cat, err := c.open(c.opts)
	if err == nil {
		defer func() { _ = cat.Close() }()
		out, err = fn(ctx, cat)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordToolCommandRun(ctx, toolName, name, outcome)
	observability.RecordToolCommandDuration(ctx, toolName, name, outcome, time.Since(start))

	w := cmd.OutOrStdout()
	switch {
	case c.opts.ci && !out.raw:
		common.WriteCIResult(w, err == nil, toolName+" "+name, out.details, err)
	case out.raw:
	case out.pretty != "":
		fmt.Fprintln(w, out.pretty)
	default:
		for _, d := range out.details {
			fmt.Fprintln(w, d)
		}
	}
	return err
}

func (c *cli) controller(cmd *cobra.Command, cat *di.Catalog, yes bool) *editor.Controller {
	var confirm editor.Confirmer
	if yes || c.opts.ci {
		confirm = editor.Preconfirmed(yes)
	} else {
		confirm = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	return editor.NewController(cat.Service, confirm, nil, cat.Logger)
}

// promptConfirmer asks on out and accepts "y" or "yes" from in.
func promptConfirmer(in io.Reader, out io.Writer) editor.Confirmer {
	reader := bufio.NewReader(in)
	return editor.ConfirmerFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func resultOutput(res editor.Result) (output, error) {
	if res.Declined {
		return output{details: []string{"cancelled"}}, nil
	}
	if res.Err != nil {
		return output{}, fmt.Errorf("%s: %w", res.Notice.Message, res.Err)
	}
	details := []string{res.Notice.Message}
	if res.Product != nil {
		details = append(details, productLine(view.NewCard(*res.Product)))
	}
	return output{details: details}, nil
}

func productLine(card view.Card) string {
	return fmt.Sprintf("#%d %s %s [%s]", card.ID, card.Title, card.PriceLabel, card.Category)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func (c *cli) newListCommand() *cobra.Command {
	var search, category, sort string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products matching search, category and sort",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "list", func(ctx context.Context, cat *di.Catalog) (output, error) {
				key, err := view.ParseSortKey(sort)
				if err != nil {
					return output{}, err
				}
				listing, err := cat.Service.Listing(ctx, view.Query{Search: search, Category: category, Sort: key})
				if err != nil {
					return output{}, err
				}
				return listingOutput(listing), nil
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive title or description substring")
	cmd.Flags().StringVar(&category, "category", "", "exact category")
	cmd.Flags().StringVar(&sort, "sort", "", "price-low|price-high|name")
	return cmd
}

func listingOutput(listing view.Listing) output {
	if listing.Empty != nil {
		return output{details: []string{listing.Empty.Title, listing.Empty.Hint}}
	}
	details := make([]string, 0, len(listing.Cards))
	rows := make([][]string, 0, len(listing.Cards))
	for _, card := range listing.Cards {
		details = append(details, productLine(card))
		rows = append(rows, []string{strconv.FormatInt(card.ID, 10), card.Title, card.PriceLabel, card.Category, card.Description})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "PRICE", "CATEGORY", "DESCRIPTION").
		Rows(rows...)
	pretty := fmt.Sprintf("%s\n%d of %d products", t.String(), len(listing.Cards), listing.Total)
	return output{details: details, pretty: pretty}
}

func (c *cli) newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List distinct categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "categories", func(ctx context.Context, cat *di.Catalog) (output, error) {
				categories, err := cat.Service.Categories(ctx)
				if err != nil {
					return output{}, err
				}
				return output{details: categories}, nil
			})
		},
	}
}

type formFlags struct {
	form editor.Form
}

func (f *formFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.form.Title, "title", "", "product title")
	cmd.Flags().StringVar(&f.form.Price, "price", "", "price, a non-negative number")
	cmd.Flags().StringVar(&f.form.Image, "image", "", "image URL")
	cmd.Flags().StringVar(&f.form.Category, "category", "", "category")
	cmd.Flags().StringVar(&f.form.Description, "description", "", "optional description")
}

// overlay copies only the flags the user set onto base.
func (f *formFlags) overlay(cmd *cobra.Command, base editor.Form) editor.Form {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("title", &base.Title, f.form.Title)
	set("price", &base.Price, f.form.Price)
	set("image", &base.Image, f.form.Image)
	set("category", &base.Category, f.form.Category)
	set("description", &base.Description, f.form.Description)
	return base
}

func (c *cli) newAddCommand() *cobra.Command {
	flags := &formFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "add", func(ctx context.Context, cat *di.Catalog) (output, error) {
				ctrl := c.controller(cmd, cat, false)
				sess, _ := ctrl.NewSession()
				return resultOutput(ctrl.Submit(ctx, sess, flags.form))
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (c *cli) newUpdateCommand() *cobra.Command {
	flags := &formFlags{}
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a product; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "update", func(ctx context.Context, cat *di.Catalog) (output, error) {
				id, err := parseID(args[0])
				if err != nil {
					return output{}, err
				}
				ctrl := c.controller(cmd, cat, false)
				begin := ctrl.BeginEdit(ctx, id)
				if begin.Err != nil {
					return resultOutput(begin)
				}
				return resultOutput(ctrl.Submit(ctx, begin.Session, flags.overlay(cmd, begin.Form)))
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func (c *cli) newDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "delete", func(ctx context.Context, cat *di.Catalog) (output, error) {
				id, err := parseID(args[0])
				if err != nil {
					return output{}, err
				}
				return resultOutput(c.controller(cmd, cat, yes).Delete(ctx, id))
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) newClearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "clear", func(ctx context.Context, cat *di.Catalog) (output, error) {
				return resultOutput(c.controller(cmd, cat, yes).ClearAll(ctx))
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) newEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the interactive editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.opts.ci {
				return errors.New("edit is interactive and cannot run with --ci")
			}
			cat, err := c.open(c.opts)
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()
			return ui.RunEditor(cat.Service, cat.Config.NoticeTTL)
		},
	}
}

func (c *cli) newExportCommand() *cobra.Command {
	var format, path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog as json, csv or yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "export", func(ctx context.Context, cat *di.Catalog) (output, error) {
				f, err := resolveFormat(format, path)
				if err != nil {
					return output{}, err
				}
				products, err := cat.Service.All(ctx)
				if err != nil {
					return output{}, err
				}
				if path == "" {
					return output{raw: true}, transfer.Export(cmd.OutOrStdout(), f, products)
				}
				file, err := os.Create(path)
				if err != nil {
					return output{}, fmt.Errorf("create export file: %w", err)
				}
				if err := transfer.Export(file, f, products); err != nil {
					_ = file.Close()
					return output{}, err
				}
				if err := file.Close(); err != nil {
					return output{}, err
				}
				return output{details: []string{fmt.Sprintf("exported %d products to %s", len(products), path)}}, nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json|csv|yaml (default from --output extension, else json)")
	cmd.Flags().StringVarP(&path, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) newImportCommand() *cobra.Command {
	var (
		format  string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import products from a json, csv or yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "import", func(ctx context.Context, cat *di.Catalog) (output, error) {
				f, err := resolveFormat(format, args[0])
				if err != nil {
					return output{}, err
				}
				file, err := os.Open(args[0])
				if err != nil {
					return output{}, fmt.Errorf("open import file: %w", err)
				}
				defer file.Close()
				items, err := transfer.Import(file, f)
				if err != nil {
					return output{}, err
				}
				report, err := cat.Service.Import(ctx, items, replace)
				if err != nil {
					return output{}, err
				}
				return output{details: []string{
					fmt.Sprintf("imported=%d", report.Imported),
					fmt.Sprintf("total=%d", report.Total),
					fmt.Sprintf("replaced=%t", report.Replaced),
				}}, nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json|csv|yaml (default from file extension)")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the catalog instead of appending")
	return cmd
}

func resolveFormat(flag, path string) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	return transfer.FormatFromPath(path), nil
}
