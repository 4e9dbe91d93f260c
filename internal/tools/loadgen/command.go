package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/catalog-editor/internal/tools/common"
	"github.com/sandeepkv93/catalog-editor/internal/tools/ui"
)

type options struct {
	cfg       Config
	ci        bool
	fail5xx   bool
	maxErrPct float64
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "loadgen", Short: "Generate catalog API traffic"}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	flags.StringVar(&opts.cfg.Profile, "profile", "mixed", "traffic profile: read|mixed|error-heavy")
	flags.DurationVar(&opts.cfg.Duration, "duration", 15*time.Second, "traffic duration")
	flags.IntVar(&opts.cfg.RPS, "rps", 20, "requests per second")
	flags.IntVar(&opts.cfg.Concurrency, "concurrency", 6, "concurrent workers")
	flags.Int64Var(&opts.cfg.Seed, "seed", 42, "random seed")
	flags.BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	flags.BoolVar(&opts.fail5xx, "fail-on-5xx", false, "fail the run when the catalog API answers 5xx")
	flags.Float64Var(&opts.maxErrPct, "max-transport-errors", 100, "fail when transport errors exceed this percentage of sends")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run load generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "loadgen run", func(ctx context.Context) ([]string, error) {
				res, err := Run(ctx, opts.cfg)
				if err != nil {
					return nil, err
				}
				return summarize(res, opts.cfg.Duration), gate(res, opts.fail5xx, opts.maxErrPct)
			})
			common.Finish(cmd.Context(), common.Outcome{
				Tool: "loadgen", Command: "run", CI: opts.ci,
				Details: details, Err: err, Started: start, ExitCode: common.ExitCheckFailed,
			})
			return nil
		},
	}
}

func summarize(res Result, d time.Duration) []string {
	details := []string{
		fmt.Sprintf("total_requests=%d", res.TotalRequests),
		fmt.Sprintf("failures=%d", res.Failures),
		fmt.Sprintf("status_2xx=%d", res.Status2xx),
		fmt.Sprintf("status_4xx=%d", res.Status4xx),
		fmt.Sprintf("status_5xx=%d", res.Status5xx),
	}
	if d > 0 {
		details = append(details, fmt.Sprintf("achieved_rps=%.1f", float64(res.TotalRequests)/d.Seconds()))
	}
	return details
}

// gate turns a finished run into a failure when it breaks the requested
// thresholds.
func gate(res Result, fail5xx bool, maxErrPct float64) error {
	if fail5xx && res.Status5xx > 0 {
		return fmt.Errorf("catalog api returned %d server errors", res.Status5xx)
	}
	sends := res.TotalRequests + res.Failures
	if sends > 0 {
		if pct := 100 * float64(res.Failures) / float64(sends); pct > maxErrPct {
			return fmt.Errorf("transport errors %.1f%% exceed %.1f%%", pct, maxErrPct)
		}
	}
	return nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	timeout := opts.cfg.Duration + 15*time.Second
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.RunWithTimeout(title, timeout, fn)
}
