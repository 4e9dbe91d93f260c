package obscheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/catalog-editor/internal/tools/common"
	"github.com/sandeepkv93/catalog-editor/internal/tools/loadgen"
	"github.com/sandeepkv93/catalog-editor/internal/tools/ui"
)

const checkTimeout = 3 * time.Minute

type options struct {
	grafanaURL      string
	grafanaUser     string
	grafanaPassword string
	serviceName     string
	exemplarMetric  string
	window          time.Duration
	traffic         time.Duration
	settle          time.Duration
	ci              bool
	baseURL         string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "obscheck", Short: "Verify catalog metrics, traces and logs correlation"}
	cmd.PersistentFlags().StringVar(&opts.grafanaURL, "grafana-url", "http://localhost:3000", "Grafana base URL")
	cmd.PersistentFlags().StringVar(&opts.grafanaUser, "grafana-user", "admin", "Grafana username")
	cmd.PersistentFlags().StringVar(&opts.grafanaPassword, "grafana-password", "admin", "Grafana password")
	cmd.PersistentFlags().StringVar(&opts.serviceName, "service-name", "catalog-editor", "OTel service name")
	cmd.PersistentFlags().StringVar(&opts.exemplarMetric, "exemplar-metric", "catalog_operation_duration_seconds_bucket", "histogram queried for exemplars")
	cmd.PersistentFlags().DurationVar(&opts.window, "window", 20*time.Minute, "query lookback window")
	cmd.PersistentFlags().DurationVar(&opts.traffic, "traffic", 6*time.Second, "duration of generated traffic")
	cmd.PersistentFlags().DurationVar(&opts.settle, "settle", 8*time.Second, "wait for exporters to flush after traffic")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL for traffic")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate catalog traffic and validate exemplar->trace->log path",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			details, err := run(opts, "obscheck run", func(ctx context.Context) ([]string, error) {
				return check(ctx, *opts)
			})
			common.Finish(cmd.Context(), common.Outcome{
				Tool: "obscheck", Command: "run", CI: opts.ci,
				Details: details, Err: err, Started: start, ExitCode: common.ExitCheckFailed,
			})
			return nil
		},
	}
}

func check(ctx context.Context, opts options) ([]string, error) {
	lgRes, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:     opts.baseURL,
		Profile:     "mixed",
		Duration:    opts.traffic,
		RPS:         20,
		Concurrency: 6,
		Seed:        42,
	})
	if err != nil {
		return nil, err
	}
	details := []string{fmt.Sprintf("traffic generated total=%d failures=%d", lgRes.TotalRequests, lgRes.Failures)}
	select {
	case <-time.After(opts.settle):
	case <-ctx.Done():
		return details, ctx.Err()
	}

	traceID, err := fetchTraceIDFromExemplar(ctx, opts)
	if err != nil {
		return details, err
	}
	details = append(details, "exemplar trace_id="+traceID)

	if err := verifyTempoTrace(ctx, opts, traceID); err != nil {
		return details, err
	}
	details = append(details, "tempo trace lookup: ok")

	if err := verifyLokiTraceLogs(ctx, opts, traceID); err != nil {
		return details, err
	}
	return append(details, "loki trace correlation: ok"), nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.RunWithTimeout(title, checkTimeout, fn)
}

func grafanaGET(ctx context.Context, opts options, path string, into any) error {
	u, err := url.Parse(opts.grafanaURL)
	if err != nil {
		return err
	}
	rel, err := url.Parse(path)
	if err != nil {
		return err
	}
	u.Path = strings.TrimRight(u.Path, "/") + rel.Path
	u.RawQuery = rel.RawQuery
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(opts.grafanaUser, opts.grafanaPassword)
	resp, err := (&http.Client{Timeout: 20 * time.Second}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("grafana request failed: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, into)
}

type exemplarResponse struct {
	Data []struct {
		Exemplars []struct {
			Labels map[string]string `json:"labels"`
		} `json:"exemplars"`
	} `json:"data"`
}

func fetchTraceIDFromExemplar(ctx context.Context, opts options) (string, error) {
	start := time.Now().Add(-opts.window).Unix()
	end := time.Now().Unix()
	path := fmt.Sprintf("/api/datasources/proxy/1/api/v1/query_exemplars?query=%s&start=%d&end=%d",
		url.QueryEscape(opts.exemplarMetric), start, end)
	var payload exemplarResponse
	if err := grafanaGET(ctx, opts, path, &payload); err != nil {
		return "", err
	}
	for _, series := range payload.Data {
		for _, e := range series.Exemplars {
			if tid := e.Labels["trace_id"]; len(tid) == 32 {
				return tid, nil
			}
		}
	}
	return "", fmt.Errorf("no trace_id exemplar found for %s", opts.exemplarMetric)
}

func verifyTempoTrace(ctx context.Context, opts options, traceID string) error {
	var payload struct {
		Batches []json.RawMessage `json:"batches"`
	}
	if err := grafanaGET(ctx, opts, "/api/datasources/proxy/3/api/traces/"+traceID, &payload); err != nil {
		return err
	}
	if len(payload.Batches) == 0 {
		return fmt.Errorf("tempo trace has no batches")
	}
	return nil
}

func verifyLokiTraceLogs(ctx context.Context, opts options, traceID string) error {
	nowNS := time.Now().UnixNano()
	startNS := nowNS - int64(30*time.Minute)
	q := url.QueryEscape(fmt.Sprintf("{service_name=\"%s\"} |= \"%s\"", opts.serviceName, traceID))
	path := fmt.Sprintf("/api/datasources/proxy/2/loki/api/v1/query_range?query=%s&start=%d&end=%d&limit=1&direction=backward", q, startNS, nowNS)
	var payload struct {
		Data struct {
			Result []json.RawMessage `json:"result"`
		} `json:"data"`
	}
	if err := grafanaGET(ctx, opts, path, &payload); err != nil {
		return err
	}
	if len(payload.Data.Result) == 0 {
		return fmt.Errorf("no correlated loki logs found for trace_id %s", traceID)
	}
	return nil
}
