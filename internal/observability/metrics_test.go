package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sandeepkv93/catalog-editor/internal/config"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordMetricHelpersNoPanicWhenUninitialized(t *testing.T) {
	ctx := context.Background()
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	RecordCatalogOperation(ctx, "create", "success", time.Millisecond)
	RecordStoreOperation(ctx, "bolt", "load", "success")
	RecordStoreCollectionSize(ctx, "save", 3)
	RecordViewQuery(ctx, "price-low", true, 2)
	RecordHealthCheckResult(ctx, "slot", "ready")
	RecordHealthCheckDuration(ctx, "slot", 5*time.Millisecond)
	RecordToolCommandRun(ctx, "catalog", "list", "success")
	RecordToolCommandDuration(ctx, "seed", "apply", "success", 30*time.Millisecond)
	RecordLoadgenRequest(ctx, "2xx", "mixed")
	RecordMiddlewareEvent(ctx, "cors", "preflight")
}

func TestRecordMetricHelpersEmitExpectedLabelCardinality(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := newAppMetrics(provider.Meter("observability-test"))
	if err != nil {
		t.Fatalf("create app metrics: %v", err)
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	RecordCatalogOperation(ctx, "create", "success", time.Millisecond)
	RecordStoreOperation(ctx, "bolt", "load", "success")
	RecordStoreCollectionSize(ctx, "save", 3)
	RecordViewQuery(ctx, "", false, 2)
	RecordHealthCheckResult(ctx, "slot", "ready")
	RecordHealthCheckDuration(ctx, "slot", 5*time.Millisecond)
	RecordToolCommandRun(ctx, "catalog", "list", "success")
	RecordToolCommandDuration(ctx, "seed", "apply", "success", 30*time.Millisecond)
	RecordLoadgenRequest(ctx, "2xx", "mixed")
	RecordMiddlewareEvent(ctx, "rate_limit", "denied")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	expected := map[string]int{
		"catalog.operation.events":      2,
		"catalog.operation.duration":    2,
		"catalog.store.operations":      3,
		"catalog.store.collection_size": 1,
		"catalog.view.queries":          2,
		"catalog.view.result_size":      2,
		"health.check.results":          2,
		"health.check.duration":         1,
		"tool.command.runs":             3,
		"tool.command.duration":         3,
		"loadgen.requests":              2,
		"http.middleware.events":        2,
	}

	observed := collectLabelCardinality(t, rm)
	for metricName, want := range expected {
		got, ok := observed[metricName]
		if !ok {
			t.Fatalf("missing metric datapoint for %s", metricName)
		}
		if got != want {
			t.Fatalf("metric %s label cardinality mismatch: got=%d want=%d", metricName, got, want)
		}
	}
}

func TestRecordViewQueryLabelsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := newAppMetrics(provider.Meter("observability-test"))
	if err != nil {
		t.Fatalf("create app metrics: %v", err)
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	RecordViewQuery(ctx, "", false, 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "catalog.view.queries" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 1 {
				t.Fatalf("unexpected data for %s: %+v", md.Name, md.Data)
			}
			v, ok := sum.DataPoints[0].Attributes.Value("sort")
			if !ok || v.AsString() != "insertion" {
				t.Fatalf("expected sort=insertion, got %v", v.AsString())
			}
			return
		}
	}
	t.Fatal("catalog.view.queries not collected")
}

func TestInitMetricsDisabledReturnsProvider(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{OTELMetricsEnabled: false}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("init metrics disabled: %v", err)
	}
	if mp == nil {
		t.Fatal("expected non-nil meter provider")
	}
	_ = mp.Shutdown(ctx)
}

func collectLabelCardinality(t *testing.T, rm metricdata.ResourceMetrics) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Sum[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			}
		}
	}
	return out
}
