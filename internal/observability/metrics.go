package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/catalog-editor/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

const meterName = "catalog-editor"

type AppMetrics struct {
	catalogOperationCounter  metric.Int64Counter
	catalogOperationDuration metric.Float64Histogram
	storeOperationCounter    metric.Int64Counter
	storeCollectionSize      metric.Float64Histogram
	viewQueryCounter         metric.Int64Counter
	viewResultSize           metric.Float64Histogram
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
	toolCommandCounter       metric.Int64Counter
	toolCommandDuration      metric.Float64Histogram
	loadgenRequestCounter    metric.Int64Counter
	middlewareEventCounter   metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := catalogResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "catalog.operation.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint, "interval", cfg.OTELMetricsExportInterval.String())
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	catalogOperationCounter, err := meter.Int64Counter("catalog.operation.events")
	if err != nil {
		return nil, err
	}
	catalogOperationDuration, err := meter.Float64Histogram(
		"catalog.operation.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of catalog mutations and reads in seconds"),
	)
	if err != nil {
		return nil, err
	}
	storeOperationCounter, err := meter.Int64Counter("catalog.store.operations")
	if err != nil {
		return nil, err
	}
	storeCollectionSize, err := meter.Float64Histogram(
		"catalog.store.collection_size",
		metric.WithDescription("Number of products in the collection on load and save"),
	)
	if err != nil {
		return nil, err
	}
	viewQueryCounter, err := meter.Int64Counter("catalog.view.queries")
	if err != nil {
		return nil, err
	}
	viewResultSize, err := meter.Float64Histogram(
		"catalog.view.result_size",
		metric.WithDescription("Number of products returned by a view query"),
	)
	if err != nil {
		return nil, err
	}
	healthCheckResultCounter, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	healthCheckDuration, err := meter.Float64Histogram(
		"health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds"),
	)
	if err != nil {
		return nil, err
	}
	toolCommandCounter, err := meter.Int64Counter("tool.command.runs")
	if err != nil {
		return nil, err
	}
	toolCommandDuration, err := meter.Float64Histogram(
		"tool.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of tool command runs in seconds"),
	)
	if err != nil {
		return nil, err
	}
	loadgenRequestCounter, err := meter.Int64Counter("loadgen.requests")
	if err != nil {
		return nil, err
	}
	middlewareEventCounter, err := meter.Int64Counter("http.middleware.events")
	if err != nil {
		return nil, err
	}
	return &AppMetrics{
		catalogOperationCounter:  catalogOperationCounter,
		catalogOperationDuration: catalogOperationDuration,
		storeOperationCounter:    storeOperationCounter,
		storeCollectionSize:      storeCollectionSize,
		viewQueryCounter:         viewQueryCounter,
		viewResultSize:           viewResultSize,
		healthCheckResultCounter: healthCheckResultCounter,
		healthCheckDuration:      healthCheckDuration,
		toolCommandCounter:       toolCommandCounter,
		toolCommandDuration:      toolCommandDuration,
		loadgenRequestCounter:    loadgenRequestCounter,
		middlewareEventCounter:   middlewareEventCounter,
	}, nil
}

func currentMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordCatalogOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.catalogOperationCounter.Add(ctx, 1, attrs)
	m.catalogOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

func RecordStoreOperation(ctx context.Context, backend, operation, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.storeOperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordStoreCollectionSize(ctx context.Context, operation string, size int) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.storeCollectionSize.Record(ctx, float64(size), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func RecordViewQuery(ctx context.Context, sort string, filtered bool, resultSize int) {
	m := currentMetrics()
	if m == nil {
		return
	}
	if sort == "" {
		sort = "insertion"
	}
	attrs := metric.WithAttributes(
		attribute.String("sort", sort),
		attribute.Bool("filtered", filtered),
	)
	m.viewQueryCounter.Add(ctx, 1, attrs)
	m.viewResultSize.Record(ctx, float64(resultSize), attrs)
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("check", check),
	))
}

func RecordToolCommandRun(ctx context.Context, tool, command, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.toolCommandCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordToolCommandDuration(ctx context.Context, tool, command, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.toolCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

func RecordLoadgenRequest(ctx context.Context, statusClass, profile string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.loadgenRequestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status_class", statusClass),
		attribute.String("profile", profile),
	))
}

func RecordMiddlewareEvent(ctx context.Context, middleware, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.middlewareEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("middleware", middleware),
		attribute.String("outcome", outcome),
	))
}
