package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/catalog-editor/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns the OTel providers. Disabled signals keep a local provider
// (or none for logs) and export nothing.
type Runtime struct {
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider

	signals []string
}

func InitRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{}
	lp, err := InitLogs(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init logs: %w", err)
	}
	rt.LoggerProvider = lp

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	rt.MeterProvider = mp

	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	rt.TracerProvider = tp

	for _, sig := range []struct {
		name    string
		enabled bool
	}{
		{"logs", cfg.OTELLogsEnabled},
		{"metrics", cfg.OTELMetricsEnabled},
		{"traces", cfg.OTELTracingEnabled},
	} {
		if sig.enabled {
			rt.signals = append(rt.signals, sig.name)
		}
	}
	logger.Info("observability runtime ready", "service", cfg.OTELServiceName, "signals", rt.Signals())
	return rt, nil
}

// Signals lists the signals exported over OTLP.
func (r *Runtime) Signals() []string {
	if r == nil {
		return nil
	}
	return r.signals
}

// Shutdown flushes every provider, traces last so spans from the final
// requests still carry their logs and metrics.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.LoggerProvider != nil {
		if err := r.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown logs: %w", err))
		}
	}
	if r.MeterProvider != nil {
		if err := r.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown metrics: %w", err))
		}
	}
	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown traces: %w", err))
		}
	}
	return errors.Join(errs...)
}
