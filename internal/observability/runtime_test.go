package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sandeepkv93/catalog-editor/internal/config"
)

func TestInitRuntimeAllSignalsDisabled(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rt, err := InitRuntime(ctx, &config.Config{OTELServiceName: "catalog-editor"}, logger)
	if err != nil {
		t.Fatalf("init runtime: %v", err)
	}
	if len(rt.Signals()) != 0 {
		t.Fatalf("expected no exported signals, got %v", rt.Signals())
	}
	if rt.LoggerProvider != nil {
		t.Fatal("expected no log provider when logs are disabled")
	}
	if rt.MeterProvider == nil || rt.TracerProvider == nil {
		t.Fatal("expected local meter and tracer providers")
	}
	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNilRuntimeIsSafe(t *testing.T) {
	var rt *Runtime
	if rt.Signals() != nil {
		t.Fatal("expected nil signals")
	}
	if err := rt.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown nil runtime: %v", err)
	}
}
