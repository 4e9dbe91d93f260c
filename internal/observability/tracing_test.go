package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sandeepkv93/catalog-editor/internal/config"
)

func TestEndSpanMarksOnlyErrorsFailed(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	for _, outcome := range []string{"success", "not_found", "error"} {
		_, span := tracer.Start(context.Background(), "catalog."+outcome)
		EndSpan(span, outcome)
	}

	ended := recorder.Ended()
	if len(ended) != 3 {
		t.Fatalf("expected 3 ended spans, got %d", len(ended))
	}
	for i, want := range []codes.Code{codes.Unset, codes.Unset, codes.Error} {
		if got := ended[i].Status().Code; got != want {
			t.Fatalf("span %s: expected status %v, got %v", ended[i].Name(), want, got)
		}
	}
	found := false
	for _, kv := range ended[1].Attributes() {
		if kv.Key == "catalog.outcome" && kv.Value.AsString() == "not_found" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected outcome attribute, got %v", ended[1].Attributes())
	}
}

func TestCatalogResourceCarriesStoreBackend(t *testing.T) {
	res, err := catalogResource(context.Background(), &config.Config{
		OTELServiceName: "catalog-editor",
		OTELEnvironment: "test",
		StoreBackend:    "redis",
	})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	set := res.Set()
	if v, ok := set.Value(attribute.Key("catalog.store_backend")); !ok || v.AsString() != "redis" {
		t.Fatalf("expected store backend attribute, got %v", res.Attributes())
	}
	if v, ok := set.Value(attribute.Key("service.name")); !ok || v.AsString() != "catalog-editor" {
		t.Fatalf("expected service name, got %v", res.Attributes())
	}
}
