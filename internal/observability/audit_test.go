package observability

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"
)

type auditCaptureHandler struct {
	records []slog.Record
}

func (h *auditCaptureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *auditCaptureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *auditCaptureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *auditCaptureHandler) WithGroup(string) slog.Handler      { return h }

func TestBuildAuditEventIncludesRequiredFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/products", nil)
	req.Header.Set("X-Request-Id", "req-test-1")
	req.RemoteAddr = "127.0.0.1:12345"

	ev := BuildAuditEvent(req, AuditInput{
		EventName:  "product.create",
		TargetType: "product",
		TargetID:   "1700000000000",
		Action:     "create",
		Outcome:    "success",
		Reason:     "product_created",
	})

	if ev.EventVersion != 1 {
		t.Fatalf("expected event version 1, got %d", ev.EventVersion)
	}
	if ev.AuditID == "" || ev.ActorIP != "127.0.0.1" {
		t.Fatalf("expected audit id and actor ip, got %+v", ev)
	}
	if ev.RequestID != "req-test-1" {
		t.Fatalf("unexpected request id: %s", ev.RequestID)
	}
	if _, err := time.Parse(time.RFC3339, ev.TS); err != nil {
		t.Fatalf("expected RFC3339 ts, got %q err=%v", ev.TS, err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestAuditEventValidateRejectsMissingEventName(t *testing.T) {
	ev := AuditEvent{
		EventVersion: 1,
		TargetType:   "product",
		Action:       "delete",
		Outcome:      "success",
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for missing event_name")
	}
}

func TestEmitAuditLogsOneRecord(t *testing.T) {
	orig := slog.Default()
	capture := &auditCaptureHandler{}
	slog.SetDefault(slog.New(capture))
	t.Cleanup(func() { slog.SetDefault(orig) })

	req := httptest.NewRequest("DELETE", "/api/v1/products?confirm=true", nil)
	EmitAudit(req, AuditInput{
		EventName:  "product.clear",
		TargetType: "collection",
		TargetID:   "products",
		Action:     "clear",
		Outcome:    "success",
		Reason:     "collection_cleared",
	}, "removed", 3)

	if len(capture.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(capture.records))
	}
	if capture.records[0].Message != "audit" {
		t.Fatalf("unexpected message %q", capture.records[0].Message)
	}
}
